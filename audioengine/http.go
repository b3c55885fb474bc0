package audioengine

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/imtaco/voice-stage/internal/errors"
	"github.com/imtaco/voice-stage/internal/log"
	"github.com/imtaco/voice-stage/internal/retry"
	"github.com/imtaco/voice-stage/room"
)

var _ room.AudioEngine = (*HTTPEngine)(nil)

// HTTPEngine drives a remote media bridge over its REST API. Stream
// commands are retried with backoff; availability is refreshed by a
// background health probe so CapabilitiesAvailable never blocks.
type HTTPEngine struct {
	baseURL   string
	client    *resty.Client
	retry     retry.Retry
	available atomic.Bool
	logger    *log.Logger

	probeCtx    context.Context
	probeCancel context.CancelFunc
	probeDone   chan struct{}
}

type streamRequest struct {
	PeerID string  `json:"peerId"`
	Gain   float64 `json:"gain"`
}

type gainRequest struct {
	Gain float64 `json:"gain"`
}

func NewHTTP(cfg Config, logger *log.Logger) *HTTPEngine {
	logger = logger.Module("audio_http")
	ctx, cancel := context.WithCancel(context.Background())

	e := &HTTPEngine{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client: resty.New().
			SetHeader("Content-Type", "application/json").
			SetTimeout(cfg.Timeout),
		retry: retry.New(logger,
			cfg.RetryInitialInterval,
			cfg.RetryMaxInterval,
			cfg.RetryMaxElapsedTime,
		),
		logger:      logger,
		probeCtx:    ctx,
		probeCancel: cancel,
		probeDone:   make(chan struct{}),
	}
	e.available.Store(e.probe(ctx))

	go e.probeLoop(cfg.ProbeInterval)
	return e
}

func (e *HTTPEngine) Close() error {
	e.probeCancel()
	<-e.probeDone
	return nil
}

func (e *HTTPEngine) AddStream(ctx context.Context, peerID string, gain float64) error {
	return e.instrument(ctx, e.retry.Do(ctx, func() error {
		resp, err := e.client.R().
			SetContext(ctx).
			SetBody(streamRequest{PeerID: peerID, Gain: gain}).
			Post(e.baseURL + "/api/streams")
		return e.checkResp(resp, err, "add stream")
	}))
}

func (e *HTTPEngine) RemoveStream(ctx context.Context, peerID string) error {
	return e.instrument(ctx, e.retry.Do(ctx, func() error {
		resp, err := e.client.R().
			SetContext(ctx).
			Delete(e.baseURL + "/api/streams/" + peerID)
		return e.checkResp(resp, err, "remove stream")
	}))
}

func (e *HTTPEngine) SetGain(ctx context.Context, peerID string, gain float64) error {
	return e.instrument(ctx, e.retry.Do(ctx, func() error {
		resp, err := e.client.R().
			SetContext(ctx).
			SetBody(gainRequest{Gain: gain}).
			Put(e.baseURL + "/api/streams/" + peerID + "/gain")
		return e.checkResp(resp, err, "set gain")
	}))
}

func (e *HTTPEngine) CapabilitiesAvailable() bool {
	return e.available.Load()
}

func (e *HTTPEngine) instrument(ctx context.Context, err error) error {
	bridgeCommands.Add(ctx, 1)
	if err != nil {
		bridgeCommandFailures.Add(ctx, 1)
	}
	return err
}

func (e *HTTPEngine) checkResp(resp *resty.Response, err error, op string) error {
	if err != nil {
		return errors.Wrapf(ErrBridgeUnavailable, err, "%s", op)
	}
	if resp.IsError() {
		return errors.Newf(ErrNoneSuccessResponse,
			"%s: bridge http error (code: %d, resp: %s)", op, resp.StatusCode(), resp.String())
	}
	return nil
}

func (e *HTTPEngine) probe(ctx context.Context) bool {
	resp, err := e.client.R().
		SetContext(ctx).
		Get(e.baseURL + "/healthz")
	if err != nil || resp.IsError() {
		return false
	}
	return true
}

func (e *HTTPEngine) probeLoop(interval time.Duration) {
	defer close(e.probeDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-e.probeCtx.Done():
			return
		case <-ticker.C:
			up := e.probe(e.probeCtx)
			if up != e.available.Load() {
				bridgeFlips.Add(e.probeCtx, 1)
				e.logger.Warn("bridge availability changed",
					log.Bool("available", up),
				)
			}
			e.available.Store(up)
		}
	}
}
