package room

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/imtaco/voice-stage/internal/errors"
	"github.com/imtaco/voice-stage/internal/log"
)

const departedCacheSize = 128

// Relay forwards opaque signaling envelopes between members. It reads the
// registry but never mutates it; delivery is fire-and-forget so a slow
// peer cannot stall the service loop.
type Relay struct {
	reg      *Registry
	departed *lru.Cache[string, struct{}]
	logger   *log.Logger
}

func NewRelay(reg *Registry, logger *log.Logger) *Relay {
	departed, err := lru.New[string, struct{}](departedCacheSize)
	if err != nil {
		panic(err)
	}
	return &Relay{
		reg:      reg,
		departed: departed,
		logger:   logger.Module("relay"),
	}
}

// MarkDeparted remembers a recently removed member so in-flight signals
// addressed to it are dropped quietly instead of logged as anomalies.
func (r *Relay) MarkDeparted(userID string) {
	r.departed.Add(userID, struct{}{})
}

// Forward routes msg to its target. Unknown senders are rejected; unknown
// targets are dropped, loudly unless the target departed recently.
func (r *Relay) Forward(ctx context.Context, msg SignalMessage) error {
	if _, ok := r.reg.Member(msg.FromID); !ok {
		return errors.Newf(ErrSignaling, "signal from unknown member %s", msg.FromID)
	}

	target, ok := r.reg.Member(msg.ToID)
	if !ok {
		signalsDropped.Add(ctx, 1)
		if _, recent := r.departed.Get(msg.ToID); recent {
			r.logger.Debug("signal to departed member dropped",
				log.String("to", msg.ToID),
			)
			return nil
		}
		r.logger.Warn("signal to unknown member dropped",
			log.String("from", msg.FromID),
			log.String("to", msg.ToID),
			log.String("type", string(msg.Kind)),
		)
		return nil
	}

	signalsForwarded.Add(ctx, 1)
	err := target.Session.Conn.Notify(ctx, MethodSignal, SignalForwarded{
		Kind:    msg.Kind,
		FromID:  msg.FromID,
		Payload: msg.Payload,
	})
	if err != nil {
		// non-fatal: the liveness sweep deals with dead connections
		r.logger.Warn("signal delivery failed",
			log.String("to", msg.ToID),
			log.Error(err),
		)
	}
	return nil
}

// NotifyListenerReady tells each addressed speaker that a listener is
// ready to receive their media.
func (r *Relay) NotifyListenerReady(ctx context.Context, listenerID string, speakerIDs []string) error {
	if _, ok := r.reg.Member(listenerID); !ok {
		return errors.Newf(ErrSignaling, "readiness from unknown member %s", listenerID)
	}

	for _, id := range speakerIDs {
		sp, ok := r.reg.Member(id)
		if !ok || !sp.Role.IsSpeaker() {
			r.logger.Debug("readiness for non-speaker dropped",
				log.String("speaker", id),
			)
			continue
		}
		if err := sp.Session.Conn.Notify(ctx, MethodListenerReady, ListenerReadyEvent{
			ListenerID: listenerID,
		}); err != nil {
			r.logger.Warn("readiness delivery failed",
				log.String("to", id),
				log.Error(err),
			)
		}
	}
	return nil
}
