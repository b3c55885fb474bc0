package room

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/imtaco/voice-stage/internal/errors"
	"github.com/imtaco/voice-stage/internal/log"
)

// TransitionType selects the choreography of an audio role change.
type TransitionType string

const (
	// TransitionInitial sets up speakers at full gain with no fade.
	TransitionInitial TransitionType = "initial"
	// TransitionPromotion connects new speakers and fades them in.
	TransitionPromotion TransitionType = "promotion"
	// TransitionDemotion fades speakers out, then releases their streams.
	TransitionDemotion TransitionType = "demotion"
	// TransitionReplacement fades old speakers out while connecting the
	// new ones, fades the new ones in, then releases the old streams.
	TransitionReplacement TransitionType = "replacement"
)

type transitionPhase int

const (
	phaseIdle transitionPhase = iota
	phaseFadingOut
	phaseConnecting
	phaseFadingIn
)

const (
	fadeSteps = 10

	keyFadeOut = "transition.fade_out"
	keyFadeIn  = "transition.fade_in"
	keyConnect = "transition.connect"
)

// TransitionRequest describes one requested role change. Incoming members
// become audible, outgoing members are released. OnDone fires exactly once
// when the transition settles, with the error that aborted it, if any.
type TransitionRequest struct {
	Type      TransitionType
	Incoming  []string
	Outgoing  []string
	Emergency bool
	OnDone    func(err error)
}

// TransitionState is the externally visible progress of the active
// transition.
type TransitionState struct {
	Type        TransitionType `json:"type"`
	OutgoingIDs []string       `json:"outgoingIds"`
	IncomingIDs []string       `json:"incomingIds"`
	StartedAt   time.Time      `json:"startedAt"`
}

// timedScheduler is the delayed-continuation hook the orchestrator runs
// its fades and connect delays on. Callbacks must re-enter on the same
// goroutine that calls Request.
type timedScheduler interface {
	Schedule(key string, delay time.Duration, fn func())
	Cancel(key string)
}

type fadeConfig struct {
	fadeDuration          time.Duration
	emergencyFadeDuration time.Duration
	connectDelay          time.Duration
}

// Orchestrator serializes audio role transitions. One transition runs at
// a time; requests arriving while busy queue in FIFO order and replay as
// the active one settles. NOT thread-safe; the service loop owns it.
type Orchestrator struct {
	engine   AudioEngine
	timers   timedScheduler
	clock    clockwork.Clock
	cfg      fadeConfig
	logger   *log.Logger
	baseCtx  context.Context
	onSettle func()

	phase   transitionPhase
	cur     *TransitionRequest
	state   *TransitionState
	barrier int
	queue   []TransitionRequest
}

func NewOrchestrator(
	engine AudioEngine,
	timers timedScheduler,
	clock clockwork.Clock,
	cfg fadeConfig,
	logger *log.Logger,
) *Orchestrator {
	return &Orchestrator{
		engine:  engine,
		timers:  timers,
		clock:   clock,
		cfg:     cfg,
		logger:  logger.Module("transition"),
		baseCtx: context.Background(),
	}
}

func (o *Orchestrator) Busy() bool {
	return o.phase != phaseIdle
}

func (o *Orchestrator) State() *TransitionState {
	return o.state
}

// Involves reports whether userID takes part in the active transition.
func (o *Orchestrator) Involves(userID string) bool {
	if o.cur == nil {
		return false
	}
	for _, id := range o.cur.Incoming {
		if id == userID {
			return true
		}
	}
	for _, id := range o.cur.Outgoing {
		if id == userID {
			return true
		}
	}
	return false
}

// Request starts req immediately when idle, otherwise queues it.
func (o *Orchestrator) Request(req TransitionRequest) {
	if o.phase != phaseIdle {
		o.logger.Debug("transition queued",
			log.String("type", string(req.Type)),
		)
		o.queue = append(o.queue, req)
		return
	}
	o.begin(req)
}

// Reset aborts everything: active transition, queued requests, timers.
// No OnDone callbacks fire; the caller is tearing the room down.
func (o *Orchestrator) Reset() {
	o.timers.Cancel(keyFadeOut)
	o.timers.Cancel(keyFadeIn)
	o.timers.Cancel(keyConnect)
	o.phase = phaseIdle
	o.cur = nil
	o.state = nil
	o.barrier = 0
	o.queue = nil
}

func (o *Orchestrator) begin(req TransitionRequest) {
	o.cur = &req
	o.state = &TransitionState{
		Type:        req.Type,
		OutgoingIDs: req.Outgoing,
		IncomingIDs: req.Incoming,
		StartedAt:   o.clock.Now(),
	}
	o.logger.Info("transition started",
		log.String("type", string(req.Type)),
		log.Strings("incoming", req.Incoming),
		log.Strings("outgoing", req.Outgoing),
		log.Bool("emergency", req.Emergency),
	)

	switch req.Type {
	case TransitionInitial:
		o.phase = phaseConnecting
		if err := o.addStreams(req.Incoming, 1.0); err != nil {
			o.settle(err)
			return
		}
		o.settle(nil)

	case TransitionPromotion:
		o.phase = phaseConnecting
		if err := o.addStreams(req.Incoming, 0); err != nil {
			o.settle(err)
			return
		}
		o.timers.Schedule(keyConnect, o.cfg.connectDelay, o.startFadeIn)

	case TransitionDemotion:
		o.phase = phaseFadingOut
		o.startFade(keyFadeOut, req.Outgoing, 1, 0, o.fadeDuration(&req), func() {
			o.removeStreams(req.Outgoing)
			o.settle(nil)
		})

	case TransitionReplacement:
		o.phase = phaseFadingOut
		if err := o.addStreams(req.Incoming, 0); err != nil {
			o.settle(err)
			return
		}
		// fade-out and connect delay run concurrently; fade-in waits on both
		o.barrier = 2
		o.startFade(keyFadeOut, req.Outgoing, 1, 0, o.fadeDuration(&req), o.arm)
		o.timers.Schedule(keyConnect, o.cfg.connectDelay, o.arm)

	default:
		o.settle(errors.Newf(ErrTransition, "unknown transition type %q", req.Type))
	}
}

func (o *Orchestrator) arm() {
	o.barrier--
	if o.barrier <= 0 {
		o.startFadeIn()
	}
}

func (o *Orchestrator) startFadeIn() {
	req := o.cur
	if req == nil {
		return
	}
	o.phase = phaseFadingIn
	o.startFade(keyFadeIn, req.Incoming, 0, 1, o.fadeDuration(req), func() {
		if req.Type == TransitionReplacement {
			o.removeStreams(req.Outgoing)
		}
		o.settle(nil)
	})
}

func (o *Orchestrator) fadeDuration(req *TransitionRequest) time.Duration {
	if req.Emergency {
		return o.cfg.emergencyFadeDuration
	}
	return o.cfg.fadeDuration
}

type fadeJob struct {
	key      string
	ids      []string
	from, to float64
	step     int
	interval time.Duration
	done     func()
}

func (o *Orchestrator) startFade(key string, ids []string, from, to float64, dur time.Duration, done func()) {
	if len(ids) == 0 || dur <= 0 {
		o.setGains(ids, to)
		done()
		return
	}
	j := &fadeJob{
		key:      key,
		ids:      ids,
		from:     from,
		to:       to,
		interval: dur / fadeSteps,
		done:     done,
	}
	o.timers.Schedule(j.key, j.interval, func() { o.fadeStep(j) })
}

func (o *Orchestrator) fadeStep(j *fadeJob) {
	j.step++
	gain := j.from + (j.to-j.from)*float64(j.step)/float64(fadeSteps)
	o.setGains(j.ids, gain)

	if j.step >= fadeSteps {
		j.done()
		return
	}
	o.timers.Schedule(j.key, j.interval, func() { o.fadeStep(j) })
}

func (o *Orchestrator) addStreams(ids []string, gain float64) error {
	for i, id := range ids {
		if err := o.engine.AddStream(o.baseCtx, id, gain); err != nil {
			// release anything already connected in this batch
			o.removeStreams(ids[:i])
			return errors.Wrapf(ErrTransition, err, "add stream for %s", id)
		}
	}
	return nil
}

func (o *Orchestrator) removeStreams(ids []string) {
	for _, id := range ids {
		if err := o.engine.RemoveStream(o.baseCtx, id); err != nil {
			o.logger.Warn("remove stream failed",
				log.String("peer_id", id),
				log.Error(err),
			)
		}
	}
}

func (o *Orchestrator) setGains(ids []string, gain float64) {
	for _, id := range ids {
		if err := o.engine.SetGain(o.baseCtx, id, gain); err != nil {
			o.logger.Warn("set gain failed",
				log.String("peer_id", id),
				log.Float64("gain", gain),
				log.Error(err),
			)
		}
	}
}

// settle finalizes the active transition, flushes deferred work via
// onSettle, then starts the next queued request, if any.
func (o *Orchestrator) settle(err error) {
	req := o.cur

	o.timers.Cancel(keyFadeOut)
	o.timers.Cancel(keyFadeIn)
	o.timers.Cancel(keyConnect)
	o.phase = phaseIdle
	o.cur = nil
	o.state = nil
	o.barrier = 0

	if err != nil {
		o.logger.Error("transition failed",
			log.String("type", string(req.Type)),
			log.Error(err),
		)
	} else {
		o.logger.Info("transition completed",
			log.String("type", string(req.Type)),
		)
	}

	if req.OnDone != nil {
		req.OnDone(err)
	}
	if o.onSettle != nil {
		o.onSettle()
	}

	if o.phase == phaseIdle && len(o.queue) > 0 {
		next := o.queue[0]
		o.queue = o.queue[1:]
		o.begin(next)
	}
}
