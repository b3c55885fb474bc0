package room

import (
	"context"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/jonboulle/clockwork"

	"github.com/imtaco/voice-stage/internal/errors"
	"github.com/imtaco/voice-stage/internal/log"
	"github.com/imtaco/voice-stage/internal/scheduler"
)

const (
	opQueueSize = 256
	keySweep    = "liveness.sweep"

	maxDisplayNameLen = 32
	maxAudioLevel     = 100
)

// Service is the single room instance. All state lives behind one loop
// goroutine: public methods post closures onto chOps and wait; scheduled
// continuations (fades, connect delays, sweeps) arrive on the same loop
// via the keyed scheduler, so nothing inside ever needs a lock.
type Service struct {
	cfg    Config
	engine AudioEngine
	clock  clockwork.Clock
	logger *log.Logger

	reg      *Registry
	promo    *PromotionEngine
	liveness *LivenessTracker
	relay    *Relay
	bcast    *Broadcaster
	orch     *Orchestrator

	sched  *scheduler.KeyedScheduler
	timers map[string]func()

	chOps    chan func()
	deferred []func()

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func NewService(cfg Config, engine AudioEngine, logger *log.Logger) *Service {
	return NewServiceWithClock(cfg, engine, logger, clockwork.NewRealClock())
}

func NewServiceWithClock(cfg Config, engine AudioEngine, logger *log.Logger, clock clockwork.Clock) *Service {
	logger = logger.Module("room")
	ctx, cancel := context.WithCancel(context.Background())

	s := &Service{
		cfg:    cfg,
		engine: engine,
		clock:  clock,
		logger: logger,
		sched:  scheduler.NewKeyedSchedulerWithClock(logger, clock),
		timers: make(map[string]func()),
		chOps:  make(chan func(), opQueueSize),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	s.reg = NewRegistry(cfg.ID, cfg.MaxSpeakers, clock)
	s.promo = NewPromotionEngine(s.reg, logger)
	s.liveness = NewLivenessTracker(logger)
	s.relay = NewRelay(s.reg, logger)
	s.bcast = NewBroadcaster(s.reg, logger)
	s.orch = NewOrchestrator(engine, s, clock, fadeConfig{
		fadeDuration:          cfg.FadeDuration,
		emergencyFadeDuration: cfg.EmergencyFadeDuration,
		connectDelay:          cfg.ConnectDelay,
	}, logger)
	s.orch.onSettle = s.flushDeferred

	go s.loop()
	s.chOps <- func() {
		s.Schedule(keySweep, s.cfg.SweepInterval, s.runSweep)
	}
	return s
}

func (s *Service) Shutdown() {
	s.cancel()
	<-s.done
	s.sched.Shutdown()
}

// Schedule registers a delayed continuation on the service loop.
// Loop-goroutine only.
func (s *Service) Schedule(key string, delay time.Duration, fn func()) {
	s.timers[key] = fn
	s.sched.Enqueue(key, delay)
}

func (s *Service) Cancel(key string) {
	delete(s.timers, key)
	s.sched.Cancel(key)
}

func (s *Service) loop() {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			return
		case op := <-s.chOps:
			op()
		case key, ok := <-s.sched.Chan():
			if !ok {
				return
			}
			if fn, exists := s.timers[key]; exists {
				delete(s.timers, key)
				fn()
			}
		}
	}
}

const (
	opPending int32 = iota
	opRunning
	opAbandoned
)

// do runs fn on the loop goroutine and waits for it to finish. A caller
// that gives up while its op is still queued marks it abandoned and the
// loop skips it, so an operation never runs after its caller saw an
// error. If the loop picked the op up first, do waits it out and
// reports success.
func (s *Service) do(ctx context.Context, fn func()) error {
	var state atomic.Int32
	done := make(chan struct{})
	op := func() {
		defer close(done)
		if !state.CompareAndSwap(opPending, opRunning) {
			return
		}
		fn()
	}

	select {
	case s.chOps <- op:
	case <-s.ctx.Done():
		return errors.New(ErrClosed, "room service stopped")
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-done:
		return nil
	case <-s.ctx.Done():
		if state.CompareAndSwap(opPending, opAbandoned) {
			return errors.New(ErrClosed, "room service stopped")
		}
		<-done
		return nil
	case <-ctx.Done():
		if state.CompareAndSwap(opPending, opAbandoned) {
			return ctx.Err()
		}
		<-done
		return nil
	}
}

type JoinResult struct {
	Snapshot Snapshot
	Role     Role
	Rejoined bool
}

// Join admits a session, assigning speaker role eagerly when a slot is
// open and the audio engine is usable. Joining twice with the same user
// ID is a no-op returning the current assignment.
func (s *Service) Join(ctx context.Context, userID, displayName string, conn Conn) (JoinResult, error) {
	displayName = strings.TrimSpace(displayName)
	if userID == "" {
		return JoinResult{}, errors.New(ErrValidation, "user id is required")
	}
	if displayName == "" || utf8.RuneCountInString(displayName) > maxDisplayNameLen {
		return JoinResult{}, errors.Newf(ErrValidation, "display name must be 1-%d characters", maxDisplayNameLen)
	}

	var res JoinResult
	err := s.do(ctx, func() {
		if m, ok := s.reg.Member(userID); ok {
			// reconnect: rebind the member to the fresh transport or every
			// later notification goes to the superseded socket
			now := s.clock.Now()
			m.Session.Conn = conn
			m.Session.DisplayName = displayName
			m.Session.LastActivityAt = now
			s.liveness.Touch(userID, now)
			res = JoinResult{Snapshot: s.reg.Snapshot(), Role: m.Role, Rejoined: true}

			if err := conn.Notify(s.ctx, MethodRoomJoined, res.Snapshot); err != nil {
				s.logger.Warn("roomJoined notify failed",
					log.String("user_id", userID),
					log.Error(err),
				)
			}
			return
		}

		now := s.clock.Now()
		sess := &Session{
			ID:             userID,
			DisplayName:    displayName,
			Conn:           conn,
			JoinedAt:       now,
			LastActivityAt: now,
		}
		role, _ := s.reg.Add(sess, s.engine.CapabilitiesAvailable())
		s.liveness.Track(userID, now)

		memberJoins.Add(s.ctx, 1)
		membersPresent.Add(s.ctx, 1)
		s.logger.Info("member joined",
			log.String("user_id", userID),
			log.String("role", string(role.Kind)),
		)

		if role.IsSpeaker() {
			ttype := TransitionPromotion
			if len(s.reg.Speakers()) == 1 {
				// first occupant, no one is listening to a fade yet
				ttype = TransitionInitial
			}
			s.requestTransition(TransitionRequest{
				Type:     ttype,
				Incoming: []string{userID},
				OnDone:   s.transitionDone([]string{userID}),
			})
		}

		s.bcast.RoomUpdated(s.ctx)
		s.bcast.QueueUpdated(s.ctx)

		// a failed transition may have rolled the role back already
		if m, ok := s.reg.Member(userID); ok {
			role = m.Role
		}
		res = JoinResult{Snapshot: s.reg.Snapshot(), Role: role}

		if err := conn.Notify(s.ctx, MethodRoomJoined, res.Snapshot); err != nil {
			s.logger.Warn("roomJoined notify failed",
				log.String("user_id", userID),
				log.Error(err),
			)
		}
	})
	return res, err
}

// Leave removes a member voluntarily. Leaving twice, or leaving without
// having joined, is a no-op.
func (s *Service) Leave(ctx context.Context, userID string) error {
	return s.do(ctx, func() {
		s.removeMember(userID, false, "leave")
	})
}

// Disconnect handles an abrupt transport loss: same removal path as Leave
// but with emergency (shortened) fades.
func (s *Service) Disconnect(userID string) {
	err := s.do(context.Background(), func() {
		s.removeMember(userID, true, "disconnect")
	})
	if err != nil {
		s.logger.Warn("disconnect cleanup dropped",
			log.String("user_id", userID),
			log.Error(err),
		)
	}
}

// ForceRemove is the admin removal path. Unlike Leave it reports whether
// the member existed.
func (s *Service) ForceRemove(ctx context.Context, userID string) error {
	var rerr error
	err := s.do(ctx, func() {
		if !s.removeMember(userID, true, "admin") {
			rerr = errors.Newf(ErrState, "unknown member %s", userID)
		}
	})
	if err != nil {
		return err
	}
	return rerr
}

// RequestSpeaker queues the caller's intent to speak. Promotion is strictly
// fair: open slots fill from the queue head, which may not be the caller.
func (s *Service) RequestSpeaker(ctx context.Context, userID string) error {
	var rerr error
	err := s.do(ctx, func() {
		m, ok := s.reg.Member(userID)
		if !ok {
			rerr = errors.Newf(ErrState, "unknown member %s", userID)
			return
		}
		if m.Role.IsSpeaker() {
			promotionRejected.Add(s.ctx, 1)
			rerr = errors.New(ErrState, "already a speaker")
			return
		}
		if !s.engine.CapabilitiesAvailable() {
			promotionRejected.Add(s.ctx, 1)
			rerr = errors.New(ErrState, "voice capability unavailable")
			return
		}
		if s.reg.OpenSlots() <= 0 {
			promotionRejected.Add(s.ctx, 1)
			rerr = errors.New(ErrState, "speaker slots are full")
			return
		}

		s.promoteIntoOpenSlots(false)
	})
	if err != nil {
		return err
	}
	return rerr
}

// Heartbeat refreshes a member's liveness and returns the server time to
// echo back as the acknowledgment.
func (s *Service) Heartbeat(ctx context.Context, userID string) (time.Time, error) {
	var (
		ack  time.Time
		rerr error
	)
	err := s.do(ctx, func() {
		now := s.clock.Now()
		if !s.liveness.Touch(userID, now) {
			rerr = errors.Newf(ErrState, "unknown member %s", userID)
			return
		}
		if m, ok := s.reg.Member(userID); ok {
			m.Session.LastActivityAt = now
		}
		heartbeats.Add(s.ctx, 1)
		ack = now
	})
	if err != nil {
		return time.Time{}, err
	}
	return ack, rerr
}

func (s *Service) SetAudioLevel(ctx context.Context, userID string, level int) error {
	if level < 0 || level > maxAudioLevel {
		return errors.Newf(ErrValidation, "audio level must be 0-%d", maxAudioLevel)
	}
	var rerr error
	err := s.do(ctx, func() {
		m, ok := s.reg.Member(userID)
		if !ok {
			rerr = errors.Newf(ErrState, "unknown member %s", userID)
			return
		}
		m.AudioLevel = level
		s.bcast.AudioLevel(s.ctx, userID, level)
	})
	if err != nil {
		return err
	}
	return rerr
}

func (s *Service) SetMute(ctx context.Context, userID string, muted bool) error {
	var rerr error
	err := s.do(ctx, func() {
		m, ok := s.reg.Member(userID)
		if !ok {
			rerr = errors.Newf(ErrState, "unknown member %s", userID)
			return
		}
		m.IsMuted = muted
		s.bcast.RoomUpdated(s.ctx)
	})
	if err != nil {
		return err
	}
	return rerr
}

// ForwardSignal relays a signaling envelope to its target member.
func (s *Service) ForwardSignal(ctx context.Context, msg SignalMessage) error {
	if msg.FromID == "" || msg.ToID == "" {
		return errors.New(ErrValidation, "signal requires from and to ids")
	}
	var rerr error
	err := s.do(ctx, func() {
		rerr = s.relay.Forward(s.ctx, msg)
	})
	if err != nil {
		return err
	}
	return rerr
}

// ReadyToListen tells the addressed speakers that userID can receive
// their media now.
func (s *Service) ReadyToListen(ctx context.Context, userID string, speakerIDs []string) error {
	var rerr error
	err := s.do(ctx, func() {
		rerr = s.relay.NotifyListenerReady(s.ctx, userID, speakerIDs)
	})
	if err != nil {
		return err
	}
	return rerr
}

func (s *Service) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := s.do(ctx, func() {
		snap = s.reg.Snapshot()
	})
	return snap, err
}

// AdminView is the snapshot plus transition progress, for the admin API.
type AdminView struct {
	Snapshot
	Transition *TransitionState `json:"transition,omitempty"`
}

func (s *Service) View(ctx context.Context) (AdminView, error) {
	var view AdminView
	err := s.do(ctx, func() {
		view = AdminView{
			Snapshot:   s.reg.Snapshot(),
			Transition: s.orch.State(),
		}
	})
	return view, err
}

// Reset tears the room back to empty: members dropped, streams released,
// transitions aborted. Connections stay open so clients can rejoin.
func (s *Service) Reset(ctx context.Context) error {
	return s.do(ctx, func() {
		for _, id := range s.reg.SpeakerIDs() {
			if err := s.engine.RemoveStream(s.ctx, id); err != nil {
				s.logger.Warn("remove stream on reset failed",
					log.String("peer_id", id),
					log.Error(err),
				)
			}
		}

		sessions := s.reg.Clear()
		s.orch.Reset()
		s.liveness.Clear()
		s.deferred = nil
		membersPresent.Add(s.ctx, -int64(len(sessions)))

		for _, sess := range sessions {
			if err := sess.Conn.Notify(s.ctx, MethodRoomReset, map[string]string{"roomId": s.cfg.ID}); err != nil {
				s.logger.Warn("reset notify failed",
					log.String("user_id", sess.ID),
					log.Error(err),
				)
			}
		}
		s.logger.Warn("room reset",
			log.Int("members_dropped", len(sessions)),
		)
	})
}

// removeMember is the single removal path for leave, disconnect, eviction
// and admin removal. Removal of a member involved in the active transition
// is deferred until the transition settles.
func (s *Service) removeMember(userID string, emergency bool, reason string) bool {
	if s.orch.Busy() && s.orch.Involves(userID) {
		s.logger.Debug("removal deferred until transition settles",
			log.String("user_id", userID),
		)
		s.deferred = append(s.deferred, func() {
			s.removeMember(userID, emergency, reason)
		})
		return true
	}

	res := s.reg.Remove(userID)
	if !res.Found {
		return false
	}
	s.liveness.Forget(userID)
	s.relay.MarkDeparted(userID)

	if reason == "eviction" {
		memberEvictions.Add(s.ctx, 1)
	} else {
		memberLeaves.Add(s.ctx, 1)
	}
	membersPresent.Add(s.ctx, -1)
	s.logger.Info("member removed",
		log.String("user_id", userID),
		log.String("reason", reason),
		log.Bool("was_speaker", res.WasSpeaker),
	)

	if res.WasSpeaker {
		s.bcast.SpeakerLeft(s.ctx, userID)
		s.releaseSpeakerSlot(userID, emergency)
	}

	s.bcast.RoomUpdated(s.ctx)
	s.bcast.QueueUpdated(s.ctx)
	return true
}

// releaseSpeakerSlot fills the vacated slot from the queue when possible,
// otherwise just fades the departed stream out.
func (s *Service) releaseSpeakerSlot(departedID string, emergency bool) {
	promoted := s.promo.PromoteToFillSlots()
	if len(promoted) == 0 {
		s.requestTransition(TransitionRequest{
			Type:      TransitionDemotion,
			Outgoing:  []string{departedID},
			Emergency: emergency,
			OnDone:    s.transitionDone(nil),
		})
		return
	}

	ids := memberIDs(promoted)
	promotions.Add(s.ctx, int64(len(ids)))
	s.requestTransition(TransitionRequest{
		Type:      TransitionReplacement,
		Incoming:  ids,
		Outgoing:  []string{departedID},
		Emergency: emergency,
		OnDone:    s.transitionDone(ids),
	})
	for _, m := range promoted {
		s.bcast.RoleChanged(s.ctx, m)
	}
}

// promoteIntoOpenSlots promotes from the queue head into every open slot
// and starts the fade-in.
func (s *Service) promoteIntoOpenSlots(emergency bool) {
	promoted := s.promo.PromoteToFillSlots()
	if len(promoted) == 0 {
		return
	}

	ids := memberIDs(promoted)
	promotions.Add(s.ctx, int64(len(ids)))
	s.requestTransition(TransitionRequest{
		Type:      TransitionPromotion,
		Incoming:  ids,
		Emergency: emergency,
		OnDone:    s.transitionDone(ids),
	})
	for _, m := range promoted {
		s.bcast.RoleChanged(s.ctx, m)
	}
	s.bcast.RoomUpdated(s.ctx)
	s.bcast.QueueUpdated(s.ctx)
}

func (s *Service) requestTransition(req TransitionRequest) {
	transitionsStarted.Add(s.ctx, 1)
	s.orch.Request(req)
}

// transitionDone builds the settle callback: on failure every member the
// transition promoted is rolled back into the listener queue.
func (s *Service) transitionDone(promotedIDs []string) func(error) {
	start := s.clock.Now()
	return func(err error) {
		transitionDuration.Record(s.ctx, s.clock.Now().Sub(start).Seconds())
		if err == nil {
			transitionsCompleted.Add(s.ctx, 1)
			return
		}
		transitionsFailed.Add(s.ctx, 1)

		for _, id := range promotedIDs {
			m, ok := s.promo.Demote(id)
			if !ok {
				continue
			}
			rollbacks.Add(s.ctx, 1)
			s.bcast.RoleChanged(s.ctx, m)
			s.bcast.Error(s.ctx, m, string(ErrTransition), "audio setup failed, returned to the listener queue")
		}
		s.bcast.RoomUpdated(s.ctx)
		s.bcast.QueueUpdated(s.ctx)
	}
}

func (s *Service) flushDeferred() {
	ops := s.deferred
	s.deferred = nil
	for _, op := range ops {
		op()
	}
}

func (s *Service) runSweep() {
	now := s.clock.Now()
	sweepRuns.Add(s.ctx, 1)
	res := s.liveness.Sweep(now, s.cfg.InactivityThreshold, s.cfg.WarnThreshold)

	for _, id := range res.Warned {
		if m, ok := s.reg.Member(id); ok {
			livenessWarned.Add(s.ctx, 1)
			s.bcast.Warning(s.ctx, m, "inactivity", "no activity detected, you will be removed soon")
		}
	}
	for _, id := range res.Stale {
		m, ok := s.reg.Member(id)
		if !ok {
			continue
		}
		conn := m.Session.Conn
		s.bcast.Error(s.ctx, m, "evicted", "removed due to inactivity")
		s.removeMember(id, true, "eviction")
		if err := conn.Close(); err != nil {
			s.logger.Debug("close after eviction failed",
				log.String("user_id", id),
				log.Error(err),
			)
		}
	}

	s.Schedule(keySweep, s.cfg.SweepInterval, s.runSweep)
}

func memberIDs(members []*Member) []string {
	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.Session.ID)
	}
	return ids
}
