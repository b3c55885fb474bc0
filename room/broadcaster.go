package room

import (
	"context"

	"github.com/imtaco/voice-stage/internal/log"
)

// Broadcaster fans room events out to member connections. Calls happen on
// the service loop, so events reach every connection's write buffer in the
// order the room mutated; per-connection pumps preserve that order on the
// wire.
type Broadcaster struct {
	reg    *Registry
	logger *log.Logger
}

func NewBroadcaster(reg *Registry, logger *log.Logger) *Broadcaster {
	return &Broadcaster{
		reg:    reg,
		logger: logger.Module("broadcast"),
	}
}

func (b *Broadcaster) notify(ctx context.Context, m *Member, method string, params any) {
	if err := m.Session.Conn.Notify(ctx, method, params); err != nil {
		b.logger.Warn("notify failed",
			log.String("user_id", m.Session.ID),
			log.String("method", method),
			log.Error(err),
		)
	}
}

// Broadcast sends to every member, speakers first, then listeners in
// queue order.
func (b *Broadcaster) Broadcast(ctx context.Context, method string, params any) {
	for _, m := range b.reg.Speakers() {
		b.notify(ctx, m, method, params)
	}
	for _, m := range b.reg.Listeners() {
		b.notify(ctx, m, method, params)
	}
}

func (b *Broadcaster) RoomUpdated(ctx context.Context) {
	b.Broadcast(ctx, MethodRoomUpdated, b.reg.Snapshot())
}

// QueueUpdated sends each listener its own position.
func (b *Broadcaster) QueueUpdated(ctx context.Context) {
	listeners := b.reg.Listeners()
	for _, m := range listeners {
		b.notify(ctx, m, MethodQueueUpdated, QueueUpdatedEvent{
			Position: m.Role.QueuePosition,
			Total:    len(listeners),
		})
	}
}

func (b *Broadcaster) RoleChanged(ctx context.Context, m *Member) {
	b.Broadcast(ctx, MethodRoleChanged, RoleChangedEvent{
		UserID:        m.Session.ID,
		Role:          m.Role.Kind,
		QueuePosition: m.Role.QueuePosition,
	})
}

func (b *Broadcaster) SpeakerLeft(ctx context.Context, userID string) {
	b.Broadcast(ctx, MethodSpeakerLeft, SpeakerLeftEvent{UserID: userID})
}

func (b *Broadcaster) AudioLevel(ctx context.Context, userID string, level int) {
	b.Broadcast(ctx, MethodAudioLevel, AudioLevelEvent{
		UserID: userID,
		Level:  level,
	})
}

func (b *Broadcaster) Warning(ctx context.Context, m *Member, reason, message string) {
	b.notify(ctx, m, MethodWarning, WarningEvent{
		Reason:  reason,
		Message: message,
	})
}

func (b *Broadcaster) Error(ctx context.Context, m *Member, code, message string) {
	b.notify(ctx, m, MethodError, ErrorEvent{
		Code:    code,
		Message: message,
	})
}
