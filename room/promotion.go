package room

import (
	"github.com/imtaco/voice-stage/internal/log"
)

// PromotionEngine moves listeners into open speaker slots, strictly in
// queue order. It mutates the registry; callers are responsible for
// rolling back via Demote when the audio transition fails afterwards.
type PromotionEngine struct {
	reg    *Registry
	logger *log.Logger
}

func NewPromotionEngine(reg *Registry, logger *log.Logger) *PromotionEngine {
	return &PromotionEngine{
		reg:    reg,
		logger: logger.Module("promotion"),
	}
}

// PromoteNext promotes the head of the listener queue, if any slot is open.
func (p *PromotionEngine) PromoteNext() (*Member, bool) {
	if p.reg.OpenSlots() <= 0 || len(p.reg.listeners) == 0 {
		return nil, false
	}

	m := p.reg.listeners[0]
	p.reg.listeners = p.reg.listeners[1:]
	m.Role = Speaker()
	p.reg.speakers = append(p.reg.speakers, m)
	p.reg.Renormalize()

	p.logger.Info("listener promoted",
		log.String("user_id", m.Session.ID),
	)
	return m, true
}

// PromoteToFillSlots promotes listeners until all speaker slots are
// occupied or the queue is drained.
func (p *PromotionEngine) PromoteToFillSlots() []*Member {
	var promoted []*Member
	for {
		m, ok := p.PromoteNext()
		if !ok {
			return promoted
		}
		promoted = append(promoted, m)
	}
}

// Demote reverses a promotion: the member returns to the listener queue
// and positions are renormalized by join time.
func (p *PromotionEngine) Demote(userID string) (*Member, bool) {
	m, ok := p.reg.byID[userID]
	if !ok || !m.Role.IsSpeaker() {
		return nil, false
	}

	p.reg.speakers = removeMember(p.reg.speakers, m)
	m.Role = ListenerAt(len(p.reg.listeners) + 1)
	p.reg.listeners = append(p.reg.listeners, m)
	p.reg.Renormalize()

	p.logger.Warn("speaker demoted back to listener",
		log.String("user_id", userID),
	)
	return m, true
}
