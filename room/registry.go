package room

import (
	"sort"
	"time"

	"github.com/jonboulle/clockwork"
)

// Registry holds the authoritative membership of one room.
// Please note that this is NOT thread-safe; the service loop owns it.
type Registry struct {
	id          string
	maxSpeakers int
	speakers    []*Member
	listeners   []*Member
	byID        map[string]*Member
	createdAt   time.Time
	clock       clockwork.Clock
}

func NewRegistry(id string, maxSpeakers int, clock clockwork.Clock) *Registry {
	return &Registry{
		id:          id,
		maxSpeakers: maxSpeakers,
		byID:        make(map[string]*Member),
		createdAt:   clock.Now(),
		clock:       clock,
	}
}

func (r *Registry) ID() string {
	return r.id
}

func (r *Registry) Size() int {
	return len(r.byID)
}

func (r *Registry) OpenSlots() int {
	return r.maxSpeakers - len(r.speakers)
}

func (r *Registry) Member(userID string) (*Member, bool) {
	m, ok := r.byID[userID]
	return m, ok
}

func (r *Registry) Speakers() []*Member {
	return r.speakers
}

func (r *Registry) Listeners() []*Member {
	return r.listeners
}

func (r *Registry) SpeakerIDs() []string {
	ids := make([]string, 0, len(r.speakers))
	for _, m := range r.speakers {
		ids = append(ids, m.Session.ID)
	}
	return ids
}

// Add registers a session. Speaker slots are filled eagerly when
// allowSpeaker is set, otherwise the session enters the listener queue.
// Re-adding an existing member is a no-op returning the current role.
func (r *Registry) Add(sess *Session, allowSpeaker bool) (Role, bool) {
	if m, ok := r.byID[sess.ID]; ok {
		return m.Role, true
	}

	m := &Member{Session: sess, Volume: 1.0}
	if allowSpeaker && r.OpenSlots() > 0 {
		m.Role = Speaker()
		r.speakers = append(r.speakers, m)
	} else {
		m.Role = ListenerAt(len(r.listeners) + 1)
		r.listeners = append(r.listeners, m)
	}
	r.byID[sess.ID] = m

	return m.Role, false
}

type RemoveResult struct {
	Found      bool
	WasSpeaker bool
	Member     *Member
}

// Remove drops a member. Removing a listener renormalizes the queue;
// removing a speaker leaves the open slot for promotion to fill.
func (r *Registry) Remove(userID string) RemoveResult {
	m, ok := r.byID[userID]
	if !ok {
		return RemoveResult{}
	}
	delete(r.byID, userID)

	if m.Role.IsSpeaker() {
		r.speakers = removeMember(r.speakers, m)
		return RemoveResult{Found: true, WasSpeaker: true, Member: m}
	}

	r.listeners = removeMember(r.listeners, m)
	r.Renormalize()
	return RemoveResult{Found: true, Member: m}
}

// Renormalize reassigns listener queue positions to a dense 1..N sequence
// ordered by join time.
func (r *Registry) Renormalize() {
	sort.SliceStable(r.listeners, func(i, j int) bool {
		return r.listeners[i].Session.JoinedAt.Before(r.listeners[j].Session.JoinedAt)
	})
	for i, m := range r.listeners {
		m.Role = ListenerAt(i + 1)
	}
}

// Clear empties the registry, returning the sessions that were present.
func (r *Registry) Clear() []*Session {
	sessions := make([]*Session, 0, len(r.byID))
	for _, m := range r.speakers {
		sessions = append(sessions, m.Session)
	}
	for _, m := range r.listeners {
		sessions = append(sessions, m.Session)
	}

	r.speakers = nil
	r.listeners = nil
	r.byID = make(map[string]*Member)
	return sessions
}

func (r *Registry) Snapshot() Snapshot {
	snap := Snapshot{
		RoomID:      r.id,
		Speakers:    make([]MemberInfo, 0, len(r.speakers)),
		Listeners:   make([]MemberInfo, 0, len(r.listeners)),
		MaxSpeakers: r.maxSpeakers,
		CreatedAt:   r.createdAt,
	}
	for _, m := range r.speakers {
		snap.Speakers = append(snap.Speakers, memberInfo(m))
	}
	for _, m := range r.listeners {
		snap.Listeners = append(snap.Listeners, memberInfo(m))
	}
	return snap
}

func memberInfo(m *Member) MemberInfo {
	return MemberInfo{
		ID:            m.Session.ID,
		DisplayName:   m.Session.DisplayName,
		Role:          m.Role.Kind,
		QueuePosition: m.Role.QueuePosition,
		IsMuted:       m.IsMuted,
		AudioLevel:    m.AudioLevel,
	}
}

func removeMember(list []*Member, m *Member) []*Member {
	for i, cur := range list {
		if cur == m {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
