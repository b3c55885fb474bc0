package room

import (
	"context"
	"time"
)

// RoleKind discriminates the role variant of a member.
type RoleKind string

const (
	RoleSpeaker  RoleKind = "speaker"
	RoleListener RoleKind = "listener"
)

// Role is a tagged variant: QueuePosition is meaningful only for listeners.
type Role struct {
	Kind          RoleKind
	QueuePosition int
}

func Speaker() Role {
	return Role{Kind: RoleSpeaker}
}

func ListenerAt(pos int) Role {
	return Role{Kind: RoleListener, QueuePosition: pos}
}

func (r Role) IsSpeaker() bool {
	return r.Kind == RoleSpeaker
}

// Conn is the capability handle for reaching a session's transport.
// Implementations must not block the caller on network I/O; writes are
// expected to be buffered and fire-and-forget.
type Conn interface {
	Notify(ctx context.Context, method string, params any) error
	Close() error
}

// Session is one connected participant. The connection handle is borrowed
// for the lifetime of the membership, never owned beyond it.
type Session struct {
	ID             string
	DisplayName    string
	Conn           Conn
	JoinedAt       time.Time
	LastActivityAt time.Time
}

// Member is a session plus its current room role.
type Member struct {
	Session    *Session
	Role       Role
	IsMuted    bool
	AudioLevel int     // 0-100
	Volume     float64 // 0-1
}

// AudioEngine is the capability contract of the external audio/transport
// collaborator. The core only issues commands; stream resources are owned
// by the engine and resolved by peer ID.
type AudioEngine interface {
	AddStream(ctx context.Context, peerID string, initialGain float64) error
	RemoveStream(ctx context.Context, peerID string) error
	SetGain(ctx context.Context, peerID string, gain float64) error
	CapabilitiesAvailable() bool
}
