package room

import (
	"encoding/json"
	"time"
)

// Notification methods pushed to clients over the signaling connection.
const (
	MethodRoomJoined    = "roomJoined"
	MethodRoomUpdated   = "roomUpdated"
	MethodRoleChanged   = "roleChanged"
	MethodQueueUpdated  = "queueUpdated"
	MethodAudioLevel    = "audioLevelUpdate"
	MethodSignal        = "signal"
	MethodSpeakerLeft   = "speakerLeft"
	MethodListenerReady = "listenerReady"
	MethodRoomReset     = "roomReset"
	MethodWarning       = "warning"
	MethodError         = "error"
)

// MemberInfo is the wire view of one member inside a snapshot.
type MemberInfo struct {
	ID            string   `json:"id"`
	DisplayName   string   `json:"displayName"`
	Role          RoleKind `json:"role"`
	QueuePosition int      `json:"queuePosition,omitempty"`
	IsMuted       bool     `json:"isMuted"`
	AudioLevel    int      `json:"audioLevel"`
}

// Snapshot is a self-consistent view of the room at one point in time.
type Snapshot struct {
	RoomID      string       `json:"roomId"`
	Speakers    []MemberInfo `json:"speakers"`
	Listeners   []MemberInfo `json:"listeners"`
	MaxSpeakers int          `json:"maxSpeakers"`
	CreatedAt   time.Time    `json:"createdAt"`
}

type RoleChangedEvent struct {
	UserID        string   `json:"userId"`
	Role          RoleKind `json:"role"`
	QueuePosition int      `json:"queuePosition,omitempty"`
}

type QueueUpdatedEvent struct {
	Position int `json:"position"`
	Total    int `json:"total"`
}

// SpeakerLeftEvent tells listeners to tear down their receiving link to a
// departed speaker before the replacement's offer arrives.
type SpeakerLeftEvent struct {
	UserID string `json:"userId"`
}

type AudioLevelEvent struct {
	UserID string `json:"userId"`
	Level  int    `json:"level"`
}

type WarningEvent struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type ErrorEvent struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SignalKind enumerates relayed signaling payload types.
type SignalKind string

const (
	SignalOffer  SignalKind = "offer"
	SignalAnswer SignalKind = "answer"
	SignalICE    SignalKind = "ice"
)

// SignalMessage is an opaque signaling envelope relayed between peers.
// The payload is never inspected, only forwarded.
type SignalMessage struct {
	Kind    SignalKind      `json:"type"`
	FromID  string          `json:"fromId"`
	ToID    string          `json:"toId"`
	Payload json.RawMessage `json:"payload"`
}

// SignalForwarded is what the target peer receives; the route header is
// rewritten so the recipient sees only the origin.
type SignalForwarded struct {
	Kind    SignalKind      `json:"type"`
	FromID  string          `json:"fromId"`
	Payload json.RawMessage `json:"payload"`
}

type ListenerReadyEvent struct {
	ListenerID string `json:"listenerId"`
}
