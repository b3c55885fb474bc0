package signal

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/imtaco/voice-stage/room"
)

// audio level updates are advisory; throttle instead of erroring
const (
	audioLevelRate  = rate.Limit(10)
	audioLevelBurst = 20
)

// sessionContext is the per-connection state shared by all RPC handlers
// on one WebSocket.
type sessionContext struct {
	userID      string
	roomID      string
	displayName string
	connID      string
	reqCtx      context.Context
	joined      bool
	limiter     *rate.Limiter
}

// RoomService is the part of the room the signaling layer drives.
type RoomService interface {
	Join(ctx context.Context, userID, displayName string, conn room.Conn) (room.JoinResult, error)
	Leave(ctx context.Context, userID string) error
	Disconnect(userID string)
	RequestSpeaker(ctx context.Context, userID string) error
	Heartbeat(ctx context.Context, userID string) (time.Time, error)
	SetAudioLevel(ctx context.Context, userID string, level int) error
	SetMute(ctx context.Context, userID string, muted bool) error
	ForwardSignal(ctx context.Context, msg room.SignalMessage) error
	ReadyToListen(ctx context.Context, userID string, speakerIDs []string) error
}
