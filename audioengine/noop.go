package audioengine

import (
	"context"
	"sync"

	"github.com/imtaco/voice-stage/internal/log"
	"github.com/imtaco/voice-stage/room"
)

// NewNoop returns an engine that tracks gains in memory and touches no
// media bridge at all. Used when no bridge is configured, typically in
// development.
func NewNoop(logger *log.Logger) room.AudioEngine {
	return &noopImpl{
		gains:  make(map[string]float64),
		logger: logger.Module("audio_noop"),
	}
}

type noopImpl struct {
	mu     sync.Mutex
	gains  map[string]float64
	logger *log.Logger
}

func (n *noopImpl) AddStream(_ context.Context, peerID string, gain float64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.gains[peerID] = gain
	n.logger.Debug("stream added",
		log.String("peer_id", peerID),
		log.Float64("gain", gain),
	)
	return nil
}

func (n *noopImpl) RemoveStream(_ context.Context, peerID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.gains, peerID)
	n.logger.Debug("stream removed",
		log.String("peer_id", peerID),
	)
	return nil
}

func (n *noopImpl) SetGain(_ context.Context, peerID string, gain float64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.gains[peerID] = gain
	return nil
}

func (n *noopImpl) CapabilitiesAvailable() bool {
	return true
}
