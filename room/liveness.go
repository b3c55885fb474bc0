package room

import (
	"time"

	"github.com/imtaco/voice-stage/internal/log"
	"github.com/imtaco/voice-stage/internal/zset"
)

// LivenessTracker watches per-member activity and classifies members as
// healthy, warned, or stale on each sweep. NOT thread-safe; owned by the
// service loop like the registry.
//
// A member tracked with a zero time sorts before every real timestamp and
// is therefore stale on the very next sweep.
type LivenessTracker struct {
	activity map[string]time.Time
	order    *zset.Zset[struct{}]
	warned   map[string]struct{}
	logger   *log.Logger
}

func NewLivenessTracker(logger *log.Logger) *LivenessTracker {
	return &LivenessTracker{
		activity: make(map[string]time.Time),
		order:    zset.New[struct{}](),
		warned:   make(map[string]struct{}),
		logger:   logger.Module("liveness"),
	}
}

func (t *LivenessTracker) Track(userID string, ts time.Time) {
	t.activity[userID] = ts
	t.order.Put(userID, struct{}{}, ts)
}

// Touch records activity for an already-tracked member. Unknown IDs are
// ignored so late heartbeats from departed members cannot resurrect them.
func (t *LivenessTracker) Touch(userID string, ts time.Time) bool {
	if _, ok := t.activity[userID]; !ok {
		return false
	}
	t.activity[userID] = ts
	t.order.Put(userID, struct{}{}, ts)
	delete(t.warned, userID)
	return true
}

func (t *LivenessTracker) Forget(userID string) {
	delete(t.activity, userID)
	delete(t.warned, userID)
	t.order.Remove(userID)
}

func (t *LivenessTracker) Clear() {
	t.activity = make(map[string]time.Time)
	t.warned = make(map[string]struct{})
	t.order = zset.New[struct{}]()
}

func (t *LivenessTracker) LastActivity(userID string) (time.Time, bool) {
	ts, ok := t.activity[userID]
	return ts, ok
}

type SweepResult struct {
	Stale  []string
	Warned []string
}

// Sweep pops everything past the inactivity threshold as stale, then marks
// (once) everything past the warn threshold. Both lists come out oldest
// first.
func (t *LivenessTracker) Sweep(now time.Time, inactivity, warn time.Duration) SweepResult {
	var res SweepResult

	stale := t.order.PopBefore(now.Add(-inactivity), t.order.Len())
	for _, e := range stale {
		delete(t.activity, e.Key)
		delete(t.warned, e.Key)
		res.Stale = append(res.Stale, e.Key)
	}

	aging := t.order.PopBefore(now.Add(-warn), t.order.Len())
	for _, e := range aging {
		t.order.Put(e.Key, struct{}{}, e.TS)
		if _, ok := t.warned[e.Key]; ok {
			continue
		}
		t.warned[e.Key] = struct{}{}
		res.Warned = append(res.Warned, e.Key)
	}

	if len(res.Stale) > 0 || len(res.Warned) > 0 {
		t.logger.Info("liveness sweep",
			log.Strings("stale", res.Stale),
			log.Strings("warned", res.Warned),
		)
	}
	return res
}
