package room

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

type connEvent struct {
	method string
	params any
}

type fakeConn struct {
	mu         sync.Mutex
	events     []connEvent
	closed     bool
	failNotify bool
}

func (c *fakeConn) Notify(_ context.Context, method string, params any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failNotify {
		return fmt.Errorf("notify failed")
	}
	c.events = append(c.events, connEvent{method: method, params: params})
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) methods() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.events))
	for _, e := range c.events {
		out = append(out, e.method)
	}
	return out
}

func (c *fakeConn) eventsOf(method string) []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []any
	for _, e := range c.events {
		if e.method == method {
			out = append(out, e.params)
		}
	}
	return out
}

func (c *fakeConn) countOf(method string) int {
	return len(c.eventsOf(method))
}

// fakeEngine records stream operations and keeps the resulting gain table.
type fakeEngine struct {
	mu          sync.Mutex
	streams     map[string]float64
	calls       []string
	addErr      error
	addGate     chan struct{}
	unavailable bool
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{streams: make(map[string]float64)}
}

func (e *fakeEngine) AddStream(_ context.Context, peerID string, gain float64) error {
	e.mu.Lock()
	e.calls = append(e.calls, fmt.Sprintf("add:%s:%.1f", peerID, gain))
	gate := e.addGate
	e.mu.Unlock()

	// block outside the lock so test inspection keeps working
	if gate != nil {
		<-gate
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.addErr != nil {
		return e.addErr
	}
	e.streams[peerID] = gain
	return nil
}

func (e *fakeEngine) RemoveStream(_ context.Context, peerID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, "remove:"+peerID)
	delete(e.streams, peerID)
	return nil
}

func (e *fakeEngine) SetGain(_ context.Context, peerID string, gain float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, fmt.Sprintf("gain:%s:%.1f", peerID, gain))
	e.streams[peerID] = gain
	return nil
}

func (e *fakeEngine) CapabilitiesAvailable() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.unavailable
}

func (e *fakeEngine) gainOf(peerID string) (float64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	g, ok := e.streams[peerID]
	return g, ok
}

func (e *fakeEngine) streamCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.streams)
}

func (e *fakeEngine) callLog() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.calls))
	copy(out, e.calls)
	return out
}

func (e *fakeEngine) setAddErr(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.addErr = err
}

func (e *fakeEngine) setAddGate(gate chan struct{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.addGate = gate
}

func (e *fakeEngine) setUnavailable(v bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.unavailable = v
}

// fakeTimers runs scheduled continuations only when the test fires them.
type fakeTimers struct {
	pending map[string]func()
}

func newFakeTimers() *fakeTimers {
	return &fakeTimers{pending: make(map[string]func())}
}

func (t *fakeTimers) Schedule(key string, _ time.Duration, fn func()) {
	t.pending[key] = fn
}

func (t *fakeTimers) Cancel(key string) {
	delete(t.pending, key)
}

func (t *fakeTimers) fire(key string) bool {
	fn, ok := t.pending[key]
	if !ok {
		return false
	}
	delete(t.pending, key)
	fn()
	return true
}

// fireAll drains pending continuations until none remain.
func (t *fakeTimers) fireAll() {
	for len(t.pending) > 0 {
		for key := range t.pending {
			t.fire(key)
			break
		}
	}
}

func testSession(id string, clock clockwork.Clock, conn Conn) *Session {
	if conn == nil {
		conn = &fakeConn{}
	}
	now := clock.Now()
	return &Session{
		ID:             id,
		DisplayName:    "name-" + id,
		Conn:           conn,
		JoinedAt:       now,
		LastActivityAt: now,
	}
}
