package room

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imtaco/voice-stage/internal/errors"
	"github.com/imtaco/voice-stage/internal/log"
)

type relayFixture struct {
	relay *Relay
	reg   *Registry
	conns map[string]*fakeConn
	clock *clockwork.FakeClock
}

func newRelayFixture(t *testing.T, members ...string) *relayFixture {
	clock := clockwork.NewFakeClock()
	reg := NewRegistry("test-room", 2, clock)
	conns := make(map[string]*fakeConn)
	for _, id := range members {
		conn := &fakeConn{}
		conns[id] = conn
		reg.Add(testSession(id, clock, conn), true)
	}
	return &relayFixture{
		relay: NewRelay(reg, log.NewTest(t)),
		reg:   reg,
		conns: conns,
		clock: clock,
	}
}

func signalMsg(from, to string) SignalMessage {
	return SignalMessage{
		Kind:    SignalOffer,
		FromID:  from,
		ToID:    to,
		Payload: json.RawMessage(`{"sdp":"v=0"}`),
	}
}

func TestForwardDeliversToTarget(t *testing.T) {
	f := newRelayFixture(t, "u1", "u2")

	err := f.relay.Forward(context.Background(), signalMsg("u1", "u2"))
	require.NoError(t, err)

	events := f.conns["u2"].eventsOf(MethodSignal)
	require.Len(t, events, 1)

	fwd, ok := events[0].(SignalForwarded)
	require.True(t, ok)
	assert.Equal(t, SignalOffer, fwd.Kind)
	assert.Equal(t, "u1", fwd.FromID)
	assert.JSONEq(t, `{"sdp":"v=0"}`, string(fwd.Payload))

	// sender hears nothing back
	assert.Zero(t, f.conns["u1"].countOf(MethodSignal))
}

func TestForwardRejectsUnknownSender(t *testing.T) {
	f := newRelayFixture(t, "u2")

	err := f.relay.Forward(context.Background(), signalMsg("ghost", "u2"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSignaling))
	assert.Zero(t, f.conns["u2"].countOf(MethodSignal))
}

func TestForwardDropsUnknownTarget(t *testing.T) {
	f := newRelayFixture(t, "u1")

	err := f.relay.Forward(context.Background(), signalMsg("u1", "ghost"))
	assert.NoError(t, err)
}

func TestForwardDropsDepartedTargetQuietly(t *testing.T) {
	f := newRelayFixture(t, "u1", "u2")

	f.reg.Remove("u2")
	f.relay.MarkDeparted("u2")

	err := f.relay.Forward(context.Background(), signalMsg("u1", "u2"))
	assert.NoError(t, err)
	assert.Zero(t, f.conns["u2"].countOf(MethodSignal))
}

func TestForwardSurvivesDeadConnection(t *testing.T) {
	f := newRelayFixture(t, "u1", "u2")
	f.conns["u2"].failNotify = true

	err := f.relay.Forward(context.Background(), signalMsg("u1", "u2"))
	assert.NoError(t, err)
}

func TestNotifyListenerReady(t *testing.T) {
	f := newRelayFixture(t, "sp1", "sp2", "l1")

	err := f.relay.NotifyListenerReady(context.Background(), "l1", []string{"sp1", "sp2"})
	require.NoError(t, err)

	for _, id := range []string{"sp1", "sp2"} {
		events := f.conns[id].eventsOf(MethodListenerReady)
		require.Len(t, events, 1, id)
		assert.Equal(t, ListenerReadyEvent{ListenerID: "l1"}, events[0])
	}
	assert.Zero(t, f.conns["l1"].countOf(MethodListenerReady))
}

func TestNotifyListenerReadySkipsNonSpeakers(t *testing.T) {
	f := newRelayFixture(t, "sp1", "sp2", "l1", "l2")

	// l2 is a listener, ghost never joined
	err := f.relay.NotifyListenerReady(context.Background(), "l1", []string{"l2", "ghost"})
	require.NoError(t, err)
	assert.Zero(t, f.conns["l2"].countOf(MethodListenerReady))
}

func TestNotifyListenerReadyUnknownListener(t *testing.T) {
	f := newRelayFixture(t, "sp1")

	err := f.relay.NotifyListenerReady(context.Background(), "ghost", []string{"sp1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSignaling))
}
