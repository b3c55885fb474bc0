package room

import (
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/imtaco/voice-stage/internal/errors"
	"github.com/imtaco/voice-stage/internal/log"
	"github.com/imtaco/voice-stage/room/mocks"
)

type OrchestratorTestSuite struct {
	suite.Suite
	ctrl   *gomock.Controller
	engine *mocks.MockAudioEngine
	timers *fakeTimers
	clock  *clockwork.FakeClock
	orch   *Orchestrator

	// call journal filled by the mock expectations
	journal []string
}

func TestOrchestratorTestSuite(t *testing.T) {
	suite.Run(t, new(OrchestratorTestSuite))
}

func (s *OrchestratorTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.engine = mocks.NewMockAudioEngine(s.ctrl)
	s.timers = newFakeTimers()
	s.clock = clockwork.NewFakeClock()
	s.journal = nil
	s.orch = NewOrchestrator(s.engine, s.timers, s.clock, fadeConfig{
		fadeDuration:          time.Second,
		emergencyFadeDuration: 500 * time.Millisecond,
		connectDelay:          300 * time.Millisecond,
	}, log.NewTest(s.T()))
}

func (s *OrchestratorTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *OrchestratorTestSuite) expectAnyEngineOps() {
	s.engine.EXPECT().AddStream(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, id string, gain float64) error {
			s.journal = append(s.journal, fmt.Sprintf("add:%s:%.1f", id, gain))
			return nil
		}).AnyTimes()
	s.engine.EXPECT().SetGain(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, id string, gain float64) error {
			s.journal = append(s.journal, fmt.Sprintf("gain:%s:%.1f", id, gain))
			return nil
		}).AnyTimes()
	s.engine.EXPECT().RemoveStream(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, id string) error {
			s.journal = append(s.journal, "remove:"+id)
			return nil
		}).AnyTimes()
}

func (s *OrchestratorTestSuite) TestInitialSetsFullGainImmediately() {
	s.expectAnyEngineOps()

	var doneErr = errors.PureNew("sentinel")
	s.orch.Request(TransitionRequest{
		Type:     TransitionInitial,
		Incoming: []string{"u1", "u2"},
		OnDone:   func(err error) { doneErr = err },
	})

	s.NoError(doneErr)
	s.False(s.orch.Busy())
	s.Equal([]string{"add:u1:1.0", "add:u2:1.0"}, s.journal)
	s.Empty(s.timers.pending)
}

func (s *OrchestratorTestSuite) TestPromotionConnectsThenFadesIn() {
	s.expectAnyEngineOps()

	done := false
	s.orch.Request(TransitionRequest{
		Type:     TransitionPromotion,
		Incoming: []string{"u1"},
		OnDone:   func(err error) { s.NoError(err); done = true },
	})

	s.True(s.orch.Busy())
	s.Equal([]string{"add:u1:0.0"}, s.journal)

	// connect delay elapses, fade-in begins
	s.Require().True(s.timers.fire(keyConnect))
	s.False(done)

	s.timers.fireAll()
	s.True(done)
	s.False(s.orch.Busy())

	// ten steps ending at full gain
	s.Len(s.journal, 1+fadeSteps)
	s.Equal("gain:u1:0.1", s.journal[1])
	s.Equal("gain:u1:1.0", s.journal[len(s.journal)-1])
}

func (s *OrchestratorTestSuite) TestDemotionFadesOutThenReleases() {
	s.expectAnyEngineOps()

	done := false
	s.orch.Request(TransitionRequest{
		Type:     TransitionDemotion,
		Outgoing: []string{"u1"},
		OnDone:   func(err error) { s.NoError(err); done = true },
	})

	s.timers.fireAll()
	s.True(done)

	s.Len(s.journal, fadeSteps+1)
	s.Equal("gain:u1:0.9", s.journal[0])
	s.Equal("gain:u1:0.0", s.journal[fadeSteps-1])
	s.Equal("remove:u1", s.journal[fadeSteps])
}

func (s *OrchestratorTestSuite) TestReplacementReleasesOldAfterFadeIn() {
	s.expectAnyEngineOps()

	done := false
	s.orch.Request(TransitionRequest{
		Type:     TransitionReplacement,
		Incoming: []string{"new"},
		Outgoing: []string{"old"},
		OnDone:   func(err error) { s.NoError(err); done = true },
	})

	// new stream is connected at zero gain before anything fades
	s.Equal("add:new:0.0", s.journal[0])

	s.timers.fireAll()
	s.True(done)

	// old stream released only after the fade-in completed
	last := s.journal[len(s.journal)-1]
	s.Equal("remove:old", last)
	s.Equal("gain:new:1.0", s.journal[len(s.journal)-2])
}

func (s *OrchestratorTestSuite) TestConnectFailureAborts() {
	s.engine.EXPECT().AddStream(gomock.Any(), "u1", 0.0).
		Return(errors.PureNew("ice failure"))

	var doneErr error
	s.orch.Request(TransitionRequest{
		Type:     TransitionPromotion,
		Incoming: []string{"u1"},
		OnDone:   func(err error) { doneErr = err },
	})

	s.Require().Error(doneErr)
	s.True(errors.Is(doneErr, ErrTransition))
	s.False(s.orch.Busy())
	s.Empty(s.timers.pending)
}

func (s *OrchestratorTestSuite) TestConnectFailureReleasesPartialBatch() {
	gomock.InOrder(
		s.engine.EXPECT().AddStream(gomock.Any(), "u1", 0.0).Return(nil),
		s.engine.EXPECT().AddStream(gomock.Any(), "u2", 0.0).Return(errors.PureNew("ice failure")),
		s.engine.EXPECT().RemoveStream(gomock.Any(), "u1").Return(nil),
	)

	var doneErr error
	s.orch.Request(TransitionRequest{
		Type:     TransitionPromotion,
		Incoming: []string{"u1", "u2"},
		OnDone:   func(err error) { doneErr = err },
	})

	s.Error(doneErr)
}

func (s *OrchestratorTestSuite) TestBusyRequestsQueueInOrder() {
	s.expectAnyEngineOps()

	var order []string
	s.orch.Request(TransitionRequest{
		Type:     TransitionPromotion,
		Incoming: []string{"a"},
		OnDone:   func(error) { order = append(order, "a") },
	})
	s.orch.Request(TransitionRequest{
		Type:     TransitionPromotion,
		Incoming: []string{"b"},
		OnDone:   func(error) { order = append(order, "b") },
	})
	s.orch.Request(TransitionRequest{
		Type:     TransitionDemotion,
		Outgoing: []string{"c"},
		OnDone:   func(error) { order = append(order, "c") },
	})

	s.True(s.orch.Busy())
	s.timers.fireAll()

	s.Equal([]string{"a", "b", "c"}, order)
	s.False(s.orch.Busy())
}

func (s *OrchestratorTestSuite) TestEmergencyUsesShortenedFade() {
	s.expectAnyEngineOps()

	s.orch.Request(TransitionRequest{
		Type:      TransitionDemotion,
		Outgoing:  []string{"u1"},
		Emergency: true,
		OnDone:    func(err error) { s.NoError(err) },
	})
	s.timers.fireAll()

	// same number of steps, compressed duration handled by the scheduler
	s.Len(s.journal, fadeSteps+1)
}

func (s *OrchestratorTestSuite) TestInvolves() {
	s.expectAnyEngineOps()

	s.orch.Request(TransitionRequest{
		Type:     TransitionReplacement,
		Incoming: []string{"new"},
		Outgoing: []string{"old"},
	})

	s.True(s.orch.Involves("new"))
	s.True(s.orch.Involves("old"))
	s.False(s.orch.Involves("other"))

	s.timers.fireAll()
	s.False(s.orch.Involves("new"))
}

func (s *OrchestratorTestSuite) TestResetDropsEverything() {
	s.expectAnyEngineOps()

	called := false
	s.orch.Request(TransitionRequest{
		Type:     TransitionPromotion,
		Incoming: []string{"a"},
	})
	s.orch.Request(TransitionRequest{
		Type:     TransitionPromotion,
		Incoming: []string{"b"},
		OnDone:   func(error) { called = true },
	})

	s.orch.Reset()
	s.False(s.orch.Busy())
	s.Empty(s.timers.pending)
	s.False(called)
}

func (s *OrchestratorTestSuite) TestStateExposesProgress() {
	s.expectAnyEngineOps()

	s.Nil(s.orch.State())
	s.orch.Request(TransitionRequest{
		Type:     TransitionReplacement,
		Incoming: []string{"new"},
		Outgoing: []string{"old"},
	})

	st := s.orch.State()
	s.Require().NotNil(st)
	s.Equal(TransitionReplacement, st.Type)
	s.Equal([]string{"new"}, st.IncomingIDs)
	s.Equal([]string{"old"}, st.OutgoingIDs)

	s.timers.fireAll()
	s.Nil(s.orch.State())
}
