package signal

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
	"golang.org/x/time/rate"

	"github.com/imtaco/voice-stage/internal/errors"
	"github.com/imtaco/voice-stage/internal/jsonrpc"
	rpcmocks "github.com/imtaco/voice-stage/internal/jsonrpc/mocks"
	"github.com/imtaco/voice-stage/internal/log"
	"github.com/imtaco/voice-stage/room"
)

type stubRoomService struct {
	calls []string

	joinResult room.JoinResult
	joinErr    error
	callErr    error
	heartbeat  time.Time

	lastSignal room.SignalMessage
	lastLevel  int
	lastMuted  bool
	lastReady  []string
}

func (s *stubRoomService) Join(_ context.Context, userID, displayName string, _ room.Conn) (room.JoinResult, error) {
	s.calls = append(s.calls, "join:"+userID+":"+displayName)
	return s.joinResult, s.joinErr
}

func (s *stubRoomService) Leave(_ context.Context, userID string) error {
	s.calls = append(s.calls, "leave:"+userID)
	return s.callErr
}

func (s *stubRoomService) Disconnect(userID string) {
	s.calls = append(s.calls, "disconnect:"+userID)
}

func (s *stubRoomService) RequestSpeaker(_ context.Context, userID string) error {
	s.calls = append(s.calls, "requestSpeaker:"+userID)
	return s.callErr
}

func (s *stubRoomService) Heartbeat(_ context.Context, userID string) (time.Time, error) {
	s.calls = append(s.calls, "heartbeat:"+userID)
	return s.heartbeat, s.callErr
}

func (s *stubRoomService) SetAudioLevel(_ context.Context, userID string, level int) error {
	s.calls = append(s.calls, "audioLevel:"+userID)
	s.lastLevel = level
	return s.callErr
}

func (s *stubRoomService) SetMute(_ context.Context, userID string, muted bool) error {
	s.calls = append(s.calls, "setMute:"+userID)
	s.lastMuted = muted
	return s.callErr
}

func (s *stubRoomService) ForwardSignal(_ context.Context, msg room.SignalMessage) error {
	s.calls = append(s.calls, "signal:"+msg.FromID)
	s.lastSignal = msg
	return s.callErr
}

func (s *stubRoomService) ReadyToListen(_ context.Context, userID string, speakerIDs []string) error {
	s.calls = append(s.calls, "readyToListen:"+userID)
	s.lastReady = speakerIDs
	return s.callErr
}

type ServerTestSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	peer    *rpcmocks.MockPeer[sessionContext]
	roomSvc *stubRoomService
	server  *Server
	sctx    *sessionContext
	mctx    jsonrpc.MethodContext[sessionContext]
}

func TestServerTestSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

func (s *ServerTestSuite) SetupTest() {
	logger := log.NewTest(s.T())
	s.ctrl = gomock.NewController(s.T())
	s.peer = rpcmocks.NewMockPeer[sessionContext](s.ctrl)
	s.roomSvc = &stubRoomService{}
	s.server = NewServer(jsonrpc.NewHandler[sessionContext](logger), s.roomSvc, logger)
	s.Require().NoError(s.server.Open(context.Background()))

	s.sctx = &sessionContext{
		userID:  "u1",
		roomID:  "main",
		reqCtx:  context.Background(),
		joined:  true,
		limiter: rate.NewLimiter(audioLevelRate, audioLevelBurst),
	}
	s.mctx = jsonrpc.NewContext[sessionContext](s.peer, s.sctx)
}

func (s *ServerTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func params(t *testing.T, v any) *json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	msg := json.RawMessage(raw)
	return &msg
}

func (s *ServerTestSuite) TestJoin() {
	s.sctx.joined = false
	s.roomSvc.joinResult = room.JoinResult{
		Role: room.ListenerAt(2),
		Snapshot: room.Snapshot{
			RoomID:      "main",
			MaxSpeakers: 2,
		},
	}

	result, err := s.server.handleJoin(s.mctx, params(s.T(), map[string]any{
		"displayName": "Alice",
	}))
	s.Require().NoError(err)

	resp, ok := result.(joinResponse)
	s.Require().True(ok)
	s.Equal(room.RoleListener, resp.Role)
	s.Equal(2, resp.QueuePosition)
	s.Equal("main", resp.Room.RoomID)

	s.True(s.sctx.joined)
	s.Equal("Alice", s.sctx.displayName)
	s.Equal([]string{"join:u1:Alice"}, s.roomSvc.calls)
}

func (s *ServerTestSuite) TestJoinTwiceRejected() {
	_, err := s.server.handleJoin(s.mctx, params(s.T(), map[string]any{
		"displayName": "Alice",
	}))
	s.requireRPCErrorCode(err, jsonrpc.CodeInvalidRequest)
	s.Empty(s.roomSvc.calls)
}

func (s *ServerTestSuite) TestJoinValidation() {
	s.sctx.joined = false

	_, err := s.server.handleJoin(s.mctx, params(s.T(), map[string]any{}))
	s.requireRPCErrorCode(err, jsonrpc.CodeInvalidParams)

	_, err = s.server.handleJoin(s.mctx, nil)
	s.requireRPCErrorCode(err, jsonrpc.CodeInvalidParams)

	for _, bad := range []string{
		" Alice",                            // leading whitespace
		"Alice ",                            // trailing whitespace
		"alice@home",                        // forbidden character
		"123456789012345678901234567890123", // 33 chars
	} {
		_, err = s.server.handleJoin(s.mctx, params(s.T(), map[string]any{
			"displayName": bad,
		}))
		s.requireRPCErrorCode(err, jsonrpc.CodeInvalidParams)
	}
	s.Empty(s.roomSvc.calls)
}

func (s *ServerTestSuite) TestJoinMapsRoomErrors() {
	s.sctx.joined = false
	s.roomSvc.joinErr = errors.New(room.ErrValidation, "bad name")

	_, err := s.server.handleJoin(s.mctx, params(s.T(), map[string]any{
		"displayName": "Alice",
	}))
	s.requireRPCErrorCode(err, jsonrpc.CodeInvalidParams)
	s.False(s.sctx.joined)
}

func (s *ServerTestSuite) TestLeave() {
	_, err := s.server.handleLeave(s.mctx, nil)
	s.Require().NoError(err)
	s.False(s.sctx.joined)
	s.Equal([]string{"leave:u1"}, s.roomSvc.calls)

	// not joined anymore
	_, err = s.server.handleLeave(s.mctx, nil)
	s.requireRPCErrorCode(err, jsonrpc.CodeInvalidRequest)
}

func (s *ServerTestSuite) TestRequestSpeaker() {
	_, err := s.server.handleRequestSpeaker(s.mctx, nil)
	s.Require().NoError(err)
	s.Equal([]string{"requestSpeaker:u1"}, s.roomSvc.calls)
}

func (s *ServerTestSuite) TestRequestSpeakerStateError() {
	s.roomSvc.callErr = errors.New(room.ErrState, "speaker slots are full")

	_, err := s.server.handleRequestSpeaker(s.mctx, nil)
	s.requireRPCErrorCode(err, jsonrpc.CodeInvalidRequest)
}

func (s *ServerTestSuite) TestHeartbeat() {
	s.roomSvc.heartbeat = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	result, err := s.server.handleHeartbeat(s.mctx, nil)
	s.Require().NoError(err)

	resp, ok := result.(map[string]any)
	s.Require().True(ok)
	s.Equal("2024-05-01T12:00:00Z", resp["serverTime"])
}

func (s *ServerTestSuite) TestAudioLevel() {
	_, err := s.server.handleAudioLevel(s.mctx, params(s.T(), map[string]any{
		"level": 0,
	}))
	s.Require().NoError(err)
	s.Equal(0, s.roomSvc.lastLevel)

	_, err = s.server.handleAudioLevel(s.mctx, params(s.T(), map[string]any{
		"level": 101,
	}))
	s.requireRPCErrorCode(err, jsonrpc.CodeInvalidParams)
}

func (s *ServerTestSuite) TestAudioLevelThrottled() {
	s.sctx.limiter = rate.NewLimiter(0, 1) // one token, never refilled

	_, err := s.server.handleAudioLevel(s.mctx, params(s.T(), map[string]any{
		"level": 10,
	}))
	s.Require().NoError(err)

	result, err := s.server.handleAudioLevel(s.mctx, params(s.T(), map[string]any{
		"level": 20,
	}))
	s.Require().NoError(err)

	resp, ok := result.(map[string]any)
	s.Require().True(ok)
	s.Equal(true, resp["throttled"])
	// only the first update reached the room
	s.Equal([]string{"audioLevel:u1"}, s.roomSvc.calls)
}

func (s *ServerTestSuite) TestSetMute() {
	_, err := s.server.handleSetMute(s.mctx, params(s.T(), map[string]any{
		"muted": true,
	}))
	s.Require().NoError(err)
	s.True(s.roomSvc.lastMuted)

	_, err = s.server.handleSetMute(s.mctx, params(s.T(), map[string]any{}))
	s.requireRPCErrorCode(err, jsonrpc.CodeInvalidParams)
}

func (s *ServerTestSuite) TestSignal() {
	_, err := s.server.handleSignal(s.mctx, params(s.T(), map[string]any{
		"type":    "offer",
		"toId":    "u2",
		"payload": map[string]any{"sdp": "v=0"},
	}))
	s.Require().NoError(err)

	s.Equal(room.SignalOffer, s.roomSvc.lastSignal.Kind)
	s.Equal("u1", s.roomSvc.lastSignal.FromID)
	s.Equal("u2", s.roomSvc.lastSignal.ToID)
}

func (s *ServerTestSuite) TestSignalValidation() {
	_, err := s.server.handleSignal(s.mctx, params(s.T(), map[string]any{
		"type":    "shout",
		"toId":    "u2",
		"payload": map[string]any{},
	}))
	s.requireRPCErrorCode(err, jsonrpc.CodeInvalidParams)
}

func (s *ServerTestSuite) TestReadyToListen() {
	_, err := s.server.handleReadyToListen(s.mctx, params(s.T(), map[string]any{
		"speakerIds": []string{"sp1", "sp2"},
	}))
	s.Require().NoError(err)
	s.Equal([]string{"sp1", "sp2"}, s.roomSvc.lastReady)

	_, err = s.server.handleReadyToListen(s.mctx, params(s.T(), map[string]any{
		"speakerIds": []string{},
	}))
	s.requireRPCErrorCode(err, jsonrpc.CodeInvalidParams)
}

func (s *ServerTestSuite) TestNotJoinedRejections() {
	s.sctx.joined = false

	handlers := map[string]jsonrpc.MethodHandler[sessionContext]{
		"leave":          s.server.handleLeave,
		"requestSpeaker": s.server.handleRequestSpeaker,
		"heartbeat":      s.server.handleHeartbeat,
		"audioLevel":     s.server.handleAudioLevel,
		"setMute":        s.server.handleSetMute,
		"signal":         s.server.handleSignal,
		"readyToListen":  s.server.handleReadyToListen,
	}
	for name, h := range handlers {
		_, err := h(s.mctx, nil)
		s.requireRPCErrorCode(err, jsonrpc.CodeInvalidRequest)
		s.Empty(s.roomSvc.calls, name)
	}
}

func (s *ServerTestSuite) requireRPCErrorCode(err error, code int64) {
	s.Require().Error(err)
	rpcErr, ok := err.(*jsonrpc.Error)
	s.Require().True(ok)
	s.Equal(code, rpcErr.Code)
}
