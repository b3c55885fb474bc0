package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/imtaco/voice-stage/internal/errors"
	"github.com/imtaco/voice-stage/internal/jsonrpc"
	"github.com/imtaco/voice-stage/internal/log"
	"github.com/imtaco/voice-stage/internal/validation"
	"github.com/imtaco/voice-stage/room"
)

func init() {
	if err := jsonrpc.RegisterValidation("displayname", validation.ValidateDisplayName); err != nil {
		panic(err)
	}
	jsonrpc.RegisterValidationAlias("signalkind", "oneof=offer answer ice")
}

// Server exposes the room over JSON-RPC. Handlers translate wire
// parameters into room calls and room errors back into RPC errors; all
// room semantics stay in the room package.
type Server struct {
	jsonrpc.Handler[sessionContext]
	roomSvc RoomService
	logger  *log.Logger
}

func NewServer(
	handler jsonrpc.Handler[sessionContext],
	roomSvc RoomService,
	logger *log.Logger,
) *Server {
	return &Server{
		Handler: handler,
		roomSvc: roomSvc,
		logger:  logger,
	}
}

func (s *Server) Open(ctx context.Context) error {
	s.logger.Info("Opening signal server")
	s.register()
	return nil
}

func (s *Server) Close() error {
	s.logger.Info("Closing signal server")
	return nil
}

func (s *Server) register() {
	// handler is single threaded, no need to lock here
	s.Def("join", s.instrument(s.handleJoin))
	s.Def("leave", s.instrument(s.handleLeave))
	s.Def("requestSpeaker", s.instrument(s.handleRequestSpeaker))
	s.Def("heartbeat", s.instrument(s.handleHeartbeat))
	s.Def("audioLevel", s.instrument(s.handleAudioLevel))
	s.Def("setMute", s.instrument(s.handleSetMute))
	s.Def("signal", s.instrument(s.handleSignal))
	s.Def("readyToListen", s.instrument(s.handleReadyToListen))
}

func (s *Server) instrument(h jsonrpc.MethodHandler[sessionContext]) jsonrpc.MethodHandler[sessionContext] {
	return func(mctx jsonrpc.MethodContext[sessionContext], params *json.RawMessage) (any, error) {
		rpcRequests.Add(context.Background(), 1)
		result, err := h(mctx, params)
		if err != nil {
			rpcErrors.Add(context.Background(), 1)
		}
		return result, err
	}
}

type joinResponse struct {
	Role          room.RoleKind `json:"role"`
	QueuePosition int           `json:"queuePosition,omitempty"`
	Rejoined      bool          `json:"rejoined,omitempty"`
	Room          room.Snapshot `json:"room"`
}

func (s *Server) handleJoin(mctx jsonrpc.MethodContext[sessionContext], params *json.RawMessage) (any, error) {
	sctx := mctx.Get()
	if sctx.joined {
		return nil, jsonrpc.ErrInvalidRequest("already joined")
	}

	var data struct {
		DisplayName string `json:"displayName" validate:"required,displayname"`
	}
	if err := jsonrpc.ShouldBindParams(params, &data); err != nil {
		return nil, jsonrpc.ErrInvalidParams("invalid join parameters")
	}

	res, err := s.roomSvc.Join(sctx.reqCtx, sctx.userID, data.DisplayName, newMemberConn(mctx.Peer()))
	if err != nil {
		return nil, toRPCError(err)
	}

	sctx.joined = true
	sctx.displayName = data.DisplayName

	return joinResponse{
		Role:          res.Role.Kind,
		QueuePosition: res.Role.QueuePosition,
		Rejoined:      res.Rejoined,
		Room:          res.Snapshot,
	}, nil
}

func (s *Server) handleLeave(mctx jsonrpc.MethodContext[sessionContext], _ *json.RawMessage) (any, error) {
	sctx := mctx.Get()
	if !sctx.joined {
		return nil, jsonrpc.ErrInvalidRequest("not joined yet")
	}

	if err := s.roomSvc.Leave(sctx.reqCtx, sctx.userID); err != nil {
		return nil, toRPCError(err)
	}
	// the connection stays open; the client may rejoin
	sctx.joined = false

	//nolint:nilnil
	return nil, nil
}

func (s *Server) handleRequestSpeaker(mctx jsonrpc.MethodContext[sessionContext], _ *json.RawMessage) (any, error) {
	sctx := mctx.Get()
	if !sctx.joined {
		return nil, jsonrpc.ErrInvalidRequest("not joined yet")
	}

	if err := s.roomSvc.RequestSpeaker(sctx.reqCtx, sctx.userID); err != nil {
		return nil, toRPCError(err)
	}

	//nolint:nilnil
	return nil, nil
}

func (s *Server) handleHeartbeat(mctx jsonrpc.MethodContext[sessionContext], _ *json.RawMessage) (any, error) {
	sctx := mctx.Get()
	if !sctx.joined {
		return nil, jsonrpc.ErrInvalidRequest("not joined yet")
	}

	ack, err := s.roomSvc.Heartbeat(sctx.reqCtx, sctx.userID)
	if err != nil {
		return nil, toRPCError(err)
	}

	return map[string]any{
		"serverTime": ack.Format(time.RFC3339Nano),
	}, nil
}

func (s *Server) handleAudioLevel(mctx jsonrpc.MethodContext[sessionContext], params *json.RawMessage) (any, error) {
	sctx := mctx.Get()
	if !sctx.joined {
		return nil, jsonrpc.ErrInvalidRequest("not joined yet")
	}

	var data struct {
		Level *int `json:"level" validate:"required,min=0,max=100"`
	}
	if err := jsonrpc.ShouldBindParams(params, &data); err != nil {
		return nil, jsonrpc.ErrInvalidParams("invalid audio level parameters")
	}

	// advisory updates; drop the excess instead of erroring
	if !sctx.limiter.Allow() {
		throttled.Add(context.Background(), 1)
		return map[string]any{"throttled": true}, nil
	}

	if err := s.roomSvc.SetAudioLevel(sctx.reqCtx, sctx.userID, *data.Level); err != nil {
		return nil, toRPCError(err)
	}

	//nolint:nilnil
	return nil, nil
}

func (s *Server) handleSetMute(mctx jsonrpc.MethodContext[sessionContext], params *json.RawMessage) (any, error) {
	sctx := mctx.Get()
	if !sctx.joined {
		return nil, jsonrpc.ErrInvalidRequest("not joined yet")
	}

	var data struct {
		Muted *bool `json:"muted" validate:"required"`
	}
	if err := jsonrpc.ShouldBindParams(params, &data); err != nil {
		return nil, jsonrpc.ErrInvalidParams("invalid mute parameters")
	}

	if err := s.roomSvc.SetMute(sctx.reqCtx, sctx.userID, *data.Muted); err != nil {
		return nil, toRPCError(err)
	}

	//nolint:nilnil
	return nil, nil
}

func (s *Server) handleSignal(mctx jsonrpc.MethodContext[sessionContext], params *json.RawMessage) (any, error) {
	sctx := mctx.Get()
	if !sctx.joined {
		return nil, jsonrpc.ErrInvalidRequest("not joined yet")
	}

	var data struct {
		Type    string          `json:"type" validate:"required,signalkind"`
		ToID    string          `json:"toId" validate:"required"`
		Payload json.RawMessage `json:"payload" validate:"required"`
	}
	if err := jsonrpc.ShouldBindParams(params, &data); err != nil {
		return nil, jsonrpc.ErrInvalidParams("invalid signal parameters")
	}

	err := s.roomSvc.ForwardSignal(sctx.reqCtx, room.SignalMessage{
		Kind:    room.SignalKind(data.Type),
		FromID:  sctx.userID,
		ToID:    data.ToID,
		Payload: data.Payload,
	})
	if err != nil {
		return nil, toRPCError(err)
	}

	//nolint:nilnil
	return nil, nil
}

func (s *Server) handleReadyToListen(mctx jsonrpc.MethodContext[sessionContext], params *json.RawMessage) (any, error) {
	sctx := mctx.Get()
	if !sctx.joined {
		return nil, jsonrpc.ErrInvalidRequest("not joined yet")
	}

	var data struct {
		SpeakerIDs []string `json:"speakerIds" validate:"required,min=1,dive,required"`
	}
	if err := jsonrpc.ShouldBindParams(params, &data); err != nil {
		return nil, jsonrpc.ErrInvalidParams("invalid readiness parameters")
	}

	if err := s.roomSvc.ReadyToListen(sctx.reqCtx, sctx.userID, data.SpeakerIDs); err != nil {
		return nil, toRPCError(err)
	}

	//nolint:nilnil
	return nil, nil
}

func toRPCError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, room.ErrValidation):
		return jsonrpc.ErrInvalidParams(err.Error())
	case errors.Is(err, room.ErrState), errors.Is(err, room.ErrSignaling):
		return jsonrpc.ErrInvalidRequest(err.Error())
	default:
		return jsonrpc.ErrInternal(err.Error())
	}
}
