package signal

import (
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/imtaco/voice-stage/internal/errors"
	"github.com/imtaco/voice-stage/internal/jsonrpc"
	wsrpc "github.com/imtaco/voice-stage/internal/jsonrpc/websocket"
	"github.com/imtaco/voice-stage/internal/jwt"
	"github.com/imtaco/voice-stage/internal/log"
)

func NewWSHook(
	roomSvc RoomService,
	connGuard *ConnGuard,
	jwtAuth jwt.Auth,
	roomID string,
	logger *log.Logger,
) wsrpc.ConnectionHooks[sessionContext] {
	return &wsHookImpl{
		roomSvc:   roomSvc,
		connGuard: connGuard,
		jwtAuth:   jwtAuth,
		roomID:    roomID,
		logger:    logger,
	}
}

type wsHookImpl struct {
	roomSvc   RoomService
	connGuard *ConnGuard
	jwtAuth   jwt.Auth
	roomID    string
	logger    *log.Logger
}

func (h *wsHookImpl) OnVerify(r *http.Request) (*sessionContext, bool, error) {
	// Extract JWT from query parameter or header
	token := r.URL.Query().Get("token")
	if token == "" {
		token = r.Header.Get("Authorization")
		if len(token) > 7 && token[:7] == "Bearer " {
			token = token[7:]
		}
	}
	if token == "" {
		return nil, false, nil
	}

	payload, err := h.jwtAuth.Verify(token)
	if err != nil {
		if errors.Is(err, jwt.ErrInvalidToken) || errors.Is(err, jwt.ErrNoToken) {
			return nil, false, nil
		}
		return nil, false, err
	}

	// one server hosts one room; tokens minted for another are useless here
	if payload.RoomID != h.roomID {
		h.logger.Info("token for wrong room rejected",
			log.String("user_id", payload.UserID),
			log.String("room_id", payload.RoomID),
		)
		return nil, false, nil
	}

	sctx := &sessionContext{
		userID:  payload.UserID,
		roomID:  payload.RoomID,
		reqCtx:  r.Context(),
		limiter: rate.NewLimiter(audioLevelRate, audioLevelBurst),
	}
	return sctx, true, nil
}

func (h *wsHookImpl) OnConnect(mctx jsonrpc.MethodContext[sessionContext]) {
	sctx := mctx.Get()
	sctx.connID = uuid.New().String()

	h.connGuard.Hold(sctx.userID, mctx.Peer())
	connsOpened.Add(sctx.reqCtx, 1)

	h.logger.Info("client connected",
		log.String("conn_id", sctx.connID),
		log.String("user_id", sctx.userID),
		log.String("room_id", sctx.roomID),
	)
}

func (h *wsHookImpl) OnDisconnect(mctx jsonrpc.MethodContext[sessionContext], errCode int) {
	sctx := mctx.Get()
	h.connGuard.Release(sctx.userID, mctx.Peer())
	connsClosed.Add(sctx.reqCtx, 1)

	h.logger.Info("client disconnected",
		log.String("conn_id", sctx.connID),
		log.String("user_id", sctx.userID),
		log.Int("error_code", errCode),
	)

	if sctx.joined {
		// abrupt loss while a member: emergency-leave the room
		h.roomSvc.Disconnect(sctx.userID)
	}
}
