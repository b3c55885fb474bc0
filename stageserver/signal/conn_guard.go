package signal

import (
	"context"

	"github.com/imtaco/voice-stage/internal/jsonrpc"
	"github.com/imtaco/voice-stage/internal/log"
	isync "github.com/imtaco/voice-stage/internal/sync"
)

// ConnGuard keeps at most one live WebSocket per user. A new connection
// for the same user supersedes the old one, which is closed; its
// disconnect hook then runs the usual emergency-leave path.
type ConnGuard struct {
	conns  *isync.Map[string, jsonrpc.Conn[sessionContext]]
	logger *log.Logger
}

func NewConnGuard(logger *log.Logger) *ConnGuard {
	return &ConnGuard{
		conns:  isync.NewMap[string, jsonrpc.Conn[sessionContext]](),
		logger: logger.Module("conn_guard"),
	}
}

func (g *ConnGuard) Hold(userID string, conn jsonrpc.Conn[sessionContext]) {
	var old jsonrpc.Conn[sessionContext]
	g.conns.WithLock(func(view isync.View[string, jsonrpc.Conn[sessionContext]]) {
		if cur, ok := view.Get(userID); ok && cur != conn {
			old = cur
		}
		view.Set(userID, conn)
	})

	if old != nil {
		connsSuperseded.Add(context.Background(), 1)
		g.logger.Warn("superseding existing connection",
			log.String("user_id", userID),
		)
		if err := old.Close(); err != nil {
			g.logger.Debug("close superseded connection failed",
				log.String("user_id", userID),
				log.Error(err),
			)
		}
	}
}

// Release forgets the mapping only if conn still owns it, so a
// superseded connection's disconnect cannot evict its successor.
func (g *ConnGuard) Release(userID string, conn jsonrpc.Conn[sessionContext]) bool {
	return g.conns.CompareAndDelete(userID, conn)
}

func (g *ConnGuard) Active() int {
	n := 0
	g.conns.Range(func(string, jsonrpc.Conn[sessionContext]) bool {
		n++
		return true
	})
	return n
}
