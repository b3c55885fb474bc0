package signal

import (
	"context"

	"github.com/imtaco/voice-stage/internal/jsonrpc"
	"github.com/imtaco/voice-stage/room"
)

// memberConn adapts a JSON-RPC connection to the room's Conn capability.
func newMemberConn(conn jsonrpc.Conn[sessionContext]) room.Conn {
	return &memberConn{conn: conn}
}

type memberConn struct {
	conn jsonrpc.Conn[sessionContext]
}

func (c *memberConn) Notify(ctx context.Context, method string, params any) error {
	return c.conn.Notify(ctx, method, params)
}

func (c *memberConn) Close() error {
	return c.conn.Close()
}
