package signal

import (
	"go.opentelemetry.io/otel/metric"

	intotel "github.com/imtaco/voice-stage/internal/otel"
)

var (
	connsOpened     metric.Int64Counter
	connsClosed     metric.Int64Counter
	connsSuperseded metric.Int64Counter

	rpcRequests metric.Int64Counter
	rpcErrors   metric.Int64Counter
	throttled   metric.Int64Counter
)

func init() {
	f := intotel.NewFactory("stageserver.signal", intotel.PrefixSignal)

	f.Int64Counter(&connsOpened, "ws.connects",
		metric.WithDescription("Total WebSocket connections accepted"))

	f.Int64Counter(&connsClosed, "ws.disconnects",
		metric.WithDescription("Total WebSocket disconnects"))

	f.Int64Counter(&connsSuperseded, "ws.superseded",
		metric.WithDescription("Connections closed because the user reconnected"))

	f.Int64Counter(&rpcRequests, "rpc.requests",
		metric.WithDescription("Total RPC requests handled"))

	f.Int64Counter(&rpcErrors, "rpc.errors",
		metric.WithDescription("Total RPC requests answered with an error"))

	f.Int64Counter(&throttled, "rpc.throttled",
		metric.WithDescription("Audio level updates dropped by the rate limiter"))
}
