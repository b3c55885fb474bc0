package audioengine

import (
	"go.opentelemetry.io/otel/metric"

	intotel "github.com/imtaco/voice-stage/internal/otel"
)

var (
	bridgeCommands        metric.Int64Counter
	bridgeCommandFailures metric.Int64Counter
	bridgeFlips           metric.Int64Counter
)

func init() {
	f := intotel.NewFactory("audioengine", intotel.PrefixAudioEngine)

	f.Int64Counter(&bridgeCommands, "bridge.commands",
		metric.WithDescription("Total stream commands issued to the bridge"))

	f.Int64Counter(&bridgeCommandFailures, "bridge.command_failures",
		metric.WithDescription("Stream commands that failed after retries"))

	f.Int64Counter(&bridgeFlips, "bridge.availability_changes",
		metric.WithDescription("Bridge health probe state changes"))
}
