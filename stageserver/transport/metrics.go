package transport

import (
	"go.opentelemetry.io/otel/metric"

	intotel "github.com/imtaco/voice-stage/internal/otel"
)

var (
	tokensIssued  metric.Int64Counter
	adminDenied   metric.Int64Counter
	forceRemovals metric.Int64Counter
	roomResets    metric.Int64Counter
	beaconLeaves  metric.Int64Counter
)

func init() {
	f := intotel.NewFactory("stageserver.transport", intotel.PrefixTransport)

	f.Int64Counter(&tokensIssued, "tokens.issued",
		metric.WithDescription("Total join tokens minted"))

	f.Int64Counter(&adminDenied, "admin.denied",
		metric.WithDescription("Admin requests rejected by token auth"))

	f.Int64Counter(&forceRemovals, "admin.force_removals",
		metric.WithDescription("Members removed through the admin API"))

	f.Int64Counter(&roomResets, "admin.resets",
		metric.WithDescription("Room resets triggered through the admin API"))

	f.Int64Counter(&beaconLeaves, "beacon.leaves",
		metric.WithDescription("Leaves delivered via the unload beacon"))
}
