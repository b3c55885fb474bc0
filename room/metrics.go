package room

import (
	"go.opentelemetry.io/otel/metric"

	intotel "github.com/imtaco/voice-stage/internal/otel"
)

var (
	// Membership metrics
	memberJoins     metric.Int64Counter
	memberLeaves    metric.Int64Counter
	memberEvictions metric.Int64Counter
	membersPresent  metric.Int64UpDownCounter

	// Role change metrics
	promotions        metric.Int64Counter
	promotionRejected metric.Int64Counter
	rollbacks         metric.Int64Counter

	// Transition metrics
	transitionsStarted   metric.Int64Counter
	transitionsCompleted metric.Int64Counter
	transitionsFailed    metric.Int64Counter
	transitionDuration   metric.Float64Histogram

	// Liveness metrics
	heartbeats      metric.Int64Counter
	livenessWarned  metric.Int64Counter
	sweepRuns       metric.Int64Counter

	// Signaling metrics
	signalsForwarded metric.Int64Counter
	signalsDropped   metric.Int64Counter
)

func init() {
	f := intotel.NewFactory("room.service", intotel.PrefixRoom)

	// Membership
	f.Int64Counter(&memberJoins, "member.joins",
		metric.WithDescription("Total successful joins"))

	f.Int64Counter(&memberLeaves, "member.leaves",
		metric.WithDescription("Total voluntary or admin-driven removals"))

	f.Int64Counter(&memberEvictions, "member.evictions",
		metric.WithDescription("Total members evicted by the liveness sweep"))

	f.Int64UpDownCounter(&membersPresent, "member.present",
		metric.WithDescription("Members currently in the room"))

	// Role changes
	f.Int64Counter(&promotions, "promotion.completed",
		metric.WithDescription("Total listeners promoted to speaker"))

	f.Int64Counter(&promotionRejected, "promotion.rejected",
		metric.WithDescription("Speaker requests rejected (full slots, bad state)"))

	f.Int64Counter(&rollbacks, "promotion.rollbacks",
		metric.WithDescription("Promotions rolled back after a failed transition"))

	// Transitions
	f.Int64Counter(&transitionsStarted, "transition.started",
		metric.WithDescription("Total audio transitions started"))

	f.Int64Counter(&transitionsCompleted, "transition.completed",
		metric.WithDescription("Total audio transitions completed"))

	f.Int64Counter(&transitionsFailed, "transition.failed",
		metric.WithDescription("Total audio transitions aborted by engine errors"))

	f.Float64Histogram(&transitionDuration, "transition.duration",
		metric.WithDescription("Duration of audio transitions in seconds"),
		metric.WithUnit("s"))

	// Liveness
	f.Int64Counter(&heartbeats, "liveness.heartbeats",
		metric.WithDescription("Total heartbeats processed"))

	f.Int64Counter(&livenessWarned, "liveness.warned",
		metric.WithDescription("Total inactivity warnings sent"))

	f.Int64Counter(&sweepRuns, "liveness.sweep.runs",
		metric.WithDescription("Total liveness sweep cycles executed"))

	// Signaling
	f.Int64Counter(&signalsForwarded, "signal.forwarded",
		metric.WithDescription("Total signaling messages relayed"))

	f.Int64Counter(&signalsDropped, "signal.dropped",
		metric.WithDescription("Total signaling messages dropped (unknown target)"))
}
