package otel

// Metric prefixes for each surface of the stage server.
// Each package defines its own metric names and uses these prefixes.
const (
	PrefixRoom        = "room"
	PrefixSignal      = "signal"
	PrefixTransport   = "transport"
	PrefixAudioEngine = "audio_engine"
)
