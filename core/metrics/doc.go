package metrics

// Package metrics defines interfaces and implementations for collecting
// upload metrics. Sinks like PromSink and InfluxSink record events such as
// stage completions or API retries and can be combined with NewMultiSink.
// The factory helpers return a MultiSink automatically when multiple sinks
// are configured.
