// Package otel bridges engine metrics to an OpenTelemetry meter using
// observable instruments, so the engine's lock-free counters are read only
// at collection time.
package otel
