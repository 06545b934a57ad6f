// Package internaldefs holds the metric name table shared by the
// prometheus and otel exporters so the two surfaces never drift.
package internaldefs
