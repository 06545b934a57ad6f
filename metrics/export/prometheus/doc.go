// Package prometheus exposes engine metrics in Prometheus text exposition
// format. It is dependency-free: the engine's snapshot model maps directly
// onto counters and fixed-bucket histograms, so a client library would add
// registry plumbing without adding information.
package prometheus
