// Package audit provides the internal audit event model and the async
// dispatcher that forwards events to a caller-supplied sink.
//
// # What this package must NOT do
//
//   - Block login or validation paths on sink latency (that is what the
//     dispatcher goroutine is for).
//   - Carry raw session id bytes in events; only display hashes.
package audit
