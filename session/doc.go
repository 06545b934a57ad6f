// Package session holds the session data model of the store's security
// layer: the scoped session identity, the login token handed to clients,
// the server-side session record, and the stores that persist records.
//
// # Wire contracts
//
// The encodings of [ID] and [Token] are stable wire contracts shared with
// non-RPC channels (HTTP headers carry tokens as hex). Scope ordinals and
// field order must never change. The session *record* blob is engine
// internal: it is versioned and may be carried in either the length-prefixed
// binary layout or CBOR, selected per store.
//
// # What this package must NOT do
//
//   - Decide validity policy. A store reports what it found; the engine
//     decides what an absent or expired record means.
//   - Convert backend unavailability into "not found". [ErrStoreUnavailable]
//     and [ErrSessionNotFound] are distinct for a reason.
package session
