// Package kvauth is the authentication and session layer of the store:
// login token issuance, validation, renewal, revocation, and the privilege
// checks that gate every internal operation across storage, replica, and
// admin nodes.
//
// The package is designed for concurrent server workloads: Engine methods
// are safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// kvauth is the server-side surface. It exposes [Engine], [Builder],
// [Config], the audit and metrics value types, and the collaborator
// interfaces ([UserVerifier]). The session data model lives in the session
// package, the privilege universe in privilege, the access checker in
// access, and the client-side login machinery (handles, the login manager,
// the authenticating call proxy) in login. Coordination internals (rate
// limiting, audit dispatch, component trust assertions) live under
// internal/ and are never exported.
//
// # Error discipline
//
// Every Engine operation reports failure in the autherr taxonomy. Two
// outcomes are deliberately kept apart everywhere: a token or credential
// that is authoritatively invalid, and a session backend that could not be
// consulted. ValidateLoginToken returning (nil, nil) is the first; an error
// wrapping autherr.ErrSessionAccess is the second.
package kvauth
