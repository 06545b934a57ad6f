// Package login is the client side of the authentication layer: handles
// that hold and renew a token for a target service, a manager that renews
// in the background at token half-life, and a call wrapper that injects
// auth context and retries once after renewal when a callee rejects a
// stale token.
package login
