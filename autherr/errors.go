// Package autherr defines the error taxonomy shared by the login service,
// the client-side login machinery, and the access checker. Every operation
// in those layers reports failure as one of the kinds below; callers branch
// on [KindOf] rather than on concrete error values from lower layers.
//
// The one distinction this package exists to preserve: an authoritatively
// invalid credential or token (AuthenticationFailure / AuthenticationRequired)
// is a different outcome from a backend that could not be consulted
// (SessionAccess). Collapsing the two changes client retry behavior and can
// cause spurious logouts or masked outages.
package autherr

import (
	"errors"
	"fmt"
)

// Kind classifies an auth-layer failure.
type Kind int

const (
	// KindNone means the error does not belong to the auth taxonomy.
	KindNone Kind = iota
	// KindAuthenticationFailure: credentials rejected outright. Never
	// retried automatically.
	KindAuthenticationFailure
	// KindAuthenticationRequired: no, invalid, or expired token presented.
	// Triggers the one-shot renew-and-retry at the call-proxy layer.
	KindAuthenticationRequired
	// KindSessionAccess: the session-validating backend could not be
	// reached. Callers apply their own retry policy and must not conclude
	// the session is bad.
	KindSessionAccess
	// KindUnsupportedOperation: the server role or policy does not offer
	// the requested capability. Not retried.
	KindUnsupportedOperation
	// KindAuthorizationDenied: authenticated but insufficient privileges.
	// Never retried.
	KindAuthorizationDenied
	// KindValidation: malformed argument, rejected locally before any
	// network interaction.
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindAuthenticationFailure:
		return "authentication failure"
	case KindAuthenticationRequired:
		return "authentication required"
	case KindSessionAccess:
		return "session access failure"
	case KindUnsupportedOperation:
		return "unsupported operation"
	case KindAuthorizationDenied:
		return "authorization denied"
	case KindValidation:
		return "validation error"
	}
	return "none"
}

var (
	// ErrAuthenticationFailure is the sentinel for rejected credentials.
	ErrAuthenticationFailure = errors.New("authentication failed")
	// ErrAuthenticationRequired is the sentinel for missing or invalid tokens.
	ErrAuthenticationRequired = errors.New("authentication required")
	// ErrSessionAccess is the sentinel for an unreachable session backend.
	ErrSessionAccess = errors.New("session backend inaccessible")
	// ErrUnsupportedOperation is the sentinel for capability mismatches.
	ErrUnsupportedOperation = errors.New("operation not supported by this service")
	// ErrAuthorizationDenied is the sentinel for insufficient privileges.
	ErrAuthorizationDenied = errors.New("insufficient access rights")
	// ErrValidation is the sentinel for malformed local arguments.
	ErrValidation = errors.New("invalid argument")
)

var kinds = map[Kind]error{
	KindAuthenticationFailure:  ErrAuthenticationFailure,
	KindAuthenticationRequired: ErrAuthenticationRequired,
	KindSessionAccess:          ErrSessionAccess,
	KindUnsupportedOperation:   ErrUnsupportedOperation,
	KindAuthorizationDenied:    ErrAuthorizationDenied,
	KindValidation:             ErrValidation,
}

// KindOf returns the taxonomy kind of err, unwrapping nested faults. A
// lower transport layer may box a session-access failure inside a generic
// internal fault; the errors.Is walk recovers the original kind so callers
// apply the right policy.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	for k, sentinel := range kinds {
		if errors.Is(err, sentinel) {
			return k
		}
	}
	return KindNone
}

// IsIndeterminate reports whether err means "could not determine" rather
// than "determined invalid".
func IsIndeterminate(err error) bool {
	return KindOf(err) == KindSessionAccess
}

// Internal boxes an arbitrary cause the way a transport layer reports an
// internal fault. KindOf sees through it to the cause's kind.
type Internal struct {
	Cause error
}

func (e *Internal) Error() string {
	return fmt.Sprintf("internal service fault: %v", e.Cause)
}

func (e *Internal) Unwrap() error {
	return e.Cause
}
