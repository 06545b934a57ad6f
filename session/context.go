package session

// Subject is the authenticated principal attached to a session, together
// with the roles resolved for it at login time. Role-derived privileges are
// computed by the access layer; the session only records the names.
type Subject struct {
	Principal string
	Roles     []string
}

// Clone returns a deep copy so callers can hand subjects across goroutines
// without sharing the role slice.
func (s *Subject) Clone() *Subject {
	if s == nil {
		return nil
	}
	roles := make([]string, len(s.Roles))
	copy(roles, s.Roles)
	return &Subject{Principal: s.Principal, Roles: roles}
}

// HasRole reports whether the subject carries the named role.
func (s *Subject) HasRole(role string) bool {
	if s == nil {
		return false
	}
	for _, r := range s.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// AuthContext is the security parameter attached to every internal call.
// A nil AuthContext, or one with a nil LoginToken, means the call is
// unauthenticated.
type AuthContext struct {
	// LoginToken authenticates the immediate caller.
	LoginToken *Token

	// ForwarderToken is set when one internal component forwards a call on
	// behalf of another, preserving the original caller's identity for
	// auditing. The LoginToken then belongs to the forwarder.
	ForwarderToken *Token

	// ClientHost is the origin host of the end client, when known.
	ClientHost string
}

// Authenticated reports whether the context carries a login token.
func (a *AuthContext) Authenticated() bool {
	return a != nil && a.LoginToken != nil
}
