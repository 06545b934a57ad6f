package kvauth

import (
	"github.com/oracle/nosql-kvauth/session"
)

// Credentials are what a user presents at login.
type Credentials struct {
	Username string
	Password []byte
}

// ProxyCredentials are presented by an internal component logging in on
// behalf of a named user.
type ProxyCredentials struct {
	// Target is the principal the session will represent.
	Target string

	// Assertion is a signed component assertion proving the caller's
	// identity. May be empty when the caller's own session carries a
	// trusted role.
	Assertion string
}

// RenewCredentials carry a login with a replacement password, accepted only
// when the current password is expired.
type RenewCredentials struct {
	Username    string
	OldPassword []byte
	NewPassword []byte
}

// LoginResult is returned by the login operations.
type LoginResult struct {
	Token *session.Token
}

// UserInfo describes a verified principal.
type UserInfo struct {
	Principal string
	Roles     []string

	// Internal marks components of the store itself, as opposed to end
	// users.
	Internal bool
}

// Subject converts the info into a session subject.
func (u UserInfo) Subject() session.Subject {
	return session.Subject{
		Principal: u.Principal,
		Roles:     append([]string(nil), u.Roles...),
	}
}

// ValidatedSubject is the outcome of a successful token validation.
type ValidatedSubject struct {
	Principal string
	Roles     []string

	// SessionRef is the session's display hash, safe to log.
	SessionRef uint32
}

// HasRole reports whether the subject holds the named role.
func (v ValidatedSubject) HasRole(role string) bool {
	for _, r := range v.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// UserVerifier answers credential checks. Implementations must not retain
// the password slices passed to them.
type UserVerifier interface {
	// VerifyLogin checks the credentials and returns the verified user.
	// It returns ErrPasswordExpired when the password matched but must be
	// changed, and autherr.ErrAuthenticationFailure for bad credentials.
	VerifyLogin(username string, password []byte) (*UserInfo, error)

	// RenewPassword replaces the user's password after verifying the old
	// one. It is accepted only for users whose password is expired.
	RenewPassword(username string, oldPassword, newPassword []byte) (*UserInfo, error)

	// LookupUser returns the user without checking a password. Used by
	// proxy login.
	LookupUser(username string) (*UserInfo, error)
}
