package kvauth

import (
	"fmt"

	"github.com/oracle/nosql-kvauth/autherr"
)

var (
	// ErrPasswordExpired is returned by a UserVerifier when the credentials
	// are correct but the password must be renewed before a session can be
	// created. Carries the authentication-failure kind.
	ErrPasswordExpired = fmt.Errorf("%w: password expired", autherr.ErrAuthenticationFailure)

	// ErrLoginRateLimited is returned when the login attempt window for a
	// user or host is exhausted. Carries the authentication-failure kind.
	ErrLoginRateLimited = fmt.Errorf("%w: too many login attempts", autherr.ErrAuthenticationFailure)

	// ErrProxyNotTrusted is returned when a proxy login carries no
	// acceptable component assertion and the caller holds no trusted role.
	// Carries the authentication-required kind: the caller must present a
	// better credential, not wait and retry.
	ErrProxyNotTrusted = fmt.Errorf("%w: proxy caller not trusted", autherr.ErrAuthenticationRequired)
)
