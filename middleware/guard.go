// Package middleware adapts the token-validation path to net/http for
// services that expose an HTTP admin or data surface. Tokens travel as hex
// in the Authorization header.
package middleware

import (
	"net/http"
	"strings"

	kvauth "github.com/oracle/nosql-kvauth"
	"github.com/oracle/nosql-kvauth/session"
)

// Guard validates the bearer token on every request and attaches the
// resolved subject to the request context. An invalid token is 401; a
// session backend that cannot be consulted is 503, so clients retry
// instead of discarding a possibly-good token.
func Guard(engine *kvauth.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			raw, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, err := session.DecodeHex(raw)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			subject, err := engine.ValidateLoginToken(r.Context(), token)
			if err != nil {
				http.Error(w, "service unavailable", http.StatusServiceUnavailable)
				return
			}
			if subject == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := kvauth.WithSubject(r.Context(), *subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole wraps a handler that only the named role may reach. Use after
// Guard.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject, ok := kvauth.SubjectFromContext(r.Context())
			if !ok || !subject.HasRole(role) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
