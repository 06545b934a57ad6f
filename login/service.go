package login

import (
	"context"

	kvauth "github.com/oracle/nosql-kvauth"
	"github.com/oracle/nosql-kvauth/session"
	"github.com/oracle/nosql-kvauth/topology"
)

// Service is the login surface a server exposes, as seen from a client.
// Implementations wrap whatever transport the deployment uses; every error
// they return must carry an autherr kind so the handle and proxy layers can
// apply the right policy.
type Service interface {
	// Login authenticates and returns a fresh token.
	Login(ctx context.Context, creds kvauth.Credentials) (*kvauth.LoginResult, error)

	// ProxyLogin obtains a session on behalf of another principal. The auth
	// context authenticates the calling component.
	ProxyLogin(ctx context.Context, creds kvauth.ProxyCredentials, auth *session.AuthContext) (*kvauth.LoginResult, error)

	// RequestSessionExtension returns a replacement token with a later
	// expiration, or nil when extension is refused by policy or the session
	// is gone.
	RequestSessionExtension(ctx context.Context, token *session.Token) (*session.Token, error)

	// Logout destroys the session. Idempotent.
	Logout(ctx context.Context, token *session.Token) error
}

// Dialer connects to the login service at an endpoint.
type Dialer func(ctx context.Context, ep topology.Endpoint) (Service, error)

// LocalService adapts an in-process engine to the Service interface, for
// single-process deployments and tests.
type LocalService struct {
	Engine *kvauth.Engine
}

func (s *LocalService) Login(ctx context.Context, creds kvauth.Credentials) (*kvauth.LoginResult, error) {
	return s.Engine.Login(ctx, creds)
}

func (s *LocalService) ProxyLogin(ctx context.Context, creds kvauth.ProxyCredentials, auth *session.AuthContext) (*kvauth.LoginResult, error) {
	var caller *session.Token
	if auth != nil {
		caller = auth.LoginToken
	}
	return s.Engine.ProxyLogin(ctx, creds, caller)
}

func (s *LocalService) RequestSessionExtension(ctx context.Context, token *session.Token) (*session.Token, error) {
	return s.Engine.RequestSessionExtension(ctx, token)
}

func (s *LocalService) Logout(ctx context.Context, token *session.Token) error {
	return s.Engine.Logout(ctx, token)
}
