package login

import (
	"context"
	"fmt"

	kvauth "github.com/oracle/nosql-kvauth"
	"github.com/oracle/nosql-kvauth/autherr"
	"github.com/oracle/nosql-kvauth/session"
	"github.com/oracle/nosql-kvauth/topology"
)

// BootstrapHandle is the handle used before the client has learned the
// topology: it is pinned to the one service it managed to log in through.
type BootstrapHandle struct {
	holder *tokenHolder
	svc    Service
	usable map[topology.ResourceType]bool
}

// Bootstrap logs in through a list of candidate endpoints, trying each in
// order. Dial failures and backend-indeterminate errors move on to the next
// candidate; definitive rejections (bad credentials, unsupported operation)
// also move on but are preserved, and the first such rejection becomes the
// reported cause when every candidate fails.
func Bootstrap(ctx context.Context, dial Dialer, endpoints []topology.Endpoint, creds kvauth.Credentials, usableAt ...topology.ResourceType) (*BootstrapHandle, error) {
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("%w: no bootstrap endpoints", autherr.ErrValidation)
	}

	var firstRejection error
	var lastFault error

	for _, ep := range endpoints {
		svc, err := dial(ctx, ep)
		if err != nil {
			lastFault = fmt.Errorf("dialing %s: %w", ep, err)
			continue
		}

		result, err := svc.Login(ctx, creds)
		if err == nil {
			return newBootstrapHandle(svc, result.Token, usableAt), nil
		}

		switch autherr.KindOf(err) {
		case autherr.KindSessionAccess, autherr.KindNone:
			lastFault = fmt.Errorf("login at %s: %w", ep, err)
		default:
			if firstRejection == nil {
				firstRejection = err
			}
		}
	}

	if firstRejection != nil {
		return nil, firstRejection
	}
	return nil, lastFault
}

// ProxyBootstrap is Bootstrap for proxy logins: the component authenticates
// itself through auth and obtains a session for another principal.
func ProxyBootstrap(ctx context.Context, dial Dialer, endpoints []topology.Endpoint, creds kvauth.ProxyCredentials, auth *session.AuthContext, usableAt ...topology.ResourceType) (*BootstrapHandle, error) {
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("%w: no bootstrap endpoints", autherr.ErrValidation)
	}

	var firstRejection error
	var lastFault error

	for _, ep := range endpoints {
		svc, err := dial(ctx, ep)
		if err != nil {
			lastFault = fmt.Errorf("dialing %s: %w", ep, err)
			continue
		}

		result, err := svc.ProxyLogin(ctx, creds, auth)
		if err == nil {
			return newBootstrapHandle(svc, result.Token, usableAt), nil
		}

		switch autherr.KindOf(err) {
		case autherr.KindSessionAccess, autherr.KindNone:
			lastFault = fmt.Errorf("proxy login at %s: %w", ep, err)
		default:
			if firstRejection == nil {
				firstRejection = err
			}
		}
	}

	if firstRejection != nil {
		return nil, firstRejection
	}
	return nil, lastFault
}

func newBootstrapHandle(svc Service, token *session.Token, usableAt []topology.ResourceType) *BootstrapHandle {
	usable := make(map[topology.ResourceType]bool, len(usableAt))
	for _, rt := range usableAt {
		usable[rt] = true
	}
	return &BootstrapHandle{
		holder: newTokenHolder(token),
		svc:    svc,
		usable: usable,
	}
}

// Token implements Handle.
func (h *BootstrapHandle) Token() *session.Token {
	return h.holder.token()
}

// RenewToken implements Handle.
func (h *BootstrapHandle) RenewToken(ctx context.Context, prev *session.Token) (*session.Token, error) {
	return h.holder.renew(ctx, prev, h.svc.RequestSessionExtension)
}

// LogoutToken implements Handle.
func (h *BootstrapHandle) LogoutToken(ctx context.Context) error {
	return h.holder.logout(ctx, h.svc.Logout)
}

// IsUsable implements Handle. A bootstrap handle's token is trusted only by
// the resource types it was told about at construction; before topology is
// known there is no basis for a wider claim.
func (h *BootstrapHandle) IsUsable(rt topology.ResourceType) bool {
	return h.usable[rt]
}
