package login

import (
	"context"
	"fmt"

	"github.com/oracle/nosql-kvauth/autherr"
	"github.com/oracle/nosql-kvauth/session"
	"github.com/oracle/nosql-kvauth/topology"
)

// TopologyHandle renews and discards its token by resolving a login
// endpoint through the topology directory on every round trip, so it
// follows the deployment as nodes move.
type TopologyHandle struct {
	holder   *tokenHolder
	dial     Dialer
	resolver topology.Resolver
}

// NewTopologyHandle wraps an already-obtained token in a topology-aware
// handle. Callers typically build one from a bootstrap handle's token once
// the directory is available.
func NewTopologyHandle(dial Dialer, resolver topology.Resolver, token *session.Token) *TopologyHandle {
	return &TopologyHandle{
		holder:   newTokenHolder(token),
		dial:     dial,
		resolver: resolver,
	}
}

// Token implements Handle.
func (h *TopologyHandle) Token() *session.Token {
	return h.holder.token()
}

// RenewToken implements Handle.
func (h *TopologyHandle) RenewToken(ctx context.Context, prev *session.Token) (*session.Token, error) {
	return h.holder.renew(ctx, prev, func(ctx context.Context, tok *session.Token) (*session.Token, error) {
		var renewed *session.Token
		err := h.eachEndpoint(ctx, tok, func(svc Service) error {
			var err error
			renewed, err = svc.RequestSessionExtension(ctx, tok)
			return err
		})
		return renewed, err
	})
}

// LogoutToken implements Handle.
func (h *TopologyHandle) LogoutToken(ctx context.Context) error {
	return h.holder.logout(ctx, func(ctx context.Context, tok *session.Token) error {
		return h.eachEndpoint(ctx, tok, func(svc Service) error {
			return svc.Logout(ctx, tok)
		})
	})
}

// IsUsable implements Handle. Persistent and store-scoped sessions are
// honored anywhere in the store; a local session only at its allocator.
func (h *TopologyHandle) IsUsable(rt topology.ResourceType) bool {
	tok := h.holder.token()
	if tok == nil {
		return false
	}
	id := tok.ID()
	switch id.Scope() {
	case session.Persistent, session.StoreWide:
		return true
	default:
		alloc, ok := id.Allocator()
		return ok && alloc.Type == rt
	}
}

// eachEndpoint resolves the login endpoints for the token's session and
// runs op against each until one answers. Dial and backend faults move to
// the next candidate; a definitive answer (success or rejection) stops the
// loop immediately.
func (h *TopologyHandle) eachEndpoint(ctx context.Context, tok *session.Token, op func(Service) error) error {
	endpoints, err := h.resolveFor(ctx, tok)
	if err != nil {
		return fmt.Errorf("%w: resolving login endpoint: %v", autherr.ErrSessionAccess, err)
	}

	var lastErr error
	for _, ep := range endpoints {
		svc, err := h.dial(ctx, ep)
		if err != nil {
			lastErr = fmt.Errorf("%w: dialing %s: %v", autherr.ErrSessionAccess, ep, err)
			continue
		}
		err = op(svc)
		if err == nil || !autherr.IsIndeterminate(err) {
			return err
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("%w: no login endpoints", autherr.ErrSessionAccess)
	}
	return lastErr
}

func (h *TopologyHandle) resolveFor(ctx context.Context, tok *session.Token) ([]topology.Endpoint, error) {
	id := tok.ID()
	if alloc, ok := id.Allocator(); ok {
		return h.resolver.Resolve(ctx, alloc)
	}
	// Persistent sessions can be served by any healthy replica.
	ep, err := h.resolver.AnyHealthyReplica(ctx)
	if err != nil {
		return nil, err
	}
	return []topology.Endpoint{ep}, nil
}
