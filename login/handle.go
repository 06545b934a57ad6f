package login

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/oracle/nosql-kvauth/autherr"
	"github.com/oracle/nosql-kvauth/session"
	"github.com/oracle/nosql-kvauth/topology"
)

// Handle holds a login token for one target and knows how to renew and
// discard it. Implementations are safe for use by many goroutines sharing
// one handle.
type Handle interface {
	// Token returns the current token, or nil after logout.
	Token() *session.Token

	// RenewToken attempts to replace prev with a fresher token. If the
	// handle's token already differs from prev another caller got there
	// first; the current token is returned with no round trip. A nil
	// result with nil error means the server refused renewal and the
	// handle stops asking. An error means the backend could not be
	// consulted; the token's validity is undetermined.
	RenewToken(ctx context.Context, prev *session.Token) (*session.Token, error)

	// LogoutToken destroys the session behind the current token and clears
	// it. Idempotent; a server that has already forgotten the session is
	// treated as success.
	LogoutToken(ctx context.Context) error

	// IsUsable reports whether the handle's token can authenticate calls
	// to the given resource type.
	IsUsable(rt topology.ResourceType) bool
}

// extendFunc performs the server round trip for one renewal.
type extendFunc func(ctx context.Context, prev *session.Token) (*session.Token, error)

// logoutFunc performs the server round trip for logout.
type logoutFunc func(ctx context.Context, token *session.Token) error

// tokenHolder is the renewal state machine shared by every handle variant.
// The current token is the only hot-path mutable state; it is replaced only
// under mu after re-checking that it still equals the token the caller
// renewed from, so concurrent callers racing on the same stale token
// produce exactly one round trip and all observe the winner's result.
type tokenHolder struct {
	current atomic.Pointer[session.Token]

	// mu serializes the server round trips, not Token reads.
	mu sync.Mutex

	renewUnsupported atomic.Bool
}

func newTokenHolder(token *session.Token) *tokenHolder {
	h := &tokenHolder{}
	h.current.Store(token)
	return h
}

func (h *tokenHolder) token() *session.Token {
	return h.current.Load()
}

func tokensEqual(a, b *session.Token) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(b)
}

func (h *tokenHolder) renew(ctx context.Context, prev *session.Token, extend extendFunc) (*session.Token, error) {
	if cur := h.current.Load(); !tokensEqual(cur, prev) {
		// Someone already advanced past prev; their result stands.
		return cur, nil
	}
	if h.renewUnsupported.Load() {
		return h.current.Load(), nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	// Re-check under the lock: a renewal that completed while we waited
	// already replaced prev, or latched the refusal.
	cur := h.current.Load()
	if !tokensEqual(cur, prev) {
		return cur, nil
	}
	if h.renewUnsupported.Load() {
		return cur, nil
	}
	if cur == nil {
		return nil, nil
	}

	renewed, err := extend(ctx, prev)
	if err != nil {
		return nil, err
	}
	if renewed == nil {
		h.renewUnsupported.Store(true)
		return cur, nil
	}

	h.current.Store(renewed)
	return renewed, nil
}

func (h *tokenHolder) logout(ctx context.Context, doLogout logoutFunc) error {
	if h.current.Load() == nil {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	cur := h.current.Load()
	if cur == nil {
		return nil
	}

	err := doLogout(ctx, cur)
	switch autherr.KindOf(err) {
	case autherr.KindNone:
		if err != nil {
			return err
		}
	case autherr.KindAuthenticationRequired:
		// A session the server has already forgotten is indistinguishable
		// from one we just logged out.
	default:
		return err
	}

	h.current.Store(nil)
	return nil
}
