package login

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-logr/logr"

	"github.com/oracle/nosql-kvauth/autherr"
	"github.com/oracle/nosql-kvauth/session"
	"github.com/oracle/nosql-kvauth/topology"
)

// ErrNoHandle reports that no login handle is installed and the acquisition
// mode did not permit performing a login to obtain one.
var ErrNoHandle = errors.New("login: no handle available")

// ManagerConfig tunes background renewal.
type ManagerConfig struct {
	// DisableAutoRenew stops all background renewal; tokens are then used
	// until they expire and a fresh login is the caller's problem.
	DisableAutoRenew bool

	// RenewBackoff is the retry delay after a renewal the backend could
	// not answer. Zero means 60 seconds.
	RenewBackoff time.Duration

	// RenewTimeout bounds each background renewal round trip. Zero means
	// 30 seconds.
	RenewTimeout time.Duration

	// Bootstrap performs the initial login when AcquireHandle finds no
	// handle installed. Nil means acquisition is cached-only regardless of
	// the flag passed to AcquireHandle.
	Bootstrap func(ctx context.Context) (Handle, error)

	Logger logr.Logger
}

// Manager owns a login handle and keeps its token fresh: every time a
// handle is installed, a one-shot timer is scheduled at the token's
// half-life. Replacing the handle cancels the pending timer before the new
// schedule starts, so at most one schedule is live per manager.
type Manager struct {
	cfg     ManagerConfig
	backoff time.Duration
	timeout time.Duration
	log     logr.Logger

	mu         sync.Mutex
	handle     Handle
	timer      *time.Timer
	generation uint64
	closed     bool

	// loginMu serializes bootstrap logins so concurrent acquirers do not
	// create competing sessions.
	loginMu sync.Mutex
}

// NewManager builds a manager with no handle installed.
func NewManager(cfg ManagerConfig) *Manager {
	backoff := cfg.RenewBackoff
	if backoff == 0 {
		backoff = 60 * time.Second
	}
	timeout := cfg.RenewTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	log := cfg.Logger
	if cfg.Logger.GetSink() == nil {
		log = logr.Discard()
	}
	return &Manager{cfg: cfg, backoff: backoff, timeout: timeout, log: log}
}

// SetHandle installs a handle, replacing any previous one. The previous
// handle's renewal schedule is canceled; a stale timer that already fired
// observes the generation change and does nothing.
func (m *Manager) SetHandle(h Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}

	m.cancelTimerLocked()
	m.generation++
	m.handle = h

	if h != nil {
		m.scheduleLocked(h.Token())
	}
}

// Handle returns the installed handle without blocking. The second result
// is false when no handle has been installed yet; callers that cannot
// tolerate waiting for a login use this and fall back to unauthenticated
// behavior.
func (m *Manager) Handle() (Handle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handle, m.handle != nil
}

// AcquireHandle returns the installed handle. When none is installed and
// cachedOnly is false, the configured Bootstrap login runs and its handle is
// installed. Cached-only acquisition never performs network I/O: it returns
// ErrNoHandle immediately, so call paths that cannot tolerate blocking
// (a cancellable scan, for one) are never stuck behind a login round trip.
func (m *Manager) AcquireHandle(ctx context.Context, cachedOnly bool) (Handle, error) {
	if h, ok := m.Handle(); ok {
		return h, nil
	}
	if cachedOnly || m.cfg.Bootstrap == nil {
		return nil, ErrNoHandle
	}

	m.loginMu.Lock()
	defer m.loginMu.Unlock()
	if h, ok := m.Handle(); ok {
		return h, nil
	}

	h, err := m.cfg.Bootstrap(ctx)
	if err != nil {
		return nil, err
	}
	m.SetHandle(h)
	return h, nil
}

// SetTopology promotes the current handle to a topology-aware one bound to
// the same token, typically once the directory service becomes reachable
// after a bootstrap login. The previous handle's renewal schedule is
// canceled and a fresh one starts against the new handle. Without an
// installed handle there is no token to re-bind and the call is a no-op.
func (m *Manager) SetTopology(dial Dialer, resolver topology.Resolver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || m.handle == nil {
		return
	}

	tok := m.handle.Token()
	m.cancelTimerLocked()
	m.generation++
	m.handle = NewTopologyHandle(dial, resolver, tok)
	m.scheduleLocked(tok)
}

// Logout discards the current handle's session and stops renewal.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	h := m.handle
	m.cancelTimerLocked()
	m.generation++
	m.handle = nil
	m.mu.Unlock()

	if h == nil {
		return nil
	}
	return h.LogoutToken(ctx)
}

// Close stops background renewal without logging out.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.cancelTimerLocked()
	m.generation++
	m.handle = nil
}

func (m *Manager) cancelTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

// scheduleLocked arms the half-life timer for a token. Tokens with no
// expiration never need renewal.
func (m *Manager) scheduleLocked(tok *session.Token) {
	if m.cfg.DisableAutoRenew || tok == nil || tok.ExpireAt() == 0 {
		return
	}

	remaining := time.Duration(tok.ExpireAt()-time.Now().UnixMilli()) * time.Millisecond
	delay := remaining / 2
	if delay < time.Second {
		delay = time.Second
	}
	m.armLocked(delay)
}

func (m *Manager) armLocked(delay time.Duration) {
	gen := m.generation
	m.timer = time.AfterFunc(delay, func() {
		m.renewTick(gen)
	})
}

func (m *Manager) renewTick(gen uint64) {
	m.mu.Lock()
	if m.closed || gen != m.generation || m.handle == nil {
		m.mu.Unlock()
		return
	}
	h := m.handle
	prev := h.Token()
	m.mu.Unlock()

	if prev == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	renewed, err := h.RenewToken(ctx, prev)
	cancel()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || gen != m.generation {
		return
	}

	switch {
	case err == nil && renewed != nil:
		m.scheduleLocked(renewed)
	case err == nil:
		// Renewal refused outright; the handle stopped asking and so do we.
		m.log.V(1).Info("session renewal not offered, stopping background renewal")
	case autherr.IsIndeterminate(err):
		m.log.Error(err, "session renewal inconclusive, backing off")
		m.armLocked(m.backoff)
	default:
		// The session is authoritatively dead. Renewing cannot help; a
		// fresh login is required.
		m.log.Error(err, "session no longer valid, background renewal stopped")
	}
}
