package kvauth

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"

	"github.com/oracle/nosql-kvauth/internal/audit"
	"github.com/oracle/nosql-kvauth/internal/random"
	"github.com/oracle/nosql-kvauth/internal/rate"
	"github.com/oracle/nosql-kvauth/internal/trust"
	"github.com/oracle/nosql-kvauth/session"
	"github.com/oracle/nosql-kvauth/topology"
)

// Engine is the authentication service. Build one with New().Build and
// share it; all methods are safe for concurrent use.
type Engine struct {
	config   *Config
	store    session.Store
	verifier UserVerifier
	trust    *trust.Manager
	owner    *topology.ResourceID
	limiter  *rate.Limiter
	audit    *audit.Dispatcher
	metrics  *Metrics
	logger   logr.Logger

	auditDrops atomic.Uint64
}

// Metrics exposes the engine's counters.
func (e *Engine) Metrics() *Metrics {
	return e.metrics
}

// MetricsSnapshot copies the engine's counters for exporters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	return e.metrics.Snapshot()
}

// AuditDropped reports how many audit events were discarded under
// backpressure.
func (e *Engine) AuditDropped() uint64 {
	return e.auditDrops.Load()
}

// Close drains the audit dispatcher and releases any store the engine
// built itself.
func (e *Engine) Close() {
	if e.audit != nil {
		e.audit.Close()
	}
	if closer, ok := e.store.(interface{ Close() }); ok {
		closer.Close()
	}
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}

// sessionExpireAt computes the absolute expiration for a session created
// now. Zero means the session never expires.
func (e *Engine) sessionExpireAt(now int64) int64 {
	if e.config.Session.TTL == 0 {
		return 0
	}
	return now + e.config.Session.TTL.Milliseconds()
}

// newSessionID allocates a fresh session identity. Engines built with an
// owner allocate store-scoped identities; otherwise identities are
// persistent and valid across the whole deployment.
func (e *Engine) newSessionID() (session.ID, bool, error) {
	value, err := random.NewSessionIDValue()
	if err != nil {
		return session.ID{}, false, err
	}
	if e.owner != nil {
		id, err := session.NewStoreID(value, *e.owner)
		return id, false, err
	}
	id, err := session.NewPersistentID(value)
	return id, true, err
}

func (e *Engine) emitAudit(ctx context.Context, eventType, principal string, sessionRef uint32, success bool, cause error) {
	if e.audit == nil {
		return
	}
	event := audit.Event{
		ID:         random.NewEventID(),
		Timestamp:  time.Now().UTC(),
		EventType:  eventType,
		Principal:  principal,
		ClientHost: ClientHostFromContext(ctx),
		Success:    success,
	}
	if sessionRef != 0 {
		event.SessionRef = session.FormatDisplayHash(sessionRef)
	}
	if cause != nil {
		event.Error = cause.Error()
	}
	e.audit.Emit(ctx, event)
}
