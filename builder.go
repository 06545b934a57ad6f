package kvauth

import (
	"errors"

	"github.com/go-logr/logr"
	"github.com/redis/go-redis/v9"

	"github.com/oracle/nosql-kvauth/internal/audit"
	"github.com/oracle/nosql-kvauth/internal/rate"
	"github.com/oracle/nosql-kvauth/internal/trust"
	"github.com/oracle/nosql-kvauth/session"
	"github.com/oracle/nosql-kvauth/topology"
)

// Builder assembles an Engine. Configure it during initialization and call
// Build once.
type Builder struct {
	config *Config
	redis  *redis.Client

	store    session.Store
	verifier UserVerifier
	trust    *trust.Manager
	sink     audit.Sink
	logger   logr.Logger
	owner    *topology.ResourceID

	hasLogger bool
	built     bool
}

// New starts a builder with default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the default configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(&cfg)
	return b
}

// WithRedis supplies the redis client used for session storage and rate
// limiting.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithSessionStore supplies a session store directly, bypassing the
// engine-built redis or memory store.
func (b *Builder) WithSessionStore(store session.Store) *Builder {
	b.store = store
	return b
}

// WithUserVerifier supplies the credential checker.
func (b *Builder) WithUserVerifier(v UserVerifier) *Builder {
	b.verifier = v
	return b
}

// WithTrust supplies the component-assertion verifier used by proxy login.
func (b *Builder) WithTrust(tm *trust.Manager) *Builder {
	b.trust = tm
	return b
}

// WithAuditSink supplies the audit event receiver.
func (b *Builder) WithAuditSink(sink audit.Sink) *Builder {
	b.sink = sink
	return b
}

// WithLogger supplies the engine's logger.
func (b *Builder) WithLogger(log logr.Logger) *Builder {
	b.logger = log
	b.hasLogger = true
	return b
}

// WithOwner names the resource that allocates sessions from this engine.
// Sessions become non-persistent, scoped to the owner.
func (b *Builder) WithOwner(owner topology.ResourceID) *Builder {
	b.owner = &owner
	return b
}

// Build validates the configuration and assembles the engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	if b.verifier == nil {
		return nil, errors.New("user verifier required")
	}
	if cfg.RateLimit.Enabled && b.redis == nil {
		return nil, errors.New("rate limiting requires redis client")
	}

	store := b.store
	if store == nil {
		if b.redis != nil {
			store = session.NewRedisStore(b.redis, cfg.Session.RedisPrefix,
				cfg.Session.RecordEncoding)
		} else {
			store = session.NewMemoryStore(cfg.Session.SweepInterval)
		}
	}

	engine := &Engine{
		config:   cfg,
		store:    store,
		verifier: b.verifier,
		trust:    b.trust,
		owner:    b.owner,
		logger:   logr.Discard(),
		metrics:  NewMetrics(cfg.Metrics),
	}
	auditCfg := cfg.Audit
	auditCfg.OnDrop = func() { engine.auditDrops.Add(1) }
	engine.audit = audit.NewDispatcher(auditCfg, b.sink)
	if b.hasLogger {
		engine.logger = b.logger
	}
	if cfg.RateLimit.Enabled {
		engine.limiter = rate.New(b.redis, cfg.RateLimit)
	}

	b.built = true

	return engine, nil
}
