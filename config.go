package kvauth

import (
	"fmt"
	"time"

	"github.com/oracle/nosql-kvauth/internal/audit"
	"github.com/oracle/nosql-kvauth/internal/rate"
	"github.com/oracle/nosql-kvauth/session"
)

// SessionConfig controls session lifetime and persistence.
type SessionConfig struct {
	// TTL is the lifetime granted to new sessions. Zero means sessions
	// never expire.
	TTL time.Duration

	// AllowExtension enables RequestSessionExtension. When false every
	// extension request is refused without error.
	AllowExtension bool

	// RecordEncoding selects the stored record format.
	RecordEncoding session.Encoding

	// RedisPrefix namespaces session keys when a redis store is built by
	// the engine. Ignored when the caller supplies its own store.
	RedisPrefix string

	// SweepInterval is how often the in-memory store drops expired
	// records. Only used when the engine builds a memory store.
	SweepInterval time.Duration
}

// ProxyLoginConfig controls logins performed on behalf of another principal.
type ProxyLoginConfig struct {
	// Enabled turns the operation on. When false ProxyLogin returns
	// autherr.ErrUnsupportedOperation.
	Enabled bool

	// TrustedRoles lists subject roles that may proxy without a component
	// assertion.
	TrustedRoles []string
}

// MetricsConfig controls the engine's counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// Config carries everything the engine needs beyond its collaborators.
type Config struct {
	Session   SessionConfig
	Proxy     ProxyLoginConfig
	RateLimit rate.Config
	Audit     audit.Config
	Metrics   MetricsConfig
}

func defaultConfig() *Config {
	return &Config{
		Session: SessionConfig{
			TTL:            24 * time.Hour,
			AllowExtension: true,
			RecordEncoding: session.EncodingBinary,
			RedisPrefix:    "kvsess",
			SweepInterval:  time.Minute,
		},
		Proxy: ProxyLoginConfig{
			Enabled:      true,
			TrustedRoles: []string{"internal"},
		},
		RateLimit: rate.Config{
			Enabled:     false,
			MaxAttempts: 10,
			Window:      15 * time.Minute,
		},
		Audit: audit.Config{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(c *Config) *Config {
	out := *c
	out.Proxy.TrustedRoles = append([]string(nil), c.Proxy.TrustedRoles...)
	return &out
}

func validateConfig(c *Config) error {
	if c.Session.TTL < 0 {
		return fmt.Errorf("kvauth: session TTL must not be negative")
	}
	switch c.Session.RecordEncoding {
	case session.EncodingBinary, session.EncodingCBOR:
	default:
		return fmt.Errorf("kvauth: unknown record encoding %d", c.Session.RecordEncoding)
	}
	if c.Session.SweepInterval < 0 {
		return fmt.Errorf("kvauth: sweep interval must not be negative")
	}
	if c.RateLimit.Enabled {
		if c.RateLimit.MaxAttempts <= 0 {
			return fmt.Errorf("kvauth: rate limit max attempts must be positive")
		}
		if c.RateLimit.Window <= 0 {
			return fmt.Errorf("kvauth: rate limit window must be positive")
		}
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return fmt.Errorf("kvauth: audit buffer size must be positive")
	}
	return nil
}
