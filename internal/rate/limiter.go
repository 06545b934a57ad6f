// Package rate provides the Redis-backed fixed-window counters that
// throttle repeated failed logins per user and per client host.
//
// Counter keys: kl:<user> and klh:<host>, INCR plus a conditional EXPIRE on
// the first hit of a window.
//
// # What this package must NOT do
//
//   - Decide what a limit breach means; the engine maps ErrRateLimited into
//     its own taxonomy.
//   - Be imported outside this module.
package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrRateLimited means the attempt budget for the window is spent.
	ErrRateLimited = errors.New("rate limited")
	// ErrBackendUnavailable means the counter backend could not be reached.
	ErrBackendUnavailable = errors.New("rate limit backend unavailable")
)

// Config holds limiter tuning parameters.
type Config struct {
	Enabled          bool
	EnableHostWindow bool
	MaxAttempts      int
	Window           time.Duration
}

// Limiter enforces failed-login budgets using Redis counters. A nil Limiter
// permits everything.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a limiter. Returns nil when disabled or no client is wired,
// which callers treat as "no throttling".
func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	if !cfg.Enabled || redisClient == nil {
		return nil
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 10
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	return &Limiter{redis: redisClient, config: cfg}
}

func userKey(user string) string { return "kl:" + user }
func hostKey(host string) string { return "klh:" + host }

// Check reports whether the user+host pair is still inside its attempt
// budget.
func (l *Limiter) Check(ctx context.Context, user, host string) error {
	if l == nil {
		return nil
	}
	if err := l.checkCounter(ctx, userKey(user)); err != nil {
		return err
	}
	if l.config.EnableHostWindow && host != "" {
		return l.checkCounter(ctx, hostKey(host))
	}
	return nil
}

// RecordFailure counts a failed attempt for the user+host pair.
func (l *Limiter) RecordFailure(ctx context.Context, user, host string) error {
	if l == nil {
		return nil
	}
	count, err := l.incrementWithTTL(ctx, userKey(user))
	if err != nil {
		return err
	}
	if count > int64(l.config.MaxAttempts) {
		return ErrRateLimited
	}
	if l.config.EnableHostWindow && host != "" {
		count, err = l.incrementWithTTL(ctx, hostKey(host))
		if err != nil {
			return err
		}
		if count > int64(l.config.MaxAttempts) {
			return ErrRateLimited
		}
	}
	return nil
}

// Reset clears the user's window after a successful login.
func (l *Limiter) Reset(ctx context.Context, user string) error {
	if l == nil {
		return nil
	}
	if err := l.redis.Del(ctx, userKey(user)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}

func (l *Limiter) checkCounter(ctx context.Context, key string) error {
	count, err := l.redis.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if count >= int64(l.config.MaxAttempts) {
		return ErrRateLimited
	}
	return nil
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.config.Window).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
		}
	}
	return count, nil
}
