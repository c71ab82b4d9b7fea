package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	emailCounterPrefix = "login_attempts:"
	ipCounterPrefix    = "login_attempts_ip:"
)

// ErrLimited is returned when an identifier or IP has exhausted its login
// attempts for the current window.
var ErrLimited = errors.New("rate limited")

// Config holds limiter tuning parameters. Counters use a fixed window: the
// first failure in a window sets the TTL and later failures ride it out.
type Config struct {
	Enabled     bool
	MaxAttempts int
	Window      time.Duration
}

// Limiter tracks failed login attempts per email and per client IP using
// Redis counters. A nil *Limiter is a valid no-op.
type Limiter struct {
	redis redis.UniversalClient
	cfg   Config
}

// New creates a login rate limiter backed by the given Redis client. Returns
// nil when limiting is disabled or no client is available.
func New(client redis.UniversalClient, cfg Config) *Limiter {
	if !cfg.Enabled || client == nil {
		return nil
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.Window <= 0 {
		cfg.Window = 15 * time.Minute
	}
	return &Limiter{redis: client, cfg: cfg}
}

// CheckLogin reports ErrLimited when either the email or the IP counter has
// reached the configured ceiling. The IP check is skipped for an empty IP.
func (l *Limiter) CheckLogin(ctx context.Context, email, ip string) error {
	if l == nil {
		return nil
	}

	if err := l.checkCounter(ctx, emailCounterPrefix+email); err != nil {
		return err
	}
	if ip != "" {
		return l.checkCounter(ctx, ipCounterPrefix+ip)
	}
	return nil
}

// IncrementLogin records a failed attempt against both counters.
func (l *Limiter) IncrementLogin(ctx context.Context, email, ip string) error {
	if l == nil {
		return nil
	}

	if err := l.incrementWithTTL(ctx, emailCounterPrefix+email); err != nil {
		return err
	}
	if ip != "" {
		return l.incrementWithTTL(ctx, ipCounterPrefix+ip)
	}
	return nil
}

// ResetLogin clears the email counter after a successful login. IP counters
// are left to expire; a shared NAT address should not be forgiven by one
// user's success.
func (l *Limiter) ResetLogin(ctx context.Context, email string) error {
	if l == nil {
		return nil
	}
	if err := l.redis.Del(ctx, emailCounterPrefix+email).Err(); err != nil {
		return fmt.Errorf("rate: reset %s: %w", email, err)
	}
	return nil
}

// GetLoginAttempts returns the current failure count for an email, zero when
// no window is open.
func (l *Limiter) GetLoginAttempts(ctx context.Context, email string) (int, error) {
	if l == nil {
		return 0, nil
	}

	count, err := l.redis.Get(ctx, emailCounterPrefix+email).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("rate: read counter: %w", err)
	}
	return count, nil
}

func (l *Limiter) checkCounter(ctx context.Context, key string) error {
	count, err := l.redis.Get(ctx, key).Int()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("rate: read counter: %w", err)
	}
	if count >= l.cfg.MaxAttempts {
		return ErrLimited
	}
	return nil
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string) error {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("rate: increment: %w", err)
	}
	// Only the first failure in a window sets the TTL.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.cfg.Window).Err(); err != nil {
			return fmt.Errorf("rate: set window: %w", err)
		}
	}
	return nil
}
