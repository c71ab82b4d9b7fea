// Package test holds cross-package integration tests that exercise the
// public engine surface against a real (in-process) Redis.
package test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	goIdentity "github.com/MrEthical07/goIdentity"
)

func testConfig() goIdentity.Config {
	cfg := goIdentity.DefaultConfig()
	cfg.Token.Secret = []byte("0123456789abcdef0123456789abcdef")
	cfg.Session.SweepInterval = 0
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Password.SaltLength = 16
	cfg.Password.KeyLength = 16
	return cfg
}

func newRedisEngine(t *testing.T, mutate func(cfg *goIdentity.Config)) (*goIdentity.Engine, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	engine, err := goIdentity.New().WithConfig(cfg).WithRedis(rdb).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(func() { _ = engine.Close() })

	return engine, mr
}

func TestRedisBackedLifecycle(t *testing.T) {
	engine, _ := newRedisEngine(t, nil)
	ctx := context.Background()

	reg, err := engine.Register(ctx, "a@b.com", "password123")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	// Duplicate registration fails even through the Redis store.
	if _, err := engine.Register(ctx, "a@b.com", "password123"); !errors.Is(err, goIdentity.ErrEmailTaken) {
		t.Fatalf("duplicate Register: want ErrEmailTaken, got %v", err)
	}

	first, err := engine.Login(ctx, "a@b.com", "password123")
	if err != nil {
		t.Fatalf("first Login: %v", err)
	}
	second, err := engine.Login(ctx, "a@b.com", "password123")
	if err != nil {
		t.Fatalf("second Login: %v", err)
	}
	if first.SessionID == second.SessionID {
		t.Fatal("two logins shared a session ID")
	}

	count, err := engine.ActiveSessionCount(ctx, reg.UserID)
	if err != nil || count != 2 {
		t.Fatalf("ActiveSessionCount = %d, %v; want 2", count, err)
	}

	auth, err := engine.ValidateToken(ctx, first.Token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if auth.UserID != reg.UserID {
		t.Fatalf("auth user = %s, want %s", auth.UserID, reg.UserID)
	}

	existed, err := engine.Logout(ctx, first.SessionID)
	if err != nil || !existed {
		t.Fatalf("Logout: existed=%v err=%v", existed, err)
	}
	existed, err = engine.Logout(ctx, first.SessionID)
	if err != nil || existed {
		t.Fatalf("repeat Logout: existed=%v err=%v", existed, err)
	}

	if _, err := engine.ValidateToken(ctx, first.Token); !errors.Is(err, goIdentity.ErrSessionNotFound) {
		t.Fatalf("token after logout: want ErrSessionNotFound, got %v", err)
	}

	revoked, err := engine.LogoutAll(ctx, reg.UserID)
	if err != nil || revoked != 1 {
		t.Fatalf("LogoutAll = %d, %v; want 1", revoked, err)
	}

	if err := engine.Health(ctx); err != nil {
		t.Fatalf("Health: %v", err)
	}
}

func TestSessionExpiryAcrossRedis(t *testing.T) {
	engine, mr := newRedisEngine(t, func(cfg *goIdentity.Config) {
		cfg.Session.TTL = time.Minute
	})
	ctx := context.Background()

	if _, err := engine.Register(ctx, "a@b.com", "password123"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	login, err := engine.Login(ctx, "a@b.com", "password123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	// Redis evicts the record on TTL; the session is simply gone.
	mr.FastForward(2 * time.Minute)

	if _, err := engine.ValidateSession(ctx, login.SessionID); !errors.Is(err, goIdentity.ErrSessionNotFound) {
		t.Fatalf("expired session: want ErrSessionNotFound, got %v", err)
	}
}

func TestLoginRateLimiting(t *testing.T) {
	engine, mr := newRedisEngine(t, func(cfg *goIdentity.Config) {
		cfg.RateLimit = goIdentity.RateLimitConfig{
			Enabled:     true,
			MaxAttempts: 3,
			Window:      time.Minute,
		}
	})
	ctx := goIdentity.WithClientIP(context.Background(), "203.0.113.7")

	if _, err := engine.Register(ctx, "a@b.com", "password123"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := engine.Login(ctx, "a@b.com", "wrongpass99"); !errors.Is(err, goIdentity.ErrInvalidCredentials) {
			t.Fatalf("failed login %d: %v", i, err)
		}
	}

	attempts, err := engine.LoginAttempts(ctx, "a@b.com")
	if err != nil || attempts != 3 {
		t.Fatalf("LoginAttempts = %d, %v; want 3", attempts, err)
	}

	// Ceiling reached: even the correct password is refused.
	if _, err := engine.Login(ctx, "a@b.com", "password123"); !errors.Is(err, goIdentity.ErrRateLimited) {
		t.Fatalf("over limit: want ErrRateLimited, got %v", err)
	}

	mr.FastForward(2 * time.Minute)

	login, err := engine.Login(ctx, "a@b.com", "password123")
	if err != nil {
		t.Fatalf("Login after window: %v", err)
	}

	// Success reset the counter.
	attempts, err = engine.LoginAttempts(ctx, "a@b.com")
	if err != nil || attempts != 0 {
		t.Fatalf("LoginAttempts after success = %d, %v; want 0", attempts, err)
	}

	if _, err := engine.ValidateToken(ctx, login.Token); err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
}

func TestAuditTrail(t *testing.T) {
	events := make(chan goIdentity.AuditEvent, 64)

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := testConfig()
	cfg.Audit.Enabled = true

	engine, err := goIdentity.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithAuditSink(goIdentity.NewChannelAuditSink(events)).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	ctx := goIdentity.WithClientIP(context.Background(), "198.51.100.9")

	reg, err := engine.Register(ctx, "a@b.com", "password123")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	login, err := engine.Login(ctx, "a@b.com", "password123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	_, _ = engine.Login(ctx, "a@b.com", "wrongpass99")
	if _, err := engine.Logout(ctx, login.SessionID); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	// Close drains the dispatcher, so every emitted event is in the channel.
	_ = engine.Close()
	close(events)

	byType := map[string][]goIdentity.AuditEvent{}
	for ev := range events {
		byType[ev.EventType] = append(byType[ev.EventType], ev)
	}

	for _, want := range []string{"register_success", "login_success", "login_failed", "logout"} {
		if len(byType[want]) == 0 {
			t.Errorf("no %s event recorded", want)
		}
	}

	if ev := byType["login_success"][0]; ev.UserID != reg.UserID || ev.IP != "198.51.100.9" {
		t.Errorf("login_success event incomplete: %+v", ev)
	}
	if ev := byType["login_failed"][0]; ev.Error != "authentication" {
		t.Errorf("login_failed error = %q, want kind name", ev.Error)
	}
	if ev := byType["register_success"][0]; !ev.Success || ev.Email != "a@b.com" {
		t.Errorf("register_success event incomplete: %+v", ev)
	}
}

func TestChangePasswordEndToEnd(t *testing.T) {
	engine, _ := newRedisEngine(t, nil)
	ctx := context.Background()

	reg, err := engine.Register(ctx, "a@b.com", "password123")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	login, err := engine.Login(ctx, "a@b.com", "password123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if err := engine.ChangePassword(ctx, reg.UserID, "password123", "newpassword1"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}

	if _, err := engine.ValidateToken(ctx, login.Token); !errors.Is(err, goIdentity.ErrSessionNotFound) {
		t.Fatalf("old token after password change: %v", err)
	}
	if _, err := engine.Login(ctx, "a@b.com", "password123"); !errors.Is(err, goIdentity.ErrInvalidCredentials) {
		t.Fatalf("old password still valid: %v", err)
	}
	if _, err := engine.Login(ctx, "a@b.com", "newpassword1"); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
}
