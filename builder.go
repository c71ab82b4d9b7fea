package goIdentity

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/goIdentity/credential"
	"github.com/MrEthical07/goIdentity/internal/audit"
	"github.com/MrEthical07/goIdentity/internal/rate"
	"github.com/MrEthical07/goIdentity/jwt"
	"github.com/MrEthical07/goIdentity/password"
	"github.com/MrEthical07/goIdentity/session"
)

// Builder assembles an Engine. Construction is allocation-only until Build;
// no I/O happens while chaining.
//
//	engine, err := goIdentity.New().
//		WithConfig(cfg).
//		WithRedis(rdb).
//		Build()
type Builder struct {
	cfg      Config
	cfgSet   bool
	redis    redis.UniversalClient
	creds    CredentialStore
	sessions SessionStore
	sink     AuditSink
	err      error
}

// New starts a Builder with DefaultConfig.
func New() *Builder {
	return &Builder{}
}

// WithConfig replaces the configuration wholesale. Zero fields are filled
// with defaults at Build.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.cfg = cfg
	b.cfgSet = true
	return b
}

// WithRedis supplies the Redis client used for sessions, credentials, and
// rate limiting unless explicit stores override it. The client's lifecycle
// belongs to the caller; Engine.Close does not close it.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	if client == nil {
		b.err = errors.New("goidentity: WithRedis called with nil client")
		return b
	}
	b.redis = client
	return b
}

// WithCredentialStore overrides credential persistence, typically to back the
// engine with an existing user table.
func (b *Builder) WithCredentialStore(store CredentialStore) *Builder {
	if store == nil {
		b.err = errors.New("goidentity: WithCredentialStore called with nil store")
		return b
	}
	b.creds = store
	return b
}

// WithSessionStore overrides session persistence.
func (b *Builder) WithSessionStore(store SessionStore) *Builder {
	if store == nil {
		b.err = errors.New("goidentity: WithSessionStore called with nil store")
		return b
	}
	b.sessions = store
	return b
}

// WithAuditSink sets the destination for audit events. Events only flow when
// Config.Audit.Enabled is true.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	if sink == nil {
		b.err = errors.New("goidentity: WithAuditSink called with nil sink")
		return b
	}
	b.sink = sink
	return b
}

// Build validates the configuration, wires stores and flows, and starts the
// background sweeper when configured. Without a Redis client or explicit
// stores, both credentials and sessions live in process memory.
func (b *Builder) Build() (*Engine, error) {
	if b.err != nil {
		return nil, b.err
	}

	cfg := cloneConfig(b.cfg)
	if !b.cfgSet {
		cfg = DefaultConfig()
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	hasher, err := password.NewArgon2(cfg.Password)
	if err != nil {
		return nil, fmt.Errorf("goidentity: password config: %w", err)
	}

	tokens, err := jwt.NewManager(jwt.Config{
		Method:     cfg.Token.Method,
		Secret:     cfg.Token.Secret,
		PrivateKey: cfg.Token.Ed25519PrivateKey,
		PublicKey:  cfg.Token.Ed25519PublicKey,
		Issuer:     cfg.Token.Issuer,
		TTL:        cfg.Session.TTL,
		Leeway:     cfg.Token.Leeway,
	})
	if err != nil {
		return nil, fmt.Errorf("goidentity: token config: %w", err)
	}

	sessions := b.sessions
	if sessions == nil {
		if b.redis != nil {
			sessions, err = session.NewStore(b.redis)
			if err != nil {
				return nil, err
			}
		} else {
			sessions = session.NewMemoryStore()
		}
	}

	creds := b.creds
	if creds == nil {
		if b.redis != nil {
			creds, err = credential.NewRedisStore(b.redis)
			if err != nil {
				return nil, err
			}
		} else {
			creds = credential.NewMemoryStore()
		}
	}

	limiter := rate.New(b.redis, rate.Config{
		Enabled:     cfg.RateLimit.Enabled,
		MaxAttempts: cfg.RateLimit.MaxAttempts,
		Window:      cfg.RateLimit.Window,
	})

	dispatcher := audit.NewDispatcher(audit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.sink)

	// A throwaway hash gives login a decoy to verify against when the email
	// is unknown, keeping the two failure paths comparably expensive.
	dummyHash, err := hasher.Hash(uuid.NewString())
	if err != nil {
		dispatcher.Close()
		return nil, err
	}

	engine := &Engine{
		cfg:        cfg,
		hasher:     hasher,
		tokens:     tokens,
		creds:      creds,
		sessions:   sessions,
		limiter:    limiter,
		dispatcher: dispatcher,
		metrics:    NewMetrics(cfg.Metrics),
		dummyHash:  dummyHash,
		stopSweep:  make(chan struct{}),
	}
	engine.buildDeps()
	engine.startSweeper()

	return engine, nil
}
