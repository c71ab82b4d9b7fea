package goIdentity

import (
	"crypto/ed25519"
	"errors"
	"time"

	"github.com/MrEthical07/goIdentity/jwt"
	"github.com/MrEthical07/goIdentity/password"
)

// TokenConfig controls access token issuance.
type TokenConfig struct {
	// Method is jwt.MethodHS256 (default) or jwt.MethodEdDSA.
	Method string
	// Secret is the HS256 key; required for HS256, at least 32 bytes.
	Secret []byte
	// Ed25519PrivateKey and Ed25519PublicKey are used with MethodEdDSA.
	Ed25519PrivateKey ed25519.PrivateKey
	Ed25519PublicKey  ed25519.PublicKey
	// Issuer is stamped into tokens and enforced on parse when set.
	Issuer string
	// Leeway tolerates clock skew between issuer and verifier.
	Leeway time.Duration
}

// SessionConfig controls session lifetimes. Access tokens are bound to
// sessions, so the session TTL is also the token TTL.
type SessionConfig struct {
	// TTL is the session lifetime. Default one hour.
	TTL time.Duration
	// SweepInterval is how often the background sweeper removes expired
	// sessions. Zero disables the sweeper; lazy expiry still applies.
	SweepInterval time.Duration
}

// RateLimitConfig controls login throttling. Limiting requires a Redis
// client; without one the limiter is silently absent.
type RateLimitConfig struct {
	Enabled     bool
	MaxAttempts int
	Window      time.Duration
}

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls counter and histogram recording.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// Config is the complete engine configuration. Zero fields are filled with
// defaults at Build time; DefaultConfig returns the fully-filled form.
type Config struct {
	Token     TokenConfig
	Password  password.Config
	Session   SessionConfig
	RateLimit RateLimitConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

// DefaultConfig returns the configuration Build uses when the caller sets
// nothing. The token secret has no default; it must always be provided.
func DefaultConfig() Config {
	return Config{
		Token: TokenConfig{
			Method: jwt.MethodHS256,
		},
		Password: password.DefaultConfig(),
		Session: SessionConfig{
			TTL:           time.Hour,
			SweepInterval: 5 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			Enabled:     true,
			MaxAttempts: 5,
			Window:      15 * time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
	}
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()

	if c.Token.Method == "" {
		c.Token.Method = def.Token.Method
	}
	if c.Password == (password.Config{}) {
		c.Password = def.Password
	}
	if c.Session.TTL == 0 {
		c.Session.TTL = def.Session.TTL
	}
	if c.RateLimit.Enabled && c.RateLimit.MaxAttempts == 0 {
		c.RateLimit.MaxAttempts = def.RateLimit.MaxAttempts
	}
	if c.RateLimit.Enabled && c.RateLimit.Window == 0 {
		c.RateLimit.Window = def.RateLimit.Window
	}
	if c.Audit.Enabled && c.Audit.BufferSize == 0 {
		c.Audit.BufferSize = def.Audit.BufferSize
	}
}

// Validate rejects configurations the engine cannot run with. Defaults are
// applied first, so only genuinely missing or contradictory settings fail.
func (c *Config) Validate() error {
	switch c.Token.Method {
	case jwt.MethodHS256:
		if len(c.Token.Secret) < 32 {
			return errors.New("goidentity: Token.Secret must be at least 32 bytes for HS256")
		}
	case jwt.MethodEdDSA:
		if len(c.Token.Ed25519PrivateKey) != ed25519.PrivateKeySize {
			return errors.New("goidentity: Token.Ed25519PrivateKey required for EdDSA")
		}
	default:
		return errors.New("goidentity: unsupported Token.Method")
	}

	if c.Session.TTL <= 0 {
		return errors.New("goidentity: Session.TTL must be positive")
	}
	if c.Session.SweepInterval < 0 {
		return errors.New("goidentity: Session.SweepInterval must not be negative")
	}
	return nil
}

func cloneConfig(c Config) Config {
	out := c
	if c.Token.Secret != nil {
		out.Token.Secret = append([]byte(nil), c.Token.Secret...)
	}
	if c.Token.Ed25519PrivateKey != nil {
		out.Token.Ed25519PrivateKey = append(ed25519.PrivateKey(nil), c.Token.Ed25519PrivateKey...)
	}
	if c.Token.Ed25519PublicKey != nil {
		out.Token.Ed25519PublicKey = append(ed25519.PublicKey(nil), c.Token.Ed25519PublicKey...)
	}
	return out
}
