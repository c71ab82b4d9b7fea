package goIdentity

import (
	"context"
	"time"

	"github.com/MrEthical07/goIdentity/credential"
	"github.com/MrEthical07/goIdentity/internal/audit"
	"github.com/MrEthical07/goIdentity/jwt"
	"github.com/MrEthical07/goIdentity/session"
)

// User is a stored identity record. The password hash field carries the
// PHC-encoded digest, never a plaintext.
type User = credential.Credential

// Claims is the access token payload.
type Claims = jwt.Claims

// CredentialStore is the pluggable persistence capability for identity
// records. The module ships credential.MemoryStore and credential.RedisStore;
// applications with their own user table implement this interface instead.
type CredentialStore = credential.Store

// SessionStore is the pluggable persistence capability for sessions.
// session.Store (Redis) and session.MemoryStore both satisfy it.
type SessionStore interface {
	Save(ctx context.Context, sess *session.Session) error
	Get(ctx context.Context, sessionID string) (*session.Session, error)
	Delete(ctx context.Context, sessionID string) (bool, error)
	DeleteAllForUser(ctx context.Context, userID string) (int, error)
	SweepExpired(ctx context.Context) (int, error)
	ActiveSessionIDs(ctx context.Context, userID string) ([]string, error)
	ActiveSessionCount(ctx context.Context, userID string) (int, error)
	Ping(ctx context.Context) error
}

var (
	_ SessionStore = (*session.Store)(nil)
	_ SessionStore = (*session.MemoryStore)(nil)
)

// RegisterResult reports a successful registration.
type RegisterResult struct {
	UserID    string
	Email     string
	CreatedAt time.Time
}

// LoginResult reports a successful login: a signed access token plus the
// session it is bound to.
type LoginResult struct {
	Token     string
	SessionID string
	UserID    string
	Email     string
	ExpiresAt time.Time
}

// AuthResult reports a successful token or session validation.
type AuthResult struct {
	UserID           string
	Email            string
	SessionID        string
	SessionExpiresAt time.Time
}

// Audit surface, re-exported from the internal dispatcher so applications can
// plug sinks without importing internal packages.
type (
	AuditEvent       = audit.Event
	AuditSink        = audit.Sink
	NoOpAuditSink    = audit.NoOpSink
	JSONAuditSink    = audit.JSONWriterSink
	ChannelAuditSink = audit.ChannelSink
)

// NewJSONAuditSink writes one JSON event per line to w.
var NewJSONAuditSink = audit.NewJSONWriterSink

// NewChannelAuditSink forwards events to a caller-owned channel.
var NewChannelAuditSink = audit.NewChannelSink
