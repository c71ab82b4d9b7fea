package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goIdentity/session"
)

// AuthResult is the flow-local outcome of a successful validation.
type AuthResult struct {
	UserID           string
	Email            string
	SessionID        string
	SessionExpiresAt time.Time
}

// ValidateDeps carries the capabilities and hooks used by the validate flows.
type ValidateDeps struct {
	Sessions SessionStore
	Tokens   TokenIssuer
	Metrics  ValidateMetrics
	Errors   ValidateErrors
}

// ValidateMetrics are counters bumped by the flows.
type ValidateMetrics struct {
	IncValidated   func()
	IncRejected    func()
	ObserveLatency func(time.Duration)
}

// ValidateErrors are the sentinel values returned for rejections. Token parse
// errors pass through untouched; the jwt package already distinguishes
// expired from invalid.
type ValidateErrors struct {
	SessionNotFound error
	TokenInvalid    error
}

func normalizeValidateDeps(d *ValidateDeps) {
	if d.Metrics.IncValidated == nil {
		d.Metrics.IncValidated = noop
	}
	if d.Metrics.IncRejected == nil {
		d.Metrics.IncRejected = noop
	}
	if d.Metrics.ObserveLatency == nil {
		d.Metrics.ObserveLatency = noopObserve
	}
	d.Errors.SessionNotFound = orErr(d.Errors.SessionNotFound, "session not found")
	d.Errors.TokenInvalid = orErr(d.Errors.TokenInvalid, "token invalid")
}

// RunValidateToken parses and verifies an access token, then confirms the
// session it references is still alive and owned by the same user. A valid
// signature over a dead session is rejected: logout and expiry revoke tokens
// in practice even though the JWT itself cannot be recalled.
func RunValidateToken(ctx context.Context, deps *ValidateDeps, tokenString string) (*AuthResult, error) {
	claims, err := deps.Tokens.Parse(tokenString)
	if err != nil {
		deps.Metrics.IncRejected()
		return nil, err
	}

	sess, err := deps.Sessions.Get(ctx, claims.SessionID)
	if errors.Is(err, session.ErrNotFound) {
		deps.Metrics.IncRejected()
		return nil, deps.Errors.SessionNotFound
	}
	if err != nil {
		return nil, err
	}

	if sess.UserID != claims.UserID {
		deps.Metrics.IncRejected()
		return nil, deps.Errors.TokenInvalid
	}

	deps.Metrics.IncValidated()
	return &AuthResult{
		UserID:           sess.UserID,
		Email:            sess.Email,
		SessionID:        sess.SessionID,
		SessionExpiresAt: time.Unix(sess.ExpiresAt, 0),
	}, nil
}

// RunValidateSession checks a bare session ID without a token, for callers
// that hold the opaque ID directly (server-rendered apps, internal tooling).
func RunValidateSession(ctx context.Context, deps *ValidateDeps, sessionID string) (*AuthResult, error) {
	sess, err := deps.Sessions.Get(ctx, sessionID)
	if errors.Is(err, session.ErrNotFound) {
		deps.Metrics.IncRejected()
		return nil, deps.Errors.SessionNotFound
	}
	if err != nil {
		return nil, err
	}

	deps.Metrics.IncValidated()
	return &AuthResult{
		UserID:           sess.UserID,
		Email:            sess.Email,
		SessionID:        sess.SessionID,
		SessionExpiresAt: time.Unix(sess.ExpiresAt, 0),
	}, nil
}
