package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goIdentity/credential"
	"github.com/MrEthical07/goIdentity/session"
)

// LoginResult is the flow-local login response shape.
type LoginResult struct {
	Token     string
	SessionID string
	UserID    string
	Email     string
	ExpiresAt time.Time
}

// LoginDeps carries the capabilities and hooks used by RunLogin.
type LoginDeps struct {
	Credentials  CredentialStore
	Sessions     SessionStore
	Hasher       PasswordHasher
	Tokens       TokenIssuer
	SessionTTL   time.Duration
	NewSessionID func() (string, error)
	Now          func() time.Time

	// DummyHash is a real PHC hash of a throwaway password. When the email is
	// unknown, the flow still verifies against it so missing and present
	// accounts cost comparable work. Empty disables the decoy.
	DummyHash string

	// Rate hooks; all optional.
	CheckRate     func(ctx context.Context, email, ip string) error
	RecordFailure func(ctx context.Context, email, ip string)
	ResetRate     func(ctx context.Context, email string)

	Metrics LoginMetrics
	Events  LoginEvents
	Errors  LoginErrors
}

// LoginMetrics are counters bumped by the flow.
type LoginMetrics struct {
	IncSuccess     func()
	IncFailed      func()
	IncRateLimited func()
	ObserveLatency func(time.Duration)
}

// LoginEvents are audit hooks invoked by the flow.
type LoginEvents struct {
	EmitSuccess func(ctx context.Context, email, userID, sessionID string)
	EmitFailure func(ctx context.Context, email, reason string, err error)
}

// LoginErrors are the sentinel values returned for policy failures.
type LoginErrors struct {
	// InvalidCredentials is returned for an unknown email AND a wrong
	// password. Collapsing the two starves account enumeration.
	InvalidCredentials error
}

func normalizeLoginDeps(d *LoginDeps) {
	d.Now = orNow(d.Now)
	if d.SessionTTL <= 0 {
		d.SessionTTL = time.Hour
	}
	if d.NewSessionID == nil {
		d.NewSessionID = session.NewID
	}
	if d.CheckRate == nil {
		d.CheckRate = func(context.Context, string, string) error { return nil }
	}
	if d.RecordFailure == nil {
		d.RecordFailure = func(context.Context, string, string) {}
	}
	if d.ResetRate == nil {
		d.ResetRate = func(context.Context, string) {}
	}
	if d.Metrics.IncSuccess == nil {
		d.Metrics.IncSuccess = noop
	}
	if d.Metrics.IncFailed == nil {
		d.Metrics.IncFailed = noop
	}
	if d.Metrics.IncRateLimited == nil {
		d.Metrics.IncRateLimited = noop
	}
	if d.Metrics.ObserveLatency == nil {
		d.Metrics.ObserveLatency = noopObserve
	}
	if d.Events.EmitSuccess == nil {
		d.Events.EmitSuccess = func(context.Context, string, string, string) {}
	}
	if d.Events.EmitFailure == nil {
		d.Events.EmitFailure = func(context.Context, string, string, error) {}
	}
	d.Errors.InvalidCredentials = orErr(d.Errors.InvalidCredentials, "invalid credentials")
}

// RunLogin verifies a credential pair, creates a session, and issues an
// access token bound to it. The caller never learns whether the email or the
// password was the problem.
func RunLogin(ctx context.Context, deps *LoginDeps, email, password, clientIP string) (*LoginResult, error) {
	start := deps.Now()

	fail := func(reason string, err error) (*LoginResult, error) {
		deps.Metrics.IncFailed()
		deps.Events.EmitFailure(ctx, email, reason, err)
		return nil, err
	}

	email = NormalizeEmail(email)

	if err := deps.CheckRate(ctx, email, clientIP); err != nil {
		deps.Metrics.IncRateLimited()
		deps.Events.EmitFailure(ctx, email, "rate_limited", err)
		return nil, err
	}

	cred, err := deps.Credentials.FindByEmail(ctx, email)
	if errors.Is(err, credential.ErrNotFound) {
		if deps.DummyHash != "" {
			_, _ = deps.Hasher.Verify(password, deps.DummyHash)
		}
		deps.RecordFailure(ctx, email, clientIP)
		return fail("unknown_email", deps.Errors.InvalidCredentials)
	}
	if err != nil {
		return fail("store_error", err)
	}

	ok, err := deps.Hasher.Verify(password, cred.PasswordHash)
	if err != nil {
		return fail("verify_error", err)
	}
	if !ok {
		deps.RecordFailure(ctx, email, clientIP)
		return fail("wrong_password", deps.Errors.InvalidCredentials)
	}

	// Transparent parameter upgrade; a failed rewrite keeps the old hash.
	if upgrade, uerr := deps.Hasher.NeedsRehash(cred.PasswordHash); uerr == nil && upgrade {
		if newHash, herr := deps.Hasher.Hash(password); herr == nil {
			_ = deps.Credentials.UpdatePasswordHash(ctx, cred.ID, newHash)
		}
	}

	sessionID, err := deps.NewSessionID()
	if err != nil {
		return fail("session_id_error", err)
	}

	now := deps.Now()
	sess := &session.Session{
		SessionID: sessionID,
		UserID:    cred.ID,
		Email:     cred.Email,
		CreatedAt: now.Unix(),
		ExpiresAt: now.Add(deps.SessionTTL).Unix(),
	}
	if err := deps.Sessions.Save(ctx, sess); err != nil {
		return fail("session_store_error", err)
	}

	token, err := deps.Tokens.IssueWithTTL(cred.ID, cred.Email, sessionID, deps.SessionTTL)
	if err != nil {
		// Don't leave an orphan session behind an unissuable token.
		_, _ = deps.Sessions.Delete(ctx, sessionID)
		return fail("token_error", err)
	}

	deps.ResetRate(ctx, email)
	deps.Metrics.IncSuccess()
	deps.Metrics.ObserveLatency(deps.Now().Sub(start))
	deps.Events.EmitSuccess(ctx, cred.Email, cred.ID, sessionID)

	return &LoginResult{
		Token:     token,
		SessionID: sessionID,
		UserID:    cred.ID,
		Email:     cred.Email,
		ExpiresAt: time.Unix(sess.ExpiresAt, 0),
	}, nil
}
