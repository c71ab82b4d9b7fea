package goIdentity

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/goIdentity/credential"
	"github.com/MrEthical07/goIdentity/internal/audit"
	"github.com/MrEthical07/goIdentity/internal/flows"
	"github.com/MrEthical07/goIdentity/internal/rate"
	"github.com/MrEthical07/goIdentity/jwt"
	"github.com/MrEthical07/goIdentity/password"
)

// Engine is the credential and session lifecycle core. Build one through
// [Builder]; all methods are safe for concurrent use afterwards.
type Engine struct {
	cfg        Config
	hasher     *password.Argon2
	tokens     *jwt.Manager
	creds      CredentialStore
	sessions   SessionStore
	limiter    *rate.Limiter
	dispatcher *audit.Dispatcher
	metrics    *Metrics
	dummyHash  string

	deps flows.Deps

	stopSweep chan struct{}
	sweepWG   sync.WaitGroup
	closed    atomic.Bool
	closeOnce sync.Once
}

// buildDeps wires the flow dependency sets once at construction.
func (e *Engine) buildDeps() {
	e.deps = flows.Deps{
		Register: flows.RegisterDeps{
			Credentials: e.creds,
			Hasher:      e.hasher,
			Metrics: flows.RegisterMetrics{
				IncSuccess:     func() { e.metrics.Inc(MetricRegisterSuccess) },
				IncFailed:      func() { e.metrics.Inc(MetricRegisterFailed) },
				ObserveLatency: func(d time.Duration) { e.metrics.Observe(MetricRegisterLatency, d) },
			},
			Events: flows.RegisterEvents{
				EmitSuccess: func(ctx context.Context, email, userID string) {
					e.emitAudit(ctx, auditEventRegisterSuccess, true, userID, email, "", nil, nil)
				},
				EmitFailure: func(ctx context.Context, email, reason string, err error) {
					e.emitAudit(ctx, auditEventRegisterFailed, false, "", email, "", err,
						map[string]string{"reason": reason})
				},
			},
			Errors: flows.RegisterErrors{
				InvalidEmail: ErrInvalidEmail,
				WeakPassword: ErrWeakPassword,
				EmailTaken:   ErrEmailTaken,
			},
		},
		Login: flows.LoginDeps{
			Credentials: e.creds,
			Sessions:    e.sessions,
			Hasher:      e.hasher,
			Tokens:      e.tokens,
			SessionTTL:  e.cfg.Session.TTL,
			DummyHash:   e.dummyHash,
			CheckRate: func(ctx context.Context, email, ip string) error {
				err := e.limiter.CheckLogin(ctx, email, ip)
				if errors.Is(err, rate.ErrLimited) {
					return ErrRateLimited
				}
				return err
			},
			RecordFailure: func(ctx context.Context, email, ip string) {
				_ = e.limiter.IncrementLogin(ctx, email, ip)
			},
			ResetRate: func(ctx context.Context, email string) {
				_ = e.limiter.ResetLogin(ctx, email)
			},
			Metrics: flows.LoginMetrics{
				IncSuccess:     func() { e.metrics.Inc(MetricLoginSuccess) },
				IncFailed:      func() { e.metrics.Inc(MetricLoginFailed) },
				IncRateLimited: func() { e.metrics.Inc(MetricLoginRateLimited) },
				ObserveLatency: func(d time.Duration) { e.metrics.Observe(MetricLoginLatency, d) },
			},
			Events: flows.LoginEvents{
				EmitSuccess: func(ctx context.Context, email, userID, sessionID string) {
					e.emitAudit(ctx, auditEventLoginSuccess, true, userID, email, sessionID, nil, nil)
				},
				EmitFailure: func(ctx context.Context, email, reason string, err error) {
					e.emitAudit(ctx, auditEventLoginFailed, false, "", email, "", err,
						map[string]string{"reason": reason})
				},
			},
			Errors: flows.LoginErrors{InvalidCredentials: ErrInvalidCredentials},
		},
		Logout: flows.LogoutDeps{
			Sessions: e.sessions,
			Metrics: flows.LogoutMetrics{
				IncLogout:    func() { e.metrics.Inc(MetricLogout) },
				IncLogoutAll: func() { e.metrics.Inc(MetricLogoutAll) },
			},
			Events: flows.LogoutEvents{
				EmitLogout: func(ctx context.Context, sessionID string, existed bool) {
					e.emitAudit(ctx, auditEventLogout, existed, "", "", sessionID, nil, nil)
				},
				EmitLogoutAll: func(ctx context.Context, userID string, revoked int) {
					e.emitAudit(ctx, auditEventLogoutAll, true, userID, "", "", nil,
						map[string]string{"revoked": itoa(revoked)})
				},
			},
		},
		Validate: flows.ValidateDeps{
			Sessions: e.sessions,
			Tokens:   e.tokens,
			Metrics: flows.ValidateMetrics{
				IncValidated:   func() { e.metrics.Inc(MetricTokenValidated) },
				IncRejected:    func() { e.metrics.Inc(MetricTokenRejected) },
				ObserveLatency: func(d time.Duration) { e.metrics.Observe(MetricValidateLatency, d) },
			},
			Errors: flows.ValidateErrors{
				SessionNotFound: ErrSessionNotFound,
				TokenInvalid:    ErrTokenInvalid,
			},
		},
		Password: flows.PasswordDeps{
			Credentials: e.creds,
			Sessions:    e.sessions,
			Hasher:      e.hasher,
			Metrics: flows.PasswordMetrics{
				IncChanged: func() { e.metrics.Inc(MetricPasswordChanged) },
				IncFailed:  func() { e.metrics.Inc(MetricPasswordChangeFailed) },
			},
			Events: flows.PasswordEvents{
				EmitChanged: func(ctx context.Context, userID string, revoked int) {
					e.emitAudit(ctx, auditEventPasswordChanged, true, userID, "", "", nil,
						map[string]string{"sessions_revoked": itoa(revoked)})
				},
				EmitFailure: func(ctx context.Context, userID, reason string, err error) {
					e.emitAudit(ctx, auditEventPasswordChangeFailed, false, userID, "", "", err,
						map[string]string{"reason": reason})
				},
			},
			Errors: flows.PasswordErrors{
				UserNotFound:       ErrUserNotFound,
				InvalidCredentials: ErrInvalidCredentials,
				WeakPassword:       ErrWeakPassword,
				PasswordReuse:      ErrPasswordReuse,
			},
		},
		Maintenance: flows.MaintenanceDeps{
			Sessions: e.sessions,
			Metrics: flows.MaintenanceMetrics{
				AddSwept:       func(n int) { e.metrics.Add(MetricSessionsSwept, uint64(n)) },
				ObserveLatency: func(d time.Duration) { e.metrics.Observe(MetricSweepLatency, d) },
			},
			Events: flows.MaintenanceEvents{
				EmitSweep: func(ctx context.Context, removed int) {
					if removed == 0 {
						return
					}
					e.emitAudit(ctx, auditEventSessionSweep, true, "", "", "", nil,
						map[string]string{"removed": itoa(removed)})
				},
			},
		},
		Introspection: flows.IntrospectionDeps{
			Credentials:   e.creds,
			Sessions:      e.sessions,
			LoginAttempts: e.limiter.GetLoginAttempts,
		},
	}
	e.deps.Normalize()
}

// Register creates a credential for a new email. Validation order is fixed:
// email shape, password length (at least 8 bytes), then uniqueness. Duplicate
// emails fail with ErrEmailTaken even under concurrent registration.
func (e *Engine) Register(ctx context.Context, email, plainPassword string) (*RegisterResult, error) {
	if e.closed.Load() {
		return nil, ErrEngineClosed
	}

	res, err := flows.RunRegister(ctx, &e.deps.Register, email, plainPassword)
	if err != nil {
		return nil, err
	}
	return &RegisterResult{UserID: res.UserID, Email: res.Email, CreatedAt: res.CreatedAt}, nil
}

// Login verifies a credential pair and returns a signed token bound to a
// fresh session. Unknown email and wrong password both fail with
// ErrInvalidCredentials. The client IP, when attached via WithClientIP,
// participates in rate limiting and audit events.
func (e *Engine) Login(ctx context.Context, email, plainPassword string) (*LoginResult, error) {
	if e.closed.Load() {
		return nil, ErrEngineClosed
	}

	res, err := flows.RunLogin(ctx, &e.deps.Login, email, plainPassword, clientIP(ctx))
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		Token:     res.Token,
		SessionID: res.SessionID,
		UserID:    res.UserID,
		Email:     res.Email,
		ExpiresAt: res.ExpiresAt,
	}, nil
}

// Logout deletes one session, reporting whether it existed. A second logout
// of the same session returns (false, nil).
func (e *Engine) Logout(ctx context.Context, sessionID string) (bool, error) {
	if e.closed.Load() {
		return false, ErrEngineClosed
	}
	return flows.RunLogout(ctx, &e.deps.Logout, sessionID)
}

// LogoutAll revokes every session for a user and returns the count.
func (e *Engine) LogoutAll(ctx context.Context, userID string) (int, error) {
	if e.closed.Load() {
		return 0, ErrEngineClosed
	}
	return flows.RunLogoutAll(ctx, &e.deps.Logout, userID)
}

// ValidateToken verifies an access token and the session behind it. Expired
// tokens fail with ErrTokenExpired, malformed or mis-signed ones with
// ErrTokenInvalid, and valid tokens over dead sessions with
// ErrSessionNotFound.
func (e *Engine) ValidateToken(ctx context.Context, token string) (*AuthResult, error) {
	if e.closed.Load() {
		return nil, ErrEngineClosed
	}

	res, err := flows.RunValidateToken(ctx, &e.deps.Validate, token)
	if err != nil {
		return nil, err
	}
	return authResult(res), nil
}

// ValidateSession checks a bare session ID. Expired sessions read as
// ErrSessionNotFound and are deleted on the spot.
func (e *Engine) ValidateSession(ctx context.Context, sessionID string) (*AuthResult, error) {
	if e.closed.Load() {
		return nil, ErrEngineClosed
	}

	res, err := flows.RunValidateSession(ctx, &e.deps.Validate, sessionID)
	if err != nil {
		return nil, err
	}
	return authResult(res), nil
}

// ChangePassword rotates a user's password after verifying the current one,
// then revokes every session the user holds.
func (e *Engine) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if e.closed.Load() {
		return ErrEngineClosed
	}
	return flows.RunChangePassword(ctx, &e.deps.Password, userID, currentPassword, newPassword)
}

// GetUser fetches a user record by ID.
func (e *Engine) GetUser(ctx context.Context, userID string) (*User, error) {
	if e.closed.Load() {
		return nil, ErrEngineClosed
	}

	user, err := e.creds.FindByID(ctx, userID)
	if errors.Is(err, credential.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

// DeleteUser removes a user record and revokes all their sessions, reporting
// whether the record existed.
func (e *Engine) DeleteUser(ctx context.Context, userID string) (bool, error) {
	if e.closed.Load() {
		return false, ErrEngineClosed
	}

	existed, err := e.creds.Delete(ctx, userID)
	if err != nil {
		return false, err
	}
	if existed {
		_, _ = flows.RunLogoutAll(ctx, &e.deps.Logout, userID)
	}
	return existed, nil
}

// SweepExpiredSessions removes expired sessions in bulk and returns how many
// were deleted. The background sweeper calls this on its interval; exposing
// it lets operators trigger an immediate pass.
func (e *Engine) SweepExpiredSessions(ctx context.Context) (int, error) {
	if e.closed.Load() {
		return 0, ErrEngineClosed
	}
	return flows.RunSweep(ctx, &e.deps.Maintenance)
}

// ActiveSessionCount returns the number of live sessions for a user.
func (e *Engine) ActiveSessionCount(ctx context.Context, userID string) (int, error) {
	if e.closed.Load() {
		return 0, ErrEngineClosed
	}
	return flows.RunActiveSessionCount(ctx, &e.deps.Introspection, userID)
}

// ActiveSessionIDs returns the live session IDs for a user.
func (e *Engine) ActiveSessionIDs(ctx context.Context, userID string) ([]string, error) {
	if e.closed.Load() {
		return nil, ErrEngineClosed
	}
	return flows.RunActiveSessionIDs(ctx, &e.deps.Introspection, userID)
}

// LoginAttempts returns the failed-login count for an email in the current
// rate window, zero when limiting is disabled.
func (e *Engine) LoginAttempts(ctx context.Context, email string) (int, error) {
	if e.closed.Load() {
		return 0, ErrEngineClosed
	}
	return flows.RunLoginAttempts(ctx, &e.deps.Introspection, email)
}

// Health pings the session backend.
func (e *Engine) Health(ctx context.Context) error {
	if e.closed.Load() {
		return ErrEngineClosed
	}
	return flows.RunHealth(ctx, &e.deps.Introspection)
}

// MetricsSnapshot copies the engine's counters and histograms.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	return e.metrics.Snapshot()
}

// AuditDropped reports audit events discarded under backpressure.
func (e *Engine) AuditDropped() uint64 {
	return e.dispatcher.Dropped()
}

// Close stops the background sweeper and drains the audit dispatcher. Engine
// methods return ErrEngineClosed afterwards. Redis clients supplied by the
// caller stay open.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		e.closed.Store(true)
		close(e.stopSweep)
		e.sweepWG.Wait()
		e.dispatcher.Close()
	})
	return nil
}

func (e *Engine) startSweeper() {
	interval := e.cfg.Session.SweepInterval
	if interval <= 0 {
		return
	}

	e.sweepWG.Add(1)
	go func() {
		defer e.sweepWG.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				_, _ = flows.RunSweep(context.Background(), &e.deps.Maintenance)
			case <-e.stopSweep:
				return
			}
		}
	}()
}

func authResult(res *flows.AuthResult) *AuthResult {
	return &AuthResult{
		UserID:           res.UserID,
		Email:            res.Email,
		SessionID:        res.SessionID,
		SessionExpiresAt: res.SessionExpiresAt,
	}
}
