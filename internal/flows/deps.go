package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goIdentity/credential"
	"github.com/MrEthical07/goIdentity/jwt"
	"github.com/MrEthical07/goIdentity/session"
)

// SessionStore is the session persistence capability required by the flows.
// Both session.Store and session.MemoryStore satisfy it.
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

// TokenIssuer abstracts jwt.Manager for the flows.
type TokenIssuer interface {
	IssueWithTTL(userID, email, sessionID string, ttl time.Duration) (string, error)
	Parse(tokenString string) (*jwt.Claims, error)
}

// PasswordHasher abstracts password.Argon2 for the flows.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) (bool, error)
	NeedsRehash(encodedHash string) (bool, error)
}

// Deps groups flow dependency sets. The root engine builds this once and
// delegates request methods to the matching flow function.
type Deps struct {
	Register      RegisterDeps
	Login         LoginDeps
	Logout        LogoutDeps
	Validate      ValidateDeps
	Password      PasswordDeps
	Maintenance   MaintenanceDeps
	Introspection IntrospectionDeps
}

// Normalize fills every nil hook with a no-op and every zero error with a
// generic sentinel so flow code can call hooks unconditionally.
func (d *Deps) Normalize() {
	normalizeRegisterDeps(&d.Register)
	normalizeLoginDeps(&d.Login)
	normalizeLogoutDeps(&d.Logout)
	normalizeValidateDeps(&d.Validate)
	normalizePasswordDeps(&d.Password)
	normalizeMaintenanceDeps(&d.Maintenance)
	normalizeIntrospectionDeps(&d.Introspection)
}

func noop()                     {}
func noopObserve(time.Duration) {}

func defaultNow() time.Time {
	return time.Now()
}

func orNow(now func() time.Time) func() time.Time {
	if now == nil {
		return defaultNow
	}
	return now
}

func orErr(err error, fallback string) error {
	if err == nil {
		return errors.New(fallback)
	}
	return err
}

var (
	_ SessionStore = (*session.Store)(nil)
	_ SessionStore = (*session.MemoryStore)(nil)
)

// CredentialStore is aliased so deps fields read uniformly.
type CredentialStore = credential.Store
