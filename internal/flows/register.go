package flows

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/MrEthical07/goIdentity/credential"
)

// MinPasswordLength is the registration password policy floor, measured in
// bytes of the raw string.
const MinPasswordLength = 8

// maxEmailLength bounds stored emails; RFC 5321 path limit.
const maxEmailLength = 254

// emailPattern accepts anything of the shape local@domain.tld with no
// whitespace. Deliverability is not this layer's problem.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// NormalizeEmail lowercases and trims an address. Every flow that touches an
// email normalizes through here so lookups and uniqueness agree.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RegisterResult is the flow-local registration response shape.
type RegisterResult struct {
	UserID    string
	Email     string
	CreatedAt time.Time
}

// RegisterDeps carries the capabilities and hooks used by RunRegister.
type RegisterDeps struct {
	Credentials CredentialStore
	Hasher      PasswordHasher
	Now         func() time.Time
	Metrics     RegisterMetrics
	Events      RegisterEvents
	Errors      RegisterErrors
}

// RegisterMetrics are counters bumped by the flow.
type RegisterMetrics struct {
	IncSuccess     func()
	IncFailed      func()
	ObserveLatency func(time.Duration)
}

// RegisterEvents are audit hooks invoked by the flow.
type RegisterEvents struct {
	EmitSuccess func(ctx context.Context, email, userID string)
	EmitFailure func(ctx context.Context, email, reason string, err error)
}

// RegisterErrors are the sentinel values returned for policy failures. The
// root package injects its public errors here.
type RegisterErrors struct {
	InvalidEmail error
	WeakPassword error
	EmailTaken   error
}

func normalizeRegisterDeps(d *RegisterDeps) {
	d.Now = orNow(d.Now)
	if d.Metrics.IncSuccess == nil {
		d.Metrics.IncSuccess = noop
	}
	if d.Metrics.IncFailed == nil {
		d.Metrics.IncFailed = noop
	}
	if d.Metrics.ObserveLatency == nil {
		d.Metrics.ObserveLatency = noopObserve
	}
	if d.Events.EmitSuccess == nil {
		d.Events.EmitSuccess = func(context.Context, string, string) {}
	}
	if d.Events.EmitFailure == nil {
		d.Events.EmitFailure = func(context.Context, string, string, error) {}
	}
	d.Errors.InvalidEmail = orErr(d.Errors.InvalidEmail, "invalid email")
	d.Errors.WeakPassword = orErr(d.Errors.WeakPassword, "weak password")
	d.Errors.EmailTaken = orErr(d.Errors.EmailTaken, "email taken")
}

// RunRegister validates inputs, hashes the password, and inserts the
// credential. Validation order is fixed: email shape, then password length,
// then uniqueness. The FindByEmail pre-check is a fast path only; the insert
// itself is the atomic uniqueness claim, so a concurrent registration losing
// the race still surfaces as EmailTaken rather than a stored duplicate.
func RunRegister(ctx context.Context, deps *RegisterDeps, email, password string) (*RegisterResult, error) {
	start := deps.Now()

	fail := func(reason string, err error) (*RegisterResult, error) {
		deps.Metrics.IncFailed()
		deps.Events.EmitFailure(ctx, email, reason, err)
		return nil, err
	}

	email = NormalizeEmail(email)
	if email == "" || len(email) > maxEmailLength || !emailPattern.MatchString(email) {
		return fail("invalid_email", deps.Errors.InvalidEmail)
	}

	if len(password) < MinPasswordLength {
		return fail("weak_password", deps.Errors.WeakPassword)
	}

	// Fast path: reject an obviously taken email before paying for Argon2.
	_, err := deps.Credentials.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return fail("email_taken", deps.Errors.EmailTaken)
	case !errors.Is(err, credential.ErrNotFound):
		return fail("store_error", err)
	}

	hash, err := deps.Hasher.Hash(password)
	if err != nil {
		return fail("hash_error", err)
	}

	cred := &credential.Credential{Email: email, PasswordHash: hash}
	if err := deps.Credentials.Create(ctx, cred); err != nil {
		if errors.Is(err, credential.ErrDuplicateEmail) {
			return fail("email_taken", deps.Errors.EmailTaken)
		}
		return fail("store_error", err)
	}

	deps.Metrics.IncSuccess()
	deps.Metrics.ObserveLatency(deps.Now().Sub(start))
	deps.Events.EmitSuccess(ctx, email, cred.ID)

	return &RegisterResult{
		UserID:    cred.ID,
		Email:     cred.Email,
		CreatedAt: cred.CreatedAt,
	}, nil
}
