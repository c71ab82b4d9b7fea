package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/goIdentity/credential"
)

// PasswordDeps carries the capabilities and hooks used by RunChangePassword.
type PasswordDeps struct {
	Credentials CredentialStore
	Sessions    SessionStore
	Hasher      PasswordHasher
	Metrics     PasswordMetrics
	Events      PasswordEvents
	Errors      PasswordErrors
}

// PasswordMetrics are counters bumped by the flow.
type PasswordMetrics struct {
	IncChanged func()
	IncFailed  func()
}

// PasswordEvents are audit hooks invoked by the flow.
type PasswordEvents struct {
	EmitChanged func(ctx context.Context, userID string, revoked int)
	EmitFailure func(ctx context.Context, userID, reason string, err error)
}

// PasswordErrors are the sentinel values returned for policy failures.
type PasswordErrors struct {
	UserNotFound       error
	InvalidCredentials error
	WeakPassword       error
	PasswordReuse      error
}

func normalizePasswordDeps(d *PasswordDeps) {
	if d.Metrics.IncChanged == nil {
		d.Metrics.IncChanged = noop
	}
	if d.Metrics.IncFailed == nil {
		d.Metrics.IncFailed = noop
	}
	if d.Events.EmitChanged == nil {
		d.Events.EmitChanged = func(context.Context, string, int) {}
	}
	if d.Events.EmitFailure == nil {
		d.Events.EmitFailure = func(context.Context, string, string, error) {}
	}
	d.Errors.UserNotFound = orErr(d.Errors.UserNotFound, "user not found")
	d.Errors.InvalidCredentials = orErr(d.Errors.InvalidCredentials, "invalid credentials")
	d.Errors.WeakPassword = orErr(d.Errors.WeakPassword, "weak password")
	d.Errors.PasswordReuse = orErr(d.Errors.PasswordReuse, "password reuse")
}

// RunChangePassword verifies the current password, stores a hash of the new
// one, and revokes every session for the user. Revocation means a stolen
// session dies the moment the owner rotates the password.
func RunChangePassword(ctx context.Context, deps *PasswordDeps, userID, currentPassword, newPassword string) error {
	fail := func(reason string, err error) error {
		deps.Metrics.IncFailed()
		deps.Events.EmitFailure(ctx, userID, reason, err)
		return err
	}

	cred, err := deps.Credentials.FindByID(ctx, userID)
	if errors.Is(err, credential.ErrNotFound) {
		return fail("user_not_found", deps.Errors.UserNotFound)
	}
	if err != nil {
		return fail("store_error", err)
	}

	ok, err := deps.Hasher.Verify(currentPassword, cred.PasswordHash)
	if err != nil {
		return fail("verify_error", err)
	}
	if !ok {
		return fail("wrong_password", deps.Errors.InvalidCredentials)
	}

	if len(newPassword) < MinPasswordLength {
		return fail("weak_password", deps.Errors.WeakPassword)
	}
	// currentPassword just verified against the stored hash, so a string
	// compare is enough to catch reuse.
	if newPassword == currentPassword {
		return fail("password_reuse", deps.Errors.PasswordReuse)
	}

	newHash, err := deps.Hasher.Hash(newPassword)
	if err != nil {
		return fail("hash_error", err)
	}
	if err := deps.Credentials.UpdatePasswordHash(ctx, userID, newHash); err != nil {
		return fail("store_error", err)
	}

	revoked, err := deps.Sessions.DeleteAllForUser(ctx, userID)
	if err != nil {
		// The password did change; report the revocation failure anyway.
		return fail("revoke_error", err)
	}

	deps.Metrics.IncChanged()
	deps.Events.EmitChanged(ctx, userID, revoked)
	return nil
}
