package flows

import (
	"context"
)

// IntrospectionDeps carries the read-only capabilities used by operational
// queries. None of these flows mutate state.
type IntrospectionDeps struct {
	Credentials   CredentialStore
	Sessions      SessionStore
	LoginAttempts func(ctx context.Context, email string) (int, error)
}

func normalizeIntrospectionDeps(d *IntrospectionDeps) {
	if d.LoginAttempts == nil {
		d.LoginAttempts = func(context.Context, string) (int, error) { return 0, nil }
	}
}

// RunActiveSessionCount returns the number of live sessions for a user.
func RunActiveSessionCount(ctx context.Context, deps *IntrospectionDeps, userID string) (int, error) {
	return deps.Sessions.ActiveSessionCount(ctx, userID)
}

// RunActiveSessionIDs returns the live session IDs for a user.
func RunActiveSessionIDs(ctx context.Context, deps *IntrospectionDeps, userID string) ([]string, error) {
	return deps.Sessions.ActiveSessionIDs(ctx, userID)
}

// RunLoginAttempts returns the failed-login count in the current rate window.
func RunLoginAttempts(ctx context.Context, deps *IntrospectionDeps, email string) (int, error) {
	return deps.LoginAttempts(ctx, NormalizeEmail(email))
}

// RunHealth pings the session backend. Credential backends expose no probe
// of their own; they share the same Redis in every stock wiring.
func RunHealth(ctx context.Context, deps *IntrospectionDeps) error {
	return deps.Sessions.Ping(ctx)
}
