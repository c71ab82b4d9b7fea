package flows

import (
	"context"
)

// LogoutDeps carries the capabilities and hooks used by the logout flows.
type LogoutDeps struct {
	Sessions SessionStore
	Metrics  LogoutMetrics
	Events   LogoutEvents
}

// LogoutMetrics are counters bumped by the flows.
type LogoutMetrics struct {
	IncLogout    func()
	IncLogoutAll func()
}

// LogoutEvents are audit hooks invoked by the flows.
type LogoutEvents struct {
	EmitLogout    func(ctx context.Context, sessionID string, existed bool)
	EmitLogoutAll func(ctx context.Context, userID string, revoked int)
}

func normalizeLogoutDeps(d *LogoutDeps) {
	if d.Metrics.IncLogout == nil {
		d.Metrics.IncLogout = noop
	}
	if d.Metrics.IncLogoutAll == nil {
		d.Metrics.IncLogoutAll = noop
	}
	if d.Events.EmitLogout == nil {
		d.Events.EmitLogout = func(context.Context, string, bool) {}
	}
	if d.Events.EmitLogoutAll == nil {
		d.Events.EmitLogoutAll = func(context.Context, string, int) {}
	}
}

// RunLogout deletes one session and reports whether it existed. Logging out
// twice is not an error; the second call simply reports false.
func RunLogout(ctx context.Context, deps *LogoutDeps, sessionID string) (bool, error) {
	existed, err := deps.Sessions.Delete(ctx, sessionID)
	if err != nil {
		return false, err
	}

	deps.Metrics.IncLogout()
	deps.Events.EmitLogout(ctx, sessionID, existed)
	return existed, nil
}

// RunLogoutAll revokes every session owned by userID and returns the count.
func RunLogoutAll(ctx context.Context, deps *LogoutDeps, userID string) (int, error) {
	revoked, err := deps.Sessions.DeleteAllForUser(ctx, userID)
	if err != nil {
		return revoked, err
	}

	deps.Metrics.IncLogoutAll()
	deps.Events.EmitLogoutAll(ctx, userID, revoked)
	return revoked, nil
}
