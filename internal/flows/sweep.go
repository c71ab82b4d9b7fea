package flows

import (
	"context"
	"time"
)

// MaintenanceDeps carries the capabilities and hooks used by RunSweep.
type MaintenanceDeps struct {
	Sessions SessionStore
	Metrics  MaintenanceMetrics
	Events   MaintenanceEvents
}

// MaintenanceMetrics are counters bumped by the sweep.
type MaintenanceMetrics struct {
	AddSwept       func(n int)
	ObserveLatency func(time.Duration)
}

// MaintenanceEvents are audit hooks invoked by the sweep.
type MaintenanceEvents struct {
	EmitSweep func(ctx context.Context, removed int)
}

func normalizeMaintenanceDeps(d *MaintenanceDeps) {
	if d.Metrics.AddSwept == nil {
		d.Metrics.AddSwept = func(int) {}
	}
	if d.Metrics.ObserveLatency == nil {
		d.Metrics.ObserveLatency = noopObserve
	}
	if d.Events.EmitSweep == nil {
		d.Events.EmitSweep = func(context.Context, int) {}
	}
}

// RunSweep removes expired sessions in bulk and returns how many were
// deleted. Lazy expiry already hides expired sessions from readers; the sweep
// reclaims the storage.
func RunSweep(ctx context.Context, deps *MaintenanceDeps) (int, error) {
	start := time.Now()

	removed, err := deps.Sessions.SweepExpired(ctx)
	if err != nil {
		return removed, err
	}

	deps.Metrics.AddSwept(removed)
	deps.Metrics.ObserveLatency(time.Since(start))
	deps.Events.EmitSweep(ctx, removed)
	return removed, nil
}
