// Package internaldefs carries the shared metric naming tables used by the
// prometheus and otel exporters. It exists so the two exporters cannot drift:
// both render exactly the definitions listed here.
package internaldefs

import (
	goIdentity "github.com/MrEthical07/goIdentity"
)

// CounterDef maps an engine MetricID to an exported counter name.
type CounterDef struct {
	ID   goIdentity.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter, in render order.
var CounterDefs = []CounterDef{
	{goIdentity.MetricRegisterSuccess, "goidentity_register_success_total", "Completed registrations."},
	{goIdentity.MetricRegisterFailed, "goidentity_register_failed_total", "Rejected registrations."},
	{goIdentity.MetricLoginSuccess, "goidentity_login_success_total", "Logins that produced a session and token."},
	{goIdentity.MetricLoginFailed, "goidentity_login_failed_total", "Rejected logins."},
	{goIdentity.MetricLoginRateLimited, "goidentity_login_rate_limited_total", "Logins refused before credential checks."},
	{goIdentity.MetricLogout, "goidentity_logout_total", "Single-session logouts."},
	{goIdentity.MetricLogoutAll, "goidentity_logout_all_total", "Whole-account session revocations."},
	{goIdentity.MetricTokenValidated, "goidentity_token_validated_total", "Validations that returned an identity."},
	{goIdentity.MetricTokenRejected, "goidentity_token_rejected_total", "Validations that returned an error."},
	{goIdentity.MetricPasswordChanged, "goidentity_password_changed_total", "Successful password rotations."},
	{goIdentity.MetricPasswordChangeFailed, "goidentity_password_change_failed_total", "Rejected password rotations."},
	{goIdentity.MetricSessionsSwept, "goidentity_sessions_swept_total", "Sessions removed by expiry sweeps."},
}

// HistogramDef maps an engine histogram ID to an exported histogram name.
type HistogramDef struct {
	ID   goIdentity.MetricID
	Name string
	Help string
}

// HistogramDefs lists every exported latency histogram, in render order.
var HistogramDefs = []HistogramDef{
	{goIdentity.MetricRegisterLatency, "goidentity_register_latency_ms", "Registration latency distribution."},
	{goIdentity.MetricLoginLatency, "goidentity_login_latency_ms", "Login latency distribution."},
	{goIdentity.MetricValidateLatency, "goidentity_validate_latency_ms", "Token validation latency distribution."},
	{goIdentity.MetricSweepLatency, "goidentity_sweep_latency_ms", "Session sweep latency distribution."},
}

// HistogramBounds are the upper bounds of the engine's fixed buckets, in
// milliseconds, rendered as Prometheus le labels.
var HistogramBounds = [...]string{"5", "10", "25", "50", "100", "250", "500", "+Inf"}

// HistogramBoundSuffix are the same bounds as metric-name-safe suffixes.
var HistogramBoundSuffix = [...]string{"5", "10", "25", "50", "100", "250", "500", "inf"}

// NormalizeBuckets pads or truncates a snapshot's bucket slice to the fixed
// bucket count so exporters can index it unconditionally.
func NormalizeBuckets(buckets []uint64) []uint64 {
	out := make([]uint64, len(HistogramBounds))
	copy(out, buckets)
	return out
}

// CumulativeBuckets converts per-bucket counts into the cumulative form
// Prometheus histograms use. The final element equals the sample count.
func CumulativeBuckets(buckets []uint64) []uint64 {
	out := make([]uint64, len(buckets))
	var running uint64
	for i, v := range buckets {
		running += v
		out[i] = running
	}
	return out
}
