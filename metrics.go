package goIdentity

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one engine counter or latency histogram.
type MetricID uint16

const (
	// MetricRegisterSuccess counts completed registrations.
	MetricRegisterSuccess MetricID = iota
	// MetricRegisterFailed counts rejected registrations, whatever the reason.
	MetricRegisterFailed
	// MetricLoginSuccess counts logins that produced a session and token.
	MetricLoginSuccess
	// MetricLoginFailed counts rejected logins.
	MetricLoginFailed
	// MetricLoginRateLimited counts logins refused before credential checks.
	MetricLoginRateLimited
	// MetricLogout counts single-session logouts.
	MetricLogout
	// MetricLogoutAll counts whole-account revocations.
	MetricLogoutAll
	// MetricTokenValidated counts validations that returned an identity.
	MetricTokenValidated
	// MetricTokenRejected counts validations that returned an error.
	MetricTokenRejected
	// MetricPasswordChanged counts successful password rotations.
	MetricPasswordChanged
	// MetricPasswordChangeFailed counts rejected password rotations.
	MetricPasswordChangeFailed
	// MetricSessionsSwept counts sessions removed by sweeps.
	MetricSessionsSwept

	// MetricRegisterLatency through MetricSweepLatency are histogram IDs.
	MetricRegisterLatency
	MetricLoginLatency
	MetricValidateLatency
	MetricSweepLatency

	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

// histogramIDs marks which MetricIDs record latency distributions.
var histogramIDs = [metricIDCount]bool{
	MetricRegisterLatency: true,
	MetricLoginLatency:    true,
	MetricValidateLatency: true,
	MetricSweepLatency:    true,
}

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

// paddedCounter spaces hot counters a cache line apart so concurrent
// increments on different IDs do not false-share.
type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics is the engine's lock-free counter set. A nil or disabled Metrics
// accepts every call and records nothing.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of every counter and histogram.
// Histogram buckets are per-bucket counts with bounds at 5, 10, 25, 50, 100,
// 250, and 500 milliseconds plus an overflow bucket.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics builds a metrics set per cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are being recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether latency histograms are being recorded.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to a counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Add adds n to a counter.
func (m *Metrics) Add(id MetricID, n uint64) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, n)
}

// Observe records one latency sample against a histogram ID. Non-histogram
// IDs are ignored.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if !histogramIDs[id] {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value reads one counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter and, when latency recording is on, every
// histogram. The copy is consistent per value, not across values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		if histogramIDs[id] {
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		for id := MetricID(0); id < metricIDCount; id++ {
			if !histogramIDs[id] {
				continue
			}
			buckets := make([]uint64, histBucketCount)
			for i := 0; i < histBucketCount; i++ {
				buckets[i] = atomic.LoadUint64(&m.histograms[id].buckets[i])
			}
			s.Histograms[id] = buckets
		}
	}

	return s
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}
