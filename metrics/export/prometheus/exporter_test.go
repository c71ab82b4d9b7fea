package prometheus

import (
	"net/http/httptest"
	"strings"
	"testing"

	goIdentity "github.com/MrEthical07/goIdentity"
)

type fakeSource struct {
	snapshot goIdentity.MetricsSnapshot
	dropped  uint64
}

func (f *fakeSource) MetricsSnapshot() goIdentity.MetricsSnapshot { return f.snapshot }
func (f *fakeSource) AuditDropped() uint64                        { return f.dropped }

func newFakeSource() *fakeSource {
	return &fakeSource{
		snapshot: goIdentity.MetricsSnapshot{
			Counters: map[goIdentity.MetricID]uint64{
				goIdentity.MetricLoginSuccess: 7,
				goIdentity.MetricLoginFailed:  3,
			},
			Histograms: map[goIdentity.MetricID][]uint64{
				goIdentity.MetricLoginLatency: {4, 2, 1, 0, 0, 0, 0, 1},
			},
		},
		dropped: 2,
	}
}

func TestRenderCountersAndHistograms(t *testing.T) {
	exporter := NewExporterFromSource(newFakeSource())
	out := exporter.Render()

	for _, want := range []string{
		"# TYPE goidentity_login_success_total counter",
		"goidentity_login_success_total 7",
		"goidentity_login_failed_total 3",
		"# TYPE goidentity_login_latency_ms histogram",
		`goidentity_login_latency_ms_bucket{le="5"} 4`,
		`goidentity_login_latency_ms_bucket{le="10"} 6`,
		`goidentity_login_latency_ms_bucket{le="+Inf"} 8`,
		"goidentity_login_latency_ms_count 8",
		"goidentity_audit_dropped_total 2",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}

	// Absent histograms are skipped, not rendered as zeros.
	if strings.Contains(out, "goidentity_sweep_latency_ms_bucket") {
		t.Error("rendered a histogram with no samples")
	}
}

func TestHandlerServesTextFormat(t *testing.T) {
	exporter := NewExporterFromSource(newFakeSource())

	rec := httptest.NewRecorder()
	exporter.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("Content-Type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "goidentity_login_success_total 7") {
		t.Fatalf("body missing counter:\n%s", rec.Body.String())
	}
}

func TestRenderNilSafe(t *testing.T) {
	var exporter *Exporter
	if out := exporter.Render(); out != "" {
		t.Fatalf("nil exporter rendered %q", out)
	}
}
