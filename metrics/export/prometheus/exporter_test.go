package prometheus

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sessiongate "github.com/cityhealth/sessiongate"
)

type fakeSource struct {
	snapshot sessiongate.MetricsSnapshot
}

func (f fakeSource) MetricsSnapshot() sessiongate.MetricsSnapshot { return f.snapshot }

func TestRenderEmptyWhenMetricsDisabled(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: sessiongate.MetricsSnapshot{
			Counters:   map[sessiongate.MetricID]uint64{},
			Histograms: map[sessiongate.MetricID][]uint64{},
		},
	})

	if got := exp.Render(); got != "" {
		t.Fatalf("expected empty output for disabled metrics, got:\n%s", got)
	}
}

func TestRenderIncludesCounterAndHistogram(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: sessiongate.MetricsSnapshot{
			Counters: map[sessiongate.MetricID]uint64{
				sessiongate.MetricLoginSuccess:   7,
				sessiongate.MetricStorageCorrupt: 1,
			},
			Histograms: map[sessiongate.MetricID][]uint64{
				sessiongate.MetricLoginLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
	})

	out := exp.Render()
	if !strings.Contains(out, "sessiongate_login_success_total 7") {
		t.Fatalf("expected login_success counter in output, got:\n%s", out)
	}
	if !strings.Contains(out, "sessiongate_storage_corrupt_total 1") {
		t.Fatalf("expected storage_corrupt counter in output, got:\n%s", out)
	}
	if !strings.Contains(out, "sessiongate_login_latency_seconds_bucket{le=\"0.005\"} 1") {
		t.Fatalf("expected first histogram bucket in output, got:\n%s", out)
	}
	if !strings.Contains(out, "sessiongate_login_latency_seconds_bucket{le=\"+Inf\"} 36") {
		t.Fatalf("expected +Inf cumulative bucket in output, got:\n%s", out)
	}
	if !strings.Contains(out, "sessiongate_login_latency_seconds_count 36") {
		t.Fatalf("expected histogram count in output, got:\n%s", out)
	}
}

func TestRenderSkipsAbsentHistogram(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: sessiongate.MetricsSnapshot{
			Counters: map[sessiongate.MetricID]uint64{
				sessiongate.MetricLogout: 3,
			},
			Histograms: map[sessiongate.MetricID][]uint64{},
		},
	})

	out := exp.Render()
	if strings.Contains(out, "sessiongate_login_latency_seconds") {
		t.Fatalf("expected no histogram lines when latency is not recorded, got:\n%s", out)
	}
	if !strings.Contains(out, "sessiongate_logout_total 3") {
		t.Fatalf("expected logout counter in output, got:\n%s", out)
	}
}

func TestHandlerWritesPrometheusContentType(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: sessiongate.MetricsSnapshot{
			Counters:   map[sessiongate.MetricID]uint64{sessiongate.MetricLoginSuccess: 1},
			Histograms: map[sessiongate.MetricID][]uint64{},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	exp.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Content-Type"); !strings.Contains(got, "text/plain") {
		t.Fatalf("expected prometheus content type, got %q", got)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func BenchmarkRender(b *testing.B) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: sessiongate.MetricsSnapshot{
			Counters: map[sessiongate.MetricID]uint64{
				sessiongate.MetricLoginSuccess:       1000,
				sessiongate.MetricLoginFailure:       40,
				sessiongate.MetricLogout:             800,
				sessiongate.MetricHydrate:            5000,
				sessiongate.MetricGateAllow:          9000,
				sessiongate.MetricGateDenyAnonymous:  120,
				sessiongate.MetricSessionInvalidated: 20,
			},
			Histograms: map[sessiongate.MetricID][]uint64{
				sessiongate.MetricLoginLatency: {10, 20, 30, 40, 50, 60, 70, 80},
			},
		},
	})

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = exp.Render()
	}
}
