package prometheus

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	phoneauth "github.com/aungsithu-dev/phoneauth"
)

type fakeSource struct {
	snapshot phoneauth.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() phoneauth.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                       { return f.dropped }

func TestRenderEmptyWhenMetricsDisabled(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: phoneauth.MetricsSnapshot{},
		dropped:  0,
	})

	if got := exp.Render(); got != "" {
		t.Fatalf("expected empty output for disabled metrics, got:\n%s", got)
	}
}

func TestRenderDeterministicIncludesCounters(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: phoneauth.MetricsSnapshot{
			"login_success":   7,
			"otp_issued":      3,
			"refresh_success": 0,
		},
		dropped: 2,
	})

	out := exp.Render()
	if !strings.Contains(out, "phoneauth_login_success_total 7") {
		t.Fatalf("expected login_success counter in output, got:\n%s", out)
	}
	if !strings.Contains(out, "phoneauth_otp_issued_total 3") {
		t.Fatalf("expected otp_issued counter in output, got:\n%s", out)
	}
	if !strings.Contains(out, "# TYPE phoneauth_refresh_success_total counter") {
		t.Fatalf("expected refresh_success type line in output, got:\n%s", out)
	}
	if !strings.Contains(out, "phoneauth_audit_dropped_total 2") {
		t.Fatalf("expected audit dropped counter in output, got:\n%s", out)
	}
}

func TestHandlerWritesPrometheusContentType(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: phoneauth.MetricsSnapshot{"login_success": 1},
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
		snapshot: phoneauth.MetricsSnapshot{
			"otp_issued":             1000,
			"otp_verify_success":     940,
			"otp_verify_failure":     60,
			"login_success":          800,
			"login_failure":          40,
			"refresh_success":        600,
			"refresh_reuse_detected": 2,
		},
		dropped: 0,
	})

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = exp.Render()
	}
}
