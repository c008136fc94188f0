package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestMiddleware_RecordsRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/student/goals/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Handle("/metrics", m.Handler())

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/student/goals/abc", nil))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	out := string(body)

	if !strings.Contains(out, `route="/api/student/goals/{id}"`) {
		t.Errorf("expected route pattern label in output")
	}
	if !strings.Contains(out, `status="418"`) {
		t.Errorf("expected status label in output")
	}
}

func TestDomainCounters(t *testing.T) {
	m := New()
	m.Redemption("ok")
	m.Report("fallback")
	m.XP(25)
	m.WorkerRun("subscription_sweep", errors.New("x"))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	out := rec.Body.String()
	for _, want := range []string{
		`hedeflynet_discount_redemptions_total{outcome="ok"} 1`,
		`hedeflynet_report_renders_total{source="fallback"} 1`,
		`hedeflynet_xp_awarded_total 25`,
		`hedeflynet_worker_runs_total{job="subscription_sweep",result="error"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q", want)
		}
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.Redemption("ok")
	m.Report("primary")
	m.XP(1)
	m.WorkerRun("x", nil)
}
