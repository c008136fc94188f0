// Package metrics exposes request timing and a few domain counters to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests can build as many as they like.
type Metrics struct {
	reg *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	inFlight        prometheus.Gauge

	DiscountRedemptions *prometheus.CounterVec
	ReportRenders       *prometheus.CounterVec
	XPAwarded           prometheus.Counter
	WorkerRuns          *prometheus.CounterVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		reg: reg,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hedeflynet",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hedeflynet",
			Name:      "http_requests_in_flight",
			Help:      "Requests currently being served.",
		}),
		DiscountRedemptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hedeflynet",
			Name:      "discount_redemptions_total",
			Help:      "Discount redemption attempts by outcome.",
		}, []string{"outcome"}),
		ReportRenders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hedeflynet",
			Name:      "report_renders_total",
			Help:      "PDF reports rendered, by data source (primary, fallback, error).",
		}, []string{"source"}),
		XPAwarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hedeflynet",
			Name:      "xp_awarded_total",
			Help:      "Experience points awarded.",
		}),
		WorkerRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hedeflynet",
			Name:      "worker_runs_total",
			Help:      "Background job runs by job and result.",
		}, []string{"job", "result"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requestDuration, m.inFlight,
		m.DiscountRedemptions, m.ReportRenders, m.XPAwarded, m.WorkerRuns,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Middleware times each request, labelled by its chi route pattern so that
// path parameters don't explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.inFlight.Inc()
		defer m.inFlight.Dec()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requestDuration.
			WithLabelValues(r.Method, route, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}

// Nop-safe helpers so callers holding a nil *Metrics need no guards.

func (m *Metrics) Redemption(outcome string) {
	if m != nil {
		m.DiscountRedemptions.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) Report(source string) {
	if m != nil {
		m.ReportRenders.WithLabelValues(source).Inc()
	}
}

func (m *Metrics) XP(amount int64) {
	if m != nil && amount > 0 {
		m.XPAwarded.Add(float64(amount))
	}
}

func (m *Metrics) WorkerRun(job string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.WorkerRuns.WithLabelValues(job, result).Inc()
}
