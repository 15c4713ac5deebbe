// Package observability wires Prometheus metrics for the HTTP surface and
// background jobs.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors shared by the API server and the worker.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	overbookedItems prometheus.Gauge

	jobRuns     *prometheus.CounterVec
	jobDuration *prometheus.HistogramVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "erprent",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "erprent",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		overbookedItems: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "erprent",
			Name:      "overbooked_items",
			Help:      "Items found overbooked by the last integrity audit.",
		}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "erprent",
			Subsystem: "jobs",
			Name:      "runs_total",
			Help:      "Background job executions by task type and result.",
		}, []string{"task", "result"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "erprent",
			Subsystem: "jobs",
			Name:      "duration_seconds",
			Help:      "Background job runtime by task type.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300},
		}, []string{"task"}),
	}
	registry.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.overbookedItems,
		m.jobRuns,
		m.jobDuration,
	)
	return m
}

// Handler serves the scrape endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// SetOverbookedItems publishes the latest audit result.
func (m *Metrics) SetOverbookedItems(n int) {
	if m == nil {
		return
	}
	m.overbookedItems.Set(float64(n))
}

// TrackJob times one job execution. Call the returned func with the job's
// final error.
func (m *Metrics) TrackJob(task string) func(error) {
	if m == nil {
		return func(error) {}
	}
	start := time.Now()
	return func(err error) {
		result := "ok"
		if err != nil {
			result = "error"
		}
		m.jobRuns.WithLabelValues(task, result).Inc()
		m.jobDuration.WithLabelValues(task).Observe(time.Since(start).Seconds())
	}
}

// Middleware instruments chi routes. The route pattern keeps cardinality
// bounded regardless of path parameters.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(recorder.status)).Inc()
		m.httpDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
