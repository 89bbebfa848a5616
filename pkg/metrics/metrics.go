// Package metrics exposes Prometheus instrumentation for the dispatch
// pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics implements the dispatcher's Recorder interface over Prometheus
// collectors.
type Metrics struct {
	registry     *prometheus.Registry
	invocations  *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	hookFailures *prometheus.CounterVec
}

// New creates a Metrics with its own Prometheus registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		invocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "methodbus_invocations_total",
			Help: "Completed invocations by method, transport and status.",
		}, []string{"method", "transport", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "methodbus_invocation_duration_seconds",
			Help:    "Invocation duration from dispatch to completion.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		hookFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "methodbus_hook_failures_total",
			Help: "Hook aborts by phase.",
		}, []string{"phase"}),
	}

	reg.MustRegister(m.invocations, m.duration, m.hookFailures)
	return m
}

// Invocation records one completed invocation.
func (m *Metrics) Invocation(method, transport, status string, elapsed time.Duration) {
	m.invocations.WithLabelValues(method, transport, status).Inc()
	m.duration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// HookFailure records one hook abort.
func (m *Metrics) HookFailure(phase string) {
	m.hookFailures.WithLabelValues(phase).Inc()
}

// Handler returns the scrape endpoint handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
