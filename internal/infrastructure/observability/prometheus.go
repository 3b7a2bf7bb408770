package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// WorkflowMetrics exposes pipeline counters in Prometheus format.
// All methods are safe on a nil receiver.
type WorkflowMetrics struct {
	registry      *prometheus.Registry
	routes        *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	degradations  *prometheus.CounterVec
	pollAttempts  prometheus.Histogram
	executions    *prometheus.CounterVec
}

// NewWorkflowMetrics registers the workflow collectors on a fresh registry
func NewWorkflowMetrics() *WorkflowMetrics {
	reg := prometheus.NewRegistry()
	m := &WorkflowMetrics{
		registry: reg,
		routes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "workflow_routes_total",
			Help: "Questions routed per classified intent",
		}, []string{"intent"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "workflow_stage_duration_seconds",
			Help:    "Duration of each pipeline stage",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
		}, []string{"stage"}),
		degradations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "workflow_stage_degradations_total",
			Help: "Stage failures absorbed into a fallback value",
		}, []string{"stage"}),
		pollAttempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "query_poll_attempts",
			Help:    "Status polls needed before a query reached a terminal state",
			Buckets: prometheus.LinearBuckets(1, 3, 11),
		}),
		executions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "query_executions_total",
			Help: "Submitted query executions by outcome",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.routes,
		m.stageDuration,
		m.degradations,
		m.pollAttempts,
		m.executions,
	)
	return m
}

// Handler serves the registry for scraping
func (m *WorkflowMetrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests
func (m *WorkflowMetrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *WorkflowMetrics) ObserveRoute(intent string) {
	if m == nil {
		return
	}
	m.routes.WithLabelValues(intent).Inc()
}

func (m *WorkflowMetrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (m *WorkflowMetrics) ObserveDegradation(stage string) {
	if m == nil {
		return
	}
	m.degradations.WithLabelValues(stage).Inc()
}

// ObserveExecution records how a polled execution ended and how many polls it took
func (m *WorkflowMetrics) ObserveExecution(outcome string, attempts int) {
	if m == nil {
		return
	}
	m.executions.WithLabelValues(outcome).Inc()
	if attempts > 0 {
		m.pollAttempts.Observe(float64(attempts))
	}
}
