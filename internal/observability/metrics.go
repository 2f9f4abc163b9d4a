package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "reservation_agent"

// Metrics tracks evaluation and HTTP metrics.
//
// Metrics:
//   - reservation_agent_evaluations_total: decisions by outcome
//   - reservation_agent_evaluation_duration_seconds: end-to-end evaluation latency
//   - reservation_agent_findings_total: evaluator findings by evaluator and kind
//   - reservation_agent_substrate_calls_total: substrate calls by outcome
//   - reservation_agent_substrate_call_duration_seconds: substrate call latency
//   - reservation_agent_evaluation_failures_total: failed evaluations by error type
//   - reservation_agent_http_requests_total: HTTP requests by method, route and status
//
// A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	evaluationsTotal   *prometheus.CounterVec
	evaluationDuration prometheus.Histogram
	findingsTotal      *prometheus.CounterVec
	substrateCalls     *prometheus.CounterVec
	substrateDuration  prometheus.Histogram
	failuresTotal      *prometheus.CounterVec
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
}

// NewMetrics creates and registers all metrics. A nil registry gets a fresh
// one so that tests never collide on the global registry.
func NewMetrics(namespace string, registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}

	m := &Metrics{
		registry: registry,

		evaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "evaluations_total",
				Help:      "Total number of reservation decisions by outcome",
			},
			[]string{"decision"},
		),

		evaluationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "evaluation_duration_seconds",
				Help:      "End-to-end reservation evaluation latency in seconds",
				// deterministic evaluations are sub-millisecond, substrate calls take seconds
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
			},
		),

		findingsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "findings_total",
				Help:      "Total number of evaluator findings by evaluator and kind",
			},
			[]string{"evaluator", "kind"},
		),

		substrateCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "substrate_calls_total",
				Help:      "Total number of reasoning substrate calls by outcome",
			},
			[]string{"outcome"},
		),

		substrateDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "substrate_call_duration_seconds",
				Help:      "Reasoning substrate call latency in seconds",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
		),

		failuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "evaluation_failures_total",
				Help:      "Total number of evaluations that ended in an error, by error type",
			},
			[]string{"error_type"},
		),

		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),

		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	registry.MustRegister(
		m.evaluationsTotal,
		m.evaluationDuration,
		m.findingsTotal,
		m.substrateCalls,
		m.substrateDuration,
		m.failuresTotal,
		m.httpRequests,
		m.httpDuration,
	)

	return m
}

// RecordDecision records a completed evaluation.
func (m *Metrics) RecordDecision(decision string, latency time.Duration) {
	if m == nil {
		return
	}
	m.evaluationsTotal.WithLabelValues(decision).Inc()
	m.evaluationDuration.Observe(latency.Seconds())
}

// RecordFinding records one evaluator finding.
func (m *Metrics) RecordFinding(evaluator, kind string) {
	if m == nil {
		return
	}
	m.findingsTotal.WithLabelValues(evaluator, kind).Inc()
}

// RecordSubstrateCall records one reasoning substrate call. outcome is the
// verdict on success, or "error" / "contract_violation".
func (m *Metrics) RecordSubstrateCall(outcome string, latency time.Duration) {
	if m == nil {
		return
	}
	m.substrateCalls.WithLabelValues(outcome).Inc()
	m.substrateDuration.Observe(latency.Seconds())
}

// RecordFailure records an evaluation that returned an error.
func (m *Metrics) RecordFailure(errorType string) {
	if m == nil {
		return
	}
	m.failuresTotal.WithLabelValues(errorType).Inc()
}

// RecordHTTPRequest records a served HTTP request. route is the matched
// route pattern, never the raw path.
func (m *Metrics) RecordHTTPRequest(method, route string, status int, latency time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(latency.Seconds())
}

// Registry returns the registry the metrics are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler for the Prometheus metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}
