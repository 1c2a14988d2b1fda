package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tinyfs"

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Filesystem mediation metrics
	OperationsTotal    *prometheus.CounterVec
	OperationDuration  *prometheus.HistogramVec
	SecurityViolations *prometheus.CounterVec
	Confirmations      *prometheus.CounterVec
	HistoryEntries     prometheus.Gauge

	// Snapshot for JSON API - track current values
	snapshot Snapshot
	mu       sync.RWMutex
}

// Snapshot holds running totals for the JSON stats endpoint
type Snapshot struct {
	Operations         int64 `json:"operations"`
	Denied             int64 `json:"denied"`
	Failed             int64 `json:"failed"`
	SecurityViolations int64 `json:"security_violations"`
	HistoryEntries     int64 `json:"history_entries"`
	HTTPRequests       int64 `json:"http_requests"`
}

// NewMetrics registers all metrics with reg. A nil reg uses the default
// Prometheus registerer; tests pass a fresh prometheus.NewRegistry().
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "route"},
		),

		OperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Filesystem operations attempted, by outcome",
			},
			[]string{"operation", "outcome"},
		),
		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Filesystem operation duration in seconds, confirmation wait included",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5, 30},
			},
			[]string{"operation"},
		),
		SecurityViolations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "security_violations_total",
				Help:      "Requests rejected for resolving outside the workspace",
			},
			[]string{"operation"},
		),
		Confirmations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "confirmations_total",
				Help:      "Confirmation gate decisions",
			},
			[]string{"decision"},
		),
		HistoryEntries: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "history_entries",
				Help:      "Records currently held in the audit history",
			},
		),
	}
}

// RecordOperation records one filesystem operation attempt
func (m *Metrics) RecordOperation(operation, outcome string, duration time.Duration) {
	m.OperationsTotal.WithLabelValues(operation, outcome).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.Operations++
	switch outcome {
	case "denied":
		m.snapshot.Denied++
	case "failed":
		m.snapshot.Failed++
	}
	m.mu.Unlock()
}

// RecordSecurityViolation counts a containment breach attempt
func (m *Metrics) RecordSecurityViolation(operation string) {
	m.SecurityViolations.WithLabelValues(operation).Inc()

	m.mu.Lock()
	m.snapshot.SecurityViolations++
	m.mu.Unlock()
}

// RecordConfirmation counts a confirmation gate decision
func (m *Metrics) RecordConfirmation(decision string) {
	m.Confirmations.WithLabelValues(decision).Inc()
}

// SetHistoryEntries sets the current audit history length
func (m *Metrics) SetHistoryEntries(n int) {
	m.HistoryEntries.Set(float64(n))

	m.mu.Lock()
	m.snapshot.HistoryEntries = int64(n)
	m.mu.Unlock()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, route, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, route, status).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.HTTPRequests++
	m.mu.Unlock()
}

// Snapshot returns a copy of the running totals
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}
