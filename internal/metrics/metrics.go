// Package metrics defines the Prometheus metrics for the budget bot.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Query metrics
	QueriesTotal *prometheus.CounterVec

	// Webhook metrics
	WebhookRequestsTotal   *prometheus.CounterVec
	WebhookDurationSeconds *prometheus.HistogramVec

	// Knowledge source metrics
	SourceLoadsTotal *prometheus.CounterVec
	IndexEntries     prometheus.Gauge
	IndexChanges     prometheus.Gauge

	// HTTP metrics
	HTTPErrorsTotal *prometheus.CounterVec
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		QueriesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "budgetbot_queries_total",
				Help: "Total number of resolved queries by outcome kind",
			},
			[]string{"kind"}, // kind: answer, comparison, multi_year, suggestions, ...
		),

		WebhookRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "budgetbot_webhook_requests_total",
				Help: "Total number of webhook requests by event type and status",
			},
			[]string{"event_type", "status"}, // status: success, error
		),

		WebhookDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "budgetbot_webhook_duration_seconds",
				Help:    "Webhook processing duration in seconds by event type",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"event_type"},
		),

		SourceLoadsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "budgetbot_source_loads_total",
				Help: "Total number of knowledge source loads by status",
			},
			[]string{"status"}, // status: success, error, fallback
		),

		IndexEntries: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Name: "budgetbot_index_entries",
				Help: "Number of entries in the active knowledge index",
			},
		),

		IndexChanges: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Name: "budgetbot_index_changes",
				Help: "Number of change rows in the active knowledge index",
			},
		),

		HTTPErrorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "budgetbot_http_errors_total",
				Help: "Total HTTP errors by type and module",
			},
			[]string{"error_type", "module"}, // error_type: invalid_signature, parse_error, reply_error
		),
	}

	return m
}

// RecordQuery records one resolved query by its outcome kind
func (m *Metrics) RecordQuery(kind string) {
	m.QueriesTotal.WithLabelValues(kind).Inc()
}

// RecordWebhook records a webhook request
func (m *Metrics) RecordWebhook(eventType, status string, duration float64) {
	m.WebhookRequestsTotal.WithLabelValues(eventType, status).Inc()
	m.WebhookDurationSeconds.WithLabelValues(eventType).Observe(duration)
}

// RecordSourceLoad records one knowledge source load attempt
func (m *Metrics) RecordSourceLoad(status string) {
	m.SourceLoadsTotal.WithLabelValues(status).Inc()
}

// SetIndexSize records the size of the active knowledge index
func (m *Metrics) SetIndexSize(entries, changes int) {
	m.IndexEntries.Set(float64(entries))
	m.IndexChanges.Set(float64(changes))
}

// RecordHTTPError records HTTP error metrics
func (m *Metrics) RecordHTTPError(errorType, module string) {
	m.HTTPErrorsTotal.WithLabelValues(errorType, module).Inc()
}
