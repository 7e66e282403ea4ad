package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// advisory service.
type Metrics struct {
	FieldsEvaluated    prometheus.Counter
	EvaluationErrors   prometheus.Counter
	SchedulerRunning   prometheus.Gauge
	EvaluationDuration prometheus.Histogram

	// Notification metrics.
	NotificationsEmitted *prometheus.CounterVec // labels: kind, severity
	PublishErrors        prometheus.Counter

	// Observation fetching metrics.
	JMARequests        *prometheus.CounterVec // labels: outcome={success,error,empty}
	JMARequestDuration prometheus.Histogram
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		FieldsEvaluated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "paddy_advisor",
			Name:      "fields_evaluated_total",
			Help:      "Total per-field daily evaluations completed.",
		}),
		EvaluationErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "paddy_advisor",
			Name:      "evaluation_errors_total",
			Help:      "Total per-field evaluations that failed.",
		}),
		SchedulerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "paddy_advisor",
			Name:      "scheduler_running",
			Help:      "1 when the daily scheduler is active, 0 when shut down.",
		}),
		EvaluationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "paddy_advisor",
			Name:      "evaluation_duration_seconds",
			Help:      "Duration of one field's daily evaluation.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		NotificationsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "paddy_advisor",
			Name:      "notifications_emitted_total",
			Help:      "Notifications emitted by kind and severity.",
		}, []string{"kind", "severity"}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "paddy_advisor",
			Name:      "publish_errors_total",
			Help:      "Notification deliveries that failed.",
		}),
		JMARequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "paddy_advisor",
			Name:      "jma_requests_total",
			Help:      "JMA observation requests by outcome.",
		}, []string{"outcome"}),
		JMARequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "paddy_advisor",
			Name:      "jma_request_duration_seconds",
			Help:      "JMA API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}

	prometheus.MustRegister(
		m.FieldsEvaluated,
		m.EvaluationErrors,
		m.SchedulerRunning,
		m.EvaluationDuration,
		m.NotificationsEmitted,
		m.PublishErrors,
		m.JMARequests,
		m.JMARequestDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		FieldsEvaluated:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "paddy_advisor", Name: "fields_evaluated_total"}),
		EvaluationErrors:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "paddy_advisor", Name: "evaluation_errors_total"}),
		SchedulerRunning:     prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "paddy_advisor", Name: "scheduler_running"}),
		EvaluationDuration:   prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "paddy_advisor", Name: "evaluation_duration_seconds"}),
		NotificationsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "paddy_advisor", Name: "notifications_emitted_total"}, []string{"kind", "severity"}),
		PublishErrors:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "paddy_advisor", Name: "publish_errors_total"}),
		JMARequests:          prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "paddy_advisor", Name: "jma_requests_total"}, []string{"outcome"}),
		JMARequestDuration:   prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "paddy_advisor", Name: "jma_request_duration_seconds"}),
	}
}
