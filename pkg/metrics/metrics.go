// Package metrics provides Prometheus metrics for the fern service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ImportsTotal tracks finished imports by outcome
	ImportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "ingest",
			Name:      "imports_total",
			Help:      "Total number of CSV imports by outcome",
		},
		[]string{"status"},
	)

	// ImportDuration tracks import duration in seconds
	ImportDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "fern",
			Subsystem: "ingest",
			Name:      "import_duration_seconds",
			Help:      "Duration of CSV imports in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
	)

	// ImportRows tracks processed rows by result
	ImportRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "ingest",
			Name:      "rows_total",
			Help:      "Total number of CSV rows processed by result",
		},
		[]string{"result"},
	)

	// CoercionDefaults tracks fields replaced by a default value
	CoercionDefaults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "ingest",
			Name:      "coercion_defaults_total",
			Help:      "Total number of fields that fell back to a default value",
		},
		[]string{"column"},
	)

	// PromotionsTotal tracks validation decisions by outcome
	PromotionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "promotion",
			Name:      "decisions_total",
			Help:      "Total number of validation decisions by outcome",
		},
		[]string{"outcome"},
	)

	// HTTPRequestsTotal tracks inbound HTTP requests
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of inbound HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)

	// HTTPRequestDuration tracks inbound HTTP request duration
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fern",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of inbound HTTP requests in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)
)

// RecordImport records a finished import
func RecordImport(success bool, durationSeconds float64) {
	status := "success"
	if !success {
		status = "failed"
	}
	ImportsTotal.WithLabelValues(status).Inc()
	ImportDuration.Observe(durationSeconds)
}

// RecordRow records the result of one row: imported, updated, skipped or error
func RecordRow(result string) {
	ImportRows.WithLabelValues(result).Inc()
}

func RecordCoercionDefault(column string) {
	CoercionDefaults.WithLabelValues(column).Inc()
}

// RecordPromotion records a validation decision: promoted, validated, pending, conflict
func RecordPromotion(outcome string) {
	PromotionsTotal.WithLabelValues(outcome).Inc()
}

// RecordHTTPRequest records an inbound HTTP request
func RecordHTTPRequest(method, route, statusCode string, durationSeconds float64) {
	HTTPRequestsTotal.WithLabelValues(method, route, statusCode).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(durationSeconds)
}
