// Package metrics declares the Prometheus collectors of the service
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	// Validation metrics
	ValidationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "validation_failures_total",
		Help: "Rejected prediction requests by offending field",
	}, []string{"field"})

	// ML service metrics
	ForwardRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ml_forward_requests_total",
		Help: "Predictions forwarded to the ML service by outcome",
	}, []string{"outcome"})

	ForwardDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ml_forward_duration_seconds",
		Help:    "Duration of calls to the ML service predict endpoint",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 14), // 5ms to ~40s
	})

	MLServiceUp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ml_service_up",
		Help: "1 when the last ML service liveness probe succeeded",
	})

	// Audit log metrics
	AuditWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "prediction_log_write_failures_total",
		Help: "Audit rows that could not be written",
	})
)
