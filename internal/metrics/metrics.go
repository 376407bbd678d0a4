// Package metrics provides Prometheus metrics collection for the moderation API.
package metrics

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Global metrics - used by the application
	// Using atomic.Pointer for lock-free initialization checks on hot path metrics.
	requestsTotal         atomic.Pointer[prometheus.CounterVec]
	requestDuration       atomic.Pointer[prometheus.HistogramVec]
	authFailuresTotal     atomic.Pointer[prometheus.CounterVec]
	usageLogFailuresTotal atomic.Pointer[prometheus.Counter]
	imagesAnalyzedTotal   atomic.Pointer[prometheus.CounterVec]
)

// Init initializes all Prometheus metrics and registers them with the provided registry.
// This should be called once at application startup.
func Init(reg prometheus.Registerer) error {
	// HTTP request counter: tracks all requests by method, path (normalized), and status code
	requestsTotalVec := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "moderation",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled by the API",
		},
		[]string{"method", "path", "status"},
	)
	if err := reg.Register(requestsTotalVec); err != nil {
		return fmt.Errorf("failed to register requestsTotal: %w", err)
	}

	// Request duration histogram: tracks latency distribution
	requestDurationVec := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "moderation",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	if err := reg.Register(requestDurationVec); err != nil {
		return fmt.Errorf("failed to register requestDuration: %w", err)
	}

	// Auth failures counter: tracks failed authentication/authorization attempts
	authFailuresTotalVec := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "moderation",
			Subsystem: "api",
			Name:      "auth_failures_total",
			Help:      "Total number of authentication and authorization failures",
		},
		[]string{"reason"},
	)
	if err := reg.Register(authFailuresTotalVec); err != nil {
		return fmt.Errorf("failed to register authFailuresTotal: %w", err)
	}

	// Usage-log failure counter: best-effort appends that did not land.
	// These never fail the triggering request, so the counter is the
	// operator's only signal.
	usageLogFailures := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "moderation",
			Subsystem: "api",
			Name:      "usage_log_failures_total",
			Help:      "Total number of usage log appends that failed",
		},
	)
	if err := reg.Register(usageLogFailures); err != nil {
		return fmt.Errorf("failed to register usageLogFailures: %w", err)
	}

	// Analyzer throughput counter by safety verdict
	imagesAnalyzedVec := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "moderation",
			Subsystem: "api",
			Name:      "images_analyzed_total",
			Help:      "Total number of images analyzed, by verdict",
		},
		[]string{"verdict"},
	)
	if err := reg.Register(imagesAnalyzedVec); err != nil {
		return fmt.Errorf("failed to register imagesAnalyzed: %w", err)
	}

	// Info gauge: static metric with constant label values for build info
	infoGaugeVec := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "moderation",
			Subsystem: "api",
			Name:      "info",
			Help:      "API version and build information",
		},
		[]string{"version"},
	)
	infoGaugeInstance := infoGaugeVec.WithLabelValues("1.0.0")
	if err := reg.Register(infoGaugeVec); err != nil {
		return fmt.Errorf("failed to register infoGauge: %w", err)
	}
	infoGaugeInstance.Set(1)

	// Store metrics in atomics for lock-free access in record functions
	requestsTotal.Store(requestsTotalVec)
	requestDuration.Store(requestDurationVec)
	authFailuresTotal.Store(authFailuresTotalVec)
	usageLogFailuresTotal.Store(&usageLogFailures)
	imagesAnalyzedTotal.Store(imagesAnalyzedVec)

	return nil
}

// RecordRequest increments the requests counter for the given method, path, and status code.
// The path should be normalized (e.g., "/auth/tokens/:token" instead of the raw value).
func RecordRequest(method, path, statusCode string) {
	if counter := requestsTotal.Load(); counter != nil {
		counter.WithLabelValues(method, path, statusCode).Inc()
	}
}

// RecordRequestDuration records the latency for a request.
// Duration should be in seconds.
func RecordRequestDuration(method, path, statusCode string, durationSeconds float64) {
	if histogram := requestDuration.Load(); histogram != nil {
		histogram.WithLabelValues(method, path, statusCode).Observe(durationSeconds)
	}
}

// RecordAuthFailure increments the auth failures counter for the given reason.
// Common reasons: "missing_token", "invalid_token", "admin_required"
func RecordAuthFailure(reason string) {
	if counter := authFailuresTotal.Load(); counter != nil {
		counter.WithLabelValues(reason).Inc()
	}
}

// RecordUsageLogFailure increments the usage-log failure counter.
func RecordUsageLogFailure() {
	if counter := usageLogFailuresTotal.Load(); counter != nil {
		(*counter).Inc()
	}
}

// RecordImageAnalyzed increments the analyzer counter.
// verdict is "safe" or "unsafe".
func RecordImageAnalyzed(verdict string) {
	if counter := imagesAnalyzedTotal.Load(); counter != nil {
		counter.WithLabelValues(verdict).Inc()
	}
}

// Handler returns an HTTP handler for Prometheus metrics in text format.
// This handler should be registered at /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// GetMetricsText returns the Prometheus text-format output from a registry.
// This is useful for testing and debugging.
func GetMetricsText(reg prometheus.Gatherer) (string, error) {
	handler := promhttp.HandlerFor(reg, promhttp.HandlerOpts{})

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	body, err := io.ReadAll(w.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read metrics output: %w", err)
	}

	return string(body), nil
}
