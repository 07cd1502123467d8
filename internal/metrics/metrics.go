// Package metrics provides Prometheus metrics for SlateDeck.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "slatedeck"
)

// Checker metrics
var (
	// CheckerRunsTotal counts checker runs by outcome.
	CheckerRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "checker",
			Name:      "runs_total",
			Help:      "Total alert checker runs",
		},
		[]string{"outcome"},
	)

	// CheckerRunDuration tracks end-to-end run latency.
	CheckerRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "checker",
			Name:      "run_duration_seconds",
			Help:      "Alert checker run duration in seconds",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	// AlertsChecked counts alerts evaluated across all runs.
	AlertsChecked = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "checker",
			Name:      "alerts_checked_total",
			Help:      "Total alerts evaluated",
		},
	)

	// AlertsTriggered counts alerts whose condition was met.
	AlertsTriggered = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "checker",
			Name:      "alerts_triggered_total",
			Help:      "Total alerts whose threshold condition was met",
		},
	)

	// QueryErrors counts per-alert query execution failures.
	QueryErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "checker",
			Name:      "query_errors_total",
			Help:      "Total alert query execution failures",
		},
	)

	// WebhookFailures counts webhook calls that failed outright or
	// returned a non-2xx status.
	WebhookFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "checker",
			Name:      "webhook_failures_total",
			Help:      "Total failed webhook deliveries",
		},
	)

	// LogWriteFailures counts alert_logs inserts that failed.
	LogWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "checker",
			Name:      "log_write_failures_total",
			Help:      "Total alert log audit writes that failed",
		},
	)
)

// Event stream metrics
var (
	// EventsPublished counts trigger events published to the stream.
	EventsPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Total trigger events published",
		},
	)

	// EventPublishFailures counts failed event publishes.
	EventPublishFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "publish_failures_total",
			Help:      "Total trigger event publishes that failed",
		},
	)
)

// HTTP metrics
var (
	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestsInFlight tracks currently active HTTP requests.
	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being served",
		},
	)

	// HTTPRequestDuration tracks HTTP request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)
)
