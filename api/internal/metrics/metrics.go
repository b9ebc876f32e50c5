package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result labels for AuthOperations.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

var (
	// Authentication metrics
	AuthOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edutrack_auth_operations_total",
			Help: "Total number of authentication operations by outcome",
		},
		[]string{"operation", "result"},
	)

	TokensIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edutrack_tokens_issued_total",
			Help: "Total number of tokens issued by class",
		},
		[]string{"class"},
	)

	// Rate limiting metrics
	LoginRateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "edutrack_login_rate_limited_total",
			Help: "Total number of login attempts rejected by the rate limiter",
		},
	)

	// HTTP metrics
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "edutrack_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// Audit metrics
	AuditPublishErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "edutrack_audit_publish_errors_total",
			Help: "Total number of audit events that could not be published",
		},
	)
)
