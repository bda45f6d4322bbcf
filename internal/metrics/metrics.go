package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Upstream API Metrics
var (
	// UpstreamRequestsTotal tracks logical upstream fetches by endpoint and outcome
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kick_upstream_requests_total",
			Help: "Logical Kick API fetches by endpoint and outcome (success/fallback)",
		},
		[]string{"endpoint", "outcome"},
	)

	// UpstreamAttemptsTotal tracks individual HTTP attempts by configuration and status
	UpstreamAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kick_upstream_attempts_total",
			Help: "Individual HTTP attempts by header configuration and result status",
		},
		[]string{"config", "status"},
	)

	// UpstreamRequestDuration tracks upstream attempt latency in seconds
	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kick_upstream_request_duration_seconds",
			Help:    "Upstream HTTP attempt duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 20},
		},
		[]string{"config"},
	)

	// FallbacksServedTotal tracks deterministic fallback payloads served by endpoint
	FallbacksServedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kick_fallbacks_served_total",
			Help: "Deterministic fallback payloads served after attempt exhaustion",
		},
		[]string{"endpoint"},
	)
)

// Response Cache Metrics
var (
	// CacheHitsTotal tracks response cache hits by endpoint
	CacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kick_cache_hits_total",
			Help: "Response cache hits by endpoint",
		},
		[]string{"endpoint"},
	)

	// CacheMissesTotal tracks response cache misses by endpoint
	CacheMissesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kick_cache_misses_total",
			Help: "Response cache misses by endpoint",
		},
		[]string{"endpoint"},
	)

	// CacheFlushesTotal tracks explicit cache invalidations
	CacheFlushesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kick_cache_flushes_total",
			Help: "Explicit cache invalidations (clear cache operations)",
		},
	)
)

// OAuth Metrics
var (
	// TokenRefreshTotal tracks refresh attempts by result (success/revoked/failure)
	TokenRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kick_token_refresh_total",
			Help: "OAuth token refresh attempts by result (success/revoked/failure)",
		},
		[]string{"result"},
	)

	// OAuthCallbacksTotal tracks authorization callbacks by result
	OAuthCallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kick_oauth_callbacks_total",
			Help: "OAuth authorization callbacks by result (success/denied/bad_state/missing_code/exchange_failed/error)",
		},
		[]string{"result"},
	)
)

// Circuit Breaker Metrics
var (
	// CircuitBreakerStateChanges tracks circuit breaker state transitions
	CircuitBreakerStateChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_changes_total",
			Help: "Circuit breaker state transitions by component and new state",
		},
		[]string{"component", "state"},
	)

	// CircuitBreakerState tracks current circuit breaker state (0=closed, 1=half-open, 2=open)
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Current circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"component"},
	)
)

// Build Information Metrics
var (
	// BuildInfo is a gauge that always returns 1, with build metadata as labels
	BuildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "build_info",
			Help: "Build information with version, commit, build_time, and go_version labels (value is always 1)",
		},
		[]string{"version", "commit", "build_time", "go_version"},
	)
)

// HTTP Request Metrics
// Note: http_requests_total and http_request_duration_seconds are provided
// by the echoprometheus middleware.
