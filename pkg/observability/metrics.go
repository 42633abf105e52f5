package observability

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Dispatch metrics
	DispatchTotal     *prometheus.CounterVec // outcome: authorized|redirected|not_found|inactive|lookup_failed|auth_failed
	CallbackTotal     *prometheus.CounterVec // outcome: recorded|no_token|unauthenticated|failed
	AccessWritesTotal *prometheus.CounterVec // status: ok|error
	GuardChecksTotal  *prometheus.CounterVec // result: allowed|denied

	// Registry cache metrics
	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter

	// Database metrics
	DBConnectionsActive prometheus.Gauge
	DBConnectionsIdle   prometheus.Gauge

	// Session metrics
	SessionsActive prometheus.Gauge
	SessionsSwept  prometheus.Counter
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "portal_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		DispatchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_dispatch_total",
				Help: "Service page dispatch outcomes",
			},
			[]string{"outcome"},
		),
		CallbackTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_auth_callback_total",
				Help: "Authentication callback outcomes",
			},
			[]string{"outcome"},
		),
		AccessWritesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_access_writes_total",
				Help: "Access trail write attempts",
			},
			[]string{"status"},
		),
		GuardChecksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_guard_checks_total",
				Help: "Authorization guard check results",
			},
			[]string{"result"},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "portal_registry_cache_hits_total",
				Help: "Registry cache hits",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "portal_registry_cache_misses_total",
				Help: "Registry cache misses",
			},
		),
		DBConnectionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "portal_db_connections_active",
				Help: "Active database connections",
			},
		),
		DBConnectionsIdle: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "portal_db_connections_idle",
				Help: "Idle database connections",
			},
		),
		SessionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "portal_sessions_active",
				Help: "Sessions currently stored",
			},
		),
		SessionsSwept: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "portal_sessions_swept_total",
				Help: "Expired sessions removed by the sweeper",
			},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.DispatchTotal,
		m.CallbackTotal,
		m.AccessWritesTotal,
		m.GuardChecksTotal,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.DBConnectionsActive,
		m.DBConnectionsIdle,
		m.SessionsActive,
		m.SessionsSwept,
	)

	return m
}

// Handler returns the Prometheus scrape handler for the registry
func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records one completed HTTP request
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// CollectDBStats copies sql.DB pool stats into gauges; call periodically
func (m *Metrics) CollectDBStats(db *sql.DB) {
	stats := db.Stats()
	m.DBConnectionsActive.Set(float64(stats.InUse))
	m.DBConnectionsIdle.Set(float64(stats.Idle))
}
