package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// outcome: ok, transport, forbidden, superseded
	ScopeFetchCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scope_fetch_total",
			Help: "Scope data fetches against the query service by outcome",
		},
		[]string{"scope", "outcome"},
	)

	ScopeFetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scope_fetch_duration_seconds",
			Help:    "Latency of scope data fetches",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"scope"},
	)

	// tier: memory, redis; event: hit, miss, invalidate
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scope_cache_events_total",
			Help: "Scope cache hits, misses and invalidations",
		},
		[]string{"tier", "event"},
	)

	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dashboard_active_sessions",
			Help: "Navigation sessions currently held in memory",
		},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(ScopeFetchCounter)
	prometheus.MustRegister(ScopeFetchDuration)
	prometheus.MustRegister(CacheEvents)
	prometheus.MustRegister(ActiveSessions)
}

func ObserveFetch(scope, outcome string, started time.Time) {
	ScopeFetchCounter.WithLabelValues(scope, outcome).Inc()
	ScopeFetchDuration.WithLabelValues(scope).Observe(time.Since(started).Seconds())
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		RequestCounter.WithLabelValues(
			c.Request.Method,
			endpoint,
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			endpoint,
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
