package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors exported on /metrics. A nil *Metrics is a
// valid no-op recorder.
type Metrics struct {
	checkIns        *prometheus.CounterVec
	sessionsCreated prometheus.Counter
	codeCollisions  prometheus.Counter
	cacheLookups    *prometheus.CounterVec
	requests        *prometheus.CounterVec
	latency         *prometheus.HistogramVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		checkIns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "classroll",
			Name:      "checkins_total",
			Help:      "Attendance check-ins by outcome.",
		}, []string{"status"}),
		sessionsCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: "classroll",
			Name:      "sessions_created_total",
			Help:      "Attendance sessions created.",
		}),
		codeCollisions: f.NewCounter(prometheus.CounterOpts{
			Namespace: "classroll",
			Name:      "session_code_collisions_total",
			Help:      "Session code inserts rejected by the uniqueness constraint.",
		}),
		cacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "classroll",
			Name:      "session_cache_lookups_total",
			Help:      "Session code cache lookups by result.",
		}, []string{"result"}),
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "classroll",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "classroll",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// CheckIn counts an attendance outcome.
func (m *Metrics) CheckIn(status string) {
	if m == nil {
		return
	}
	m.checkIns.WithLabelValues(status).Inc()
}

// SessionCreated counts a created session.
func (m *Metrics) SessionCreated() {
	if m == nil {
		return
	}
	m.sessionsCreated.Inc()
}

// CodeCollision counts a session code that had to be regenerated.
func (m *Metrics) CodeCollision() {
	if m == nil {
		return
	}
	m.codeCollisions.Inc()
}

// CacheLookup counts a session cache hit or miss.
func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// GinMiddleware records request counts and latency per matched route.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.latency.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
