package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.CheckIn("recorded")
	m.CheckIn("recorded")
	m.CheckIn("already-recorded")
	m.SessionCreated()
	m.CodeCollision()
	m.CacheLookup(true)
	m.CacheLookup(false)
	m.CacheLookup(false)

	if got := testutil.ToFloat64(m.checkIns.WithLabelValues("recorded")); got != 2 {
		t.Errorf("recorded = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.checkIns.WithLabelValues("already-recorded")); got != 1 {
		t.Errorf("already-recorded = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.sessionsCreated); got != 1 {
		t.Errorf("sessions = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.codeCollisions); got != 1 {
		t.Errorf("collisions = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.cacheLookups.WithLabelValues("miss")); got != 2 {
		t.Errorf("misses = %v, want 2", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.CheckIn("recorded")
	m.SessionCreated()
	m.CodeCollision()
	m.CacheLookup(true)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(m.GinMiddleware())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestGinMiddlewareUsesRoutePattern(t *testing.T) {
	m := New(prometheus.NewRegistry())

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(m.GinMiddleware())
	r.GET("/api/prof/sessions/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/api/prof/sessions/1", "/api/prof/sessions/2", "/missing"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	if got := testutil.ToFloat64(m.requests.WithLabelValues("GET", "/api/prof/sessions/:id", "200")); got != 2 {
		t.Errorf("route counter = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.requests.WithLabelValues("GET", "unmatched", "404")); got != 1 {
		t.Errorf("unmatched counter = %v, want 1", got)
	}
}
