package handler

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"classroll/internal/auth"
	"classroll/internal/httpmiddleware"
	"classroll/internal/metrics"
)

// RouterConfig carries the cross-cutting pieces of the router.
type RouterConfig struct {
	Tokens      *auth.Tokens
	Limiter     httpmiddleware.Limiter
	Metrics     *metrics.Metrics
	Gatherer    prometheus.Gatherer
	CORSOrigins []string
	WebDir      string
	Logger      *zap.Logger
}

// NewRouter wires middleware and routes.
func NewRouter(h *Handler, cfg RouterConfig) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(httpmiddleware.RequestID())
	r.Use(httpmiddleware.Logger(cfg.Logger, "/healthz", "/metrics"))
	r.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	r.Use(httpmiddleware.SecurityHeaders())
	if cfg.Limiter != nil {
		r.Use(httpmiddleware.RateLimit(cfg.Limiter, cfg.Logger))
	}
	r.Use(cfg.Metrics.GinMiddleware())

	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	r.GET("/healthz", h.Health)

	api := r.Group("/api")
	api.POST("/auth/login", h.Login)

	student := api.Group("/student", auth.RequireRole(cfg.Tokens, auth.RoleStudent))
	student.GET("/courses", h.StudentCourses)
	student.GET("/history", h.StudentHistory)
	student.POST("/attendance", h.CheckIn)

	prof := api.Group("/prof", auth.RequireRole(cfg.Tokens, auth.RoleProfessor))
	prof.GET("/courses", h.ProfessorCourses)
	prof.POST("/sessions", h.CreateSession)
	prof.GET("/sessions/:id", h.ListSessions)
	prof.GET("/sessions/:id/attendance", h.SessionAttendance)
	prof.GET("/sessions/:id/qr", h.SessionQR)

	if cfg.WebDir != "" {
		serveWeb(r, cfg.WebDir)
	}
	return r
}

func corsConfig(origins []string) cors.Config {
	cc := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        24 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cc.AllowAllOrigins = true
		return cc
	}
	cc.AllowOrigins = origins
	cc.AllowCredentials = true
	return cc
}

// serveWeb serves a built single-page front-end. Unknown non-API paths fall
// back to index.html so client-side routes survive a reload.
func serveWeb(r *gin.Engine, dir string) {
	index := filepath.Join(dir, "index.html")
	r.StaticFile("/", index)
	r.NoRoute(func(c *gin.Context) {
		p := c.Request.URL.Path
		if strings.HasPrefix(p, "/api/") || c.Request.Method != http.MethodGet {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		file := filepath.Join(dir, filepath.Clean("/"+p))
		if info, err := os.Stat(file); err == nil && !info.IsDir() {
			c.File(file)
			return
		}
		c.File(index)
	})
}
