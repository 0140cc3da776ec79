// Package handler exposes the attendance service over HTTP.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"classroll/internal/attendance"
	"classroll/internal/auth"
)

// Probe reports whether a dependency is reachable.
type Probe func(ctx context.Context) bool

// Handler serves the JSON API.
type Handler struct {
	svc      *attendance.Service
	verifier *auth.Verifier
	logger   *zap.Logger
	dbProbe  Probe
	rdbProbe Probe
}

// New creates a handler. Nil probes are reported as unavailable.
func New(svc *attendance.Service, verifier *auth.Verifier, logger *zap.Logger, dbProbe, redisProbe Probe) *Handler {
	return &Handler{
		svc:      svc,
		verifier: verifier,
		logger:   logger,
		dbProbe:  dbProbe,
		rdbProbe: redisProbe,
	}
}

// Health reports database and redis reachability. Only the database is
// required for a 200.
func (h *Handler) Health(c *gin.Context) {
	ctx := c.Request.Context()
	dbOK := h.dbProbe != nil && h.dbProbe(ctx)
	redisOK := h.rdbProbe != nil && h.rdbProbe(ctx)

	status, code := "ok", http.StatusOK
	if !dbOK {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"status": status, "db": dbOK, "redis": redisOK})
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, attendance.ErrInvalidDate):
		c.JSON(http.StatusBadRequest, gin.H{"error": "session date is not valid"})
	case errors.Is(err, attendance.ErrMissingCode):
		c.JSON(http.StatusBadRequest, gin.H{"error": "session code is required"})
	case errors.Is(err, attendance.ErrCourseNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "course not found"})
	case errors.Is(err, attendance.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
	case errors.Is(err, attendance.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": "this course is not yours"})
	case errors.Is(err, attendance.ErrNotEnrolled):
		c.JSON(http.StatusForbidden, gin.H{"error": "you are not enrolled in this course"})
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
	default:
		_ = c.Error(err)
		h.logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func (h *Handler) claims(c *gin.Context) (auth.Claims, bool) {
	claims, ok := auth.ClaimsFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "login required"})
	}
	return claims, ok
}

// pathID parses the :id route parameter as a positive integer.
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}
