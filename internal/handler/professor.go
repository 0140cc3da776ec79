package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"

	"classroll/internal/attendance"
)

const (
	qrDefaultSize = 256
	qrMinSize     = 128
	qrMaxSize     = 1024
)

// ProfessorCourses lists the courses the caller teaches.
func (h *Handler) ProfessorCourses(c *gin.Context) {
	claims, ok := h.claims(c)
	if !ok {
		return
	}
	courses, err := h.svc.CoursesForProfessor(c.Request.Context(), claims.UserID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toCourses(courses))
}

// CreateSession opens a session for one of the caller's courses.
func (h *Handler) CreateSession(c *gin.Context) {
	claims, ok := h.claims(c)
	if !ok {
		return
	}
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.CourseID <= 0 || strings.TrimSpace(req.SessionDate) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "choose a course and a session date"})
		return
	}

	sess, err := h.svc.CreateSession(c.Request.Context(), claims.UserID, int64(req.CourseID), req.SessionDate)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, createSessionResponse{
		SessionID:   sess.ID,
		SessionCode: sess.Code,
		SessionDate: attendance.FormatDate(sess.Date),
	})
}

// ListSessions lists the sessions of the course in :id.
func (h *Handler) ListSessions(c *gin.Context) {
	claims, ok := h.claims(c)
	if !ok {
		return
	}
	courseID, ok := pathID(c)
	if !ok {
		return
	}
	sessions, err := h.svc.ListSessions(c.Request.Context(), claims.UserID, courseID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toSessions(sessions))
}

// SessionAttendance lists who checked in to the session in :id.
func (h *Handler) SessionAttendance(c *gin.Context) {
	claims, ok := h.claims(c)
	if !ok {
		return
	}
	sessionID, ok := pathID(c)
	if !ok {
		return
	}
	roster, err := h.svc.AttendeesForSession(c.Request.Context(), claims.UserID, sessionID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toRoster(roster))
}

// SessionQR renders the code of the session in :id as a PNG so it can be
// projected in class.
func (h *Handler) SessionQR(c *gin.Context) {
	claims, ok := h.claims(c)
	if !ok {
		return
	}
	sessionID, ok := pathID(c)
	if !ok {
		return
	}
	sess, err := h.svc.SessionForProfessor(c.Request.Context(), claims.UserID, sessionID)
	if err != nil {
		h.fail(c, err)
		return
	}

	size := qrDefaultSize
	if v := c.Query("size"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "size must be an integer"})
			return
		}
		size = min(max(parsed, qrMinSize), qrMaxSize)
	}
	png, err := qrcode.Encode(sess.Code, qrcode.Medium, size)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Cache-Control", "private, max-age=3600")
	c.Data(http.StatusOK, "image/png", png)
}
