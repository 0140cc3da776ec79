package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"classroll/internal/attendance"
)

var checkInMessages = map[string]string{
	attendance.StatusRecorded:        "attendance recorded",
	attendance.StatusAlreadyRecorded: "your attendance was already recorded",
}

// StudentCourses lists the courses the caller is enrolled in.
func (h *Handler) StudentCourses(c *gin.Context) {
	claims, ok := h.claims(c)
	if !ok {
		return
	}
	courses, err := h.svc.CoursesForStudent(c.Request.Context(), claims.UserID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toCourses(courses))
}

// StudentHistory lists the caller's past check-ins.
func (h *Handler) StudentHistory(c *gin.Context) {
	claims, ok := h.claims(c)
	if !ok {
		return
	}
	history, err := h.svc.HistoryForStudent(c.Request.Context(), claims.UserID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toHistory(history))
}

// CheckIn records the caller's attendance for a session code.
func (h *Handler) CheckIn(c *gin.Context) {
	claims, ok := h.claims(c)
	if !ok {
		return
	}
	var req checkInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session code is required"})
		return
	}

	res, err := h.svc.RecordAttendance(c.Request.Context(), claims.UserID, req.SessionCode)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, checkInResponse{
		Message:    checkInMessages[res.Status],
		Status:     res.Status,
		CourseName: res.CourseName,
	})
}
