package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"classroll/internal/attendance"
)

const (
	dateLayout      = "2006-01-02"
	timestampLayout = time.RFC3339
)

// flexID accepts a JSON number or a numeric string. Browser forms
// usually send select values as strings.
type flexID int64

func (f *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = 0
			return nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return errors.New("id must be an integer")
		}
		*f = flexID(n)
		return nil
	}
	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		return errors.New("id must be an integer")
	}
	*f = flexID(n)
	return nil
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Token       string `json:"token"`
	Role        string `json:"role"`
	DisplayName string `json:"displayName"`
	Username    string `json:"username"`
	ExpiresAt   string `json:"expiresAt"`
}

type courseResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

func toCourses(in []attendance.Course) []courseResponse {
	out := make([]courseResponse, 0, len(in))
	for _, c := range in {
		out = append(out, courseResponse{ID: c.ID, Name: c.Name, Code: c.Code})
	}
	return out
}

type historyResponse struct {
	CourseName  string `json:"courseName"`
	SessionDate string `json:"sessionDate"`
	ScannedAt   string `json:"scannedAt"`
	SessionCode string `json:"sessionCode"`
}

func toHistory(in []attendance.HistoryEntry) []historyResponse {
	out := make([]historyResponse, 0, len(in))
	for _, e := range in {
		out = append(out, historyResponse{
			CourseName:  e.CourseName,
			SessionDate: e.SessionDate.Format(dateLayout),
			ScannedAt:   e.ScannedAt.UTC().Format(timestampLayout),
			SessionCode: e.SessionCode,
		})
	}
	return out
}

type checkInRequest struct {
	SessionCode string `json:"sessionCode"`
}

type checkInResponse struct {
	Message    string `json:"message"`
	Status     string `json:"status"`
	CourseName string `json:"courseName"`
}

type createSessionRequest struct {
	CourseID    flexID `json:"courseId"`
	SessionDate string `json:"sessionDate"`
}

type createSessionResponse struct {
	SessionID   int64  `json:"sessionId"`
	SessionCode string `json:"sessionCode"`
	SessionDate string `json:"sessionDate"`
}

type sessionResponse struct {
	ID              int64  `json:"id"`
	SessionDate     string `json:"sessionDate"`
	SessionCode     string `json:"sessionCode"`
	AttendanceCount int64  `json:"attendanceCount"`
}

func toSessions(in []attendance.SessionSummary) []sessionResponse {
	out := make([]sessionResponse, 0, len(in))
	for _, s := range in {
		out = append(out, sessionResponse{
			ID:              s.ID,
			SessionDate:     s.Date.Format(dateLayout),
			SessionCode:     s.Code,
			AttendanceCount: s.AttendanceCount,
		})
	}
	return out
}

type attendeeResponse struct {
	StudentName string `json:"studentName"`
	Username    string `json:"username"`
	AttendedAt  string `json:"attendedAt"`
}

type rosterResponse struct {
	SessionID   int64              `json:"sessionId"`
	SessionDate string             `json:"sessionDate"`
	SessionCode string             `json:"sessionCode"`
	CourseName  string             `json:"courseName"`
	Attendees   []attendeeResponse `json:"attendees"`
}

func toRoster(r attendance.Roster) rosterResponse {
	attendees := make([]attendeeResponse, 0, len(r.Attendees))
	for _, a := range r.Attendees {
		attendees = append(attendees, attendeeResponse{
			StudentName: a.StudentName,
			Username:    a.Username,
			AttendedAt:  a.AttendedAt.UTC().Format(timestampLayout),
		})
	}
	return rosterResponse{
		SessionID:   r.SessionID,
		SessionDate: r.SessionDate.Format(dateLayout),
		SessionCode: r.SessionCode,
		CourseName:  r.CourseName,
		Attendees:   attendees,
	}
}
