package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"classroll/internal/attendance"
	"classroll/internal/attendance/attendancetest"
	"classroll/internal/auth"
	"classroll/internal/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	router *gin.Engine
	store  *attendancetest.Store
	demo   attendancetest.Demo
	tokens *auth.Tokens
}

func newTestEnv(t *testing.T, webDir string) *testEnv {
	t.Helper()
	st := attendancetest.NewStore()
	demo := attendancetest.SeedDemo(t, st)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	tokens := auth.NewTokens("test-signing-key", "classroll-test", time.Hour)
	svc := attendance.NewService(st, zap.NewNop(), attendance.Options{Metrics: m})
	h := New(svc, auth.NewVerifier(st, tokens), zap.NewNop(),
		func(context.Context) bool { return true },
		func(context.Context) bool { return false },
	)
	r := NewRouter(h, RouterConfig{
		Tokens:   tokens,
		Metrics:  m,
		Gatherer: reg,
		WebDir:   webDir,
		Logger:   zap.NewNop(),
	})
	return &testEnv{router: r, store: st, demo: demo, tokens: tokens}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) login(t *testing.T, username string) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"username": username, "password": attendancetest.DemoPassword})
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body %s", username, w.Code, w.Body.String())
	}
	var resp loginResponse
	decode(t, w, &resp)
	return resp.Token
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	decode(t, w, &body)
	return body.Error
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"username": "prof_ahmed", "password": attendancetest.DemoPassword})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp loginResponse
	decode(t, w, &resp)
	if resp.Role != auth.RoleProfessor || resp.Username != "prof_ahmed" || resp.DisplayName != "د. أحمد" {
		t.Fatalf("unexpected login response %+v", resp)
	}
	claims, err := env.tokens.Parse(resp.Token)
	if err != nil {
		t.Fatalf("token does not parse: %v", err)
	}
	if claims.UserID != env.demo.ProfAhmed {
		t.Fatalf("token id = %d, want %d", claims.UserID, env.demo.ProfAhmed)
	}
	if _, err := time.Parse(time.RFC3339, resp.ExpiresAt); err != nil {
		t.Fatalf("expiresAt %q: %v", resp.ExpiresAt, err)
	}

	tests := []struct {
		name string
		body any
		want int
	}{
		{"wrong password", gin.H{"username": "prof_ahmed", "password": "nope"}, http.StatusUnauthorized},
		{"unknown user", gin.H{"username": "ghost", "password": "123456"}, http.StatusUnauthorized},
		{"missing password", gin.H{"username": "prof_ahmed"}, http.StatusBadRequest},
		{"empty body", "", http.StatusBadRequest},
		{"malformed json", "{", http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/auth/login", "", tc.body)
			if w.Code != tc.want {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tc.want, w.Body.String())
			}
		})
	}
}

func TestAttendanceScenario(t *testing.T) {
	env := newTestEnv(t, "")
	ahmed := env.login(t, "prof_ahmed")
	sara := env.login(t, "student_sara")
	omar := env.login(t, "student_omar")

	w := env.do(t, http.MethodPost, "/api/prof/sessions", ahmed,
		gin.H{"courseId": env.demo.CS101, "sessionDate": "2024-03-10"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create session: %d %s", w.Code, w.Body.String())
	}
	var created createSessionResponse
	decode(t, w, &created)
	if !regexp.MustCompile(`^CS101-20240310-[A-Z0-9]+$`).MatchString(created.SessionCode) {
		t.Fatalf("session code %q", created.SessionCode)
	}
	if created.SessionDate != "2024-03-10" {
		t.Fatalf("session date %q", created.SessionDate)
	}

	var first checkInResponse
	w = env.do(t, http.MethodPost, "/api/student/attendance", sara, gin.H{"sessionCode": created.SessionCode})
	if w.Code != http.StatusOK {
		t.Fatalf("first check-in: %d %s", w.Code, w.Body.String())
	}
	decode(t, w, &first)
	if first.Status != attendance.StatusRecorded || first.CourseName != "مقدمة في البرمجة" {
		t.Fatalf("first check-in = %+v", first)
	}

	var second checkInResponse
	w = env.do(t, http.MethodPost, "/api/student/attendance", sara, gin.H{"sessionCode": "  " + created.SessionCode + " "})
	if w.Code != http.StatusOK {
		t.Fatalf("second check-in: %d %s", w.Code, w.Body.String())
	}
	decode(t, w, &second)
	if second.Status != attendance.StatusAlreadyRecorded {
		t.Fatalf("second check-in status = %q", second.Status)
	}
	if n := env.store.AttendanceRows(created.SessionID, env.demo.StudentSara); n != 1 {
		t.Fatalf("attendance rows = %d, want 1", n)
	}

	w = env.do(t, http.MethodPost, "/api/student/attendance", omar, gin.H{"sessionCode": created.SessionCode})
	if w.Code != http.StatusForbidden {
		t.Fatalf("omar check-in: %d %s", w.Code, w.Body.String())
	}

	w = env.do(t, http.MethodGet, "/api/prof/sessions/"+strconv.FormatInt(env.demo.CS101, 10), ahmed, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list sessions: %d", w.Code)
	}
	var sessions []sessionResponse
	decode(t, w, &sessions)
	if len(sessions) != 1 || sessions[0].AttendanceCount != 1 || sessions[0].SessionCode != created.SessionCode {
		t.Fatalf("sessions = %+v", sessions)
	}

	w = env.do(t, http.MethodGet, "/api/prof/sessions/"+strconv.FormatInt(created.SessionID, 10)+"/attendance", ahmed, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("roster: %d", w.Code)
	}
	var roster rosterResponse
	decode(t, w, &roster)
	if roster.CourseName != "مقدمة في البرمجة" || roster.SessionDate != "2024-03-10" {
		t.Fatalf("roster = %+v", roster)
	}
	if len(roster.Attendees) != 1 || roster.Attendees[0].Username != "student_sara" || roster.Attendees[0].StudentName != "سارة محمد" {
		t.Fatalf("attendees = %+v", roster.Attendees)
	}

	w = env.do(t, http.MethodGet, "/api/student/history", sara, nil)
	var history []historyResponse
	decode(t, w, &history)
	if len(history) != 1 || history[0].SessionCode != created.SessionCode || history[0].SessionDate != "2024-03-10" {
		t.Fatalf("history = %+v", history)
	}
	if _, err := time.Parse(time.RFC3339, history[0].ScannedAt); err != nil {
		t.Fatalf("scannedAt %q: %v", history[0].ScannedAt, err)
	}

	w = env.do(t, http.MethodGet, "/api/student/history", omar, nil)
	if w.Code != http.StatusOK || w.Body.String() != "[]" {
		t.Fatalf("empty history = %d %s", w.Code, w.Body.String())
	}
}

func TestCourseListings(t *testing.T) {
	env := newTestEnv(t, "")

	var courses []courseResponse
	decode(t, env.do(t, http.MethodGet, "/api/student/courses", env.login(t, "student_omar"), nil), &courses)
	// Sorted by name: "رياضة هندسية" (MATH110) before "هياكل بيانات" (CS205).
	if len(courses) != 2 || courses[0].Code != "MATH110" || courses[1].Code != "CS205" {
		t.Fatalf("omar courses = %+v", courses)
	}

	decode(t, env.do(t, http.MethodGet, "/api/prof/courses", env.login(t, "prof_mona"), nil), &courses)
	if len(courses) != 1 || courses[0].Code != "MATH110" {
		t.Fatalf("mona courses = %+v", courses)
	}
}

func TestAuthorization(t *testing.T) {
	env := newTestEnv(t, "")
	sara := env.login(t, "student_sara")
	mona := env.login(t, "prof_mona")
	ahmed := env.login(t, "prof_ahmed")
	cs101 := strconv.FormatInt(env.demo.CS101, 10)

	expired, _, err := auth.NewTokens("test-signing-key", "classroll-test", -time.Minute).
		Issue(env.demo.StudentSara, auth.RoleStudent, "سارة محمد")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	forged, _, err := auth.NewTokens("another-key", "classroll-test", time.Hour).
		Issue(env.demo.StudentSara, auth.RoleStudent, "سارة محمد")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		want   int
	}{
		{"no token", http.MethodGet, "/api/student/courses", "", nil, http.StatusUnauthorized},
		{"garbage token", http.MethodGet, "/api/student/courses", "not-a-jwt", nil, http.StatusUnauthorized},
		{"expired token", http.MethodGet, "/api/student/courses", expired, nil, http.StatusUnauthorized},
		{"foreign signature", http.MethodGet, "/api/student/courses", forged, nil, http.StatusUnauthorized},
		{"student on professor route", http.MethodGet, "/api/prof/courses", sara, nil, http.StatusForbidden},
		{"professor on student route", http.MethodPost, "/api/student/attendance", ahmed, gin.H{"sessionCode": "x"}, http.StatusForbidden},
		{"create on foreign course", http.MethodPost, "/api/prof/sessions", mona, gin.H{"courseId": env.demo.CS101, "sessionDate": "2024-03-10"}, http.StatusForbidden},
		{"list foreign course", http.MethodGet, "/api/prof/sessions/" + cs101, mona, nil, http.StatusForbidden},
		{"unknown course", http.MethodGet, "/api/prof/sessions/9999", ahmed, nil, http.StatusNotFound},
		{"non-numeric id", http.MethodGet, "/api/prof/sessions/abc", ahmed, nil, http.StatusBadRequest},
		{"zero id", http.MethodGet, "/api/prof/sessions/0", ahmed, nil, http.StatusBadRequest},
		{"unknown session roster", http.MethodGet, "/api/prof/sessions/9999/attendance", ahmed, nil, http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := env.do(t, tc.method, tc.path, tc.token, tc.body)
			if w.Code != tc.want {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tc.want, w.Body.String())
			}
			if msg := errorOf(t, w); msg == "" {
				t.Fatal("error body is empty")
			}
		})
	}
}

func TestCreateSessionValidation(t *testing.T) {
	env := newTestEnv(t, "")
	ahmed := env.login(t, "prof_ahmed")

	tests := []struct {
		name string
		body any
		want int
	}{
		{"course id as string", gin.H{"courseId": strconv.FormatInt(env.demo.CS205, 10), "sessionDate": "2024-03-12"}, http.StatusCreated},
		{"timestamp date", gin.H{"courseId": env.demo.CS205, "sessionDate": "2024-03-12T09:30:00Z"}, http.StatusCreated},
		{"missing date", gin.H{"courseId": env.demo.CS205}, http.StatusBadRequest},
		{"missing course", gin.H{"sessionDate": "2024-03-12"}, http.StatusBadRequest},
		{"course id not numeric", gin.H{"courseId": "cs205", "sessionDate": "2024-03-12"}, http.StatusBadRequest},
		{"bad date", gin.H{"courseId": env.demo.CS205, "sessionDate": "next tuesday"}, http.StatusBadRequest},
		{"unknown course", gin.H{"courseId": 9999, "sessionDate": "2024-03-12"}, http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/prof/sessions", ahmed, tc.body)
			if w.Code != tc.want {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tc.want, w.Body.String())
			}
		})
	}
}

func TestCheckInErrors(t *testing.T) {
	env := newTestEnv(t, "")
	sara := env.login(t, "student_sara")

	tests := []struct {
		name string
		body any
		want int
	}{
		{"missing code", gin.H{}, http.StatusBadRequest},
		{"blank code", gin.H{"sessionCode": "   "}, http.StatusBadRequest},
		{"unknown code", gin.H{"sessionCode": "CS101-20240310-ZZZZZZ"}, http.StatusNotFound},
		{"malformed json", "{", http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/student/attendance", sara, tc.body)
			if w.Code != tc.want {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tc.want, w.Body.String())
			}
		})
	}
}

func TestStoreFailureIsInternalError(t *testing.T) {
	env := newTestEnv(t, "")
	sara := env.login(t, "student_sara")

	env.store.FailNext = errors.New("connection reset")
	w := env.do(t, http.MethodGet, "/api/student/courses", sara, nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	if msg := errorOf(t, w); msg != "internal server error" {
		t.Fatalf("leaked error %q", msg)
	}
}

func TestSessionQR(t *testing.T) {
	env := newTestEnv(t, "")
	ahmed := env.login(t, "prof_ahmed")
	mona := env.login(t, "prof_mona")

	w := env.do(t, http.MethodPost, "/api/prof/sessions", ahmed, gin.H{"courseId": env.demo.CS101, "sessionDate": "2024-03-10"})
	var created createSessionResponse
	decode(t, w, &created)
	path := "/api/prof/sessions/" + strconv.FormatInt(created.SessionID, 10) + "/qr"

	w = env.do(t, http.MethodGet, path+"?size=50", ahmed, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("content type %q", ct)
	}
	img, err := png.Decode(w.Body)
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != qrMinSize {
		t.Fatalf("width = %d, want clamp to %d", b.Dx(), qrMinSize)
	}

	if w := env.do(t, http.MethodGet, path, mona, nil); w.Code != http.StatusForbidden {
		t.Fatalf("foreign professor: %d", w.Code)
	}
	if w := env.do(t, http.MethodGet, path+"?size=abc", mona, nil); w.Code != http.StatusForbidden {
		t.Fatalf("foreign professor with bad size: %d", w.Code)
	}
	if w := env.do(t, http.MethodGet, "/api/prof/sessions/9999/qr?size=abc", ahmed, nil); w.Code != http.StatusNotFound {
		t.Fatalf("unknown session with bad size: %d", w.Code)
	}
	if w := env.do(t, http.MethodGet, path+"?size=big", ahmed, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("bad size: %d", w.Code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.do(t, http.MethodGet, "/healthz", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("healthz = %d", w.Code)
	}
	var health struct {
		Status string `json:"status"`
		DB     bool   `json:"db"`
		Redis  bool   `json:"redis"`
	}
	decode(t, w, &health)
	if health.Status != "ok" || !health.DB || health.Redis {
		t.Fatalf("health = %+v", health)
	}

	env.login(t, "student_sara")
	w = env.do(t, http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK || !bytes.Contains(w.Body.Bytes(), []byte("classroll_http_requests_total")) {
		t.Fatalf("metrics = %d %s", w.Code, w.Body.String())
	}
}

func TestHealthDatabaseDown(t *testing.T) {
	h := New(nil, nil, zap.NewNop(), func(context.Context) bool { return false }, nil)
	r := gin.New()
	r.GET("/healthz", h.Health)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestServeWeb(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>app</html>"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o644); err != nil {
		t.Fatal(err)
	}
	env := newTestEnv(t, dir)

	tests := []struct {
		path string
		want int
		body string
	}{
		{"/", http.StatusOK, "<html>app</html>"},
		{"/app.js", http.StatusOK, "console.log(1)"},
		{"/prof/dashboard", http.StatusOK, "<html>app</html>"},
		{"/api/nope", http.StatusNotFound, ""},
	}
	for _, tc := range tests {
		w := env.do(t, http.MethodGet, tc.path, "", nil)
		if w.Code != tc.want {
			t.Fatalf("%s: status = %d", tc.path, w.Code)
		}
		if tc.body != "" && w.Body.String() != tc.body {
			t.Fatalf("%s: body = %q", tc.path, w.Body.String())
		}
	}
}
