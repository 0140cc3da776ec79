package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"classroll/internal/auth"
	"classroll/internal/store"
)

const sessionCodeConstraint = "sessions_session_code_key"

// Repository persists courses, sessions and attendance in Postgres.
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates a repo.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// UserByUsername implements auth.UserFinder.
func (r *Repository) UserByUsername(ctx context.Context, username string) (auth.Account, error) {
	var acct auth.Account
	err := r.db.GetContext(ctx, &acct, `
		SELECT id, username, display_name, password_hash, role
		FROM users
		WHERE username = $1
	`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.Account{}, auth.ErrAccountNotFound
	}
	return acct, err
}

// CoursesForStudent returns enrolled courses ordered by name.
func (r *Repository) CoursesForStudent(ctx context.Context, studentID int64) ([]Course, error) {
	courses := []Course{}
	err := r.db.SelectContext(ctx, &courses, `
		SELECT c.id, c.name, c.code, c.professor_id
		FROM courses c
		INNER JOIN enrollments e ON e.course_id = c.id
		WHERE e.student_id = $1
		ORDER BY c.name, c.id
	`, studentID)
	return courses, err
}

// IsEnrolled reports whether an enrollment row exists.
func (r *Repository) IsEnrolled(ctx context.Context, studentID, courseID int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
		SELECT EXISTS (
			SELECT 1 FROM enrollments WHERE student_id = $1 AND course_id = $2
		)
	`, studentID, courseID)
	return exists, err
}

// CoursesForProfessor returns owned courses ordered by name.
func (r *Repository) CoursesForProfessor(ctx context.Context, professorID int64) ([]Course, error) {
	courses := []Course{}
	err := r.db.SelectContext(ctx, &courses, `
		SELECT id, name, code, professor_id
		FROM courses
		WHERE professor_id = $1
		ORDER BY name, id
	`, professorID)
	return courses, err
}

// CourseByID returns a single course.
func (r *Repository) CourseByID(ctx context.Context, courseID int64) (Course, error) {
	var c Course
	err := r.db.GetContext(ctx, &c, `
		SELECT id, name, code, professor_id FROM courses WHERE id = $1
	`, courseID)
	if errors.Is(err, sql.ErrNoRows) {
		return Course{}, ErrCourseNotFound
	}
	return c, err
}

// InsertSession writes a new session. A duplicate code surfaces as ErrCodeTaken.
func (r *Repository) InsertSession(ctx context.Context, courseID int64, date time.Time, code string) (Session, error) {
	var sess Session
	err := r.db.GetContext(ctx, &sess, `
		INSERT INTO sessions (course_id, session_date, session_code)
		VALUES ($1, $2, $3)
		RETURNING id, course_id, session_date, session_code, created_at
	`, courseID, date, code)
	if store.IsUniqueViolation(err, sessionCodeConstraint) {
		return Session{}, fmt.Errorf("%w: %s", ErrCodeTaken, code)
	}
	return sess, err
}

// SessionsForCourse lists sessions with attendance counts, newest first.
func (r *Repository) SessionsForCourse(ctx context.Context, courseID int64) ([]SessionSummary, error) {
	sessions := []SessionSummary{}
	err := r.db.SelectContext(ctx, &sessions, `
		SELECT s.id, s.course_id, s.session_date, s.session_code, s.created_at,
		       COUNT(a.id) AS attendance_count
		FROM sessions s
		LEFT JOIN attendance a ON a.session_id = s.id
		WHERE s.course_id = $1
		GROUP BY s.id
		ORDER BY s.session_date DESC, s.id DESC
	`, courseID)
	return sessions, err
}

// SessionByCode resolves an exact, case-sensitive session code.
func (r *Repository) SessionByCode(ctx context.Context, code string) (SessionTarget, error) {
	var t SessionTarget
	err := r.db.GetContext(ctx, &t, `
		SELECT s.id, s.course_id, c.name AS course_name
		FROM sessions s
		INNER JOIN courses c ON c.id = s.course_id
		WHERE s.session_code = $1
	`, code)
	if errors.Is(err, sql.ErrNoRows) {
		return SessionTarget{}, ErrSessionNotFound
	}
	return t, err
}

// SessionByID returns a session joined with its course.
func (r *Repository) SessionByID(ctx context.Context, sessionID int64) (SessionDetail, error) {
	var d SessionDetail
	err := r.db.GetContext(ctx, &d, `
		SELECT s.id, s.course_id, c.professor_id, c.name AS course_name,
		       s.session_date, s.session_code
		FROM sessions s
		INNER JOIN courses c ON c.id = s.course_id
		WHERE s.id = $1
	`, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return SessionDetail{}, ErrSessionNotFound
	}
	return d, err
}

// InsertAttendance inserts the (session, student) row unless it exists.
func (r *Repository) InsertAttendance(ctx context.Context, sessionID, studentID int64) (bool, error) {
	var id int64
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO attendance (session_id, student_id)
		VALUES ($1, $2)
		ON CONFLICT (session_id, student_id) DO NOTHING
		RETURNING id
	`, sessionID, studentID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// HistoryForStudent lists check-ins by session date, then scan time, newest first.
func (r *Repository) HistoryForStudent(ctx context.Context, studentID int64) ([]HistoryEntry, error) {
	history := []HistoryEntry{}
	err := r.db.SelectContext(ctx, &history, `
		SELECT c.name AS course_name, s.session_date, a.scanned_at, s.session_code
		FROM attendance a
		INNER JOIN sessions s ON s.id = a.session_id
		INNER JOIN courses c ON c.id = s.course_id
		WHERE a.student_id = $1
		ORDER BY s.session_date DESC, a.scanned_at DESC
	`, studentID)
	return history, err
}

// AttendeesForSession lists attendees in check-in order.
func (r *Repository) AttendeesForSession(ctx context.Context, sessionID int64) ([]Attendee, error) {
	attendees := []Attendee{}
	err := r.db.SelectContext(ctx, &attendees, `
		SELECT u.display_name, u.username, a.scanned_at
		FROM attendance a
		INNER JOIN users u ON u.id = a.student_id
		WHERE a.session_id = $1
		ORDER BY a.scanned_at ASC, a.id ASC
	`, sessionID)
	return attendees, err
}
