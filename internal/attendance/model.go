package attendance

import "time"

// Check-in outcomes.
const (
	StatusRecorded        = "recorded"
	StatusAlreadyRecorded = "already-recorded"
)

// Course is a class owned by exactly one professor.
type Course struct {
	ID          int64  `db:"id"`
	Name        string `db:"name"`
	Code        string `db:"code"`
	ProfessorID int64  `db:"professor_id"`
}

// Session is one class meeting students check in to.
type Session struct {
	ID        int64     `db:"id"`
	CourseID  int64     `db:"course_id"`
	Date      time.Time `db:"session_date"`
	Code      string    `db:"session_code"`
	CreatedAt time.Time `db:"created_at"`
}

// SessionSummary is a session annotated with its attendance count.
type SessionSummary struct {
	Session
	AttendanceCount int64 `db:"attendance_count"`
}

// SessionTarget is what a check-in needs to know about the session a code
// resolves to. Sessions never change, so targets are safe to cache.
type SessionTarget struct {
	ID         int64  `db:"id" json:"id"`
	CourseID   int64  `db:"course_id" json:"courseId"`
	CourseName string `db:"course_name" json:"courseName"`
}

// SessionDetail joins a session with its owning course.
type SessionDetail struct {
	ID          int64     `db:"id"`
	CourseID    int64     `db:"course_id"`
	ProfessorID int64     `db:"professor_id"`
	CourseName  string    `db:"course_name"`
	Date        time.Time `db:"session_date"`
	Code        string    `db:"session_code"`
}

// CheckIn is the result of a recordAttendance call.
type CheckIn struct {
	Status     string
	SessionID  int64
	CourseName string
}

// HistoryEntry is one past check-in of a student.
type HistoryEntry struct {
	CourseName  string    `db:"course_name"`
	SessionDate time.Time `db:"session_date"`
	ScannedAt   time.Time `db:"scanned_at"`
	SessionCode string    `db:"session_code"`
}

// Attendee is a student who checked in to a session.
type Attendee struct {
	StudentName string    `db:"display_name"`
	Username    string    `db:"username"`
	AttendedAt  time.Time `db:"scanned_at"`
}

// Roster lists the attendees of one session.
type Roster struct {
	SessionID   int64
	SessionDate time.Time
	SessionCode string
	CourseName  string
	Attendees   []Attendee
}
