package attendance

import (
	"context"
	"time"
)

// Store is the relational store the service runs against. Implementations
// must enforce uniqueness of session codes and of (session, student)
// attendance pairs atomically.
type Store interface {
	CoursesForStudent(ctx context.Context, studentID int64) ([]Course, error)
	IsEnrolled(ctx context.Context, studentID, courseID int64) (bool, error)
	CoursesForProfessor(ctx context.Context, professorID int64) ([]Course, error)
	// CourseByID returns ErrCourseNotFound when the id does not resolve.
	CourseByID(ctx context.Context, courseID int64) (Course, error)

	// InsertSession returns ErrCodeTaken when code is already used.
	InsertSession(ctx context.Context, courseID int64, date time.Time, code string) (Session, error)
	SessionsForCourse(ctx context.Context, courseID int64) ([]SessionSummary, error)
	// SessionByCode and SessionByID return ErrSessionNotFound when absent.
	SessionByCode(ctx context.Context, code string) (SessionTarget, error)
	SessionByID(ctx context.Context, sessionID int64) (SessionDetail, error)

	// InsertAttendance inserts the row if absent and reports whether this
	// call created it.
	InsertAttendance(ctx context.Context, sessionID, studentID int64) (bool, error)
	HistoryForStudent(ctx context.Context, studentID int64) ([]HistoryEntry, error)
	AttendeesForSession(ctx context.Context, sessionID int64) ([]Attendee, error)
}
