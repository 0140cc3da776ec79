package attendance

import "errors"

var (
	ErrCourseNotFound  = errors.New("course not found")
	ErrNotOwner        = errors.New("course is not owned by this professor")
	ErrInvalidDate     = errors.New("invalid session date")
	ErrSessionNotFound = errors.New("session not found")
	ErrNotEnrolled     = errors.New("student is not enrolled in this course")
	ErrMissingCode     = errors.New("session code is required")

	// ErrCodeTaken is returned by Store.InsertSession when the session code
	// collides with an existing one. CreateSession retries on it.
	ErrCodeTaken = errors.New("session code already in use")
	// ErrCodeExhausted means every generated code collided.
	ErrCodeExhausted = errors.New("could not allocate a unique session code")
)
