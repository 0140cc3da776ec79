package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// CreateSession opens a new attendance session for a course the professor
// owns. The generated code is {courseCode}-{YYYYMMDD}-{suffix}; a suffix
// that collides with an existing code is regenerated.
func (s *Service) CreateSession(ctx context.Context, professorID, courseID int64, rawDate string) (Session, error) {
	course, err := s.ownedCourse(ctx, professorID, courseID)
	if err != nil {
		return Session{}, err
	}
	date, err := ParseSessionDate(rawDate)
	if err != nil {
		return Session{}, err
	}

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		suffix, err := s.suffix(s.suffixLen)
		if err != nil {
			return Session{}, fmt.Errorf("generate session code: %w", err)
		}
		code := FormatSessionCode(course.Code, date, suffix)

		sess, err := s.store.InsertSession(ctx, course.ID, date, code)
		if err == nil {
			s.metrics.SessionCreated()
			s.logger.Info("session created",
				zap.Int64("session_id", sess.ID),
				zap.Int64("course_id", course.ID),
				zap.String("session_code", sess.Code),
			)
			return sess, nil
		}
		if !errors.Is(err, ErrCodeTaken) {
			return Session{}, fmt.Errorf("insert session: %w", err)
		}

		s.metrics.CodeCollision()
		s.logger.Warn("session code collision, retrying",
			zap.String("session_code", code),
			zap.Int("attempt", attempt),
		)
		if err := sleep(ctx, s.retryBackoff); err != nil {
			return Session{}, err
		}
	}
	return Session{}, ErrCodeExhausted
}

// ListSessions returns the sessions of an owned course, newest first, each
// with its attendance count.
func (s *Service) ListSessions(ctx context.Context, professorID, courseID int64) ([]SessionSummary, error) {
	if _, err := s.ownedCourse(ctx, professorID, courseID); err != nil {
		return nil, err
	}
	return s.store.SessionsForCourse(ctx, courseID)
}

// SessionForProfessor returns a session the professor is allowed to see.
func (s *Service) SessionForProfessor(ctx context.Context, professorID, sessionID int64) (SessionDetail, error) {
	sess, err := s.store.SessionByID(ctx, sessionID)
	if err != nil {
		return SessionDetail{}, err
	}
	if sess.ProfessorID != professorID {
		return SessionDetail{}, ErrNotOwner
	}
	return sess, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
