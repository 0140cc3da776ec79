package attendance

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// RecordAttendance checks a student in to the session identified by code.
// A repeated check-in reports StatusAlreadyRecorded instead of failing; the
// store's uniqueness constraint decides which of two concurrent calls wins.
func (s *Service) RecordAttendance(ctx context.Context, studentID int64, code string) (CheckIn, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return CheckIn{}, ErrMissingCode
	}

	target, err := s.lookupSession(ctx, code)
	if err != nil {
		return CheckIn{}, err
	}

	enrolled, err := s.store.IsEnrolled(ctx, studentID, target.CourseID)
	if err != nil {
		return CheckIn{}, fmt.Errorf("check enrollment: %w", err)
	}
	if !enrolled {
		return CheckIn{}, ErrNotEnrolled
	}

	inserted, err := s.store.InsertAttendance(ctx, target.ID, studentID)
	if err != nil {
		return CheckIn{}, fmt.Errorf("insert attendance: %w", err)
	}

	status := StatusAlreadyRecorded
	if inserted {
		status = StatusRecorded
	}
	s.metrics.CheckIn(status)
	s.logger.Debug("attendance check-in",
		zap.Int64("session_id", target.ID),
		zap.Int64("student_id", studentID),
		zap.String("status", status),
	)
	return CheckIn{Status: status, SessionID: target.ID, CourseName: target.CourseName}, nil
}

// HistoryForStudent lists a student's check-ins, newest session first.
func (s *Service) HistoryForStudent(ctx context.Context, studentID int64) ([]HistoryEntry, error) {
	return s.store.HistoryForStudent(ctx, studentID)
}

// AttendeesForSession returns the roster of a session the professor owns,
// in check-in order.
func (s *Service) AttendeesForSession(ctx context.Context, professorID, sessionID int64) (Roster, error) {
	sess, err := s.SessionForProfessor(ctx, professorID, sessionID)
	if err != nil {
		return Roster{}, err
	}
	attendees, err := s.store.AttendeesForSession(ctx, sessionID)
	if err != nil {
		return Roster{}, err
	}
	return Roster{
		SessionID:   sess.ID,
		SessionDate: sess.Date,
		SessionCode: sess.Code,
		CourseName:  sess.CourseName,
		Attendees:   attendees,
	}, nil
}

func (s *Service) lookupSession(ctx context.Context, code string) (SessionTarget, error) {
	if s.cache != nil {
		if target, ok := s.cache.Get(ctx, code); ok {
			s.metrics.CacheLookup(true)
			return target, nil
		}
		s.metrics.CacheLookup(false)
	}

	target, err := s.store.SessionByCode(ctx, code)
	if err != nil {
		return SessionTarget{}, err
	}
	if s.cache != nil {
		s.cache.Set(ctx, code, target)
	}
	return target, nil
}
