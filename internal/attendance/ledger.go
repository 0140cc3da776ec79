package attendance

import (
	"context"
	"errors"
)

// CoursesForStudent lists the courses a student is enrolled in, by name.
func (s *Service) CoursesForStudent(ctx context.Context, studentID int64) ([]Course, error) {
	return s.store.CoursesForStudent(ctx, studentID)
}

// IsEnrolled reports whether the student is enrolled in the course.
func (s *Service) IsEnrolled(ctx context.Context, studentID, courseID int64) (bool, error) {
	return s.store.IsEnrolled(ctx, studentID, courseID)
}

// CoursesForProfessor lists the courses a professor owns, by name.
func (s *Service) CoursesForProfessor(ctx context.Context, professorID int64) ([]Course, error) {
	return s.store.CoursesForProfessor(ctx, professorID)
}

// OwnsCourse reports whether the professor owns the course. An unknown
// course is not owned by anyone.
func (s *Service) OwnsCourse(ctx context.Context, professorID, courseID int64) (bool, error) {
	course, err := s.store.CourseByID(ctx, courseID)
	if errors.Is(err, ErrCourseNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return course.ProfessorID == professorID, nil
}

// ownedCourse resolves a course and checks ownership, in that order.
func (s *Service) ownedCourse(ctx context.Context, professorID, courseID int64) (Course, error) {
	course, err := s.store.CourseByID(ctx, courseID)
	if err != nil {
		return Course{}, err
	}
	if course.ProfessorID != professorID {
		return Course{}, ErrNotOwner
	}
	return course, nil
}
