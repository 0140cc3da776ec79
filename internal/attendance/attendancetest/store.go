// Package attendancetest provides an in-memory attendance.Store for tests.
// It enforces the same uniqueness constraints as the Postgres schema.
package attendancetest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"classroll/internal/attendance"
	"classroll/internal/auth"
)

// Store is a mutex-guarded in-memory implementation of attendance.Store
// and auth.UserFinder.
type Store struct {
	mu sync.Mutex

	users       map[int64]auth.Account
	courses     map[int64]attendance.Course
	enrollments map[[2]int64]bool
	sessions    map[int64]attendance.Session
	codes       map[string]int64
	attendance  []attendanceRow
	nextID      int64
	clock       time.Time

	// FailNext, when set, is returned by the next store call and cleared.
	FailNext error
}

type attendanceRow struct {
	sessionID, studentID int64
	scannedAt            time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		users:       make(map[int64]auth.Account),
		courses:     make(map[int64]attendance.Course),
		enrollments: make(map[[2]int64]bool),
		sessions:    make(map[int64]attendance.Session),
		codes:       make(map[string]int64),
		clock:       time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC),
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// tick advances the fake clock so timestamps are strictly increasing.
func (s *Store) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *Store) fail() error {
	err := s.FailNext
	s.FailNext = nil
	return err
}

// AddUser inserts an account and returns its id.
func (s *Store) AddUser(username, displayName, passwordHash, role string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	s.users[id] = auth.Account{ID: id, Username: username, DisplayName: displayName, PasswordHash: passwordHash, Role: role}
	return id
}

// AddCourse inserts a course and returns its id.
func (s *Store) AddCourse(name, code string, professorID int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	s.courses[id] = attendance.Course{ID: id, Name: name, Code: code, ProfessorID: professorID}
	return id
}

// Enroll adds a student to a course.
func (s *Store) Enroll(studentID, courseID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enrollments[[2]int64{studentID, courseID}] = true
}

// ReserveCode marks a session code as used, as if another session held it.
func (s *Store) ReserveCode(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[code] = -1
}

// AttendanceRows counts stored attendance rows for a (session, student) pair.
func (s *Store) AttendanceRows(sessionID, studentID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, row := range s.attendance {
		if row.sessionID == sessionID && row.studentID == studentID {
			n++
		}
	}
	return n
}

// SessionCount returns the number of stored sessions.
func (s *Store) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Store) UserByUsername(_ context.Context, username string) (auth.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return auth.Account{}, err
	}
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return auth.Account{}, auth.ErrAccountNotFound
}

func (s *Store) CoursesForStudent(_ context.Context, studentID int64) ([]attendance.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return nil, err
	}
	out := []attendance.Course{}
	for _, c := range s.courses {
		if s.enrollments[[2]int64{studentID, c.ID}] {
			out = append(out, c)
		}
	}
	sortCourses(out)
	return out, nil
}

func (s *Store) IsEnrolled(_ context.Context, studentID, courseID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return false, err
	}
	return s.enrollments[[2]int64{studentID, courseID}], nil
}

func (s *Store) CoursesForProfessor(_ context.Context, professorID int64) ([]attendance.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return nil, err
	}
	out := []attendance.Course{}
	for _, c := range s.courses {
		if c.ProfessorID == professorID {
			out = append(out, c)
		}
	}
	sortCourses(out)
	return out, nil
}

func (s *Store) CourseByID(_ context.Context, courseID int64) (attendance.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return attendance.Course{}, err
	}
	c, ok := s.courses[courseID]
	if !ok {
		return attendance.Course{}, attendance.ErrCourseNotFound
	}
	return c, nil
}

func (s *Store) InsertSession(_ context.Context, courseID int64, date time.Time, code string) (attendance.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return attendance.Session{}, err
	}
	if _, taken := s.codes[code]; taken {
		return attendance.Session{}, fmt.Errorf("%w: %s", attendance.ErrCodeTaken, code)
	}
	if _, ok := s.courses[courseID]; !ok {
		return attendance.Session{}, fmt.Errorf("foreign key violation: course %d", courseID)
	}
	sess := attendance.Session{ID: s.id(), CourseID: courseID, Date: date, Code: code, CreatedAt: s.tick()}
	s.sessions[sess.ID] = sess
	s.codes[code] = sess.ID
	return sess, nil
}

func (s *Store) SessionsForCourse(_ context.Context, courseID int64) ([]attendance.SessionSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return nil, err
	}
	out := []attendance.SessionSummary{}
	for _, sess := range s.sessions {
		if sess.CourseID != courseID {
			continue
		}
		var n int64
		for _, row := range s.attendance {
			if row.sessionID == sess.ID {
				n++
			}
		}
		out = append(out, attendance.SessionSummary{Session: sess, AttendanceCount: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) SessionByCode(_ context.Context, code string) (attendance.SessionTarget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return attendance.SessionTarget{}, err
	}
	id, ok := s.codes[code]
	sess, found := s.sessions[id]
	if !ok || !found {
		return attendance.SessionTarget{}, attendance.ErrSessionNotFound
	}
	return attendance.SessionTarget{ID: sess.ID, CourseID: sess.CourseID, CourseName: s.courses[sess.CourseID].Name}, nil
}

func (s *Store) SessionByID(_ context.Context, sessionID int64) (attendance.SessionDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return attendance.SessionDetail{}, err
	}
	sess, ok := s.sessions[sessionID]
	if !ok {
		return attendance.SessionDetail{}, attendance.ErrSessionNotFound
	}
	c := s.courses[sess.CourseID]
	return attendance.SessionDetail{
		ID:          sess.ID,
		CourseID:    c.ID,
		ProfessorID: c.ProfessorID,
		CourseName:  c.Name,
		Date:        sess.Date,
		Code:        sess.Code,
	}, nil
}

func (s *Store) InsertAttendance(_ context.Context, sessionID, studentID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return false, err
	}
	for _, row := range s.attendance {
		if row.sessionID == sessionID && row.studentID == studentID {
			return false, nil
		}
	}
	s.attendance = append(s.attendance, attendanceRow{sessionID: sessionID, studentID: studentID, scannedAt: s.tick()})
	return true, nil
}

func (s *Store) HistoryForStudent(_ context.Context, studentID int64) ([]attendance.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return nil, err
	}
	out := []attendance.HistoryEntry{}
	for _, row := range s.attendance {
		if row.studentID != studentID {
			continue
		}
		sess := s.sessions[row.sessionID]
		out = append(out, attendance.HistoryEntry{
			CourseName:  s.courses[sess.CourseID].Name,
			SessionDate: sess.Date,
			ScannedAt:   row.scannedAt,
			SessionCode: sess.Code,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SessionDate.Equal(out[j].SessionDate) {
			return out[i].SessionDate.After(out[j].SessionDate)
		}
		return out[i].ScannedAt.After(out[j].ScannedAt)
	})
	return out, nil
}

func (s *Store) AttendeesForSession(_ context.Context, sessionID int64) ([]attendance.Attendee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return nil, err
	}
	out := []attendance.Attendee{}
	for _, row := range s.attendance {
		if row.sessionID != sessionID {
			continue
		}
		u := s.users[row.studentID]
		out = append(out, attendance.Attendee{StudentName: u.DisplayName, Username: u.Username, AttendedAt: row.scannedAt})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].AttendedAt.Before(out[j].AttendedAt) })
	return out, nil
}

func sortCourses(cs []attendance.Course) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].Name != cs[j].Name {
			return cs[i].Name < cs[j].Name
		}
		return cs[i].ID < cs[j].ID
	})
}

var (
	_ attendance.Store = (*Store)(nil)
	_ auth.UserFinder  = (*Store)(nil)
)
