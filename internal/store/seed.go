package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"classroll/internal/auth"
)

// DemoPassword is shared by every demo account.
const DemoPassword = "123456"

// DemoUser is one demo account.
type DemoUser struct {
	Username, DisplayName, Role string
}

// DemoCourse is one demo course with its professor and enrolled students,
// both given by username.
type DemoCourse struct {
	Name, Code, Professor string
	Students              []string
}

// DemoUsers and DemoCourses are the demo data set. student_omar is kept out
// of CS101 so a check-in to a CS101 session shows the not-enrolled path.
var DemoUsers = []DemoUser{
	{"prof_ahmed", "د. أحمد", auth.RoleProfessor},
	{"prof_mona", "د. منى", auth.RoleProfessor},
	{"student_sara", "سارة محمد", auth.RoleStudent},
	{"student_omar", "عمر علي", auth.RoleStudent},
}

var DemoCourses = []DemoCourse{
	{"مقدمة في البرمجة", "CS101", "prof_ahmed", []string{"student_sara"}},
	{"هياكل بيانات", "CS205", "prof_ahmed", []string{"student_sara", "student_omar"}},
	{"رياضة هندسية", "MATH110", "prof_mona", []string{"student_omar"}},
}

// SeedDemo populates an empty database with demo professors, students,
// courses and enrollments. It does nothing when any user exists.
func SeedDemo(ctx context.Context, db *sqlx.DB, logger *zap.Logger) error {
	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users`); err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		logger.Info("demo seed skipped, users already present", zap.Int("users", count))
		return nil
	}

	hash, err := auth.HashPassword(DemoPassword, 0)
	if err != nil {
		return fmt.Errorf("hash demo password: %w", err)
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	userIDs := make(map[string]int64, len(DemoUsers))
	for _, u := range DemoUsers {
		var id int64
		if err := tx.GetContext(ctx, &id, `
			INSERT INTO users (username, display_name, password_hash, role)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, u.Username, u.DisplayName, hash, u.Role); err != nil {
			return fmt.Errorf("seed user %s: %w", u.Username, err)
		}
		userIDs[u.Username] = id
	}

	for _, c := range DemoCourses {
		var courseID int64
		if err := tx.GetContext(ctx, &courseID, `
			INSERT INTO courses (name, code, professor_id)
			VALUES ($1, $2, $3)
			RETURNING id
		`, c.Name, c.Code, userIDs[c.Professor]); err != nil {
			return fmt.Errorf("seed course %s: %w", c.Code, err)
		}
		for _, student := range c.Students {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO enrollments (student_id, course_id)
				VALUES ($1, $2)
				ON CONFLICT DO NOTHING
			`, userIDs[student], courseID); err != nil {
				return fmt.Errorf("seed enrollment %s/%s: %w", student, c.Code, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}
	logger.Info("demo data seeded", zap.Int("users", len(DemoUsers)), zap.Int("courses", len(DemoCourses)))
	return nil
}
