package attendancetest

import (
	"testing"

	"golang.org/x/crypto/bcrypt"

	"classroll/internal/auth"
	"classroll/internal/store"
)

// DemoPassword is the password of every demo account.
const DemoPassword = store.DemoPassword

// Demo holds the ids of the demo data set.
type Demo struct {
	ProfAhmed, ProfMona      int64
	StudentSara, StudentOmar int64
	CS101, CS205, MATH110    int64
}

// SeedDemo loads the same demo data set store.SeedDemo writes to Postgres.
func SeedDemo(t testing.TB, s *Store) Demo {
	t.Helper()
	hash, err := auth.HashPassword(DemoPassword, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash demo password: %v", err)
	}

	users := make(map[string]int64, len(store.DemoUsers))
	for _, u := range store.DemoUsers {
		users[u.Username] = s.AddUser(u.Username, u.DisplayName, hash, u.Role)
	}
	courses := make(map[string]int64, len(store.DemoCourses))
	for _, c := range store.DemoCourses {
		courses[c.Code] = s.AddCourse(c.Name, c.Code, users[c.Professor])
		for _, student := range c.Students {
			s.Enroll(users[student], courses[c.Code])
		}
	}

	d := Demo{
		ProfAhmed:   users["prof_ahmed"],
		ProfMona:    users["prof_mona"],
		StudentSara: users["student_sara"],
		StudentOmar: users["student_omar"],
		CS101:       courses["CS101"],
		CS205:       courses["CS205"],
		MATH110:     courses["MATH110"],
	}
	for name, id := range map[string]int64{
		"prof_ahmed": d.ProfAhmed, "prof_mona": d.ProfMona,
		"student_sara": d.StudentSara, "student_omar": d.StudentOmar,
		"CS101": d.CS101, "CS205": d.CS205, "MATH110": d.MATH110,
	} {
		if id == 0 {
			t.Fatalf("demo data set has no %s", name)
		}
	}
	return d
}
