package service

import (
	"context"
	"testing"
	"time"

	"github.com/aryan0dhankhar/formationhub/internal/domain"
	"github.com/aryan0dhankhar/formationhub/internal/repository/memory"
)

var s1Start = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	store     *memory.Store
	formation *domain.Formation
	trainer   *domain.User
	learners  []*domain.User

	sessions    *SessionService
	enrollments *EnrollmentService
	signatures  *SignatureService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	f := &fixture{
		store:       store,
		sessions:    NewSessionService(store, nil, SessionConfig{}, nil),
		enrollments: NewEnrollmentService(store, nil),
		signatures:  NewSignatureService(store, nil, nil),
	}

	f.trainer = f.user(t, "trainer@example.com", domain.RoleTrainer)
	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		f.learners = append(f.learners, f.user(t, email, domain.RoleLearner))
	}

	f.formation = &domain.Formation{Title: "Go fundamentals", DurationHours: 21, Level: domain.LevelBeginner}
	if err := store.Formations().Create(ctx, f.formation); err != nil {
		t.Fatalf("create formation: %v", err)
	}
	return f
}

func (f *fixture) user(t *testing.T, email string, role domain.Role) *domain.User {
	t.Helper()
	u := &domain.User{Email: email, Role: role}
	if err := f.store.Users().Create(context.Background(), u); err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return u
}

// session creates S1: three days from s1Start with the given capacity
func (f *fixture) session(t *testing.T, capacity int) *domain.Session {
	t.Helper()
	s, err := f.sessions.Create(context.Background(), CreateSessionInput{
		FormationID: f.formation.ID,
		TeacherID:   f.trainer.ID,
		StartDate:   s1Start,
		EndDate:     s1Start.Add(48*time.Hour + 8*time.Hour),
		CapacityMax: capacity,
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return s
}

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}
