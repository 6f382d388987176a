package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aryan0dhankhar/formationhub/internal/domain"
)

func seed(t *testing.T, s *Store) (teacher, learner *domain.User, session *domain.Session) {
	t.Helper()
	ctx := context.Background()

	teacher = &domain.User{Email: "t@example.com", Role: domain.RoleTrainer}
	learner = &domain.User{Email: "l@example.com", Role: domain.RoleLearner}
	for _, u := range []*domain.User{teacher, learner} {
		if err := s.Users().Create(ctx, u); err != nil {
			t.Fatalf("create user: %v", err)
		}
	}

	f := &domain.Formation{Title: "Go", DurationHours: 10, Level: domain.LevelBeginner}
	if err := s.Formations().Create(ctx, f); err != nil {
		t.Fatalf("create formation: %v", err)
	}

	start := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	session = &domain.Session{
		FormationID: f.ID,
		TeacherID:   teacher.ID,
		StartDate:   start,
		EndDate:     start.Add(72 * time.Hour),
		CapacityMax: 2,
		Status:      domain.StatusScheduled,
	}
	if err := s.Sessions().Create(ctx, session); err != nil {
		t.Fatalf("create session: %v", err)
	}
	return teacher, learner, session
}

func TestWithTxRollsBackOnError(t *testing.T) {
	s := NewStore()
	_, learner, session := seed(t, s)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(ctx context.Context, tx domain.Repositories) error {
		if err := tx.Enrollments().Create(ctx, &domain.Enrollment{SessionID: session.ID, StudentID: learner.ID}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	n, _ := s.Enrollments().CountBySession(ctx, session.ID)
	if n != 0 {
		t.Fatalf("expected rollback, found %d enrollments", n)
	}
}

func TestUniqueIndexes(t *testing.T) {
	s := NewStore()
	teacher, learner, session := seed(t, s)
	ctx := context.Background()

	if err := s.Users().Create(ctx, &domain.User{Email: "T@Example.com"}); !errors.Is(err, domain.ErrEmailAlreadyUsed) {
		t.Errorf("email: got %v", err)
	}
	if err := s.Formations().Create(ctx, &domain.Formation{Title: "go"}); !errors.Is(err, domain.ErrFormationTitleAlreadyUsed) {
		t.Errorf("title: got %v", err)
	}

	dup := *session
	dup.EndDate = dup.EndDate.Add(time.Hour)
	if err := s.Sessions().Create(ctx, &dup); !errors.Is(err, domain.ErrSessionStartDateAlreadyExists) {
		t.Errorf("start date: got %v", err)
	}

	e := &domain.Enrollment{SessionID: session.ID, StudentID: learner.ID}
	if err := s.Enrollments().Create(ctx, e); err != nil {
		t.Fatalf("enroll: %v", err)
	}
	if err := s.Enrollments().Create(ctx, &domain.Enrollment{SessionID: session.ID, StudentID: learner.ID}); !errors.Is(err, domain.ErrEnrollmentAlreadyExists) {
		t.Errorf("enrollment: got %v", err)
	}

	if err := s.Users().Delete(ctx, teacher.ID); !errors.Is(err, domain.ErrUserInUse) {
		t.Errorf("teacher delete: got %v", err)
	}
}

func TestSessionDeleteCascades(t *testing.T) {
	s := NewStore()
	_, learner, session := seed(t, s)
	ctx := context.Background()

	_ = s.Enrollments().Create(ctx, &domain.Enrollment{SessionID: session.ID, StudentID: learner.ID})
	_ = s.Signatures().Create(ctx, &domain.Signature{SessionID: session.ID, UserID: learner.ID, Date: domain.Day(session.StartDate)})
	_ = s.Groups().Create(ctx, &domain.Group{SessionID: session.ID, Name: "A", StudentIDs: []int64{learner.ID}})

	if err := s.Sessions().Delete(ctx, session.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Sessions().Delete(ctx, session.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second delete: got %v", err)
	}

	enr, _ := s.Enrollments().ListByStudent(ctx, learner.ID)
	groups, _ := s.Groups().ListBySession(ctx, session.ID)
	if len(enr) != 0 || len(groups) != 0 {
		t.Fatalf("expected cascade, got %d enrollments %d groups", len(enr), len(groups))
	}
}

func TestSyncStatusesMovesForward(t *testing.T) {
	s := NewStore()
	_, _, session := seed(t, s)
	ctx := context.Background()

	n, err := s.Sessions().SyncStatuses(ctx, session.StartDate.Add(time.Hour))
	if err != nil || n != 1 {
		t.Fatalf("ongoing: n=%d err=%v", n, err)
	}
	got, _ := s.Sessions().GetByID(ctx, session.ID)
	if got.Status != domain.StatusOngoing {
		t.Fatalf("expected ongoing, got %s", got.Status)
	}

	n, _ = s.Sessions().SyncStatuses(ctx, session.EndDate)
	got, _ = s.Sessions().GetByID(ctx, session.ID)
	if n != 1 || got.Status != domain.StatusCompleted {
		t.Fatalf("expected completed, got %s (n=%d)", got.Status, n)
	}

	n, _ = s.Sessions().SyncStatuses(ctx, session.StartDate.Add(-time.Hour))
	if n != 0 {
		t.Fatalf("status moved backwards")
	}
}

func TestSignatureRequiresEnrollment(t *testing.T) {
	s := NewStore()
	_, learner, session := seed(t, s)
	ctx := context.Background()

	sig := &domain.Signature{SessionID: session.ID, UserID: learner.ID, Date: domain.Day(session.StartDate)}
	if err := s.Signatures().Create(ctx, sig); !errors.Is(err, domain.ErrUserNotEnrolledInSession) {
		t.Fatalf("expected USER_NOT_ENROLLED_IN_SESSION, got %v", err)
	}
}

func TestEnrollmentDeleteCascadesSignatures(t *testing.T) {
	s := NewStore()
	teacher, learner, session := seed(t, s)
	ctx := context.Background()

	e := &domain.Enrollment{SessionID: session.ID, StudentID: learner.ID}
	if err := s.Enrollments().Create(ctx, e); err != nil {
		t.Fatalf("enroll: %v", err)
	}
	if err := s.Signatures().Create(ctx, &domain.Signature{SessionID: session.ID, UserID: learner.ID, Date: domain.Day(session.StartDate)}); err != nil {
		t.Fatalf("sign: %v", err)
	}

	moved := *e
	moved.StudentID = teacher.ID
	if err := s.Enrollments().Update(ctx, &moved); !errors.Is(err, domain.ErrEnrollmentHasSignatures) {
		t.Fatalf("expected ENROLLMENT_HAS_SIGNATURES, got %v", err)
	}

	if err := s.Enrollments().Delete(ctx, e.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	left, _ := s.Signatures().ListBySessionAndUser(ctx, session.ID, learner.ID)
	if len(left) != 0 {
		t.Fatalf("expected signatures removed, got %d", len(left))
	}
}

func TestCountOutsideDays(t *testing.T) {
	s := NewStore()
	_, learner, session := seed(t, s)
	ctx := context.Background()

	_ = s.Enrollments().Create(ctx, &domain.Enrollment{SessionID: session.ID, StudentID: learner.ID})
	for i := range 3 {
		d := domain.Day(session.StartDate).AddDate(0, 0, i)
		if err := s.Signatures().Create(ctx, &domain.Signature{SessionID: session.ID, UserID: learner.ID, Date: d}); err != nil {
			t.Fatalf("sign: %v", err)
		}
	}

	first := domain.Day(session.StartDate).AddDate(0, 0, 1)
	n, err := s.Signatures().CountOutsideDays(ctx, session.ID, first, first)
	if err != nil || n != 2 {
		t.Fatalf("expected 2 outside, got %d (err=%v)", n, err)
	}
	n, _ = s.Signatures().CountOutsideDays(ctx, session.ID, domain.Day(session.StartDate), domain.Day(session.EndDate))
	if n != 0 {
		t.Fatalf("expected none outside, got %d", n)
	}
}
