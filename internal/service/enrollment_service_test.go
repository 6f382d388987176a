package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/aryan0dhankhar/formationhub/internal/domain"
)

func TestEnrollmentSessionFull(t *testing.T) {
	// scenario A
	f := newFixture(t)
	s := f.session(t, 2)
	ctx := context.Background()

	for _, l := range f.learners[:2] {
		if _, err := f.enrollments.Create(ctx, s.ID, l.ID); err != nil {
			t.Fatalf("enroll %s: %v", l.Email, err)
		}
	}
	if _, err := f.enrollments.Create(ctx, s.ID, f.learners[2].ID); !errors.Is(err, domain.ErrEnrollmentSessionFull) {
		t.Fatalf("expected ENROLLMENT_SESSION_FULL, got %v", err)
	}
}

func TestEnrollmentAlreadyExists(t *testing.T) {
	// scenario C
	f := newFixture(t)
	s := f.session(t, 5)
	ctx := context.Background()

	e, err := f.enrollments.Create(ctx, s.ID, f.learners[0].ID)
	if err != nil {
		t.Fatalf("enroll: %v", err)
	}
	if e.EnrolledAt.IsZero() {
		t.Fatal("enrolled_at not set")
	}
	if _, err := f.enrollments.Create(ctx, s.ID, f.learners[0].ID); !errors.Is(err, domain.ErrEnrollmentAlreadyExists) {
		t.Fatalf("expected ENROLLMENT_ALREADY_EXISTS, got %v", err)
	}
}

func TestEnrollmentCheckOrder(t *testing.T) {
	f := newFixture(t)
	s := f.session(t, 1)
	ctx := context.Background()

	if _, err := f.enrollments.Create(ctx, 999, 999); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected SESSION_NOT_FOUND, got %v", err)
	}
	if _, err := f.enrollments.Create(ctx, s.ID, 999); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected USER_NOT_FOUND, got %v", err)
	}

	if _, err := f.enrollments.Create(ctx, s.ID, f.learners[0].ID); err != nil {
		t.Fatalf("enroll: %v", err)
	}
	// a full session is reported before the duplicate pair
	if _, err := f.enrollments.Create(ctx, s.ID, f.learners[0].ID); !errors.Is(err, domain.ErrEnrollmentSessionFull) {
		t.Fatalf("expected ENROLLMENT_SESSION_FULL, got %v", err)
	}
}

func TestConcurrentEnrollmentsRespectCapacity(t *testing.T) {
	f := newFixture(t)
	s := f.session(t, 3)
	ctx := context.Background()

	const n = 20
	students := make([]*domain.User, n)
	for i := range students {
		students[i] = f.user(t, fmt.Sprintf("student%d@example.com", i), domain.RoleLearner)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ok      int
		full    int
		unknown []error
	)
	for _, st := range students {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_, err := f.enrollments.Create(ctx, s.ID, id)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrEnrollmentSessionFull):
				full++
			default:
				unknown = append(unknown, err)
			}
		}(st.ID)
	}
	wg.Wait()

	if len(unknown) > 0 {
		t.Fatalf("unexpected errors: %v", unknown)
	}
	if ok != 3 || full != n-3 {
		t.Fatalf("expected 3 enrollments and %d rejections, got %d and %d", n-3, ok, full)
	}
	count, _ := f.store.Enrollments().CountBySession(ctx, s.ID)
	if count != 3 {
		t.Fatalf("stored %d enrollments", count)
	}
}

func TestUpdateEnrollment(t *testing.T) {
	f := newFixture(t)
	s := f.session(t, 1)
	ctx := context.Background()

	other, err := f.sessions.Create(ctx, CreateSessionInput{
		FormationID: f.formation.ID,
		TeacherID:   f.trainer.ID,
		StartDate:   s.StartDate.AddDate(0, 1, 0),
		EndDate:     s.EndDate.AddDate(0, 1, 0),
		CapacityMax: 1,
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	a, _ := f.enrollments.Create(ctx, s.ID, f.learners[0].ID)
	b, _ := f.enrollments.Create(ctx, other.ID, f.learners[1].ID)

	// other is full
	if _, err := f.enrollments.Update(ctx, a.ID, domain.EnrollmentPatch{SessionID: &other.ID}); !errors.Is(err, domain.ErrEnrollmentSessionFull) {
		t.Fatalf("expected ENROLLMENT_SESSION_FULL, got %v", err)
	}

	missing := int64(999)
	if _, err := f.enrollments.Update(ctx, a.ID, domain.EnrollmentPatch{StudentID: &missing}); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected USER_NOT_FOUND, got %v", err)
	}
	if _, err := f.enrollments.Update(ctx, missing, domain.EnrollmentPatch{}); !errors.Is(err, domain.ErrEnrollmentNotFound) {
		t.Fatalf("expected ENROLLMENT_NOT_FOUND, got %v", err)
	}

	updated, err := f.enrollments.Update(ctx, b.ID, domain.EnrollmentPatch{StudentID: &f.learners[2].ID})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.StudentID != f.learners[2].ID || updated.SessionID != other.ID {
		t.Fatalf("unexpected enrollment %+v", updated)
	}

	// unchanged patch is a no-op
	if _, err := f.enrollments.Update(ctx, a.ID, domain.EnrollmentPatch{SessionID: &s.ID}); err != nil {
		t.Fatalf("no-op update: %v", err)
	}
}

func TestDeleteEnrollmentTwice(t *testing.T) {
	f := newFixture(t)
	s := f.session(t, 1)
	ctx := context.Background()

	e, _ := f.enrollments.Create(ctx, s.ID, f.learners[0].ID)
	if err := f.enrollments.Delete(ctx, e.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := f.enrollments.Delete(ctx, e.ID); !errors.Is(err, domain.ErrEnrollmentNotFound) {
		t.Fatalf("expected ENROLLMENT_NOT_FOUND, got %v", err)
	}
	if _, err := f.enrollments.GetBySessionAndStudent(ctx, s.ID, f.learners[0].ID); !errors.Is(err, domain.ErrEnrollmentNotFound) {
		t.Fatalf("expected ENROLLMENT_NOT_FOUND, got %v", err)
	}
}

func TestUpdateEnrollmentWithSignaturesRejected(t *testing.T) {
	f := newFixture(t)
	s := f.session(t, 2)
	ctx := context.Background()
	learner := f.learners[0]

	other, err := f.sessions.Create(ctx, CreateSessionInput{
		FormationID: f.formation.ID,
		TeacherID:   f.trainer.ID,
		StartDate:   s.StartDate.AddDate(0, 1, 0),
		EndDate:     s.EndDate.AddDate(0, 1, 0),
		CapacityMax: 2,
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	e, err := f.enrollments.Create(ctx, s.ID, learner.ID)
	if err != nil {
		t.Fatalf("enroll: %v", err)
	}
	if _, err := f.signatures.Sign(ctx, s.ID, learner.ID, day(t, "2025-06-01")); err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := f.enrollments.Update(ctx, e.ID, domain.EnrollmentPatch{SessionID: &other.ID}); !errors.Is(err, domain.ErrEnrollmentHasSignatures) {
		t.Fatalf("session move: expected ENROLLMENT_HAS_SIGNATURES, got %v", err)
	}
	if _, err := f.enrollments.Update(ctx, e.ID, domain.EnrollmentPatch{StudentID: &f.learners[1].ID}); !errors.Is(err, domain.ErrEnrollmentHasSignatures) {
		t.Fatalf("student change: expected ENROLLMENT_HAS_SIGNATURES, got %v", err)
	}

	if _, err := f.enrollments.GetBySessionAndStudent(ctx, s.ID, learner.ID); err != nil {
		t.Fatalf("enrollment should still be in place: %v", err)
	}
	signed, _ := f.signatures.ListBySessionAndUser(ctx, s.ID, learner.ID)
	if len(signed) != 1 {
		t.Fatalf("expected 1 signature, got %d", len(signed))
	}
}

func TestDeleteEnrollmentRemovesSignatures(t *testing.T) {
	f := newFixture(t)
	s := f.session(t, 2)
	ctx := context.Background()
	a, b := f.learners[0], f.learners[1]

	ea, _ := f.enrollments.Create(ctx, s.ID, a.ID)
	if _, err := f.enrollments.Create(ctx, s.ID, b.ID); err != nil {
		t.Fatalf("enroll: %v", err)
	}
	for _, u := range []*domain.User{a, b} {
		if _, err := f.signatures.Sign(ctx, s.ID, u.ID, day(t, "2025-06-02")); err != nil {
			t.Fatalf("sign: %v", err)
		}
	}

	if err := f.enrollments.Delete(ctx, ea.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	left, err := f.signatures.ListBySessionAndDate(ctx, s.ID, *day(t, "2025-06-02"))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(left) != 1 || left[0].UserID != b.ID {
		t.Fatalf("expected only %d's signature to remain, got %+v", b.ID, left)
	}
}
