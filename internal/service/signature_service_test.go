package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aryan0dhankhar/formationhub/internal/domain"
	"github.com/aryan0dhankhar/formationhub/internal/realtime"
)

type recordingPublisher struct {
	events []realtime.SignatureEvent
}

func (p *recordingPublisher) Publish(ev realtime.SignatureEvent) {
	p.events = append(p.events, ev)
}

func day(t *testing.T, s string) *time.Time {
	t.Helper()
	d, err := domain.ParseDay(s)
	if err != nil {
		t.Fatalf("parse %s: %v", s, err)
	}
	return &d
}

func TestSignatureRules(t *testing.T) {
	f := newFixture(t)
	s := f.session(t, 3) // 2025-06-01 09:00 to 2025-06-03 17:00
	ctx := context.Background()
	learner := f.learners[0]

	// scenario E
	if _, err := f.signatures.Sign(ctx, s.ID, learner.ID, day(t, "2025-06-02")); !errors.Is(err, domain.ErrUserNotEnrolledInSession) {
		t.Fatalf("expected USER_NOT_ENROLLED_IN_SESSION, got %v", err)
	}

	if _, err := f.enrollments.Create(ctx, s.ID, learner.ID); err != nil {
		t.Fatalf("enroll: %v", err)
	}

	// scenario D
	if _, err := f.signatures.Sign(ctx, s.ID, learner.ID, day(t, "2025-05-31")); !errors.Is(err, domain.ErrSignatureDateOutsideSession) {
		t.Fatalf("expected SIGNATURE_DATE_OUTSIDE_SESSION, got %v", err)
	}
	if _, err := f.signatures.Sign(ctx, s.ID, learner.ID, day(t, "2025-06-04")); !errors.Is(err, domain.ErrSignatureDateOutsideSession) {
		t.Fatalf("expected SIGNATURE_DATE_OUTSIDE_SESSION, got %v", err)
	}

	// first and last day are inclusive
	for _, d := range []string{"2025-06-01", "2025-06-03"} {
		if _, err := f.signatures.Sign(ctx, s.ID, learner.ID, day(t, d)); err != nil {
			t.Fatalf("sign %s: %v", d, err)
		}
	}

	// scenario F
	if _, err := f.signatures.Sign(ctx, s.ID, learner.ID, day(t, "2025-06-02")); err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := f.signatures.Sign(ctx, s.ID, learner.ID, day(t, "2025-06-02")); !errors.Is(err, domain.ErrSignatureAlreadyExists) {
		t.Fatalf("expected SIGNATURE_ALREADY_EXISTS_FOR_DATE, got %v", err)
	}

	if _, err := f.signatures.Sign(ctx, 999, learner.ID, nil); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected SESSION_NOT_FOUND, got %v", err)
	}
}

func TestSignDefaultsToTodayAndNormalises(t *testing.T) {
	f := newFixture(t)
	s := f.session(t, 3)
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc := NewSignatureService(f.store, pub, nil).
		WithClock(fixedClock(time.Date(2025, 6, 2, 15, 30, 0, 0, time.UTC)))

	_, _ = f.enrollments.Create(ctx, s.ID, f.learners[0].ID)
	sig, err := svc.Sign(ctx, s.ID, f.learners[0].ID, nil)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	want := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	if !sig.Date.Equal(want) {
		t.Fatalf("expected %v, got %v", want, sig.Date)
	}

	if len(pub.events) != 1 || pub.events[0].Date != "2025-06-02" || pub.events[0].SignatureID != sig.ID {
		t.Fatalf("unexpected events %+v", pub.events)
	}

	// a rejected signature publishes nothing
	_, _ = svc.Sign(ctx, s.ID, f.learners[0].ID, nil)
	if len(pub.events) != 1 {
		t.Fatalf("expected one event, got %d", len(pub.events))
	}
}

func TestSignatureListsAndDelete(t *testing.T) {
	f := newFixture(t)
	s := f.session(t, 3)
	ctx := context.Background()

	for _, l := range f.learners[:2] {
		_, _ = f.enrollments.Create(ctx, s.ID, l.ID)
		if _, err := f.signatures.Sign(ctx, s.ID, l.ID, day(t, "2025-06-01")); err != nil {
			t.Fatalf("sign: %v", err)
		}
	}

	byDate, err := f.signatures.ListBySessionAndDate(ctx, s.ID, *day(t, "2025-06-01"))
	if err != nil || len(byDate) != 2 {
		t.Fatalf("by date: %d %v", len(byDate), err)
	}
	empty, err := f.signatures.ListBySessionAndDate(ctx, s.ID, *day(t, "2025-06-02"))
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected empty, got %d %v", len(empty), err)
	}
	if _, err := f.signatures.ListBySessionAndUser(ctx, 999, f.learners[0].ID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected SESSION_NOT_FOUND, got %v", err)
	}

	id := byDate[0].ID
	if err := f.signatures.Delete(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := f.signatures.Delete(ctx, id); !errors.Is(err, domain.ErrSignatureNotFound) {
		t.Fatalf("expected SIGNATURE_NOT_FOUND, got %v", err)
	}
	if _, err := f.signatures.GetByID(ctx, id); !errors.Is(err, domain.ErrSignatureNotFound) {
		t.Fatalf("expected SIGNATURE_NOT_FOUND, got %v", err)
	}
}
