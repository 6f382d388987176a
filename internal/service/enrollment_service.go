package service

import (
	"context"
	"log/slog"

	"github.com/aryan0dhankhar/formationhub/internal/domain"
	"go.opentelemetry.io/otel/attribute"
)

// EnrollmentService registers learners into sessions under the capacity ceiling
type EnrollmentService struct {
	store  domain.Store
	now    Clock
	logger *slog.Logger
}

// NewEnrollmentService creates a new enrollment service
func NewEnrollmentService(store domain.Store, logger *slog.Logger) *EnrollmentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &EnrollmentService{store: store, now: utcNow, logger: logger}
}

func (s *EnrollmentService) WithClock(now Clock) *EnrollmentService {
	s.now = now
	return s
}

// Create enrolls a student. The session row is locked before the count so
// concurrent enrollments cannot overshoot capacity.
func (s *EnrollmentService) Create(ctx context.Context, sessionID, studentID int64) (_ *domain.Enrollment, err error) {
	ctx, op := startOperation(ctx, "enrollment.create",
		attribute.Int64("session_id", sessionID),
		attribute.Int64("student_id", studentID),
	)
	defer func() { op.end(err) }()

	enrollment := &domain.Enrollment{SessionID: sessionID, StudentID: studentID}
	err = s.store.WithTx(ctx, func(ctx context.Context, tx domain.Repositories) error {
		session, err := tx.Sessions().GetByIDForUpdate(ctx, sessionID)
		if err != nil {
			return notFound(err, domain.ErrSessionNotFound)
		}
		if _, err := tx.Users().GetByID(ctx, studentID); err != nil {
			return notFound(err, domain.ErrUserNotFound)
		}
		if err := checkCapacity(ctx, tx, session); err != nil {
			return err
		}

		taken, err := exists(tx.Enrollments().GetBySessionAndStudent(ctx, sessionID, studentID))
		if err != nil {
			return err
		}
		if taken {
			return domain.ErrEnrollmentAlreadyExists
		}

		enrollment.EnrolledAt = s.now()
		return tx.Enrollments().Create(ctx, enrollment)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("student enrolled",
		slog.Int64("enrollment_id", enrollment.ID),
		slog.Int64("session_id", sessionID),
		slog.Int64("student_id", studentID),
	)
	return enrollment, nil
}

func checkCapacity(ctx context.Context, tx domain.Repositories, session *domain.Session) error {
	n, err := tx.Enrollments().CountBySession(ctx, session.ID)
	if err != nil {
		return err
	}
	if n >= session.CapacityMax {
		return domain.ErrEnrollmentSessionFull
	}
	return nil
}

// Update moves an enrollment to another session or student. The target
// session's capacity and the unique pair are checked only when they change.
// An enrollment with recorded signatures cannot be moved.
func (s *EnrollmentService) Update(ctx context.Context, id int64, patch domain.EnrollmentPatch) (_ *domain.Enrollment, err error) {
	ctx, op := startOperation(ctx, "enrollment.update", attribute.Int64("enrollment_id", id))
	defer func() { op.end(err) }()

	var enrollment *domain.Enrollment
	err = s.store.WithTx(ctx, func(ctx context.Context, tx domain.Repositories) error {
		current, err := tx.Enrollments().GetByID(ctx, id)
		if err != nil {
			return notFound(err, domain.ErrEnrollmentNotFound)
		}
		next := *current

		if patch.SessionID != nil && *patch.SessionID != current.SessionID {
			session, err := tx.Sessions().GetByIDForUpdate(ctx, *patch.SessionID)
			if err != nil {
				return notFound(err, domain.ErrSessionNotFound)
			}
			if err := checkCapacity(ctx, tx, session); err != nil {
				return err
			}
			next.SessionID = session.ID
		}
		if patch.StudentID != nil && *patch.StudentID != current.StudentID {
			if _, err := tx.Users().GetByID(ctx, *patch.StudentID); err != nil {
				return notFound(err, domain.ErrUserNotFound)
			}
			next.StudentID = *patch.StudentID
		}

		if next == *current {
			enrollment = current
			return nil
		}

		signed, err := tx.Signatures().ListBySessionAndUser(ctx, current.SessionID, current.StudentID)
		if err != nil {
			return err
		}
		if len(signed) > 0 {
			return domain.ErrEnrollmentHasSignatures
		}

		taken, err := exists(tx.Enrollments().GetBySessionAndStudent(ctx, next.SessionID, next.StudentID))
		if err != nil {
			return err
		}
		if taken {
			return domain.ErrEnrollmentAlreadyExists
		}

		if err := tx.Enrollments().Update(ctx, &next); err != nil {
			return notFound(err, domain.ErrEnrollmentNotFound)
		}
		enrollment = &next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return enrollment, nil
}

// Delete removes an enrollment together with the signatures recorded under it
func (s *EnrollmentService) Delete(ctx context.Context, id int64) (err error) {
	ctx, op := startOperation(ctx, "enrollment.delete", attribute.Int64("enrollment_id", id))
	defer func() { op.end(err) }()

	if err := s.store.Enrollments().Delete(ctx, id); err != nil {
		return notFound(err, domain.ErrEnrollmentNotFound)
	}
	s.logger.Info("enrollment deleted", slog.Int64("enrollment_id", id))
	return nil
}

func (s *EnrollmentService) GetByID(ctx context.Context, id int64) (*domain.Enrollment, error) {
	e, err := s.store.Enrollments().GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, domain.ErrEnrollmentNotFound)
	}
	return e, nil
}

func (s *EnrollmentService) GetBySessionAndStudent(ctx context.Context, sessionID, studentID int64) (*domain.Enrollment, error) {
	e, err := s.store.Enrollments().GetBySessionAndStudent(ctx, sessionID, studentID)
	if err != nil {
		return nil, notFound(err, domain.ErrEnrollmentNotFound)
	}
	return e, nil
}

func (s *EnrollmentService) List(ctx context.Context, page domain.Page) ([]*domain.Enrollment, error) {
	return s.store.Enrollments().List(ctx, page)
}

func (s *EnrollmentService) ListBySession(ctx context.Context, sessionID int64) ([]*domain.Enrollment, error) {
	return s.store.Enrollments().ListBySession(ctx, sessionID)
}

func (s *EnrollmentService) ListByStudent(ctx context.Context, studentID int64) ([]*domain.Enrollment, error) {
	return s.store.Enrollments().ListByStudent(ctx, studentID)
}
