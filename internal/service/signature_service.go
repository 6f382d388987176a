package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aryan0dhankhar/formationhub/internal/domain"
	"github.com/aryan0dhankhar/formationhub/internal/realtime"
	"go.opentelemetry.io/otel/attribute"
)

// Publisher receives committed attendance events
type Publisher interface {
	Publish(ev realtime.SignatureEvent)
}

// SignatureService records daily attendance
type SignatureService struct {
	store     domain.Store
	publisher Publisher
	now       Clock
	logger    *slog.Logger
}

// NewSignatureService creates a new signature service. publisher may be nil.
func NewSignatureService(store domain.Store, publisher Publisher, logger *slog.Logger) *SignatureService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SignatureService{store: store, publisher: publisher, now: utcNow, logger: logger}
}

func (s *SignatureService) WithClock(now Clock) *SignatureService {
	s.now = now
	return s
}

// Sign records attendance for userID on day, or today when day is nil.
// Checks run in order: session, date range, enrollment, duplicate.
func (s *SignatureService) Sign(ctx context.Context, sessionID, userID int64, day *time.Time) (_ *domain.Signature, err error) {
	ctx, op := startOperation(ctx, "signature.sign",
		attribute.Int64("session_id", sessionID),
		attribute.Int64("user_id", userID),
	)
	defer func() { op.end(err) }()

	date := domain.Day(s.now())
	if day != nil {
		date = domain.Day(*day)
	}

	signature := &domain.Signature{SessionID: sessionID, UserID: userID, Date: date}
	err = s.store.WithTx(ctx, func(ctx context.Context, tx domain.Repositories) error {
		session, err := tx.Sessions().GetByID(ctx, sessionID)
		if err != nil {
			return notFound(err, domain.ErrSessionNotFound)
		}
		if !session.Contains(date) {
			return domain.ErrSignatureDateOutsideSession
		}

		enrolled, err := exists(tx.Enrollments().GetBySessionAndStudent(ctx, sessionID, userID))
		if err != nil {
			return err
		}
		if !enrolled {
			return domain.ErrUserNotEnrolledInSession
		}

		signed, err := tx.Signatures().Exists(ctx, sessionID, userID, date)
		if err != nil {
			return err
		}
		if signed {
			return domain.ErrSignatureAlreadyExists
		}

		return tx.Signatures().Create(ctx, signature)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("signature recorded",
		slog.Int64("signature_id", signature.ID),
		slog.Int64("session_id", sessionID),
		slog.Int64("user_id", userID),
		slog.String("date", date.Format(domain.DateLayout)),
	)
	if s.publisher != nil {
		s.publisher.Publish(realtime.SignatureEvent{
			Type:        "signature.created",
			SignatureID: signature.ID,
			SessionID:   sessionID,
			UserID:      userID,
			Date:        date.Format(domain.DateLayout),
		})
	}
	return signature, nil
}

func (s *SignatureService) GetByID(ctx context.Context, id int64) (*domain.Signature, error) {
	sig, err := s.store.Signatures().GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, domain.ErrSignatureNotFound)
	}
	return sig, nil
}

func (s *SignatureService) requireSession(ctx context.Context, sessionID int64) error {
	if _, err := s.store.Sessions().GetByID(ctx, sessionID); err != nil {
		return notFound(err, domain.ErrSessionNotFound)
	}
	return nil
}

// ListBySessionAndDate returns the signatures of one session day
func (s *SignatureService) ListBySessionAndDate(ctx context.Context, sessionID int64, day time.Time) ([]*domain.Signature, error) {
	if err := s.requireSession(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.store.Signatures().ListBySessionAndDate(ctx, sessionID, domain.Day(day))
}

// ListBySessionAndUser returns one learner's attendance in a session
func (s *SignatureService) ListBySessionAndUser(ctx context.Context, sessionID, userID int64) ([]*domain.Signature, error) {
	if err := s.requireSession(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.store.Signatures().ListBySessionAndUser(ctx, sessionID, userID)
}

func (s *SignatureService) Delete(ctx context.Context, id int64) (err error) {
	ctx, op := startOperation(ctx, "signature.delete", attribute.Int64("signature_id", id))
	defer func() { op.end(err) }()

	if err := s.store.Signatures().Delete(ctx, id); err != nil {
		return notFound(err, domain.ErrSignatureNotFound)
	}
	s.logger.Info("signature deleted", slog.Int64("signature_id", id))
	return nil
}
