package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/aryan0dhankhar/formationhub/internal/domain"
	"github.com/aryan0dhankhar/formationhub/internal/observability/metrics"
	"github.com/aryan0dhankhar/formationhub/pkg/cache"
	"go.opentelemetry.io/otel/attribute"
)

// SessionConfig tunes the session rule engine
type SessionConfig struct {
	// RequireTrainerRole rejects teachers whose role is not trainer
	RequireTrainerRole bool
	CacheTTL           time.Duration
}

// SessionService enforces the scheduling rules for sessions
type SessionService struct {
	store  domain.Store
	cache  cache.Store
	cfg    SessionConfig
	now    Clock
	logger *slog.Logger
}

// NewSessionService creates a new session service. cache may be nil.
func NewSessionService(store domain.Store, c cache.Store, cfg SessionConfig, logger *slog.Logger) *SessionService {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 30 * time.Second
	}
	return &SessionService{store: store, cache: c, cfg: cfg, now: utcNow, logger: logger}
}

// WithClock replaces the service clock
func (s *SessionService) WithClock(now Clock) *SessionService {
	s.now = now
	return s
}

// CreateSessionInput carries the fields of a new session
type CreateSessionInput struct {
	FormationID int64
	TeacherID   int64
	StartDate   time.Time
	EndDate     time.Time
	CapacityMax int
	Status      domain.SessionStatus // empty means scheduled
}

// checkTeacher verifies the teacher exists and, when enforced, is a trainer
func (s *SessionService) checkTeacher(ctx context.Context, tx domain.Repositories, teacherID int64) error {
	teacher, err := tx.Users().GetByID(ctx, teacherID)
	if err != nil {
		return notFound(err, domain.ErrTeacherNotFound)
	}
	if s.cfg.RequireTrainerRole && teacher.Role != domain.RoleTrainer {
		return domain.ErrUserNotTrainer
	}
	return nil
}

// Create validates and persists a session. Checks run in a fixed order:
// formation, teacher, date ordering, start date uniqueness, end date uniqueness.
func (s *SessionService) Create(ctx context.Context, in CreateSessionInput) (_ *domain.Session, err error) {
	ctx, op := startOperation(ctx, "session.create",
		attribute.Int64("formation_id", in.FormationID),
		attribute.Int64("teacher_id", in.TeacherID),
	)
	defer func() { op.end(err) }()

	if in.CapacityMax < 1 {
		return nil, domain.ErrInvalidRequest.WithMessage("capacity_max must be at least 1.")
	}
	status := in.Status
	if status == "" {
		status = domain.StatusScheduled
	}
	if !status.Valid() {
		return nil, domain.ErrInvalidRequest.WithMessage("Unknown session status.")
	}

	session := &domain.Session{
		FormationID: in.FormationID,
		TeacherID:   in.TeacherID,
		StartDate:   in.StartDate.UTC(),
		EndDate:     in.EndDate.UTC(),
		CapacityMax: in.CapacityMax,
		Status:      status,
	}

	err = s.store.WithTx(ctx, func(ctx context.Context, tx domain.Repositories) error {
		if _, err := tx.Formations().GetByID(ctx, in.FormationID); err != nil {
			return notFound(err, domain.ErrFormationNotFound)
		}
		if err := s.checkTeacher(ctx, tx, in.TeacherID); err != nil {
			return err
		}
		if !session.StartDate.Before(session.EndDate) {
			return domain.ErrSessionStartDateAfterEndDate
		}

		taken, err := exists(tx.Sessions().GetByStartDate(ctx, session.StartDate))
		if err != nil {
			return err
		}
		if taken {
			return domain.ErrSessionStartDateAlreadyExists
		}

		taken, err = exists(tx.Sessions().GetByEndDate(ctx, session.EndDate))
		if err != nil {
			return err
		}
		if taken {
			return domain.ErrSessionEndDateAlreadyExists
		}

		return tx.Sessions().Create(ctx, session)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("session created",
		slog.Int64("session_id", session.ID),
		slog.Int64("formation_id", session.FormationID),
		slog.Int64("teacher_id", session.TeacherID),
	)
	return session, nil
}

// Update applies the supplied fields. Referenced rows are re-checked only
// for supplied ids. Date ordering is checked on the effective dates, and new
// dates must still cover every recorded signature.
// Date uniqueness is not re-checked here; the store's unique indexes still
// reject a collision with the same error codes.
func (s *SessionService) Update(ctx context.Context, id int64, patch domain.SessionPatch) (_ *domain.Session, err error) {
	ctx, op := startOperation(ctx, "session.update", attribute.Int64("session_id", id))
	defer func() { op.end(err) }()

	var session *domain.Session
	err = s.store.WithTx(ctx, func(ctx context.Context, tx domain.Repositories) error {
		current, err := tx.Sessions().GetByIDForUpdate(ctx, id)
		if err != nil {
			return notFound(err, domain.ErrSessionNotFound)
		}

		if patch.FormationID != nil {
			if _, err := tx.Formations().GetByID(ctx, *patch.FormationID); err != nil {
				return notFound(err, domain.ErrFormationNotFound)
			}
		}
		if patch.TeacherID != nil {
			if err := s.checkTeacher(ctx, tx, *patch.TeacherID); err != nil {
				return err
			}
		}

		next := *current
		if patch.StartDate != nil {
			next.StartDate = patch.StartDate.UTC()
		}
		if patch.EndDate != nil {
			next.EndDate = patch.EndDate.UTC()
		}
		if !next.StartDate.Before(next.EndDate) {
			return domain.ErrSessionStartDateAfterEndDate
		}
		if patch.StartDate != nil || patch.EndDate != nil {
			outside, err := tx.Signatures().CountOutsideDays(ctx, id, domain.Day(next.StartDate), domain.Day(next.EndDate))
			if err != nil {
				return err
			}
			if outside > 0 {
				return domain.ErrSessionDatesExcludeSignatures
			}
		}

		if patch.CapacityMax != nil {
			if *patch.CapacityMax < 1 {
				return domain.ErrInvalidRequest.WithMessage("capacity_max must be at least 1.")
			}
			enrolled, err := tx.Enrollments().CountBySession(ctx, id)
			if err != nil {
				return err
			}
			if *patch.CapacityMax < enrolled {
				return domain.ErrSessionCapacityBelowEnrollment
			}
			next.CapacityMax = *patch.CapacityMax
		}
		if patch.Status != nil {
			if !patch.Status.Valid() {
				return domain.ErrInvalidRequest.WithMessage("Unknown session status.")
			}
			next.Status = *patch.Status
		}
		if patch.FormationID != nil {
			next.FormationID = *patch.FormationID
		}
		if patch.TeacherID != nil {
			next.TeacherID = *patch.TeacherID
		}

		if err := tx.Sessions().Update(ctx, &next); err != nil {
			return notFound(err, domain.ErrSessionNotFound)
		}
		session = &next
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, id)
	s.logger.Info("session updated", slog.Int64("session_id", id))
	return session, nil
}

// Delete removes a session; the store cascades its enrollments, signatures,
// groups and briefs
func (s *SessionService) Delete(ctx context.Context, id int64) (err error) {
	ctx, op := startOperation(ctx, "session.delete", attribute.Int64("session_id", id))
	defer func() { op.end(err) }()

	if err := s.store.Sessions().Delete(ctx, id); err != nil {
		return notFound(err, domain.ErrSessionNotFound)
	}
	s.invalidate(ctx, id)
	s.logger.Info("session deleted", slog.Int64("session_id", id))
	return nil
}

func sessionCacheKey(id int64) string {
	return "session:" + strconv.FormatInt(id, 10)
}

func (s *SessionService) invalidate(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, sessionCacheKey(id)); err != nil {
		s.logger.Warn("failed to invalidate cached session",
			slog.Int64("session_id", id),
			slog.String("error", err.Error()),
		)
	}
}

// GetByID reads through the cache. Cache failures fall back to the store.
func (s *SessionService) GetByID(ctx context.Context, id int64) (*domain.Session, error) {
	key := sessionCacheKey(id)
	if s.cache != nil {
		cached, ok, err := cache.GetJSON[domain.Session](ctx, s.cache, key)
		switch {
		case err != nil:
			metrics.ObserveCacheLookup("error")
			s.logger.Debug("session cache lookup failed", slog.String("error", err.Error()))
		case ok:
			metrics.ObserveCacheLookup("hit")
			return cached, nil
		default:
			metrics.ObserveCacheLookup("miss")
		}
	}

	session, err := s.store.Sessions().GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, domain.ErrSessionNotFound)
	}

	if s.cache != nil {
		if err := cache.SetJSON(ctx, s.cache, key, session, s.cfg.CacheTTL); err != nil {
			s.logger.Debug("failed to cache session", slog.String("error", err.Error()))
		}
	}
	return session, nil
}

func (s *SessionService) GetByStartDate(ctx context.Context, start time.Time) (*domain.Session, error) {
	session, err := s.store.Sessions().GetByStartDate(ctx, start.UTC())
	if err != nil {
		return nil, notFound(err, domain.ErrSessionNotFound)
	}
	return session, nil
}

func (s *SessionService) GetByEndDate(ctx context.Context, end time.Time) (*domain.Session, error) {
	session, err := s.store.Sessions().GetByEndDate(ctx, end.UTC())
	if err != nil {
		return nil, notFound(err, domain.ErrSessionNotFound)
	}
	return session, nil
}

func (s *SessionService) GetByFormationAndTeacher(ctx context.Context, formationID, teacherID int64) (*domain.Session, error) {
	session, err := s.store.Sessions().GetByFormationAndTeacher(ctx, formationID, teacherID)
	if err != nil {
		return nil, notFound(err, domain.ErrSessionNotFound)
	}
	return session, nil
}

func (s *SessionService) List(ctx context.Context, page domain.Page) ([]*domain.Session, error) {
	return s.store.Sessions().List(ctx, page)
}

func (s *SessionService) ListByFormation(ctx context.Context, formationID int64) ([]*domain.Session, error) {
	return s.store.Sessions().ListByFormation(ctx, formationID)
}

func (s *SessionService) ListByTeacher(ctx context.Context, teacherID int64) ([]*domain.Session, error) {
	return s.store.Sessions().ListByTeacher(ctx, teacherID)
}

// SyncStatuses advances session statuses to match the clock. Cached
// sessions may show the previous status until their TTL expires.
func (s *SessionService) SyncStatuses(ctx context.Context) (int64, error) {
	n, err := s.store.Sessions().SyncStatuses(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to sync session statuses: %w", err)
	}
	return n, nil
}
