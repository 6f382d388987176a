package service

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aryan0dhankhar/formationhub/internal/domain"
	"github.com/aryan0dhankhar/formationhub/internal/observability/metrics"
	"github.com/aryan0dhankhar/formationhub/pkg/cache"
	"go.opentelemetry.io/otel/attribute"
)

const minTitleLength = 2

// FormationService manages the course catalogue
type FormationService struct {
	store  domain.Store
	cache  cache.Store
	ttl    time.Duration
	logger *slog.Logger
}

// NewFormationService creates a new formation service. cache may be nil.
func NewFormationService(store domain.Store, c cache.Store, ttl time.Duration, logger *slog.Logger) *FormationService {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &FormationService{store: store, cache: c, ttl: ttl, logger: logger}
}

// CreateFormationInput carries the fields of a new formation
type CreateFormationInput struct {
	Title         string
	Description   string
	DurationHours int
	Level         domain.Level
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if utf8.RuneCountInString(title) < minTitleLength {
		return "", domain.ErrInvalidRequest.WithMessage("title must have at least 2 characters.")
	}
	return title, nil
}

func validateDuration(hours int) error {
	if hours < 1 || hours > domain.MaxDurationHours {
		return domain.ErrInvalidRequest.WithMessage("duration_hours must be between 1 and 10000.")
	}
	return nil
}

func (s *FormationService) Create(ctx context.Context, in CreateFormationInput) (_ *domain.Formation, err error) {
	ctx, op := startOperation(ctx, "formation.create")
	defer func() { op.end(err) }()

	title, err := validateTitle(in.Title)
	if err != nil {
		return nil, err
	}
	if err := validateDuration(in.DurationHours); err != nil {
		return nil, err
	}
	if !in.Level.Valid() {
		return nil, domain.ErrInvalidRequest.WithMessage("Unknown level.")
	}

	formation := &domain.Formation{
		Title:         title,
		Description:   strings.TrimSpace(in.Description),
		DurationHours: in.DurationHours,
		Level:         in.Level,
	}
	err = s.store.WithTx(ctx, func(ctx context.Context, tx domain.Repositories) error {
		taken, err := exists(tx.Formations().GetByTitle(ctx, title))
		if err != nil {
			return err
		}
		if taken {
			return domain.ErrFormationTitleAlreadyUsed
		}
		return tx.Formations().Create(ctx, formation)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("formation created", slog.Int64("formation_id", formation.ID))
	return formation, nil
}

func formationCacheKey(id int64) string {
	return "formation:" + strconv.FormatInt(id, 10)
}

func (s *FormationService) GetByID(ctx context.Context, id int64) (*domain.Formation, error) {
	key := formationCacheKey(id)
	if s.cache != nil {
		cached, ok, err := cache.GetJSON[domain.Formation](ctx, s.cache, key)
		switch {
		case err != nil:
			metrics.ObserveCacheLookup("error")
		case ok:
			metrics.ObserveCacheLookup("hit")
			return cached, nil
		default:
			metrics.ObserveCacheLookup("miss")
		}
	}

	f, err := s.store.Formations().GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, domain.ErrFormationNotFound)
	}
	if s.cache != nil {
		if err := cache.SetJSON(ctx, s.cache, key, f, s.ttl); err != nil {
			s.logger.Debug("failed to cache formation", slog.String("error", err.Error()))
		}
	}
	return f, nil
}

func (s *FormationService) List(ctx context.Context, filter domain.FormationFilter) ([]*domain.Formation, error) {
	filter.Page = filter.Page.Normalize()
	filter.TitleContains = strings.TrimSpace(filter.TitleContains)
	if filter.Level != "" && !filter.Level.Valid() {
		return nil, domain.ErrInvalidRequest.WithMessage("Unknown level.")
	}
	return s.store.Formations().List(ctx, filter)
}

// Update applies the supplied fields; title uniqueness is re-checked only
// when the title actually changes
func (s *FormationService) Update(ctx context.Context, id int64, patch domain.FormationPatch) (_ *domain.Formation, err error) {
	ctx, op := startOperation(ctx, "formation.update", attribute.Int64("formation_id", id))
	defer func() { op.end(err) }()

	var formation *domain.Formation
	err = s.store.WithTx(ctx, func(ctx context.Context, tx domain.Repositories) error {
		current, err := tx.Formations().GetByID(ctx, id)
		if err != nil {
			return notFound(err, domain.ErrFormationNotFound)
		}
		next := *current

		if patch.Title != nil {
			title, err := validateTitle(*patch.Title)
			if err != nil {
				return err
			}
			if !strings.EqualFold(title, current.Title) {
				taken, err := exists(tx.Formations().GetByTitle(ctx, title))
				if err != nil {
					return err
				}
				if taken {
					return domain.ErrFormationTitleAlreadyUsed
				}
			}
			next.Title = title
		}
		if patch.Description != nil {
			next.Description = strings.TrimSpace(*patch.Description)
		}
		if patch.DurationHours != nil {
			if err := validateDuration(*patch.DurationHours); err != nil {
				return err
			}
			next.DurationHours = *patch.DurationHours
		}
		if patch.Level != nil {
			if !patch.Level.Valid() {
				return domain.ErrInvalidRequest.WithMessage("Unknown level.")
			}
			next.Level = *patch.Level
		}

		if err := tx.Formations().Update(ctx, &next); err != nil {
			return notFound(err, domain.ErrFormationNotFound)
		}
		formation = &next
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, id)
	return formation, nil
}

// Delete removes a formation that no session references
func (s *FormationService) Delete(ctx context.Context, id int64) (err error) {
	ctx, op := startOperation(ctx, "formation.delete", attribute.Int64("formation_id", id))
	defer func() { op.end(err) }()

	if err := s.store.Formations().Delete(ctx, id); err != nil {
		return notFound(err, domain.ErrFormationNotFound)
	}
	s.invalidate(ctx, id)
	s.logger.Info("formation deleted", slog.Int64("formation_id", id))
	return nil
}

func (s *FormationService) invalidate(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, formationCacheKey(id)); err != nil {
		s.logger.Warn("failed to invalidate cached formation",
			slog.Int64("formation_id", id),
			slog.String("error", err.Error()),
		)
	}
}
