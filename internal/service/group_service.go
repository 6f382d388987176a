package service

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/aryan0dhankhar/formationhub/internal/domain"
	"go.opentelemetry.io/otel/attribute"
)

// GroupService manages cohorts inside a session
type GroupService struct {
	store  domain.Store
	logger *slog.Logger
}

// NewGroupService creates a new group service
func NewGroupService(store domain.Store, logger *slog.Logger) *GroupService {
	if logger == nil {
		logger = slog.Default()
	}
	return &GroupService{store: store, logger: logger}
}

// dedupeIDs returns the sorted distinct ids; nil stays nil
func dedupeIDs(ids []int64) []int64 {
	if ids == nil {
		return nil
	}
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}

func validateGroupName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domain.ErrInvalidRequest.WithMessage("name is required.")
	}
	return name, nil
}

func (s *GroupService) Create(ctx context.Context, sessionID int64, name string, studentIDs []int64) (_ *domain.Group, err error) {
	ctx, op := startOperation(ctx, "group.create", attribute.Int64("session_id", sessionID))
	defer func() { op.end(err) }()

	name, err = validateGroupName(name)
	if err != nil {
		return nil, err
	}

	group := &domain.Group{SessionID: sessionID, Name: name, StudentIDs: dedupeIDs(studentIDs)}
	err = s.store.WithTx(ctx, func(ctx context.Context, tx domain.Repositories) error {
		if _, err := tx.Sessions().GetByID(ctx, sessionID); err != nil {
			return notFound(err, domain.ErrSessionNotFound)
		}
		return tx.Groups().Create(ctx, group)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("group created",
		slog.Int64("group_id", group.ID),
		slog.Int64("session_id", sessionID),
		slog.Int("members", len(group.StudentIDs)),
	)
	return group, nil
}

func (s *GroupService) GetByID(ctx context.Context, id int64) (*domain.Group, error) {
	g, err := s.store.Groups().GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, domain.ErrGroupNotFound)
	}
	return g, nil
}

func (s *GroupService) ListBySession(ctx context.Context, sessionID int64) ([]*domain.Group, error) {
	return s.store.Groups().ListBySession(ctx, sessionID)
}

// Update renames the group and, when studentIDs is non-nil, replaces its members
func (s *GroupService) Update(ctx context.Context, id int64, name *string, studentIDs []int64) (_ *domain.Group, err error) {
	ctx, op := startOperation(ctx, "group.update", attribute.Int64("group_id", id))
	defer func() { op.end(err) }()

	var group *domain.Group
	err = s.store.WithTx(ctx, func(ctx context.Context, tx domain.Repositories) error {
		current, err := tx.Groups().GetByID(ctx, id)
		if err != nil {
			return notFound(err, domain.ErrGroupNotFound)
		}
		if name != nil {
			n, err := validateGroupName(*name)
			if err != nil {
				return err
			}
			current.Name = n
		}
		replace := studentIDs != nil
		if replace {
			current.StudentIDs = dedupeIDs(studentIDs)
		}
		if err := tx.Groups().Update(ctx, current, replace); err != nil {
			return notFound(err, domain.ErrGroupNotFound)
		}
		group = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return group, nil
}

func (s *GroupService) Delete(ctx context.Context, id int64) (err error) {
	ctx, op := startOperation(ctx, "group.delete", attribute.Int64("group_id", id))
	defer func() { op.end(err) }()

	if err := s.store.Groups().Delete(ctx, id); err != nil {
		return notFound(err, domain.ErrGroupNotFound)
	}
	s.logger.Info("group deleted", slog.Int64("group_id", id))
	return nil
}
