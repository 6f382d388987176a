package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/aryan0dhankhar/formationhub/internal/domain"
	"go.opentelemetry.io/otel/attribute"
)

// BriefService manages assignments
type BriefService struct {
	store  domain.Store
	logger *slog.Logger
}

// NewBriefService creates a new brief service
func NewBriefService(store domain.Store, logger *slog.Logger) *BriefService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BriefService{store: store, logger: logger}
}

// CreateBriefInput carries the fields of a new brief. When GroupID is set
// the group's members are assigned and StudentIDs is ignored.
type CreateBriefInput struct {
	Title            string
	Description      string
	DeliveryDeadline time.Time
	Order            int
	SessionID        int64
	StudentIDs       []int64
	GroupID          *int64
}

// resolveStudents picks the assignees: a group wins over an explicit list
func resolveStudents(ctx context.Context, tx domain.Repositories, groupID *int64, studentIDs []int64) ([]int64, error) {
	if groupID != nil {
		g, err := tx.Groups().GetByID(ctx, *groupID)
		if err != nil {
			return nil, notFound(err, domain.ErrGroupNotFound)
		}
		return dedupeIDs(g.StudentIDs), nil
	}
	return dedupeIDs(studentIDs), nil
}

func (s *BriefService) Create(ctx context.Context, in CreateBriefInput) (_ *domain.Brief, err error) {
	ctx, op := startOperation(ctx, "brief.create", attribute.Int64("session_id", in.SessionID))
	defer func() { op.end(err) }()

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, domain.ErrInvalidRequest.WithMessage("title is required.")
	}

	brief := &domain.Brief{
		Title:            title,
		Description:      in.Description,
		DeliveryDeadline: in.DeliveryDeadline.UTC(),
		Order:            in.Order,
		SessionID:        in.SessionID,
	}
	err = s.store.WithTx(ctx, func(ctx context.Context, tx domain.Repositories) error {
		if _, err := tx.Sessions().GetByID(ctx, in.SessionID); err != nil {
			return notFound(err, domain.ErrSessionNotFound)
		}
		students, err := resolveStudents(ctx, tx, in.GroupID, in.StudentIDs)
		if err != nil {
			return err
		}
		brief.StudentIDs = students
		return tx.Briefs().Create(ctx, brief)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("brief created",
		slog.Int64("brief_id", brief.ID),
		slog.Int64("session_id", brief.SessionID),
		slog.Int("students", len(brief.StudentIDs)),
	)
	return brief, nil
}

func (s *BriefService) GetByID(ctx context.Context, id int64) (*domain.Brief, error) {
	b, err := s.store.Briefs().GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, domain.ErrBriefNotFound)
	}
	return b, nil
}

func (s *BriefService) List(ctx context.Context, page domain.Page) ([]*domain.Brief, error) {
	return s.store.Briefs().List(ctx, page.Normalize())
}

func (s *BriefService) ListBySession(ctx context.Context, sessionID int64) ([]*domain.Brief, error) {
	return s.store.Briefs().ListBySession(ctx, sessionID)
}

func (s *BriefService) ListByStudent(ctx context.Context, studentID int64) ([]*domain.Brief, error) {
	return s.store.Briefs().ListByStudent(ctx, studentID)
}

// Update applies the supplied fields. An explicit student list wins over a
// group; with neither the assignees are left unchanged.
func (s *BriefService) Update(ctx context.Context, id int64, patch domain.BriefPatch) (_ *domain.Brief, err error) {
	ctx, op := startOperation(ctx, "brief.update", attribute.Int64("brief_id", id))
	defer func() { op.end(err) }()

	var brief *domain.Brief
	err = s.store.WithTx(ctx, func(ctx context.Context, tx domain.Repositories) error {
		current, err := tx.Briefs().GetByID(ctx, id)
		if err != nil {
			return notFound(err, domain.ErrBriefNotFound)
		}
		next := *current

		if patch.Title != nil {
			title := strings.TrimSpace(*patch.Title)
			if title == "" {
				return domain.ErrInvalidRequest.WithMessage("title is required.")
			}
			next.Title = title
		}
		if patch.Description != nil {
			next.Description = *patch.Description
		}
		if patch.DeliveryDeadline != nil {
			next.DeliveryDeadline = patch.DeliveryDeadline.UTC()
		}
		if patch.Order != nil {
			next.Order = *patch.Order
		}
		if patch.SessionID != nil {
			if _, err := tx.Sessions().GetByID(ctx, *patch.SessionID); err != nil {
				return notFound(err, domain.ErrSessionNotFound)
			}
			next.SessionID = *patch.SessionID
		}

		replace := false
		switch {
		case patch.StudentIDs != nil:
			next.StudentIDs = dedupeIDs(patch.StudentIDs)
			replace = true
		case patch.GroupID != nil:
			if next.StudentIDs, err = resolveStudents(ctx, tx, patch.GroupID, nil); err != nil {
				return err
			}
			replace = true
		}

		if err := tx.Briefs().Update(ctx, &next, replace); err != nil {
			return notFound(err, domain.ErrBriefNotFound)
		}
		brief = &next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return brief, nil
}

func (s *BriefService) Delete(ctx context.Context, id int64) (err error) {
	ctx, op := startOperation(ctx, "brief.delete", attribute.Int64("brief_id", id))
	defer func() { op.end(err) }()

	if err := s.store.Briefs().Delete(ctx, id); err != nil {
		return notFound(err, domain.ErrBriefNotFound)
	}
	s.logger.Info("brief deleted", slog.Int64("brief_id", id))
	return nil
}
