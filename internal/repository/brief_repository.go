package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aryan0dhankhar/formationhub/internal/domain"
	"github.com/lib/pq"
)

const briefSelect = `
	SELECT b.id, b.title, b.description, b.delivery_deadline, b."order", b.session_id, b.created_at, b.updated_at,
	       COALESCE(array_agg(s.student_id ORDER BY s.student_id) FILTER (WHERE s.student_id IS NOT NULL), '{}')
	FROM briefs b
	LEFT JOIN brief_students s ON s.brief_id = b.id
`

// PostgresBriefRepository implements domain.BriefRepository using PostgreSQL
type PostgresBriefRepository struct {
	db     DBTX
	logger *slog.Logger
}

// NewPostgresBriefRepository creates a new brief repository
func NewPostgresBriefRepository(db DBTX, logger *slog.Logger) *PostgresBriefRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresBriefRepository{db: db, logger: logger}
}

func scanBrief(row rowScanner) (*domain.Brief, error) {
	b := &domain.Brief{}
	err := row.Scan(
		&b.ID, &b.Title, &b.Description, &b.DeliveryDeadline, &b.Order, &b.SessionID,
		&b.CreatedAt, &b.UpdatedAt, pq.Array(&b.StudentIDs),
	)
	if err != nil {
		return nil, err
	}
	b.DeliveryDeadline = b.DeliveryDeadline.UTC()
	if b.StudentIDs == nil {
		b.StudentIDs = []int64{}
	}
	return b, nil
}

func (r *PostgresBriefRepository) list(ctx context.Context, op, query string, args ...any) ([]*domain.Brief, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	defer rows.Close()

	briefs := []*domain.Brief{}
	for rows.Next() {
		b, err := scanBrief(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan brief: %w", err)
		}
		briefs = append(briefs, b)
	}
	return briefs, rows.Err()
}

func (r *PostgresBriefRepository) insertStudents(ctx context.Context, briefID int64, studentIDs []int64) error {
	if len(studentIDs) == 0 {
		return nil
	}
	query := `INSERT INTO brief_students (brief_id, student_id) SELECT $1, unnest($2::bigint[])`
	if _, err := r.db.ExecContext(ctx, query, briefID, pq.Array(studentIDs)); err != nil {
		return wrapError("assign brief students", err)
	}
	return nil
}

func (r *PostgresBriefRepository) Create(ctx context.Context, b *domain.Brief) error {
	query := `
		INSERT INTO briefs (title, description, delivery_deadline, "order", session_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query, b.Title, b.Description, b.DeliveryDeadline, b.Order, b.SessionID).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return wrapError("create brief", err)
	}
	return r.insertStudents(ctx, b.ID, b.StudentIDs)
}

func (r *PostgresBriefRepository) GetByID(ctx context.Context, id int64) (*domain.Brief, error) {
	b, err := scanBrief(r.db.QueryRowContext(ctx, briefSelect+` WHERE b.id = $1 GROUP BY b.id`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get brief: %w", err)
	}
	return b, nil
}

func (r *PostgresBriefRepository) List(ctx context.Context, page domain.Page) ([]*domain.Brief, error) {
	page = page.Normalize()
	return r.list(ctx, "list briefs", briefSelect+` GROUP BY b.id ORDER BY b.id LIMIT $1 OFFSET $2`, page.Limit, page.Offset)
}

func (r *PostgresBriefRepository) ListBySession(ctx context.Context, sessionID int64) ([]*domain.Brief, error) {
	query := briefSelect + ` WHERE b.session_id = $1 GROUP BY b.id ORDER BY b."order", b.id`
	return r.list(ctx, "list briefs by session", query, sessionID)
}

func (r *PostgresBriefRepository) ListByStudent(ctx context.Context, studentID int64) ([]*domain.Brief, error) {
	query := briefSelect + `
		WHERE b.id IN (SELECT brief_id FROM brief_students WHERE student_id = $1)
		GROUP BY b.id ORDER BY b.delivery_deadline, b.id`
	return r.list(ctx, "list briefs by student", query, studentID)
}

func (r *PostgresBriefRepository) Update(ctx context.Context, b *domain.Brief, replaceStudents bool) error {
	query := `
		UPDATE briefs
		SET title = $1, description = $2, delivery_deadline = $3, "order" = $4, session_id = $5, updated_at = now()
		WHERE id = $6
		RETURNING updated_at
	`

	err := r.db.QueryRowContext(ctx, query, b.Title, b.Description, b.DeliveryDeadline, b.Order, b.SessionID, b.ID).
		Scan(&b.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return wrapError("update brief", err)
	}
	if !replaceStudents {
		return nil
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM brief_students WHERE brief_id = $1`, b.ID); err != nil {
		return fmt.Errorf("failed to clear brief students: %w", err)
	}
	return r.insertStudents(ctx, b.ID, b.StudentIDs)
}

func (r *PostgresBriefRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM briefs WHERE id = $1`, id)
	if err != nil {
		return wrapDeleteError("delete brief", err)
	}
	return checkAffected(res, domain.ErrNotFound)
}
