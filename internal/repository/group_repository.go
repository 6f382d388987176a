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

const groupSelect = `
	SELECT g.id, g.session_id, g.name,
	       COALESCE(array_agg(m.student_id ORDER BY m.student_id) FILTER (WHERE m.student_id IS NOT NULL), '{}')
	FROM groups g
	LEFT JOIN group_members m ON m.group_id = g.id
`

// PostgresGroupRepository implements domain.GroupRepository using PostgreSQL
type PostgresGroupRepository struct {
	db     DBTX
	logger *slog.Logger
}

// NewPostgresGroupRepository creates a new group repository
func NewPostgresGroupRepository(db DBTX, logger *slog.Logger) *PostgresGroupRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresGroupRepository{db: db, logger: logger}
}

func scanGroup(row rowScanner) (*domain.Group, error) {
	g := &domain.Group{}
	if err := row.Scan(&g.ID, &g.SessionID, &g.Name, pq.Array(&g.StudentIDs)); err != nil {
		return nil, err
	}
	if g.StudentIDs == nil {
		g.StudentIDs = []int64{}
	}
	return g, nil
}

func (r *PostgresGroupRepository) insertMembers(ctx context.Context, groupID int64, studentIDs []int64) error {
	if len(studentIDs) == 0 {
		return nil
	}
	query := `INSERT INTO group_members (group_id, student_id) SELECT $1, unnest($2::bigint[])`
	if _, err := r.db.ExecContext(ctx, query, groupID, pq.Array(studentIDs)); err != nil {
		return wrapError("add group members", err)
	}
	return nil
}

// Create inserts the group and its members. Callers run it inside a
// transaction so a failing member insert leaves no partial group.
func (r *PostgresGroupRepository) Create(ctx context.Context, g *domain.Group) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO groups (session_id, name) VALUES ($1, $2) RETURNING id`,
		g.SessionID, g.Name,
	).Scan(&g.ID)
	if err != nil {
		return wrapError("create group", err)
	}
	return r.insertMembers(ctx, g.ID, g.StudentIDs)
}

func (r *PostgresGroupRepository) GetByID(ctx context.Context, id int64) (*domain.Group, error) {
	g, err := scanGroup(r.db.QueryRowContext(ctx, groupSelect+` WHERE g.id = $1 GROUP BY g.id`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return g, nil
}

func (r *PostgresGroupRepository) ListBySession(ctx context.Context, sessionID int64) ([]*domain.Group, error) {
	rows, err := r.db.QueryContext(ctx, groupSelect+` WHERE g.session_id = $1 GROUP BY g.id ORDER BY g.id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	groups := []*domain.Group{}
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (r *PostgresGroupRepository) Update(ctx context.Context, g *domain.Group, replaceMembers bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE groups SET name = $1 WHERE id = $2`, g.Name, g.ID)
	if err != nil {
		return wrapError("update group", err)
	}
	if err := checkAffected(res, domain.ErrNotFound); err != nil {
		return err
	}
	if !replaceMembers {
		return nil
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM group_members WHERE group_id = $1`, g.ID); err != nil {
		return fmt.Errorf("failed to clear group members: %w", err)
	}
	return r.insertMembers(ctx, g.ID, g.StudentIDs)
}

func (r *PostgresGroupRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM groups WHERE id = $1`, id)
	if err != nil {
		return wrapDeleteError("delete group", err)
	}
	return checkAffected(res, domain.ErrNotFound)
}
