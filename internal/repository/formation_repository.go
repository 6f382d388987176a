package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aryan0dhankhar/formationhub/internal/domain"
)

const formationColumns = `id, title, description, duration_hours, level, created_at, updated_at`

// PostgresFormationRepository implements domain.FormationRepository using PostgreSQL
type PostgresFormationRepository struct {
	db     DBTX
	logger *slog.Logger
}

// NewPostgresFormationRepository creates a new formation repository
func NewPostgresFormationRepository(db DBTX, logger *slog.Logger) *PostgresFormationRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresFormationRepository{db: db, logger: logger}
}

func scanFormation(row rowScanner) (*domain.Formation, error) {
	f := &domain.Formation{}
	var level string
	if err := row.Scan(&f.ID, &f.Title, &f.Description, &f.DurationHours, &level, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, err
	}
	f.Level = domain.Level(level)
	return f, nil
}

func (r *PostgresFormationRepository) Create(ctx context.Context, f *domain.Formation) error {
	query := `
		INSERT INTO formations (title, description, duration_hours, level)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query, f.Title, f.Description, f.DurationHours, string(f.Level)).
		Scan(&f.ID, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		r.logger.Error("failed to create formation",
			slog.String("title", f.Title),
			slog.String("error", err.Error()),
		)
		return wrapError("create formation", err)
	}
	return nil
}

func (r *PostgresFormationRepository) GetByID(ctx context.Context, id int64) (*domain.Formation, error) {
	query := `SELECT ` + formationColumns + ` FROM formations WHERE id = $1`

	f, err := scanFormation(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get formation: %w", err)
	}
	return f, nil
}

func (r *PostgresFormationRepository) GetByTitle(ctx context.Context, title string) (*domain.Formation, error) {
	query := `SELECT ` + formationColumns + ` FROM formations WHERE lower(title) = lower($1)`

	f, err := scanFormation(r.db.QueryRowContext(ctx, query, title))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get formation by title: %w", err)
	}
	return f, nil
}

// List applies the optional level and title filters, then paginates by id
func (r *PostgresFormationRepository) List(ctx context.Context, filter domain.FormationFilter) ([]*domain.Formation, error) {
	page := filter.Page.Normalize()

	var (
		conds []string
		args  []any
	)
	if filter.Level != "" {
		args = append(args, string(filter.Level))
		conds = append(conds, fmt.Sprintf("level = $%d", len(args)))
	}
	if filter.TitleContains != "" {
		args = append(args, "%"+escapeLike(filter.TitleContains)+"%")
		conds = append(conds, fmt.Sprintf("title ILIKE $%d", len(args)))
	}

	query := `SELECT ` + formationColumns + ` FROM formations`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	args = append(args, page.Limit, page.Offset)
	query += fmt.Sprintf(` ORDER BY id LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list formations: %w", err)
	}
	defer rows.Close()

	formations := []*domain.Formation{}
	for rows.Next() {
		f, err := scanFormation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan formation: %w", err)
		}
		formations = append(formations, f)
	}
	return formations, rows.Err()
}

func (r *PostgresFormationRepository) Update(ctx context.Context, f *domain.Formation) error {
	query := `
		UPDATE formations
		SET title = $1, description = $2, duration_hours = $3, level = $4, updated_at = now()
		WHERE id = $5
		RETURNING updated_at
	`

	err := r.db.QueryRowContext(ctx, query, f.Title, f.Description, f.DurationHours, string(f.Level), f.ID).
		Scan(&f.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return wrapError("update formation", err)
	}
	return nil
}

func (r *PostgresFormationRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM formations WHERE id = $1`, id)
	if err != nil {
		return wrapDeleteError("delete formation", err)
	}
	return checkAffected(res, domain.ErrNotFound)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
