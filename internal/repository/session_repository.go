package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aryan0dhankhar/formationhub/internal/domain"
)

const sessionColumns = `id, formation_id, teacher_id, start_date, end_date, capacity_max, status`

// PostgresSessionRepository implements domain.SessionRepository using PostgreSQL
type PostgresSessionRepository struct {
	db     DBTX
	logger *slog.Logger
}

// NewPostgresSessionRepository creates a new session repository
func NewPostgresSessionRepository(db DBTX, logger *slog.Logger) *PostgresSessionRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresSessionRepository{db: db, logger: logger}
}

func scanSession(row rowScanner) (*domain.Session, error) {
	s := &domain.Session{}
	var status string
	if err := row.Scan(&s.ID, &s.FormationID, &s.TeacherID, &s.StartDate, &s.EndDate, &s.CapacityMax, &status); err != nil {
		return nil, err
	}
	s.StartDate = s.StartDate.UTC()
	s.EndDate = s.EndDate.UTC()
	s.Status = domain.SessionStatus(status)
	return s, nil
}

func (r *PostgresSessionRepository) getOne(ctx context.Context, op, query string, args ...any) (*domain.Session, error) {
	s, err := scanSession(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	return s, nil
}

func (r *PostgresSessionRepository) list(ctx context.Context, op, query string, args ...any) ([]*domain.Session, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("session query failed", slog.String("operation", op), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	defer rows.Close()

	sessions := []*domain.Session{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func (r *PostgresSessionRepository) Create(ctx context.Context, s *domain.Session) error {
	query := `
		INSERT INTO sessions (formation_id, teacher_id, start_date, end_date, capacity_max, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		s.FormationID, s.TeacherID, s.StartDate, s.EndDate, s.CapacityMax, string(s.Status),
	).Scan(&s.ID)
	if err != nil {
		return wrapError("create session", err)
	}
	return nil
}

func (r *PostgresSessionRepository) GetByID(ctx context.Context, id int64) (*domain.Session, error) {
	return r.getOne(ctx, "get session", `SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id)
}

func (r *PostgresSessionRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Session, error) {
	return r.getOne(ctx, "lock session", `SELECT `+sessionColumns+` FROM sessions WHERE id = $1 FOR UPDATE`, id)
}

func (r *PostgresSessionRepository) GetByStartDate(ctx context.Context, start time.Time) (*domain.Session, error) {
	return r.getOne(ctx, "get session by start date", `SELECT `+sessionColumns+` FROM sessions WHERE start_date = $1`, start)
}

func (r *PostgresSessionRepository) GetByEndDate(ctx context.Context, end time.Time) (*domain.Session, error) {
	return r.getOne(ctx, "get session by end date", `SELECT `+sessionColumns+` FROM sessions WHERE end_date = $1`, end)
}

// GetByFormationAndTeacher returns the earliest session matching both ids
func (r *PostgresSessionRepository) GetByFormationAndTeacher(ctx context.Context, formationID, teacherID int64) (*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE formation_id = $1 AND teacher_id = $2 ORDER BY id LIMIT 1`
	return r.getOne(ctx, "get session by formation and teacher", query, formationID, teacherID)
}

func (r *PostgresSessionRepository) List(ctx context.Context, page domain.Page) ([]*domain.Session, error) {
	page = page.Normalize()
	query := `SELECT ` + sessionColumns + ` FROM sessions ORDER BY id LIMIT $1 OFFSET $2`
	return r.list(ctx, "list sessions", query, page.Limit, page.Offset)
}

func (r *PostgresSessionRepository) ListByFormation(ctx context.Context, formationID int64) ([]*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE formation_id = $1 ORDER BY id`
	return r.list(ctx, "list sessions by formation", query, formationID)
}

func (r *PostgresSessionRepository) ListByTeacher(ctx context.Context, teacherID int64) ([]*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE teacher_id = $1 ORDER BY id`
	return r.list(ctx, "list sessions by teacher", query, teacherID)
}

func (r *PostgresSessionRepository) Update(ctx context.Context, s *domain.Session) error {
	query := `
		UPDATE sessions
		SET formation_id = $1, teacher_id = $2, start_date = $3, end_date = $4, capacity_max = $5, status = $6
		WHERE id = $7
	`

	res, err := r.db.ExecContext(ctx, query,
		s.FormationID, s.TeacherID, s.StartDate, s.EndDate, s.CapacityMax, string(s.Status), s.ID,
	)
	if err != nil {
		return wrapError("update session", err)
	}
	return checkAffected(res, domain.ErrNotFound)
}

// Delete removes a session; enrollments, signatures, groups and briefs cascade
func (r *PostgresSessionRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return wrapDeleteError("delete session", err)
	}
	return checkAffected(res, domain.ErrNotFound)
}

// SyncStatuses only moves sessions forward: scheduled to ongoing to completed
func (r *PostgresSessionRepository) SyncStatuses(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE sessions
		SET status = CASE WHEN end_date <= $1 THEN 'completed' ELSE 'ongoing' END
		WHERE (status <> 'completed' AND end_date <= $1)
		   OR (status = 'scheduled' AND start_date <= $1 AND end_date > $1)
	`

	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to sync session statuses: %w", err)
	}
	return res.RowsAffected()
}
