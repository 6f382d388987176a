package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aryan0dhankhar/formationhub/internal/domain"
)

const enrollmentColumns = `id, session_id, student_id, enrolled_at`

// PostgresEnrollmentRepository implements domain.EnrollmentRepository using PostgreSQL
type PostgresEnrollmentRepository struct {
	db     DBTX
	logger *slog.Logger
}

// NewPostgresEnrollmentRepository creates a new enrollment repository
func NewPostgresEnrollmentRepository(db DBTX, logger *slog.Logger) *PostgresEnrollmentRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresEnrollmentRepository{db: db, logger: logger}
}

func scanEnrollment(row rowScanner) (*domain.Enrollment, error) {
	e := &domain.Enrollment{}
	if err := row.Scan(&e.ID, &e.SessionID, &e.StudentID, &e.EnrolledAt); err != nil {
		return nil, err
	}
	return e, nil
}

func (r *PostgresEnrollmentRepository) getOne(ctx context.Context, op, query string, args ...any) (*domain.Enrollment, error) {
	e, err := scanEnrollment(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	return e, nil
}

func (r *PostgresEnrollmentRepository) list(ctx context.Context, op, query string, args ...any) ([]*domain.Enrollment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	defer rows.Close()

	enrollments := []*domain.Enrollment{}
	for rows.Next() {
		e, err := scanEnrollment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan enrollment: %w", err)
		}
		enrollments = append(enrollments, e)
	}
	return enrollments, rows.Err()
}

func (r *PostgresEnrollmentRepository) Create(ctx context.Context, e *domain.Enrollment) error {
	query := `
		INSERT INTO enrollments (session_id, student_id, enrolled_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	if err := r.db.QueryRowContext(ctx, query, e.SessionID, e.StudentID, e.EnrolledAt).Scan(&e.ID); err != nil {
		r.logger.Error("failed to create enrollment",
			slog.Int64("session_id", e.SessionID),
			slog.Int64("student_id", e.StudentID),
			slog.String("error", err.Error()),
		)
		return wrapError("create enrollment", err)
	}
	return nil
}

func (r *PostgresEnrollmentRepository) GetByID(ctx context.Context, id int64) (*domain.Enrollment, error) {
	return r.getOne(ctx, "get enrollment", `SELECT `+enrollmentColumns+` FROM enrollments WHERE id = $1`, id)
}

func (r *PostgresEnrollmentRepository) GetBySessionAndStudent(ctx context.Context, sessionID, studentID int64) (*domain.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE session_id = $1 AND student_id = $2`
	return r.getOne(ctx, "get enrollment by session and student", query, sessionID, studentID)
}

func (r *PostgresEnrollmentRepository) CountBySession(ctx context.Context, sessionID int64) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM enrollments WHERE session_id = $1`, sessionID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count enrollments: %w", err)
	}
	return n, nil
}

func (r *PostgresEnrollmentRepository) List(ctx context.Context, page domain.Page) ([]*domain.Enrollment, error) {
	page = page.Normalize()
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments ORDER BY id LIMIT $1 OFFSET $2`
	return r.list(ctx, "list enrollments", query, page.Limit, page.Offset)
}

func (r *PostgresEnrollmentRepository) ListBySession(ctx context.Context, sessionID int64) ([]*domain.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE session_id = $1 ORDER BY id`
	return r.list(ctx, "list enrollments by session", query, sessionID)
}

func (r *PostgresEnrollmentRepository) ListByStudent(ctx context.Context, studentID int64) ([]*domain.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE student_id = $1 ORDER BY id`
	return r.list(ctx, "list enrollments by student", query, studentID)
}

func (r *PostgresEnrollmentRepository) Update(ctx context.Context, e *domain.Enrollment) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE enrollments SET session_id = $1, student_id = $2 WHERE id = $3`,
		e.SessionID, e.StudentID, e.ID,
	)
	if err != nil {
		return wrapDeleteError("update enrollment", err)
	}
	return checkAffected(res, domain.ErrNotFound)
}

func (r *PostgresEnrollmentRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM enrollments WHERE id = $1`, id)
	if err != nil {
		return wrapDeleteError("delete enrollment", err)
	}
	return checkAffected(res, domain.ErrNotFound)
}
