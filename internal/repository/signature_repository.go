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

const signatureColumns = `id, session_id, user_id, date`

// PostgresSignatureRepository implements domain.SignatureRepository using PostgreSQL
type PostgresSignatureRepository struct {
	db     DBTX
	logger *slog.Logger
}

// NewPostgresSignatureRepository creates a new signature repository
func NewPostgresSignatureRepository(db DBTX, logger *slog.Logger) *PostgresSignatureRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresSignatureRepository{db: db, logger: logger}
}

func scanSignature(row rowScanner) (*domain.Signature, error) {
	s := &domain.Signature{}
	if err := row.Scan(&s.ID, &s.SessionID, &s.UserID, &s.Date); err != nil {
		return nil, err
	}
	s.Date = s.Date.UTC()
	return s, nil
}

func (r *PostgresSignatureRepository) list(ctx context.Context, op, query string, args ...any) ([]*domain.Signature, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	defer rows.Close()

	signatures := []*domain.Signature{}
	for rows.Next() {
		s, err := scanSignature(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan signature: %w", err)
		}
		signatures = append(signatures, s)
	}
	return signatures, rows.Err()
}

func (r *PostgresSignatureRepository) Create(ctx context.Context, s *domain.Signature) error {
	query := `
		INSERT INTO signatures (session_id, user_id, date)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	if err := r.db.QueryRowContext(ctx, query, s.SessionID, s.UserID, s.Date).Scan(&s.ID); err != nil {
		return wrapError("create signature", err)
	}
	return nil
}

func (r *PostgresSignatureRepository) GetByID(ctx context.Context, id int64) (*domain.Signature, error) {
	s, err := scanSignature(r.db.QueryRowContext(ctx, `SELECT `+signatureColumns+` FROM signatures WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get signature: %w", err)
	}
	return s, nil
}

func (r *PostgresSignatureRepository) Exists(ctx context.Context, sessionID, userID int64, day time.Time) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM signatures WHERE session_id = $1 AND user_id = $2 AND date = $3)`
	if err := r.db.QueryRowContext(ctx, query, sessionID, userID, day).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check signature: %w", err)
	}
	return exists, nil
}

func (r *PostgresSignatureRepository) ListBySessionAndDate(ctx context.Context, sessionID int64, day time.Time) ([]*domain.Signature, error) {
	query := `SELECT ` + signatureColumns + ` FROM signatures WHERE session_id = $1 AND date = $2 ORDER BY id`
	return r.list(ctx, "list signatures by session and date", query, sessionID, day)
}

func (r *PostgresSignatureRepository) ListBySessionAndUser(ctx context.Context, sessionID, userID int64) ([]*domain.Signature, error) {
	query := `SELECT ` + signatureColumns + ` FROM signatures WHERE session_id = $1 AND user_id = $2 ORDER BY date`
	return r.list(ctx, "list signatures by session and user", query, sessionID, userID)
}

func (r *PostgresSignatureRepository) CountOutsideDays(ctx context.Context, sessionID int64, first, last time.Time) (int, error) {
	var n int
	query := `SELECT count(*) FROM signatures WHERE session_id = $1 AND (date < $2 OR date > $3)`
	if err := r.db.QueryRowContext(ctx, query, sessionID, first, last).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count signatures outside session days: %w", err)
	}
	return n, nil
}

func (r *PostgresSignatureRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM signatures WHERE id = $1`, id)
	if err != nil {
		return wrapDeleteError("delete signature", err)
	}
	return checkAffected(res, domain.ErrNotFound)
}
