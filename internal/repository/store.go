package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/aryan0dhankhar/formationhub/internal/domain"
	"github.com/aryan0dhankhar/formationhub/internal/migrations"
	"github.com/aryan0dhankhar/formationhub/internal/reliability/retry"
	"github.com/pressly/goose/v3"
)

// PostgresStore implements domain.Store on PostgreSQL
type PostgresStore struct {
	db      *sql.DB
	logger  *slog.Logger
	retry   *retry.Config
	repos   *repositories
	txLevel sql.IsolationLevel
}

// NewPostgresStore creates a store over db. Transactions run at serializable
// isolation and are replayed up to maxTxAttempts times on serialization
// failures and deadlocks.
func NewPostgresStore(db *sql.DB, maxTxAttempts int, logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresStore{
		db:      db,
		logger:  logger,
		retry:   retry.TxConfig(maxTxAttempts, IsRetryable),
		repos:   newRepositories(db, logger),
		txLevel: sql.LevelSerializable,
	}
}

type repositories struct {
	users       *PostgresUserRepository
	formations  *PostgresFormationRepository
	sessions    *PostgresSessionRepository
	enrollments *PostgresEnrollmentRepository
	signatures  *PostgresSignatureRepository
	groups      *PostgresGroupRepository
	briefs      *PostgresBriefRepository
}

func newRepositories(db DBTX, logger *slog.Logger) *repositories {
	return &repositories{
		users:       NewPostgresUserRepository(db, logger),
		formations:  NewPostgresFormationRepository(db, logger),
		sessions:    NewPostgresSessionRepository(db, logger),
		enrollments: NewPostgresEnrollmentRepository(db, logger),
		signatures:  NewPostgresSignatureRepository(db, logger),
		groups:      NewPostgresGroupRepository(db, logger),
		briefs:      NewPostgresBriefRepository(db, logger),
	}
}

func (r *repositories) Users() domain.UserRepository             { return r.users }
func (r *repositories) Formations() domain.FormationRepository   { return r.formations }
func (r *repositories) Sessions() domain.SessionRepository       { return r.sessions }
func (r *repositories) Enrollments() domain.EnrollmentRepository { return r.enrollments }
func (r *repositories) Signatures() domain.SignatureRepository   { return r.signatures }
func (r *repositories) Groups() domain.GroupRepository           { return r.groups }
func (r *repositories) Briefs() domain.BriefRepository           { return r.briefs }

func (s *PostgresStore) Users() domain.UserRepository             { return s.repos.users }
func (s *PostgresStore) Formations() domain.FormationRepository   { return s.repos.formations }
func (s *PostgresStore) Sessions() domain.SessionRepository       { return s.repos.sessions }
func (s *PostgresStore) Enrollments() domain.EnrollmentRepository { return s.repos.enrollments }
func (s *PostgresStore) Signatures() domain.SignatureRepository   { return s.repos.signatures }
func (s *PostgresStore) Groups() domain.GroupRepository           { return s.repos.groups }
func (s *PostgresStore) Briefs() domain.BriefRepository           { return s.repos.briefs }

// WithTx runs fn in a serializable transaction, replaying it while the
// database aborts it for serialization reasons
func (s *PostgresStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx domain.Repositories) error) error {
	_, err := retry.Do(ctx, s.retry, s.logger, "store transaction", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, withTx(ctx, s.db, &sql.TxOptions{Isolation: s.txLevel}, func(ctx context.Context, tx DBTX) error {
			return fn(ctx, newRepositories(tx, s.logger))
		})
	})
	if err != nil {
		return translateError(err)
	}
	return nil
}

// Ping checks database connectivity
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the connection pool
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// RunMigrations applies every pending embedded migration
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}

// RollbackMigration reverts the most recent migration
func RollbackMigration(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}

	if err := goose.DownContext(ctx, db, "."); err != nil {
		return fmt.Errorf("failed to roll back migration: %w", err)
	}

	return nil
}

// MigrationStatus logs the applied state of every migration
func MigrationStatus(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}

	return goose.StatusContext(ctx, db, ".")
}
