// Command admin runs database migrations and bootstraps administrator accounts.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/aryan0dhankhar/formationhub/internal/domain"
	"github.com/aryan0dhankhar/formationhub/internal/infrastructure/logger"
	"github.com/aryan0dhankhar/formationhub/internal/repository"
	"github.com/aryan0dhankhar/formationhub/internal/service"
	"github.com/aryan0dhankhar/formationhub/pkg/config"
	"github.com/aryan0dhankhar/formationhub/pkg/database"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "formationhub-admin",
		Short:         "Administrative tasks for the formationhub backend",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newMigrateCmd(), newCreateAdminCmd())
	return root
}

// withDB opens the configured database for the duration of fn
func withDB(ctx context.Context, fn func(cfg *config.Config, db *sql.DB) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}

	pool, err := database.NewConnectionPool(ctx, &database.Config{
		URL:             cfg.DatabaseURL,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	}, logger.NewLogger(cfg.LogLevel))
	if err != nil {
		return err
	}
	defer pool.Close()
	return fn(cfg, pool.GetDB())
}

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	step := func(use, short string, fn func(context.Context, *sql.DB) error) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withDB(cmd.Context(), func(_ *config.Config, db *sql.DB) error {
					return fn(cmd.Context(), db)
				})
			},
		}
	}

	cmd.AddCommand(
		step("up", "Apply all pending migrations", repository.RunMigrations),
		step("down", "Roll back the latest migration", repository.RollbackMigration),
		step("status", "Print the migration status", repository.MigrationStatus),
	)
	return cmd
}

func newCreateAdminCmd() *cobra.Command {
	var in service.CreateUserInput
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in.Role = domain.RoleAdmin
			return withDB(cmd.Context(), func(cfg *config.Config, db *sql.DB) error {
				log := logger.NewLogger(cfg.LogLevel)
				store := repository.NewPostgresStore(db, cfg.TxMaxAttempts, log)
				user, err := service.NewUserService(store, log).Create(cmd.Context(), in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (id %d); the password must be changed at first login\n", user.Email, user.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&in.Email, "email", "", "administrator email")
	cmd.Flags().StringVar(&in.Password, "password", "", "initial password (at least 8 characters)")
	cmd.Flags().StringVar(&in.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&in.LastName, "last-name", "", "last name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
