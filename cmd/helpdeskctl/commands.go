package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/civicdesk/helpdesk/internal/config"
	"github.com/civicdesk/helpdesk/internal/observability"
	"github.com/civicdesk/helpdesk/internal/persistence"
	"github.com/civicdesk/helpdesk/internal/repository"
	"github.com/civicdesk/helpdesk/internal/service"
)

var errNoDatabase = errors.New("POSTGRES_DSN is not set")

type env struct {
	cfg    *config.Config
	logger *zap.Logger
	pg     *persistence.Postgres
}

func initEnv(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect postgres: %w", err)
	}
	if !pg.Enabled() {
		return nil, errNoDatabase
	}
	return &env{cfg: cfg, logger: logger, pg: pg}, nil
}

func (e *env) close() {
	e.pg.Close()
	_ = e.logger.Sync()
}

func newMigrateCommand() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply SQL migrations",
		Long:  `Apply every SQL file in the migrations directory in lexical order. Files are idempotent and safe to re-run.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := initEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			if dir == "" {
				dir = e.cfg.Postgres.MigrationsDir
			}
			return persistence.RunMigrations(cmd.Context(), e.pg.PoolHandle(), dir, e.logger)
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Migrations directory (default: POSTGRES_MIGRATIONS_DIR)")
	return cmd
}

func newCreateAdminCommand() *cobra.Command {
	var name, email, password string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		Long:  `Create an administrator account directly in the database. Use this once to seed a fresh install.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := initEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			users := service.NewUserService(repository.NewUserRepository(e.pg.PoolHandle()), e.cfg.Auth.BcryptCost)
			admin, err := users.BootstrapAdmin(cmd.Context(), name, email, password)
			if err != nil {
				return err
			}
			e.logger.Info("admin created", zap.String("user_id", admin.ID), zap.String("email", admin.Email))
			fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", admin.Email, admin.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "Administrator", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "Login email (required)")
	cmd.Flags().StringVar(&password, "password", "", "Initial password, at least 6 characters (required)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
