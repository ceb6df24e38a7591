// Package main provides the dealflow command-line client for managing
// clients and commercial proposals.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/diewo77/dealflow/internal/config"
	"github.com/diewo77/dealflow/internal/db"
	"github.com/diewo77/dealflow/internal/models"
	"github.com/diewo77/dealflow/internal/platform/logger"
	"github.com/diewo77/dealflow/internal/services"
	"github.com/diewo77/dealflow/internal/storage"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func main() {
	// Load environment variables from .env file
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app carries the state shared by every subcommand for one invocation.
type app struct {
	configPath string
	dbPath     string
	logLevel   string

	log   *logger.Logger
	conn  *gorm.DB
	store *storage.Manager
	svc   *services.ProposalService
}

func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:           "dealflow",
		Short:         "Manage clients and commercial proposals",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&a.dbPath, "db", "", "SQLite database file (overrides config)")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		migrateCmd(a),
		clientCmd(a),
		proposalCmd(a),
		statsCmd(a),
		exportCmd(a),
	)
	return cmd
}

// open connects to storage. When load is set the aggregate is rebuilt from
// the database as well.
func (a *app) open(ctx context.Context, load bool) error {
	cfg, err := config.LoadFile(a.configPath)
	if err != nil {
		return err
	}
	if a.dbPath != "" {
		cfg.Database.Driver = config.DriverSQLite
		cfg.Database.Path = a.dbPath
	}
	if a.logLevel != "" {
		cfg.App.LogLevel = a.logLevel
	}

	a.log, err = logger.New(cfg.App.Env, cfg.App.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	a.conn, err = db.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	a.log.Debug("database connected", "driver", cfg.Database.Driver, "dsn", db.MaskDSN(cfg.Database.DSN()))

	a.store = storage.NewManager(a.conn, a.log)
	a.svc = services.NewProposalService(models.NewProposalManager(), a.store, a.log)
	if !load {
		return a.store.InitSchema(ctx)
	}
	return a.svc.Load(ctx)
}

func (a *app) close() {
	if a.conn != nil {
		if err := db.Close(a.conn); err != nil {
			a.log.Warn("close database", "error", err)
		}
		a.conn = nil
	}
	if a.log != nil {
		a.log.Sync()
	}
}

// withService opens storage with the aggregate loaded before running fn.
func (a *app) withService(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		defer a.close()
		if err := a.open(cmd.Context(), true); err != nil {
			return err
		}
		return fn(cmd, args)
	}
}

func migrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create missing tables and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer a.close()
			if err := a.open(cmd.Context(), false); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date")
			return nil
		},
	}
}
