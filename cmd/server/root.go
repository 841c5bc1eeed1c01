package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/indias-got-voice/internal/app"
	"github.com/iliyamo/indias-got-voice/internal/config"
	"github.com/iliyamo/indias-got-voice/internal/database"
	"github.com/iliyamo/indias-got-voice/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "igv",
	Short: "India's Got Voice: live talent show API",
	Long:  `HTTP + WebSocket API for live shows. Commands: serve, migrate, consume, create-admin.`,
	PersistentPreRun: func(*cobra.Command, []string) {
		_ = godotenv.Load()
	},
	SilenceUsage: true,
	RunE:         runServe, // default: serve without migrating
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, consumeCmd, createAdminCmd)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// newLogger builds the logger from APP_ENV and LOG_LEVEL.  Commands that do
// not need the full server config use it directly.
func newLogger() (*zap.Logger, error) {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	return logger.New(env, os.Getenv("LOG_LEVEL"))
}

// loadServer reads the full configuration and builds the logger from it.
func loadServer() (app.Options, *zap.Logger, error) {
	opts, err := app.LoadOptions()
	if err != nil {
		return app.Options{}, nil, err
	}
	log, err := logger.New(opts.Config.Env, opts.Config.LogLevel)
	if err != nil {
		return app.Options{}, nil, err
	}
	return opts, log, nil
}

func openDB(cfg config.Config) (*sql.DB, error) {
	db, err := database.Open(database.DSN(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName))
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	return db, nil
}

// dbDeps carries what the database commands share.
type dbDeps struct {
	cfg config.Config
	db  *sql.DB
	log *zap.Logger
}

// withDB loads config, opens the database and runs fn.
func withDB(fn func(m dbDeps) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(dbDeps{cfg: cfg, db: db, log: log})
}
