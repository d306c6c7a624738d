// OpsDeck Core - Authentication and Access Control Service
//
// This is the main entry point for the OpsDeck Core service. It backs the
// multi-domain operations dashboard with:
//   - Credential storage and account lifecycle (SQLite)
//   - Session management with role-based access control
//   - Admin user management and assistant settings endpoints
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/opsdeck/opsdeck-core/migrations"

	"github.com/opsdeck/opsdeck-core/internal/api"
	"github.com/opsdeck/opsdeck-core/internal/audit"
	"github.com/opsdeck/opsdeck-core/internal/auth"
	"github.com/opsdeck/opsdeck-core/internal/infrastructure/config"
	"github.com/opsdeck/opsdeck-core/internal/infrastructure/database"
	"github.com/opsdeck/opsdeck-core/internal/infrastructure/logging"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting OpsDeck Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Initialise the auth service and seed the bootstrap admin account
	store := auth.NewCredentialStore(db.DB)
	authService := auth.NewService(store, log.With("component", "auth").Logger, cfg.Security.MinPasswordLength)

	if seedErr := auth.EnsureAdmin(ctx, store, log.Logger); seedErr != nil {
		return fmt.Errorf("seeding bootstrap admin: %w", seedErr)
	}

	userCount, err := store.Count(ctx)
	if err != nil {
		return fmt.Errorf("counting users: %w", err)
	}
	log.Info("auth service initialised", "users", userCount)

	// Session registry; the API server runs its sweeper
	sessions := auth.NewRegistry(cfg.GetSessionTTL())

	// Start the API server
	server, err := api.New(api.Deps{
		Config:    cfg.Server,
		Security:  cfg.Security,
		Assistant: cfg.Assistant,
		Logger:    log,
		Auth:      authService,
		Sessions:  sessions,
		Audit:     audit.NewSQLiteRepository(db.DB),
		Version:   version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	if err := healthCheck(ctx, db, server); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. API server
	// 2. Database

	log.Info("OpsDeck Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses OPSDECK_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("OPSDECK_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure components are healthy.
func healthCheck(ctx context.Context, db *database.DB, server *api.Server) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := server.HealthCheck(ctx); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}
