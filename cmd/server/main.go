/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the lease payment engine server.
  Handles configuration, dependency injection, and graceful shutdown.

COMMANDS:
  lease-engine serve             Run the HTTP API and maintenance scheduler
  lease-engine migrate           Apply pending database migrations
  lease-engine migrate --status  Print migration status

STARTUP SEQUENCE (serve):
  1. Load configuration (.env + environment)
  2. Initialize SQLite store (migrations applied)
  3. Create API handler with dependencies
  4. Start maintenance scheduler
  5. Start server with graceful shutdown

ENVIRONMENT:
  PORT               HTTP server port (default: 8080)
  DB_PATH            SQLite database path (default: ./data/leases.db)
                     Use ":memory:" for in-memory database
  LOG_LEVEL          logrus level (default: info)
  SWEEP_SCHEDULE     cron spec of the maintenance sweep (default: @daily)
  STRICT_GENERATION  generate schedules inside the contract save (default: false)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the scheduler
  4. Close database connection

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Environment loading
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/warp/lease-engine/api"
	"github.com/warp/lease-engine/config"
	"github.com/warp/lease-engine/store/sqlite"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "lease-engine",
		Short:         "Rental lease and management payment engine",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", "", "optional .env file to load")

	loadConfig := func() (*config.Config, *logrus.Logger, error) {
		var files []string
		if envFile != "" {
			files = append(files, envFile)
		}
		cfg, err := config.Load(files...)
		if err != nil {
			return nil, nil, err
		}
		return cfg, cfg.NewLogger(), nil
	}

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, log)
		},
	})

	var showStatus bool
	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			// New applies pending migrations.
			store, err := sqlite.New(cfg.DBPath, log)
			if err != nil {
				return err
			}
			defer store.Close()

			if showStatus {
				return store.MigrationStatus(cmd.Context())
			}
			version, err := store.MigrationVersion(cmd.Context())
			if err != nil {
				return err
			}
			log.WithField("version", version).Info("database migrated")
			return nil
		},
	}
	migrate.Flags().BoolVar(&showStatus, "status", false, "print migration status")
	root.AddCommand(migrate)

	return root
}

func serve(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := sqlite.New(cfg.DBPath, log)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.Close()

	handler := api.NewHandler(store, log, cfg.StrictGeneration)

	var sweeper *api.MaintenanceScheduler
	if cfg.SweepSchedule != "" {
		sweeper, err = api.NewMaintenanceScheduler(handler, cfg.SweepSchedule, log)
		if err != nil {
			return err
		}
		sweeper.Start()
	}

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.NewRouter(handler, sweeper),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.Port).Info("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	if sweeper != nil {
		sweeper.Stop(shutdownCtx)
	}

	log.Info("server stopped")
	return nil
}
