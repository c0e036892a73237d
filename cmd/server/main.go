package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/crudtables/internal/config"
	"github.com/JonMunkholm/crudtables/internal/core"
	_ "github.com/JonMunkholm/crudtables/internal/core/tables" // Register all tables
	"github.com/JonMunkholm/crudtables/internal/logging"
	"github.com/JonMunkholm/crudtables/internal/store"
	"github.com/JonMunkholm/crudtables/internal/web"
)

var envFiles []string

func main() {
	rootCmd := &cobra.Command{
		Use:   "crudtables",
		Short: "Editable admin tables over a record store",
		Long: `crudtables serves schema-driven admin tables with create, edit, delete
and archive actions, backed by an in-memory, SQLite or PostgreSQL store.

Configuration is read from the environment; see the config package for
every variable. .env files named with --env-file are loaded first.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.LoadEnvFiles(envFiles...)
		},
	}
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "Env files to load (default: .env)")

	rootCmd.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newColumnsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig loads configuration and sets up logging from it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	return cfg, nil
}

func newServeCmd() *cobra.Command {
	var seed bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the HTTP server on SERVER_HOST:SERVER_PORT.

The server provides:
  • The table dashboard at /
  • Each table at /tables/{key}
  • Table and column listings at /api/tables
  • The mutation audit log at /api/audit
  • Health check at /healthz`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("seed") {
				cfg.Store.Seed = seed
			}
			return runServe(cmd.Context(), cfg)
		},
	}
	cmd.Flags().BoolVar(&seed, "seed", false, "Load demo records into empty tables (overrides STORE_SEED)")
	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"store", cfg.Store.Driver,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"granted", cfg.Access.Granted,
	)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer backend.Close()

	slog.Info("tables registered",
		"count", core.TableCount(),
		"groups", len(core.Groups()),
	)
	for _, group := range core.Groups() {
		slog.Debug("table group", "group", group, "tables", len(core.ByGroup(group)))
	}

	if cfg.Store.Seed {
		if err := store.Seed(ctx, backend, core.All()); err != nil {
			return err
		}
	}

	server, err := web.NewServer(cfg, backend)
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(ctx); err != nil {
		return err
	}
	slog.Info("server stopped")
	return nil
}
