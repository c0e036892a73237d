package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/crudtables/internal/access"
	"github.com/JonMunkholm/crudtables/internal/config"
	"github.com/JonMunkholm/crudtables/internal/core"
	"github.com/JonMunkholm/crudtables/internal/store"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL schema",
		Long: `Apply or roll back the records table migrations.

Requires STORE_DRIVER=postgres and DATABASE_URL. serve applies pending
migrations itself unless STORE_AUTO_MIGRATE=false.`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withPostgres(cmd, func(p *store.Postgres) error {
					return p.MigrateUp()
				})
			},
		},
		&cobra.Command{
			Use:   "down [steps]",
			Short: "Roll back migrations (default: 1 step)",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				steps := 1
				if len(args) == 1 {
					n, err := strconv.Atoi(args[0])
					if err != nil {
						return fmt.Errorf("invalid steps %q: %w", args[0], err)
					}
					steps = n
				}
				return withPostgres(cmd, func(p *store.Postgres) error {
					return p.MigrateDown(steps)
				})
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the applied schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withPostgres(cmd, func(p *store.Postgres) error {
					version, dirty, err := p.MigrationVersion()
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "version %d", version)
					if dirty {
						fmt.Fprint(cmd.OutOrStdout(), " (dirty)")
					}
					fmt.Fprintln(cmd.OutOrStdout())
					return nil
				})
			},
		},
	)
	return cmd
}

// withPostgres opens the configured Postgres store without migrating it
// and runs fn against it.
func withPostgres(cmd *cobra.Command, fn func(*store.Postgres) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !strings.EqualFold(cfg.Store.Driver, config.DriverPostgres) {
		return fmt.Errorf("migrate needs STORE_DRIVER=%s, got %q", config.DriverPostgres, cfg.Store.Driver)
	}

	sc := cfg.Store
	sc.AutoMigrate = false
	p, err := store.OpenPostgres(cmd.Context(), sc)
	if err != nil {
		return err
	}
	defer p.Close()

	if err := fn(p); err != nil {
		return err
	}
	slog.Info("migrate finished", "command", cmd.Name())
	return nil
}

func newColumnsCmd() *cobra.Command {
	var granted string

	cmd := &cobra.Command{
		Use:   "columns <table>",
		Short: "Print a table's column descriptors as JSON",
		Long: `Print the columns a caller with the configured capabilities would see,
id and actions columns included.

  crudtables columns employees
  crudtables columns employees --granted update`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			def, err := core.Lookup(args[0])
			if err != nil {
				return err
			}

			set := access.FromStrings(cfg.Access.Granted)
			if cmd.Flags().Changed("granted") {
				set = access.Parse(granted)
			}
			cols, err := def.Columns(set, cfg.Locale.LanguageTag())
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(cols)
		},
	}
	cmd.Flags().StringVar(&granted, "granted", "", "Capabilities to render for (overrides ACCESS_GRANTED)")
	return cmd
}
