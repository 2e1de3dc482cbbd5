package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/bulkbuddy/internal/storage"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage database schema migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: withMigrations(func(cmd *cobra.Command, mgr *storage.MigrationManager, _ []string) error {
		return mgr.Up()
	}),
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back every migration",
	Args:  cobra.NoArgs,
	RunE: withMigrations(func(cmd *cobra.Command, mgr *storage.MigrationManager, _ []string) error {
		return mgr.Down()
	}),
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	Args:  cobra.NoArgs,
	RunE: withMigrations(func(cmd *cobra.Command, mgr *storage.MigrationManager, _ []string) error {
		v, dirty, err := mgr.Version()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", v, dirty)
		return nil
	}),
}

var migrateGotoCmd = &cobra.Command{
	Use:   "goto VERSION",
	Short: "Migrate up or down to VERSION",
	Args:  cobra.ExactArgs(1),
	RunE: withMigrations(func(cmd *cobra.Command, mgr *storage.MigrationManager, args []string) error {
		v, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[0], err)
		}
		return mgr.Goto(uint(v))
	}),
}

var migrateForceCmd = &cobra.Command{
	Use:   "force VERSION",
	Short: "Set the schema version without running migrations",
	Long:  "Force marks VERSION as applied and clears the dirty flag. Use it to recover from a failed migration.",
	Args:  cobra.ExactArgs(1),
	RunE: withMigrations(func(cmd *cobra.Command, mgr *storage.MigrationManager, args []string) error {
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[0], err)
		}
		return mgr.Force(v)
	}),
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateVersionCmd, migrateGotoCmd, migrateForceCmd)
}

// withMigrations opens a migration manager for the configured database
// around fn.
func withMigrations(fn func(*cobra.Command, *storage.MigrationManager, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		mgr, err := storage.NewMigrationManager(cfg.Database.Path)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := mgr.Close(); closeErr != nil && err == nil {
				err = closeErr
			}
		}()

		return fn(cmd, mgr, args)
	}
}
