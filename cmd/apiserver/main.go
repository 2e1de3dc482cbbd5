// Command apiserver runs the BulkBuddy REST API and its maintenance tasks.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	_ "go.uber.org/automaxprocs"

	"github.com/ramonehamilton/bulkbuddy/internal/config"
	"github.com/ramonehamilton/bulkbuddy/internal/logger"
	"github.com/ramonehamilton/bulkbuddy/internal/storage"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "apiserver",
	Short: "BulkBuddy card collection and deck builder API",
	Long: `BulkBuddy serves the REST API for card collections and decks.

Running without a subcommand starts the server.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		fmt.Sprintf("Config file (default: %s)", config.DefaultPath()))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(importCardCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the configuration named by --config.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(logger.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	})
}

// openStorage opens the configured database. Migrations run only when
// migrate is set.
func openStorage(ctx context.Context, cfg *config.Config, migrate bool) (*storage.Service, error) {
	dbConfig := storage.DefaultConfig(cfg.Database.Path)
	if cfg.Database.MaxOpenConns > 0 {
		dbConfig.MaxOpenConns = cfg.Database.MaxOpenConns
	}
	if cfg.Database.MaxIdleConns > 0 {
		dbConfig.MaxIdleConns = cfg.Database.MaxIdleConns
	}
	if cfg.Database.JournalMode != "" {
		dbConfig.JournalMode = cfg.Database.JournalMode
	}
	dbConfig.AutoMigrate = migrate

	db, err := storage.Open(ctx, dbConfig)
	if err != nil {
		return nil, err
	}
	return storage.NewService(db), nil
}

func backupConfig(cfg *config.Config) storage.BackupConfig {
	return storage.BackupConfig{
		Dir:        cfg.Database.BackupDir,
		Keep:       cfg.Database.BackupKeep,
		Verify:     true,
		Passphrase: cfg.Database.BackupPassphrase,
	}
}
