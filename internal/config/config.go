package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/ramonehamilton/bulkbuddy/internal/mtg/manacost"
)

// Config represents the application configuration.
type Config struct {
	Server   ServerConfig   `toml:"server" mapstructure:"server"`
	Database DatabaseConfig `toml:"database" mapstructure:"database"`
	Auth     AuthConfig     `toml:"auth" mapstructure:"auth"`
	Scryfall ScryfallConfig `toml:"scryfall" mapstructure:"scryfall"`
	Analysis AnalysisConfig `toml:"analysis" mapstructure:"analysis"`
	Log      LogConfig      `toml:"log" mapstructure:"log"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string   `toml:"host" mapstructure:"host"`
	Port            int      `toml:"port" mapstructure:"port"`
	CORSOrigins     []string `toml:"cors_origins" mapstructure:"cors_origins"`
	ReadTimeout     string   `toml:"read_timeout" mapstructure:"read_timeout"`         // e.g. "15s"
	WriteTimeout    string   `toml:"write_timeout" mapstructure:"write_timeout"`       // e.g. "15s"
	ShutdownTimeout string   `toml:"shutdown_timeout" mapstructure:"shutdown_timeout"` // e.g. "10s"
}

// DatabaseConfig contains sqlite and backup settings.
type DatabaseConfig struct {
	Path             string `toml:"path" mapstructure:"path"`
	MaxOpenConns     int    `toml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns     int    `toml:"max_idle_conns" mapstructure:"max_idle_conns"`
	JournalMode      string `toml:"journal_mode" mapstructure:"journal_mode"`
	AutoMigrate      bool   `toml:"auto_migrate" mapstructure:"auto_migrate"`
	BackupDir        string `toml:"backup_dir" mapstructure:"backup_dir"`
	BackupInterval   string `toml:"backup_interval" mapstructure:"backup_interval"` // Empty disables scheduled backups
	BackupKeep       int    `toml:"backup_keep" mapstructure:"backup_keep"`         // 0 keeps every backup
	BackupPassphrase string `toml:"backup_passphrase" mapstructure:"backup_passphrase"`
}

// AuthConfig contains token and password settings.
type AuthConfig struct {
	JWTSecret  string `toml:"jwt_secret" mapstructure:"jwt_secret"`
	TokenTTL   string `toml:"token_ttl" mapstructure:"token_ttl"` // e.g. "24h"
	Issuer     string `toml:"issuer" mapstructure:"issuer"`
	BcryptCost int    `toml:"bcrypt_cost" mapstructure:"bcrypt_cost"`
}

// ScryfallConfig contains card provider settings.
type ScryfallConfig struct {
	BaseURL   string `toml:"base_url" mapstructure:"base_url"`
	UserAgent string `toml:"user_agent" mapstructure:"user_agent"`
	RateLimit string `toml:"rate_limit" mapstructure:"rate_limit"` // Minimum delay between requests
	Timeout   string `toml:"timeout" mapstructure:"timeout"`
}

// AnalysisConfig contains deck analysis settings.
type AnalysisConfig struct {
	CurveMode string `toml:"curve_mode" mapstructure:"curve_mode"` // digits or symbols
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `toml:"level" mapstructure:"level"`
	Format string `toml:"format" mapstructure:"format"` // console or json
	File   string `toml:"file" mapstructure:"file"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	dataDir := defaultDataDir()
	return &Config{
		Server: ServerConfig{
			Host:            "",
			Port:            5000,
			CORSOrigins:     []string{"http://localhost:3000"},
			ReadTimeout:     "15s",
			WriteTimeout:    "15s",
			ShutdownTimeout: "10s",
		},
		Database: DatabaseConfig{
			Path:           filepath.Join(dataDir, "bulkbuddy.db"),
			MaxOpenConns:   10,
			MaxIdleConns:   5,
			JournalMode:    "WAL",
			AutoMigrate:    true,
			BackupDir:      filepath.Join(dataDir, "backups"),
			BackupInterval: "",
			BackupKeep:     7,
		},
		Auth: AuthConfig{
			TokenTTL:   "24h",
			Issuer:     "bulkbuddy",
			BcryptCost: 10,
		},
		Scryfall: ScryfallConfig{
			BaseURL:   "https://api.scryfall.com",
			UserAgent: "BulkBuddy/1.0",
			RateLimit: "100ms",
			Timeout:   "30s",
		},
		Analysis: AnalysisConfig{
			CurveMode: string(manacost.CurveModeDigits),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

func defaultDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".bulkbuddy"
	}
	return filepath.Join(homeDir, ".bulkbuddy")
}

// DefaultPath returns the default configuration file path.
func DefaultPath() string {
	return filepath.Join(defaultDataDir(), "config.toml")
}

// Save writes the configuration to path as TOML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	// The file may hold secrets.
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port out of range: %d", c.Server.Port)
	}

	durations := map[string]string{
		"server.read_timeout":     c.Server.ReadTimeout,
		"server.write_timeout":    c.Server.WriteTimeout,
		"server.shutdown_timeout": c.Server.ShutdownTimeout,
		"auth.token_ttl":          c.Auth.TokenTTL,
		"scryfall.rate_limit":     c.Scryfall.RateLimit,
		"scryfall.timeout":        c.Scryfall.Timeout,
	}
	for key, value := range durations {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, value, err)
		}
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database path cannot be empty")
	}
	if c.Database.BackupInterval != "" {
		d, err := time.ParseDuration(c.Database.BackupInterval)
		if err != nil {
			return fmt.Errorf("invalid database.backup_interval %q: %w", c.Database.BackupInterval, err)
		}
		if d < time.Minute {
			return fmt.Errorf("database.backup_interval must be at least 1m, got %s", d)
		}
	}
	if c.Database.BackupKeep < 0 {
		return fmt.Errorf("database.backup_keep cannot be negative: %d", c.Database.BackupKeep)
	}

	if c.Auth.BcryptCost != 0 && (c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31) {
		return fmt.Errorf("auth.bcrypt_cost must be between 4 and 31: %d", c.Auth.BcryptCost)
	}

	if _, err := manacost.ParseCurveMode(c.Analysis.CurveMode); err != nil {
		return err
	}

	return nil
}

// RequireSecret checks the settings the HTTP server cannot run without.
func (c *Config) RequireSecret() error {
	if len(strings.TrimSpace(c.Auth.JWTSecret)) < 16 {
		return fmt.Errorf("auth.jwt_secret must be at least 16 characters (set BULKBUDDY_AUTH_JWT_SECRET)")
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetReadTimeout returns the server read timeout as a duration.
func (c *Config) GetReadTimeout() time.Duration {
	return mustDuration(c.Server.ReadTimeout)
}

// GetWriteTimeout returns the server write timeout as a duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return mustDuration(c.Server.WriteTimeout)
}

// GetShutdownTimeout returns the graceful shutdown timeout as a duration.
func (c *Config) GetShutdownTimeout() time.Duration {
	return mustDuration(c.Server.ShutdownTimeout)
}

// GetTokenTTL returns the token lifetime as a duration.
func (c *Config) GetTokenTTL() time.Duration {
	return mustDuration(c.Auth.TokenTTL)
}

// GetScryfallRateLimit returns the minimum delay between Scryfall requests.
func (c *Config) GetScryfallRateLimit() time.Duration {
	return mustDuration(c.Scryfall.RateLimit)
}

// GetScryfallTimeout returns the Scryfall request timeout.
func (c *Config) GetScryfallTimeout() time.Duration {
	return mustDuration(c.Scryfall.Timeout)
}

// GetBackupInterval returns the scheduled backup interval. Zero means disabled.
func (c *Config) GetBackupInterval() time.Duration {
	return mustDuration(c.Database.BackupInterval)
}

// GetCurveMode returns the configured mana curve mode.
func (c *Config) GetCurveMode() manacost.CurveMode {
	mode, err := manacost.ParseCurveMode(c.Analysis.CurveMode)
	if err != nil {
		return manacost.CurveModeDigits
	}
	return mode
}

// mustDuration parses a duration already checked by Validate. Invalid or
// empty values yield zero.
func mustDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}
