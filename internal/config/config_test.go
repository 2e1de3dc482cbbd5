package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/bulkbuddy/internal/mtg/manacost"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, 24*time.Hour, cfg.GetTokenTTL())
	assert.Equal(t, 100*time.Millisecond, cfg.GetScryfallRateLimit())
	assert.Equal(t, manacost.CurveModeDigits, cfg.GetCurveMode())
	assert.Zero(t, cfg.GetBackupInterval())
	assert.Error(t, cfg.RequireSecret(), "no secret by default")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"port zero", func(c *Config) { c.Server.Port = 0 }},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }},
		{"bad read timeout", func(c *Config) { c.Server.ReadTimeout = "soon" }},
		{"bad token ttl", func(c *Config) { c.Auth.TokenTTL = "" }},
		{"empty database path", func(c *Config) { c.Database.Path = "" }},
		{"backup interval too short", func(c *Config) { c.Database.BackupInterval = "5s" }},
		{"negative backup keep", func(c *Config) { c.Database.BackupKeep = -1 }},
		{"bcrypt cost too low", func(c *Config) { c.Auth.BcryptCost = 2 }},
		{"unknown curve mode", func(c *Config) { c.Analysis.CurveMode = "cmc" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestRequireSecret(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Auth.JWTSecret = "short"
	assert.Error(t, cfg.RequireSecret())

	cfg.Auth.JWTSecret = "0123456789abcdef"
	assert.NoError(t, cfg.RequireSecret())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Server, cfg.Server)
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := DefaultConfig()
	cfg.Server.Port = 8080
	cfg.Analysis.CurveMode = "symbols"
	cfg.Database.BackupInterval = "6h"
	require.NoError(t, cfg.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8080, loaded.Server.Port)
	assert.Equal(t, manacost.CurveModeSymbols, loaded.GetCurveMode())
	assert.Equal(t, 6*time.Hour, loaded.GetBackupInterval())
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[log]\nlevel = \"debug\"\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, "24h", cfg.Auth.TokenTTL)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("BULKBUDDY_SERVER_PORT", "9090")
	t.Setenv("BULKBUDDY_AUTH_JWT_SECRET", "from-the-environment")
	t.Setenv("BULKBUDDY_SERVER_CORS_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "from-the-environment", cfg.Auth.JWTSecret)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
}

func TestLoad_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server]\nport = 0\n"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoader_WatchWithoutFile(t *testing.T) {
	l, err := NewLoader(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	_, err = l.Load()
	require.NoError(t, err)

	assert.False(t, l.Watch(func(*Config) {}, nil))
}
