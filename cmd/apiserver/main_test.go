package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes the root command with args against a database in a
// temporary directory and returns stdout.
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()

	t.Setenv("BULKBUDDY_DATABASE_PATH", filepath.Join(dir, "bulkbuddy.db"))
	t.Setenv("BULKBUDDY_DATABASE_BACKUP_DIR", filepath.Join(dir, "backups"))
	configPath = filepath.Join(dir, "missing.toml")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, t.TempDir(), "version")
	require.NoError(t, err)
	assert.Contains(t, out, "bulkbuddy ")
}

func TestMigrateCommands(t *testing.T) {
	dir := t.TempDir()

	_, err := run(t, dir, "migrate", "up")
	require.NoError(t, err)

	out, err := run(t, dir, "migrate", "version")
	require.NoError(t, err)
	assert.Equal(t, "version 1 (dirty: false)\n", out)

	_, err = run(t, dir, "migrate", "goto", "not-a-number")
	assert.Error(t, err)
}

func TestBackupCommands(t *testing.T) {
	dir := t.TempDir()

	_, err := run(t, dir, "migrate", "up")
	require.NoError(t, err)

	out, err := run(t, dir, "backup", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No backups in")

	out, err = run(t, dir, "backup", "create")
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(dir, "backups", "backup_"))

	out, err = run(t, dir, "backup", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "CREATED")
	assert.Contains(t, out, "backup_")
}
