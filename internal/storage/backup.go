package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// BackupConfig holds configuration for backup operations.
type BackupConfig struct {
	// Dir is where backups are written. Empty means a "backups" directory
	// next to the database file.
	Dir string

	// Keep is how many of the newest backups to retain after a backup.
	// Zero keeps everything.
	Keep int

	// Verify runs an integrity check on the new backup.
	Verify bool

	// Passphrase, when set, encrypts the backup and removes the plain copy.
	Passphrase string
}

// BackupInfo describes a backup file on disk.
type BackupInfo struct {
	Path      string
	Size      int64
	CreatedAt time.Time
}

const (
	backupPrefix    = "backup_"
	encryptedSuffix = ".enc"
)

// Backup writes a consistent copy of the live database with VACUUM INTO and
// returns its path. Old backups beyond config.Keep are removed.
func (db *DB) Backup(ctx context.Context, dbPath string, config BackupConfig) (string, error) {
	dir := config.Dir
	if dir == "" {
		dir = filepath.Join(filepath.Dir(dbPath), "backups")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	name := backupPrefix + time.Now().UTC().Format("20060102_150405.000000000") + ".db"
	backupPath := filepath.Join(dir, name)

	if _, err := db.conn.ExecContext(ctx, `VACUUM INTO ?`, backupPath); err != nil {
		return "", fmt.Errorf("failed to back up database: %w", err)
	}

	if config.Verify {
		if err := VerifyBackup(ctx, backupPath); err != nil {
			_ = os.Remove(backupPath)
			return "", fmt.Errorf("backup verification failed: %w", err)
		}
	}

	if config.Passphrase != "" {
		encryptedPath := backupPath + encryptedSuffix
		if err := EncryptFile(backupPath, encryptedPath, config.Passphrase); err != nil {
			_ = os.Remove(backupPath)
			return "", fmt.Errorf("failed to encrypt backup: %w", err)
		}
		if err := os.Remove(backupPath); err != nil {
			return "", fmt.Errorf("failed to remove unencrypted backup: %w", err)
		}
		backupPath = encryptedPath
	}

	if config.Keep > 0 {
		if err := PruneBackups(dir, config.Keep); err != nil {
			return backupPath, err
		}
	}

	return backupPath, nil
}

// VerifyBackup opens a backup file and runs SQLite's integrity check on it.
func VerifyBackup(ctx context.Context, backupPath string) error {
	if _, err := os.Stat(backupPath); err != nil {
		return fmt.Errorf("backup file not accessible: %w", err)
	}

	conn, err := sql.Open("sqlite", backupPath)
	if err != nil {
		return fmt.Errorf("failed to open backup: %w", err)
	}
	defer func() { _ = conn.Close() }()

	var result string
	if err := conn.QueryRowContext(ctx, `PRAGMA integrity_check`).Scan(&result); err != nil {
		return fmt.Errorf("failed to run integrity check: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}
	return nil
}

// ListBackups returns the backups in dir, newest first.
func ListBackups(dir string) ([]BackupInfo, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return []BackupInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	backups := []BackupInfo{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, backupPrefix) ||
			!(strings.HasSuffix(name, ".db") || strings.HasSuffix(name, ".db"+encryptedSuffix)) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("failed to stat backup %s: %w", name, err)
		}
		backups = append(backups, BackupInfo{
			Path:      filepath.Join(dir, name),
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
		})
	}

	// Names embed a sortable timestamp.
	sort.Slice(backups, func(i, j int) bool {
		return filepath.Base(backups[i].Path) > filepath.Base(backups[j].Path)
	})
	return backups, nil
}

// PruneBackups removes all but the newest keep backups in dir.
func PruneBackups(dir string, keep int) error {
	backups, err := ListBackups(dir)
	if err != nil {
		return err
	}
	if len(backups) <= keep {
		return nil
	}
	for _, b := range backups[keep:] {
		if err := os.Remove(b.Path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove old backup %s: %w", b.Path, err)
		}
	}
	return nil
}
