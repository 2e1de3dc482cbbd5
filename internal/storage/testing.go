package storage

import (
	"context"
	"path/filepath"
	"testing"
)

// NewTestService opens a migrated database in a temporary directory and
// closes it when the test ends. It is exported for other packages' tests.
func NewTestService(t testing.TB) *Service {
	t.Helper()

	config := DefaultConfig(filepath.Join(t.TempDir(), "test.db"))
	config.AutoMigrate = true

	db, err := Open(context.Background(), config)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
	})

	return NewService(db)
}
