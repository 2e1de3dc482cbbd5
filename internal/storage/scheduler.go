package storage

import (
	"context"
	"time"
)

// BackupFunc performs one backup and returns the written path.
type BackupFunc func(ctx context.Context) (string, error)

// RunBackupSchedule calls backup every interval until ctx is cancelled.
// onComplete, if set, is called after every attempt. It returns ctx.Err().
func RunBackupSchedule(ctx context.Context, interval time.Duration, backup BackupFunc, onComplete func(path string, err error)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			path, err := backup(ctx)
			if onComplete != nil {
				onComplete(path, err)
			}
		}
	}
}
