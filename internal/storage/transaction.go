package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// WithTransaction runs fn inside one sqlite transaction. Collection and deck
// writes that touch several rows go through here so a failed step leaves no
// partial boards behind.
//
// The transaction commits when fn returns nil. Otherwise it rolls back and the
// rollback failure, if any, is joined to fn's error. A panic rolls back and is
// re-raised. Rolling back a transaction that fn already ended is not an error.
func (db *DB) WithTransaction(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, fmt.Errorf("failed to roll back transaction: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
