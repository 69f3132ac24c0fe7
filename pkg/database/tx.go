package database

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"time"

	"gorm.io/gorm"
)

type TxOptions struct {
	IsolationLevel sql.IsolationLevel
	MaxRetries     int
}

func DefaultTxOptions() TxOptions {
	return TxOptions{
		IsolationLevel: sql.LevelReadCommitted,
		MaxRetries:     3,
	}
}

// WithRetry runs fn in a transaction and re-runs it when the failure is a
// serialization, deadlock or lock-timeout error. Other errors are returned as is.
func WithRetry(ctx context.Context, db *gorm.DB, opts TxOptions, fn func(tx *gorm.DB) error) error {
	var lastErr error
	backoff := 50 * time.Millisecond

	var txOpts *sql.TxOptions
	if !IsSQLite(db) {
		txOpts = &sql.TxOptions{Isolation: opts.IsolationLevel}
	}

	for attempt := 0; attempt <= opts.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := db.WithContext(ctx).Transaction(fn, txOpts)
		if err == nil {
			return nil
		}

		if !IsRetryable(err) {
			return err
		}
		if attempt == opts.MaxRetries {
			return fmt.Errorf("max retries (%d) exceeded: %w", opts.MaxRetries, err)
		}
		lastErr = err

		jitter := time.Duration(rand.Int63n(int64(backoff / 4)))
		select {
		case <-time.After(backoff + jitter):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff *= 2
	}

	return lastErr
}
