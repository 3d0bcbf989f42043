package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"
)

type TxOptions struct {
	Isolation   sql.IsolationLevel
	MaxRetries  int
	BaseBackoff time.Duration
}

// DefaultTxOptions is what checkout runs under. Row locks taken with
// SELECT ... FOR UPDATE make READ COMMITTED sufficient.
func DefaultTxOptions() TxOptions {
	return TxOptions{
		Isolation:   sql.LevelReadCommitted,
		MaxRetries:  3,
		BaseBackoff: 50 * time.Millisecond,
	}
}

// WithTransaction commits when fn returns nil and rolls back otherwise. fn's
// error is returned as is, so callers can match on it.
func WithTransaction(ctx context.Context, db *sql.DB, opts TxOptions, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: opts.Isolation})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			slog.Error("Rollback failed", "err", rbErr, "cause", err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// WithRetry runs fn in a fresh transaction, re-running the whole unit when
// Postgres reports a lock conflict. fn must be safe to run more than once.
func WithRetry(ctx context.Context, db *sql.DB, opts TxOptions, fn func(*sql.Tx) error) error {
	backoff := opts.BaseBackoff
	if backoff <= 0 {
		backoff = 50 * time.Millisecond
	}

	for attempt := 1; ; attempt++ {
		err := WithTransaction(ctx, db, opts, fn)
		conflict := LockConflict(err)
		if err == nil || conflict == ConflictNone {
			return err
		}

		if attempt > opts.MaxRetries {
			return fmt.Errorf("gave up after %d attempts: %w", attempt, err)
		}

		slog.Warn("Retrying transaction", "conflict", string(conflict), "attempt", attempt)

		if err := sleepWithJitter(ctx, backoff); err != nil {
			return err
		}
		backoff *= 2
	}
}

func sleepWithJitter(ctx context.Context, backoff time.Duration) error {
	wait := backoff
	if quarter := int64(backoff / 4); quarter > 0 {
		wait += time.Duration(rand.Int63n(quarter))
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
