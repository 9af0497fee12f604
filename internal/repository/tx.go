package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Serialization conflicts from concurrent capacity/waitlist transactions are
// retried a bounded number of times before surfacing to the caller.
const txMaxAttempts = 3

func inTx(ctx context.Context, db *pgxpool.Pool, fn func(pgx.Tx) error) error {
	var err error
	for attempt := 0; attempt < txMaxAttempts; attempt++ {
		err = runTx(ctx, db, fn)
		if err == nil || !retryableTxError(err) {
			return err
		}
	}
	return err
}

func runTx(ctx context.Context, db *pgxpool.Pool, fn func(pgx.Tx) error) error {
	tx, err := db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func retryableTxError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	// serialization_failure, deadlock_detected
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
