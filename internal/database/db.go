package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/BradenHooton/calcvault/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// serializationRetries bounds how often a conflicting vault write is replayed
const serializationRetries = 3

// MapPostgresError folds driver errors into the model's sentinel errors.
// Anything that is not a recognizable constraint violation becomes ErrStorage.
func MapPostgresError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return models.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return models.ErrConflict
		case "23502": // not_null_violation
			return models.ErrBadRequest
		}
	}

	return fmt.Errorf("%w: %v", models.ErrStorage, err)
}

// WithTransaction runs fn in a serializable transaction. Two server
// processes writing the same keys conflict at commit; the loser replays fn
// so the later write wins instead of failing.
func (db *DB) WithTransaction(ctx context.Context, fn func(pgx.Tx) error) error {
	var err error
	for attempt := 0; attempt < serializationRetries; attempt++ {
		err = db.runTx(ctx, fn)
		if !isSerializationFailure(err) {
			return err
		}
		db.logger.Debug("vault write conflicted, retrying", slog.Int("attempt", attempt+1))
	}
	return err
}

func (db *DB) runTx(ctx context.Context, fn func(pgx.Tx) error) (err error) {
	tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		err = tx.Commit(ctx)
	}()

	return fn(tx)
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "40001"
}
