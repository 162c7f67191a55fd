package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/BradenHooton/calcvault/internal/database"
	"github.com/BradenHooton/calcvault/internal/models"
)

// SQLiteKVRepository persists vault state in a local SQLite file. This is the
// single-user default: one process, one machine, like the browser storage
// the vault was designed around.
type SQLiteKVRepository struct {
	db    *sql.DB
	table string
}

// NewSQLiteKVRepository creates a SQLiteKVRepository over table
func NewSQLiteKVRepository(db *sql.DB, table string) (*SQLiteKVRepository, error) {
	quoted, err := database.QuoteTable(table)
	if err != nil {
		return nil, err
	}
	return &SQLiteKVRepository{db: db, table: quoted}, nil
}

// EnsureTable creates the table if it was configured under a non-default name
func (r *SQLiteKVRepository) EnsureTable(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`, r.table)

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("%w: %v", models.ErrStorage, err)
	}
	return nil
}

// Get returns the value stored under key
func (r *SQLiteKVRepository) Get(ctx context.Context, key string) (string, bool, error) {
	query := fmt.Sprintf(`SELECT value FROM %s WHERE key = ?`, r.table)

	var value string
	err := r.db.QueryRowContext(ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", models.ErrStorage, err)
	}

	return value, true, nil
}

// Apply writes every set and delete in m inside one transaction
func (r *SQLiteKVRepository) Apply(ctx context.Context, m *models.Mutation) (err error) {
	if m == nil || m.Empty() {
		return nil
	}

	upsert := fmt.Sprintf(`
		INSERT INTO %s (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, r.table)
	remove := fmt.Sprintf(`DELETE FROM %s WHERE key = ?`, r.table)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrStorage, err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
			err = fmt.Errorf("%w: %v", models.ErrStorage, err)
			return
		}
		err = tx.Commit()
		if err != nil {
			err = fmt.Errorf("%w: %v", models.ErrStorage, err)
		}
	}()

	for _, key := range sortedKeys(m.Set) {
		if _, err = tx.ExecContext(ctx, upsert, key, m.Set[key]); err != nil {
			return err
		}
	}
	for _, key := range m.Delete {
		if _, err = tx.ExecContext(ctx, remove, key); err != nil {
			return err
		}
	}

	return nil
}

// Ping checks that the database file is usable
func (r *SQLiteKVRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", models.ErrStorage, err)
	}
	return nil
}
