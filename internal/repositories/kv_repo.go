package repositories

import (
	"context"
	"fmt"
	"sort"

	"github.com/BradenHooton/calcvault/internal/database"
	"github.com/BradenHooton/calcvault/internal/models"
	"github.com/jackc/pgx/v5"
)

// KVRepository persists vault state in a postgres key-value table
type KVRepository struct {
	db    *database.DB
	table string
}

// NewKVRepository creates a KVRepository over table (empty selects the
// migrated default table)
func NewKVRepository(db *database.DB, table string) (*KVRepository, error) {
	quoted, err := database.QuoteTable(table)
	if err != nil {
		return nil, err
	}
	return &KVRepository{db: db, table: quoted}, nil
}

// EnsureTable creates the table if it was configured under a non-default name
func (r *KVRepository) EnsureTable(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`, r.table)

	_, err := r.db.Pool.Exec(ctx, query)
	return database.MapPostgresError(err)
}

// Get returns the value stored under key
func (r *KVRepository) Get(ctx context.Context, key string) (string, bool, error) {
	query := fmt.Sprintf(`SELECT value FROM %s WHERE key = $1`, r.table)

	var value string
	err := r.db.Pool.QueryRow(ctx, query, key).Scan(&value)
	if err == pgx.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, database.MapPostgresError(err)
	}

	return value, true, nil
}

// Apply writes every set and delete in m inside one transaction
func (r *KVRepository) Apply(ctx context.Context, m *models.Mutation) error {
	if m == nil || m.Empty() {
		return nil
	}

	upsert := fmt.Sprintf(`
		INSERT INTO %s (key, value, updated_at)
		VALUES ($1, $2, CURRENT_TIMESTAMP)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = CURRENT_TIMESTAMP
	`, r.table)
	remove := fmt.Sprintf(`DELETE FROM %s WHERE key = ANY($1)`, r.table)

	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		for _, key := range sortedKeys(m.Set) {
			if _, err := tx.Exec(ctx, upsert, key, m.Set[key]); err != nil {
				return err
			}
		}
		if len(m.Delete) > 0 {
			if _, err := tx.Exec(ctx, remove, m.Delete); err != nil {
				return err
			}
		}
		return nil
	})

	return database.MapPostgresError(err)
}

// Ping checks that the database is reachable
func (r *KVRepository) Ping(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}

func sortedKeys(set map[string]string) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
