package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// DefaultTable is the key-value table created by the migrations
const DefaultTable = "vault_kv"

// MigratePostgres applies the embedded postgres migrations through a stdlib
// handle on the pool's connection config.
func MigratePostgres(ctx context.Context, pool *pgxpool.Pool) error {
	sqlDB := stdlib.OpenDB(*pool.Config().ConnConfig)
	defer sqlDB.Close()

	return migrate(ctx, sqlDB, "postgres", "migrations/postgres")
}

// MigrateSQLite applies the embedded sqlite migrations
func MigrateSQLite(ctx context.Context, db *sql.DB) error {
	return migrate(ctx, db, "sqlite3", "migrations/sqlite")
}

func migrate(ctx context.Context, db *sql.DB, dialect, dir string) error {
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(log.New(io.Discard, "", 0))

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, dir); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	return nil
}

// QuoteTable validates and quotes a configurable table name. An empty name
// selects DefaultTable.
func QuoteTable(name string) (string, error) {
	if name == "" {
		name = DefaultTable
	}
	for _, r := range name {
		if !(r == '_' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')) {
			return "", fmt.Errorf("invalid table name %q", name)
		}
	}
	if name[0] >= '0' && name[0] <= '9' {
		return "", fmt.Errorf("invalid table name %q", name)
	}
	return pq.QuoteIdentifier(name), nil
}
