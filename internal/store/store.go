// Package store opens the key-value store selected by configuration.
package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/BradenHooton/calcvault/internal/config"
	"github.com/BradenHooton/calcvault/internal/database"
	"github.com/BradenHooton/calcvault/internal/models"
	"github.com/BradenHooton/calcvault/internal/repositories"
)

// Store is the key-value persistence shared by the gate and the link
// registry
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Apply(ctx context.Context, m *models.Mutation) error
	Ping(ctx context.Context) error
}

// Open connects to the configured driver, applies migrations and makes
// sure the configured table exists. The returned func releases the store.
func Open(ctx context.Context, cfg *config.DatabaseConfig, logger *slog.Logger) (Store, func(), error) {
	switch cfg.Driver {
	case config.DriverMemory:
		logger.Warn("using in-memory store; vault state is lost on restart")
		return repositories.NewMemoryKVRepository(), func() {}, nil

	case config.DriverSQLite:
		db, err := database.OpenSQLite(cfg.SQLitePath, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := database.MigrateSQLite(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}
		repo, err := repositories.NewSQLiteKVRepository(db, cfg.Table)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		if err := repo.EnsureTable(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to prepare sqlite table: %w", err)
		}
		return repo, func() { db.Close() }, nil

	case config.DriverPostgres:
		db, err := database.NewConnection(cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := database.MigratePostgres(ctx, db.Pool); err != nil {
			db.Close()
			return nil, nil, err
		}
		repo, err := repositories.NewKVRepository(db, cfg.Table)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		if err := repo.EnsureTable(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to prepare postgres table: %w", err)
		}
		return repo, db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
