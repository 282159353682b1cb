// Package db selects and initializes the storage backend.
package db

import (
	"context"
	"fmt"

	"github.com/ugel06/registry/config"
	"github.com/ugel06/registry/internal/store"
	"github.com/ugel06/registry/internal/store/postgres"
	"github.com/ugel06/registry/internal/store/sqlite"
)

// Open connects to the backend named by cfg.Database.Driver, applies
// pending migrations and returns it behind the store.Backend interface.
// Running it against an initialized database changes nothing.
func Open(ctx context.Context, cfg config.Config) (store.Backend, error) {
	backend, err := openBackend(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	if err := Migrate(cfg.Database, Up); err != nil {
		_ = backend.Close()
		return nil, err
	}

	return backend, nil
}

func openBackend(ctx context.Context, cfg config.DatabaseConfig) (store.Backend, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		return sqlite.Open(ctx, cfg.SQLitePath)
	case config.DriverPostgres:
		return postgres.Open(ctx, cfg.PostgresURL())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
