package db

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/ugel06/registry/config"
	"github.com/ugel06/registry/internal/store/postgres"
	"github.com/ugel06/registry/internal/store/sqlite"
)

// Direction selects which way Migrate moves the schema.
type Direction int

const (
	Up Direction = iota
	Down
)

// Migrate applies the embedded migrations of the configured backend.
// A schema that is already current is not an error.
func Migrate(cfg config.DatabaseConfig, direction Direction) error {
	migrator, err := newMigrator(cfg)
	if err != nil {
		return fmt.Errorf("init migrator failed: %w", err)
	}
	defer func() {
		_, _ = migrator.Close()
	}()

	switch direction {
	case Up:
		err = migrator.Up()
	case Down:
		err = migrator.Down()
	default:
		return fmt.Errorf("unknown migration direction %d", direction)
	}
	if err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return fmt.Errorf("migrate %s failed: %w", cfg.Driver, err)
	}
	return nil
}

func newMigrator(cfg config.DatabaseConfig) (*migrate.Migrate, error) {
	var (
		migrations fs.FS
		dir        string
		dsn        string
	)

	switch cfg.Driver {
	case config.DriverSQLite:
		path, err := filepath.Abs(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		migrations = sqlite.Migrations
		dir = sqlite.MigrationsDir
		dsn = "sqlite://" + filepath.ToSlash(path) + "?_pragma=busy_timeout(5000)"
	case config.DriverPostgres:
		migrations = postgres.Migrations
		dir = postgres.MigrationsDir
		dsn = cfg.PostgresURL()
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	source, err := iofs.New(migrations, dir)
	if err != nil {
		return nil, err
	}
	return migrate.NewWithSourceInstance("iofs", source, dsn)
}
