// Package sqlite provides the embedded, file-backed registry store.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ugel06/registry/internal/store"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// DriverName is the database/sql driver registered by modernc.org/sqlite.
const DriverName = "sqlite"

const pragmas = "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"

// Migrations holds the schema files applied by golang-migrate.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations holding the files.
const MigrationsDir = "migrations"

// Store persists registry state in a SQLite file.
type Store struct {
	sqlDB        *sql.DB
	institutions *InstitutionRepository
	admins       *AdminRepository
}

var _ store.Backend = (*Store)(nil)

// DSN returns the connection string for the database file at path.
func DSN(path string) string {
	return filepath.Clean(path) + "?" + pragmas
}

// Open opens the SQLite file at path. The schema is managed by
// golang-migrate and must be applied separately.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	sqlDB, err := sql.Open(DriverName, DSN(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One connection serializes writers the same way the file lock would,
	// without surfacing SQLITE_BUSY to callers.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	return New(sqlDB), nil
}

// New wraps an already open handle.
func New(sqlDB *sql.DB) *Store {
	return &Store{
		sqlDB:        sqlDB,
		institutions: &InstitutionRepository{db: sqlDB},
		admins:       &AdminRepository{db: sqlDB},
	}
}

func (s *Store) Driver() string {
	return DriverName
}

func (s *Store) Institutions() store.InstitutionRepository {
	return s.institutions
}

func (s *Store) Admins() store.AdminRepository {
	return s.admins
}

func (s *Store) Ping(ctx context.Context) error {
	return store.Wrap("ping", s.sqlDB.PingContext(ctx))
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
