// Package postgres provides the networked registry store backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/ugel06/registry/internal/store"
)

// DriverName is the database/sql driver registered by lib/pq.
const DriverName = "postgres"

const uniqueViolation = pq.ErrorCode("23505")

const (
	defaultPingTimeout  = 5 * time.Second
	defaultConnMaxIdle  = 2 * time.Minute
	defaultConnMaxLife  = 30 * time.Minute
	defaultMaxIdleConns = 5
	defaultMaxOpenConns = 25
)

// Migrations holds the schema files applied by golang-migrate.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations holding the files.
const MigrationsDir = "migrations"

// Store persists registry state in PostgreSQL.
type Store struct {
	sqlDB        *sql.DB
	institutions *InstitutionRepository
	admins       *AdminRepository
}

var _ store.Backend = (*Store)(nil)

// Open connects to dsn, tunes the pool and verifies the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	sqlDB, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres db: %w", err)
	}

	sqlDB.SetConnMaxIdleTime(defaultConnMaxIdle)
	sqlDB.SetConnMaxLifetime(defaultConnMaxLife)
	sqlDB.SetMaxIdleConns(defaultMaxIdleConns)
	sqlDB.SetMaxOpenConns(defaultMaxOpenConns)

	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping postgres db: %w", err)
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

func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
