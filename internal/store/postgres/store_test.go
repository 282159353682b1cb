package postgres_test

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/ugel06/registry/config"
	"github.com/ugel06/registry/internal/db"
	"github.com/ugel06/registry/internal/store"
	"github.com/ugel06/registry/internal/store/storetest"
)

const testURLEnv = "REGISTRY_TEST_POSTGRES_URL"

func TestConformance(t *testing.T) {
	dsn := os.Getenv(testURLEnv)
	if dsn == "" {
		t.Skipf("%s not set", testURLEnv)
	}

	storetest.Run(t, func(t *testing.T) store.Backend {
		cfg := config.Config{Database: config.DatabaseConfig{
			Driver: config.DriverPostgres,
			URL:    dsn,
		}}
		backend, err := db.Open(context.Background(), cfg)
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		t.Cleanup(func() {
			if err := backend.Close(); err != nil {
				t.Fatalf("close: %v", err)
			}
		})
		truncate(t, dsn)
		return backend
	})
}

func truncate(t *testing.T, dsn string) {
	t.Helper()
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() {
		_ = sqlDB.Close()
	}()
	if _, err := sqlDB.Exec(`TRUNCATE institutions, admins RESTART IDENTITY`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
}
