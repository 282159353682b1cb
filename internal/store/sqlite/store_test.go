package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ugel06/registry/config"
	"github.com/ugel06/registry/internal/db"
	"github.com/ugel06/registry/internal/store"
	"github.com/ugel06/registry/internal/store/sqlite"
	"github.com/ugel06/registry/internal/store/storetest"
)

func TestOpenRequiresPath(t *testing.T) {
	if _, err := sqlite.Open(context.Background(), ""); err == nil {
		t.Fatalf("expected error")
	}
}

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Backend {
		cfg := config.Config{Database: config.DatabaseConfig{
			Driver:     config.DriverSQLite,
			SQLitePath: filepath.Join(t.TempDir(), "registry.db"),
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
		return backend
	})
}
