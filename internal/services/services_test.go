package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ugel06/registry/config"
	"github.com/ugel06/registry/internal/db"
	"github.com/ugel06/registry/internal/store"
	"github.com/ugel06/registry/internal/store/storetest"
	"github.com/ugel06/registry/types"
)

func newBackend(t *testing.T) store.Backend {
	t.Helper()
	cfg := config.Config{
		Database: config.DatabaseConfig{
			Driver:     config.DriverSQLite,
			SQLitePath: filepath.Join(t.TempDir(), "registry.db"),
		},
	}
	backend, err := db.Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("open backend: %v", err)
	}
	t.Cleanup(func() {
		_ = backend.Close()
	})
	return backend
}

type publishedEvent struct {
	channel string
	data    []byte
	attrs   map[string]string
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return "", p.err
	}
	p.events = append(p.events, publishedEvent{channel: channel, data: data, attrs: attrs})
	return "msg", nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.attrs["type"])
	}
	return out
}

func validInstitution(nationalID string) types.Institution {
	return storetest.Institution(nationalID)
}
