package connection

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/helios-trading/helios-data/internal/model"
)

type fakeAdapter struct {
	name        string
	connectErr  error
	connects    atomic.Int32
	disconnects atomic.Int32
	healthy     bool
}

func (f *fakeAdapter) Connect(ctx context.Context) error {
	f.connects.Add(1)
	return f.connectErr
}

func (f *fakeAdapter) Disconnect(ctx context.Context) error {
	f.disconnects.Add(1)
	return nil
}

func (f *fakeAdapter) HealthCheck(ctx context.Context) model.ConnectionHealth {
	return model.ConnectionHealth{Service: f.name, Healthy: f.healthy}
}

func threeAdapters() (map[string]StoreAdapter, *fakeAdapter, *fakeAdapter, *fakeAdapter) {
	db := &fakeAdapter{name: "postgresql", healthy: true}
	cache := &fakeAdapter{name: "redis", healthy: true}
	arch := &fakeAdapter{name: "archive", healthy: true}
	return map[string]StoreAdapter{
		"postgresql": db,
		"redis":      cache,
		"archive":    arch,
	}, db, cache, arch
}

func TestConnectAll(t *testing.T) {
	adapters, db, cache, arch := threeAdapters()
	m := NewManager(adapters, nil)

	if err := m.ConnectAll(context.Background()); err != nil {
		t.Fatalf("ConnectAll: %v", err)
	}
	if !m.IsConnected() {
		t.Error("expected IsConnected true")
	}
	for _, f := range []*fakeAdapter{db, cache, arch} {
		if f.connects.Load() != 1 {
			t.Errorf("%s connects = %d, want 1", f.name, f.connects.Load())
		}
	}

	// ConnectAll is idempotent.
	if err := m.ConnectAll(context.Background()); err != nil {
		t.Fatalf("second ConnectAll: %v", err)
	}
	if db.connects.Load() != 1 {
		t.Errorf("connects after repeat = %d, want 1", db.connects.Load())
	}
}

func TestConnectAllPartialFailure(t *testing.T) {
	adapters, db, cache, arch := threeAdapters()
	cache.connectErr = errors.New("connection refused")
	m := NewManager(adapters, nil)

	err := m.ConnectAll(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if m.IsConnected() {
		t.Error("expected IsConnected false after failure")
	}

	// Whoever connected must have been torn down again.
	if db.connects.Load() == 1 && db.disconnects.Load() != 1 {
		t.Errorf("postgresql connected but not torn down")
	}
	if arch.connects.Load() == 1 && arch.disconnects.Load() != 1 {
		t.Errorf("archive connected but not torn down")
	}
	if cache.disconnects.Load() != 0 {
		t.Errorf("failed adapter should not be disconnected")
	}
}

func TestDisconnectAll(t *testing.T) {
	adapters, db, cache, arch := threeAdapters()
	m := NewManager(adapters, nil)

	if err := m.ConnectAll(context.Background()); err != nil {
		t.Fatalf("ConnectAll: %v", err)
	}
	if err := m.DisconnectAll(context.Background()); err != nil {
		t.Fatalf("DisconnectAll: %v", err)
	}
	if m.IsConnected() {
		t.Error("expected IsConnected false")
	}
	for _, f := range []*fakeAdapter{db, cache, arch} {
		if f.disconnects.Load() != 1 {
			t.Errorf("%s disconnects = %d, want 1", f.name, f.disconnects.Load())
		}
	}
}

func TestDisconnectAllNeverConnected(t *testing.T) {
	adapters, _, _, _ := threeAdapters()
	m := NewManager(adapters, nil)

	if err := m.DisconnectAll(context.Background()); err != nil {
		t.Fatalf("DisconnectAll: %v", err)
	}
}

func TestHealthCheckAllBeforeConnect(t *testing.T) {
	adapters, db, _, _ := threeAdapters()
	m := NewManager(adapters, nil)

	results := m.HealthCheckAll(context.Background())
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	for name, health := range results {
		if health.Healthy {
			t.Errorf("%s healthy before connect", name)
		}
		if health.Error != "not connected" {
			t.Errorf("%s error = %q", name, health.Error)
		}
		if health.LastCheck.IsZero() {
			t.Errorf("%s has no LastCheck timestamp", name)
		}
	}

	// No adapter may be touched.
	if db.connects.Load() != 0 {
		t.Errorf("health check before connect touched the adapter")
	}
}

func TestHealthCheckAllConnected(t *testing.T) {
	adapters, _, cache, _ := threeAdapters()
	cache.healthy = false
	m := NewManager(adapters, nil)

	if err := m.ConnectAll(context.Background()); err != nil {
		t.Fatalf("ConnectAll: %v", err)
	}

	results := m.HealthCheckAll(context.Background())
	if !results["postgresql"].Healthy {
		t.Error("postgresql should be healthy")
	}
	if results["redis"].Healthy {
		t.Error("redis should be unhealthy")
	}
	if !results["archive"].Healthy {
		t.Error("archive should be healthy")
	}
}
