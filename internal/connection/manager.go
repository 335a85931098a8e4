package connection

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/helios-trading/helios-data/internal/model"
)

// StoreAdapter is the lifecycle contract every storage tier implements.
type StoreAdapter interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	HealthCheck(ctx context.Context) model.ConnectionHealth
}

// Manager owns the connection lifecycle of all storage tiers.
type Manager struct {
	logger *slog.Logger

	mu        sync.RWMutex
	adapters  map[string]StoreAdapter
	connected bool
}

// NewManager creates a manager over named adapters. Names key the
// health map ("postgresql", "redis", "archive").
func NewManager(adapters map[string]StoreAdapter, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		logger:   logger,
		adapters: adapters,
	}
}

// ConnectAll connects every adapter concurrently. On any failure the
// adapters that did connect are disconnected again and the first error
// is returned; the manager never ends up half connected.
func (m *Manager) ConnectAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return nil
	}

	var (
		okMu sync.Mutex
		ok   []StoreAdapter
	)

	g, gctx := errgroup.WithContext(ctx)
	for name, adapter := range m.adapters {
		g.Go(func() error {
			if err := adapter.Connect(gctx); err != nil {
				return fmt.Errorf("connect %s: %w", name, err)
			}
			okMu.Lock()
			ok = append(ok, adapter)
			okMu.Unlock()
			m.logger.Info("store connected", "service", name)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		for _, adapter := range ok {
			if derr := adapter.Disconnect(context.WithoutCancel(ctx)); derr != nil {
				m.logger.Warn("teardown after failed connect", "error", derr)
			}
		}
		return err
	}

	m.connected = true
	m.logger.Info("all stores connected", "count", len(m.adapters))
	return nil
}

// DisconnectAll disconnects every adapter concurrently, best effort.
// The last error seen is returned. Safe to call when never connected.
func (m *Manager) DisconnectAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var (
		wg    sync.WaitGroup
		errMu sync.Mutex
		last  error
	)

	for name, adapter := range m.adapters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := adapter.Disconnect(ctx); err != nil {
				m.logger.Warn("disconnect failed", "service", name, "error", err)
				errMu.Lock()
				last = err
				errMu.Unlock()
			}
		}()
	}
	wg.Wait()

	m.connected = false
	return last
}

// HealthCheckAll checks every adapter concurrently and returns one
// record per service. Before the first ConnectAll no adapter is
// touched; each service reports unhealthy with a "not connected" note.
func (m *Manager) HealthCheckAll(ctx context.Context) map[string]model.ConnectionHealth {
	m.mu.RLock()
	connected := m.connected
	m.mu.RUnlock()

	results := make(map[string]model.ConnectionHealth, len(m.adapters))

	if !connected {
		for name := range m.adapters {
			results[name] = model.ConnectionHealth{
				Service:   name,
				Error:     "not connected",
				LastCheck: time.Now(),
			}
		}
		return results
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for name, adapter := range m.adapters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			health := adapter.HealthCheck(ctx)
			mu.Lock()
			results[name] = health
			mu.Unlock()
		}()
	}
	wg.Wait()

	return results
}

// IsConnected reports whether ConnectAll has completed.
func (m *Manager) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}
