package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/helios-trading/helios-data/internal/config"
)

func TestOperationsBeforeConnect(t *testing.T) {
	s := New(config.RedisConfig{Host: "localhost", Port: 6379}, nil)
	ctx := context.Background()

	if err := s.Set(ctx, "price:BTCUSDT", "1", 0); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Set before connect = %v, want ErrNotConnected", err)
	}
	if _, _, err := s.Get(ctx, "price:BTCUSDT"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Get before connect = %v, want ErrNotConnected", err)
	}
	if err := s.PipelineSet(ctx, []Entry{{Key: "a", Value: "1"}}); !errors.Is(err, ErrNotConnected) {
		t.Errorf("PipelineSet before connect = %v, want ErrNotConnected", err)
	}
}

func TestHealthCheckBeforeConnect(t *testing.T) {
	s := New(config.RedisConfig{Host: "localhost", Port: 6379}, nil)

	health := s.HealthCheck(context.Background())
	if health.Healthy {
		t.Error("HealthCheck before connect reported healthy")
	}
	if health.Service != ServiceName {
		t.Errorf("Service = %q, want %q", health.Service, ServiceName)
	}
	if health.Error == "" {
		t.Error("HealthCheck before connect has empty error")
	}
}

func TestDisconnectNeverConnected(t *testing.T) {
	s := New(config.RedisConfig{Host: "localhost", Port: 6379}, nil)
	if err := s.Disconnect(context.Background()); err != nil {
		t.Errorf("Disconnect without connect = %v", err)
	}
}

func TestPipelineSetEmpty(t *testing.T) {
	s := New(config.RedisConfig{}, nil)
	// Empty batches short-circuit before touching the client.
	if err := s.PipelineSet(context.Background(), nil); err != nil {
		t.Errorf("PipelineSet(nil) = %v", err)
	}
}
