// Package cache provides the Redis store adapter (hot tier).
package cache

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/helios-trading/helios-data/internal/config"
	"github.com/helios-trading/helios-data/internal/model"
)

// ServiceName identifies this store in health maps.
const ServiceName = "redis"

// ErrNotConnected is returned by cache operations before Connect.
var ErrNotConnected = errors.New("redis store not connected")

// Store is the key-value cache adapter. A single multiplexed client serves
// all concurrent callers.
type Store struct {
	cfg    config.RedisConfig
	logger *slog.Logger

	mu     sync.RWMutex
	client *redis.Client
}

// New creates a Store. Credentials are resolved once at construction.
func New(cfg config.RedisConfig, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{cfg: cfg, logger: logger}
}

// Connect establishes the client and verifies it with a PING. Idempotent.
func (s *Store) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		return nil
	}

	opts := &redis.Options{
		Addr:         fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Password:     s.cfg.Password,
		DB:           s.cfg.DB,
		DialTimeout:  s.cfg.DialTimeout,
		ReadTimeout:  s.cfg.OpTimeout,
		WriteTimeout: s.cfg.OpTimeout,
	}
	if s.cfg.TLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, s.cfg.DialTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return fmt.Errorf("ping redis: %w", err)
	}

	s.client = client
	s.logger.Info("redis connected", "addr", opts.Addr, "db", s.cfg.DB)
	return nil
}

// Disconnect closes the client. Safe to call when never connected.
func (s *Store) Disconnect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		err := s.client.Close()
		s.client = nil
		s.logger.Info("redis connection closed")
		return err
	}
	return nil
}

// HealthCheck issues a PING and reports measured latency. Never returns an
// error; failures land in the health record.
func (s *Store) HealthCheck(ctx context.Context) model.ConnectionHealth {
	health := model.ConnectionHealth{
		Service:   ServiceName,
		LastCheck: time.Now(),
	}

	client, err := s.acquire()
	if err != nil {
		health.Error = err.Error()
		return health
	}

	start := time.Now()
	if err := client.Ping(ctx).Err(); err != nil {
		health.Error = err.Error()
		return health
	}

	health.Healthy = true
	health.ResponseTime = time.Since(start)
	return health
}

// Set stores a key with a TTL.
func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	client, err := s.acquire()
	if err != nil {
		return err
	}
	return client.Set(ctx, key, value, ttl).Err()
}

// Get returns the value and whether the key exists.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	client, err := s.acquire()
	if err != nil {
		return "", false, err
	}

	val, err := client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// Delete removes a key. Missing keys are not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	client, err := s.acquire()
	if err != nil {
		return err
	}
	return client.Del(ctx, key).Err()
}

// Exists reports whether a key is present.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	client, err := s.acquire()
	if err != nil {
		return false, err
	}

	n, err := client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Entry is one key write in a pipelined batch. Entries carry their own
// TTL so one batch can mix expiry policies.
type Entry struct {
	Key   string
	Value string
	TTL   time.Duration
}

// PipelineSet writes every entry in one pipelined round trip.
func (s *Store) PipelineSet(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	client, err := s.acquire()
	if err != nil {
		return err
	}

	pipe := client.Pipeline()
	for _, e := range entries {
		pipe.Set(ctx, e.Key, e.Value, e.TTL)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Store) acquire() (*redis.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.client == nil {
		return nil, ErrNotConnected
	}
	return s.client, nil
}
