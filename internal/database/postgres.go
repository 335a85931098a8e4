package database

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/helios-trading/helios-data/internal/config"
	"github.com/helios-trading/helios-data/internal/model"
)

// ServiceName identifies this store in health maps.
const ServiceName = "postgresql"

// Store is the relational store adapter. It owns a bounded connection pool
// shared by all concurrent callers.
type Store struct {
	cfg    config.DBConfig
	logger *slog.Logger

	// Batches larger than this run inside an explicit transaction.
	txThreshold int

	mu   sync.RWMutex
	pool *pgxpool.Pool
}

// New creates a Store. Credentials are resolved once here; no call re-reads
// configuration.
func New(cfg config.DBConfig, txThreshold int, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	if txThreshold <= 0 {
		txThreshold = config.DefaultBatchTxThreshold
	}
	return &Store{
		cfg:         cfg,
		logger:      logger,
		txThreshold: txThreshold,
	}
}

// Connect establishes the connection pool and verifies it with a ping.
// Idempotent: a second call on an open pool is a no-op.
func (s *Store) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pool != nil {
		return nil
	}

	poolCfg, err := pgxpool.ParseConfig(BuildConnString(s.cfg))
	if err != nil {
		return fmt.Errorf("parse connection string: %w", err)
	}

	poolCfg.MinConns = int32(s.cfg.MinConns)
	poolCfg.MaxConns = int32(s.cfg.MaxConns)

	connectCtx, cancel := context.WithTimeout(ctx, s.cfg.CommandTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolCfg)
	if err != nil {
		return fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return fmt.Errorf("ping database: %w", err)
	}

	s.pool = pool
	s.logger.Info("postgres connected",
		"host", s.cfg.Host,
		"database", s.cfg.Name,
		"max_conns", s.cfg.MaxConns,
	)
	return nil
}

// Disconnect releases the pool. Safe to call when never connected.
func (s *Store) Disconnect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pool != nil {
		s.pool.Close()
		s.pool = nil
		s.logger.Info("postgres connection pool closed")
	}
	return nil
}

// HealthCheck issues SELECT 1 and reports measured latency. Never returns an
// error; failures land in the health record.
func (s *Store) HealthCheck(ctx context.Context) model.ConnectionHealth {
	start := time.Now()

	_, err := s.FetchScalar(ctx, "SELECT 1")
	health := model.ConnectionHealth{
		Service:      ServiceName,
		Healthy:      err == nil,
		ResponseTime: time.Since(start),
		LastCheck:    time.Now(),
	}
	if err != nil {
		health.Error = err.Error()
		health.ResponseTime = 0
	}
	return health
}

// Execute runs a statement and returns the number of affected rows.
func (s *Store) Execute(ctx context.Context, query string, args ...any) (int64, error) {
	pool, err := s.acquirePool()
	if err != nil {
		return 0, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tag, err := pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, mapError(err)
	}
	return tag.RowsAffected(), nil
}

// ExecuteMany queues one statement per argument tuple into a single batch
// round trip. Batches above the transaction threshold run inside an explicit
// transaction for throughput and all-or-nothing semantics.
func (s *Store) ExecuteMany(ctx context.Context, query string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}

	pool, err := s.acquirePool()
	if err != nil {
		return err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	batch := &pgx.Batch{}
	for _, args := range rows {
		batch.Queue(query, args...)
	}

	if len(rows) > s.txThreshold {
		tx, err := pool.Begin(ctx)
		if err != nil {
			return mapError(err)
		}
		defer tx.Rollback(ctx)

		if err := drainBatch(tx.SendBatch(ctx, batch), len(rows)); err != nil {
			return mapError(err)
		}
		return mapError(tx.Commit(ctx))
	}

	return mapError(drainBatch(pool.SendBatch(ctx, batch), len(rows)))
}

// FetchAll returns all rows as column-name keyed maps.
func (s *Store) FetchAll(ctx context.Context, query string, args ...any) ([]map[string]any, error) {
	pool, err := s.acquirePool()
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}

	out, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, mapError(err)
	}
	return out, nil
}

// FetchOne returns the first row as a map, or nil when no row matches.
func (s *Store) FetchOne(ctx context.Context, query string, args ...any) (map[string]any, error) {
	all, err := s.FetchAll(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all[0], nil
}

// FetchScalar returns the first column of the first row, or nil when no row
// matches.
func (s *Store) FetchScalar(ctx context.Context, query string, args ...any) (any, error) {
	pool, err := s.acquirePool()
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}

	val, err := pgx.CollectOneRow(rows, pgx.RowTo[any])
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, mapError(err)
	}
	return val, nil
}

func (s *Store) acquirePool() (*pgxpool.Pool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.pool == nil {
		return nil, ErrNotConnected
	}
	return s.pool, nil
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.CommandTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.CommandTimeout)
}

// drainBatch consumes every queued result so driver errors surface.
func drainBatch(results pgx.BatchResults, n int) error {
	defer results.Close()

	for i := 0; i < n; i++ {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}
	return nil
}
