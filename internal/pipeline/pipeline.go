package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/helios-trading/helios-data/internal/cache"
	"github.com/helios-trading/helios-data/internal/config"
	"github.com/helios-trading/helios-data/internal/metrics"
	"github.com/helios-trading/helios-data/internal/model"
)

// Warehouse is the relational (warm) tier contract the pipeline needs.
type Warehouse interface {
	Execute(ctx context.Context, query string, args ...any) (int64, error)
	ExecuteMany(ctx context.Context, query string, rows [][]any) error
	FetchAll(ctx context.Context, query string, args ...any) ([]map[string]any, error)
	FetchOne(ctx context.Context, query string, args ...any) (map[string]any, error)
}

// Cache is the hot tier contract.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	PipelineSet(ctx context.Context, entries []cache.Entry) error
}

// Archive is the cold tier contract.
type Archive interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// Source provides exchange market data.
type Source interface {
	GetQuotes(ctx context.Context, symbols []string) (map[string]model.Tick, error)
	GetBars(ctx context.Context, symbol string, tf model.Timeframe, limit int) ([]model.OhlcvBar, error)
}

// TickStream pushes ticks instead of polling for them.
type TickStream interface {
	Connect(ctx context.Context) error
	Close() error
	Ticks() <-chan model.Tick
	Errors() <-chan error
}

// HealthReporter aggregates store health.
type HealthReporter interface {
	HealthCheckAll(ctx context.Context) map[string]model.ConnectionHealth
	IsConnected() bool
}

// Janitor deletes aged rows from the warm tier.
type Janitor interface {
	CleanupOldData(ctx context.Context, days int) (map[string]int64, error)
}

// Stats are the pipeline's running counters.
type Stats struct {
	Total         uint64
	Succeeded     uint64
	Failed        uint64
	LastUpdate    time.Time
	AvgProcessing time.Duration
}

// HealthReport is the externally observable pipeline state.
type HealthReport struct {
	Running            bool
	SessionID          string
	Stores             map[string]model.ConnectionHealth
	Stats              Stats
	SecondsSinceUpdate float64 // -1 before the first successful update
}

// Pipeline is the ingestion and read orchestrator.
type Pipeline struct {
	cfg    config.Config
	logger *slog.Logger

	db        Warehouse
	kv        Cache
	archive   Archive
	source    Source
	newStream func() TickStream
	reporter  HealthReporter
	janitor   Janitor

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	running   bool
	sessionID uuid.UUID

	statsMu sync.Mutex
	stats   Stats
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithStreamFactory enables stream mode delivery of ticks. The factory
// is invoked per connection attempt; a closed stream is never reused.
func WithStreamFactory(f func() TickStream) Option {
	return func(p *Pipeline) { p.newStream = f }
}

// WithJanitor enables periodic retention cleanup.
func WithJanitor(j Janitor) Option {
	return func(p *Pipeline) { p.janitor = j }
}

// New creates a Pipeline over connected stores. The configuration is
// read once here; nothing re-reads it per call.
func New(cfg config.Config, db Warehouse, kv Cache, archive Archive, source Source, reporter HealthReporter, logger *slog.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}

	p := &Pipeline{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		kv:       kv,
		archive:  archive,
		source:   source,
		reporter: reporter,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Start begins ingestion in the configured mode. Not re-entrant; a
// second Start while running is a no-op.
func (p *Pipeline) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return nil
	}

	p.ctx, p.cancel = context.WithCancel(ctx)

	if err := p.registerSession(p.ctx); err != nil {
		p.cancel()
		return fmt.Errorf("register session: %w", err)
	}

	p.running = true

	p.wg.Add(1)
	if p.cfg.Pipeline.Mode == config.ModeStream && p.newStream != nil {
		go p.runStream()
	} else {
		go p.runPoll()
	}

	if p.janitor != nil && p.cfg.Retention.Days > 0 {
		p.wg.Add(1)
		go p.runRetention()
	}

	p.logger.Info("pipeline started",
		"mode", p.cfg.Pipeline.Mode,
		"symbols", len(p.cfg.Pipeline.Symbols),
		"interval", p.cfg.Pipeline.PollInterval,
	)

	return nil
}

// Stop halts ingestion at the next loop boundary. In-flight tick
// processing drains rather than being aborted mid-write.
func (p *Pipeline) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	sessionID := p.sessionID
	p.mu.Unlock()

	p.cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	if err := p.closeSession(ctx, sessionID); err != nil {
		p.logger.Warn("failed to close session", "error", err)
	}

	p.logger.Info("pipeline stopped")
	return nil
}

// IsRunning reports whether the ingestion loop is active.
func (p *Pipeline) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// runPoll is the polling loop: one batched quote fetch per cycle, then
// concurrent per-symbol processing.
func (p *Pipeline) runPoll() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.Pipeline.PollInterval)
	defer ticker.Stop()

	p.cycle()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.cycle()
		}
	}
}

// cycle fetches quotes for all symbols in one exchange call and fans
// the ticks out. A batch fetch failure costs one cycle, never the loop.
func (p *Pipeline) cycle() {
	start := time.Now()

	fetchCtx, cancel := context.WithTimeout(p.ctx, p.cfg.Binance.Timeout)
	quotes, err := p.source.GetQuotes(fetchCtx, p.cfg.Pipeline.Symbols)
	cancel()
	if err != nil {
		p.logger.Warn("quote fetch failed, skipping cycle", "error", err)
		return
	}

	var wg sync.WaitGroup
	for _, tick := range quotes {
		wg.Add(1)
		go func() {
			defer wg.Done()

			// Detached from the loop context so Stop drains in-flight
			// writes instead of aborting them. The command timeout and
			// Stop's own deadline still bound the drain.
			ctx, cancel := context.WithTimeout(context.WithoutCancel(p.ctx), p.cfg.Database.CommandTimeout)
			defer cancel()

			if err := p.ProcessTick(ctx, tick); err != nil {
				p.logger.Warn("tick processing failed",
					"symbol", tick.Symbol,
					"error", err,
				)
			}
		}()
	}
	wg.Wait()

	elapsed := time.Since(start)
	metrics.CycleDuration.Observe(elapsed.Seconds())

	p.logger.Debug("cycle complete",
		"symbols", len(quotes),
		"duration", elapsed,
	)
}

// runStream consumes pushed ticks, reconnecting with backoff when the
// stream drops.
func (p *Pipeline) runStream() {
	defer p.wg.Done()

	backoff := time.Second
	for {
		stream := p.newStream()
		if err := stream.Connect(p.ctx); err != nil {
			p.logger.Warn("stream connect failed", "error", err, "retry_in", backoff)
			select {
			case <-p.ctx.Done():
				return
			case <-time.After(backoff):
			}
			if backoff < time.Minute {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		if !p.consumeStream(stream) {
			return
		}
	}
}

// consumeStream drains the stream until it errors or the pipeline
// stops. Returns false when the pipeline is shutting down.
func (p *Pipeline) consumeStream(stream TickStream) bool {
	defer stream.Close()

	for {
		select {
		case <-p.ctx.Done():
			return false
		case err := <-stream.Errors():
			p.logger.Warn("stream failed, reconnecting", "error", err)
			return true
		case tick := <-stream.Ticks():
			ctx, cancel := context.WithTimeout(context.WithoutCancel(p.ctx), p.cfg.Database.CommandTimeout)
			if err := p.ProcessTick(ctx, tick); err != nil {
				p.logger.Warn("tick processing failed",
					"symbol", tick.Symbol,
					"error", err,
				)
			}
			cancel()
		}
	}
}

// runRetention periodically deletes rows past the retention window.
func (p *Pipeline) runRetention() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.Retention.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(p.ctx, 5*time.Minute)
			deleted, err := p.janitor.CleanupOldData(ctx, p.cfg.Retention.Days)
			cancel()
			if err != nil {
				p.logger.Warn("retention cleanup failed", "error", err)
				continue
			}
			var total int64
			for _, n := range deleted {
				total += n
			}
			p.logger.Info("retention cleanup complete", "rows", total, "days", p.cfg.Retention.Days)
		}
	}
}
