package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/helios-trading/helios-data/internal/cache"
	"github.com/helios-trading/helios-data/internal/metrics"
	"github.com/helios-trading/helios-data/internal/model"
)

const upsertCurrentPriceSQL = `
	INSERT INTO current_prices (
		symbol, price, bid_price, ask_price, volume_24h,
		price_change_24h, price_change_percent_24h, high_24h, low_24h,
		timestamp, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, CURRENT_TIMESTAMP)
	ON CONFLICT (symbol) DO UPDATE SET
		price = EXCLUDED.price,
		bid_price = EXCLUDED.bid_price,
		ask_price = EXCLUDED.ask_price,
		volume_24h = EXCLUDED.volume_24h,
		price_change_24h = EXCLUDED.price_change_24h,
		price_change_percent_24h = EXCLUDED.price_change_percent_24h,
		high_24h = EXCLUDED.high_24h,
		low_24h = EXCLUDED.low_24h,
		timestamp = EXCLUDED.timestamp,
		updated_at = CURRENT_TIMESTAMP`

const insertQualityMetricSQL = `
	INSERT INTO data_quality_metrics (
		symbol, metric_type, metric_value, metric_data, quality_score, alert_level
	) VALUES ($1, $2, $3, $4, $5, $6)`

// ProcessTick runs the three-step fan-out for one tick: relational
// upsert, pipelined cache write, quality metric append. The relational
// step gates the rest; a tick the warm tier rejects never reaches the
// cache or the metrics table.
func (p *Pipeline) ProcessTick(ctx context.Context, tick model.Tick) error {
	start := time.Now()
	err := p.processTick(ctx, tick)
	elapsed := time.Since(start)

	p.recordOutcome(tick.Symbol, elapsed, err)
	return err
}

func (p *Pipeline) processTick(ctx context.Context, tick model.Tick) error {
	if err := tick.Validate(); err != nil {
		return err
	}

	// Step 1: authoritative relational upsert.
	_, err := p.db.Execute(ctx, upsertCurrentPriceSQL,
		tick.Symbol,
		tick.Price,
		tick.Bid,
		tick.Ask,
		tick.Volume24h,
		tick.Change24h,
		tick.ChangePct24h,
		tick.High24h,
		tick.Low24h,
		tick.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("upsert current price: %w", err)
	}

	// Step 2: hot tier, one pipelined round trip.
	if err := p.cacheTick(ctx, tick); err != nil {
		return fmt.Errorf("cache tick: %w", err)
	}

	// Step 3: quality score, appended for audit.
	if err := p.recordQuality(ctx, tick); err != nil {
		return fmt.Errorf("record quality: %w", err)
	}

	return nil
}

// tickerBlob is the full-ticker JSON cached under the ticker: key.
type tickerBlob struct {
	Symbol       string              `json:"symbol"`
	Price        decimal.Decimal     `json:"price"`
	Bid          decimal.NullDecimal `json:"bid"`
	Ask          decimal.NullDecimal `json:"ask"`
	Volume24h    decimal.Decimal     `json:"volume_24h"`
	Change24h    decimal.Decimal     `json:"change_24h"`
	ChangePct24h decimal.Decimal     `json:"change_pct_24h"`
	High24h      decimal.NullDecimal `json:"high_24h"`
	Low24h       decimal.NullDecimal `json:"low_24h"`
	Timestamp    time.Time           `json:"timestamp"`
}

// cacheTick writes the five scalar keys and the ticker blob in one
// pipelined batch. Scalars and blob carry different TTLs.
func (p *Pipeline) cacheTick(ctx context.Context, tick model.Tick) error {
	priceTTL := p.cfg.Pipeline.PriceTTL
	entries := []cache.Entry{
		{Key: cache.PriceKey(tick.Symbol), Value: tick.Price.String(), TTL: priceTTL},
		{Key: cache.VolumeKey(tick.Symbol), Value: tick.Volume24h.String(), TTL: priceTTL},
		{Key: cache.ChangeKey(tick.Symbol), Value: tick.ChangePct24h.String(), TTL: priceTTL},
	}
	if tick.Bid.Valid {
		entries = append(entries, cache.Entry{Key: cache.BidKey(tick.Symbol), Value: tick.Bid.Decimal.String(), TTL: priceTTL})
	}
	if tick.Ask.Valid {
		entries = append(entries, cache.Entry{Key: cache.AskKey(tick.Symbol), Value: tick.Ask.Decimal.String(), TTL: priceTTL})
	}

	blob, err := json.Marshal(tickerBlob{
		Symbol:       tick.Symbol,
		Price:        tick.Price,
		Bid:          tick.Bid,
		Ask:          tick.Ask,
		Volume24h:    tick.Volume24h,
		Change24h:    tick.Change24h,
		ChangePct24h: tick.ChangePct24h,
		High24h:      tick.High24h,
		Low24h:       tick.Low24h,
		Timestamp:    tick.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("marshal ticker blob: %w", err)
	}
	entries = append(entries, cache.Entry{
		Key:   cache.TickerKey(tick.Symbol),
		Value: string(blob),
		TTL:   p.cfg.Pipeline.TickerTTL,
	})

	return p.kv.PipelineSet(ctx, entries)
}

func (p *Pipeline) recordQuality(ctx context.Context, tick model.Tick) error {
	result := scoreTick(tick, time.Now(), p.cfg.Quality)

	payload, err := json.Marshal(result.Payload)
	if err != nil {
		return fmt.Errorf("marshal metric payload: %w", err)
	}

	_, err = p.db.Execute(ctx, insertQualityMetricSQL,
		tick.Symbol,
		MetricTypeTickerUpdate,
		tick.Price,
		payload,
		result.Score,
		string(result.Level),
	)
	if err != nil {
		return err
	}

	metrics.QualityScore.WithLabelValues(tick.Symbol).Observe(result.Score)

	if result.Level != model.AlertInfo {
		p.logger.Warn("degraded tick quality",
			"symbol", tick.Symbol,
			"score", result.Score,
			"level", result.Level,
		)
	}

	return nil
}

// recordOutcome updates the running counters and Prometheus series.
func (p *Pipeline) recordOutcome(symbol string, elapsed time.Duration, err error) {
	metrics.TickProcessingDuration.Observe(elapsed.Seconds())

	p.statsMu.Lock()
	defer p.statsMu.Unlock()

	p.stats.Total++
	if err != nil {
		p.stats.Failed++
		metrics.TicksFailed.WithLabelValues(symbol, failureReason(err)).Inc()
		return
	}

	p.stats.Succeeded++
	p.stats.LastUpdate = time.Now()
	if p.stats.AvgProcessing == 0 {
		p.stats.AvgProcessing = elapsed
	} else {
		// Exponentially weighted, recent cycles dominate.
		p.stats.AvgProcessing = (p.stats.AvgProcessing*9 + elapsed) / 10
	}
	metrics.TicksProcessed.WithLabelValues(symbol).Inc()
}

// GetCurrentPrice serves the tiered read path: hot tier first, warm
// tier on a miss. A symbol never seen is absence, not an error.
func (p *Pipeline) GetCurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, bool, error) {
	value, found, err := p.kv.Get(ctx, cache.PriceKey(symbol))
	if err != nil {
		p.logger.Warn("cache read failed, falling back", "symbol", symbol, "error", err)
	} else if found {
		price, perr := decimal.NewFromString(value)
		if perr == nil {
			metrics.CacheHits.WithLabelValues("hit").Inc()
			return price, true, nil
		}
		p.logger.Warn("unparseable cached price", "symbol", symbol, "value", value)
	}

	row, err := p.db.FetchOne(ctx, "SELECT price FROM current_prices WHERE symbol = $1", symbol)
	if err != nil {
		return decimal.Decimal{}, false, fmt.Errorf("fetch current price: %w", err)
	}
	if row == nil {
		metrics.CacheHits.WithLabelValues("absent").Inc()
		return decimal.Decimal{}, false, nil
	}

	price, err := toDecimal(row["price"])
	if err != nil {
		return decimal.Decimal{}, false, fmt.Errorf("decode stored price: %w", err)
	}

	metrics.CacheHits.WithLabelValues("fallback").Inc()
	return price, true, nil
}

// GetRecentOHLCV returns the most recent bars for a symbol and
// timeframe, newest first.
func (p *Pipeline) GetRecentOHLCV(ctx context.Context, symbol string, tf model.Timeframe, limit int) ([]model.OhlcvBar, error) {
	query := fmt.Sprintf(`
		SELECT symbol, timestamp, open_price, high_price, low_price,
		       close_price, volume, trades_count, taker_buy_volume
		FROM %s
		WHERE symbol = $1
		ORDER BY timestamp DESC
		LIMIT $2`, tf.Table())

	rows, err := p.db.FetchAll(ctx, query, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch recent ohlcv: %w", err)
	}

	bars := make([]model.OhlcvBar, 0, len(rows))
	for i, row := range rows {
		bar, err := rowToBar(row)
		if err != nil {
			return nil, fmt.Errorf("decode bar %d: %w", i, err)
		}
		bars = append(bars, bar)
	}

	return bars, nil
}

// Health reports the externally observable state of the pipeline.
func (p *Pipeline) Health(ctx context.Context) HealthReport {
	p.mu.Lock()
	running := p.running
	sessionID := p.sessionID
	p.mu.Unlock()

	p.statsMu.Lock()
	stats := p.stats
	p.statsMu.Unlock()

	sinceUpdate := -1.0
	if !stats.LastUpdate.IsZero() {
		sinceUpdate = time.Since(stats.LastUpdate).Seconds()
	}

	report := HealthReport{
		Running:            running,
		Stats:              stats,
		Stores:             p.reporter.HealthCheckAll(ctx),
		SecondsSinceUpdate: sinceUpdate,
	}
	if sessionID != uuid.Nil {
		report.SessionID = sessionID.String()
	}

	return report
}

// registerSession records this run in the session table.
func (p *Pipeline) registerSession(ctx context.Context) error {
	sessionID := uuid.New()

	configData, err := json.Marshal(map[string]any{
		"mode":          p.cfg.Pipeline.Mode,
		"poll_interval": p.cfg.Pipeline.PollInterval.String(),
		"instance":      p.cfg.Instance.ID,
	})
	if err != nil {
		return fmt.Errorf("marshal session config: %w", err)
	}

	_, err = p.db.Execute(ctx, `
		INSERT INTO trading_sessions (
			session_id, session_name, strategy_name, symbols, start_time, status, config_data
		) VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP, 'active', $5)`,
		sessionID,
		p.cfg.Instance.Name,
		"data_pipeline",
		p.cfg.Pipeline.Symbols,
		configData,
	)
	if err != nil {
		return err
	}

	p.sessionID = sessionID
	p.logger.Info("session registered", "session_id", sessionID)
	return nil
}

// closeSession marks the session completed at shutdown.
func (p *Pipeline) closeSession(ctx context.Context, sessionID uuid.UUID) error {
	if sessionID == uuid.Nil {
		return nil
	}

	_, err := p.db.Execute(ctx, `
		UPDATE trading_sessions
		SET end_time = CURRENT_TIMESTAMP, status = 'completed', updated_at = CURRENT_TIMESTAMP
		WHERE session_id = $1`,
		sessionID,
	)
	return err
}
