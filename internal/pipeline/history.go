package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/helios-trading/helios-data/internal/archive"
	"github.com/helios-trading/helios-data/internal/metrics"
	"github.com/helios-trading/helios-data/internal/model"
)

const upsertBarSQLTmpl = `
	INSERT INTO %s (
		symbol, timestamp, open_price, high_price, low_price,
		close_price, volume, trades_count, taker_buy_volume
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (symbol, timestamp) DO UPDATE SET
		open_price = EXCLUDED.open_price,
		high_price = EXCLUDED.high_price,
		low_price = EXCLUDED.low_price,
		close_price = EXCLUDED.close_price,
		volume = EXCLUDED.volume,
		trades_count = EXCLUDED.trades_count,
		taker_buy_volume = EXCLUDED.taker_buy_volume`

// FetchHistorical pulls OHLCV bars for one symbol and timeframe from
// the exchange, batch-upserts them into the warm tier, and archives
// large batches to the cold tier. Returns the number of bars stored.
//
// The archive step is best-effort: bars already durable in the warm
// tier outrank the parquet copy, so an upload failure is logged and
// swallowed.
func (p *Pipeline) FetchHistorical(ctx context.Context, symbol string, tf model.Timeframe, limit int) (int, error) {
	bars, err := p.source.GetBars(ctx, symbol, tf, limit)
	if err != nil {
		return 0, fmt.Errorf("fetch bars %s %s: %w", symbol, tf, err)
	}
	if len(bars) == 0 {
		return 0, nil
	}

	rows := make([][]any, 0, len(bars))
	for i, bar := range bars {
		if err := bar.Validate(); err != nil {
			return 0, fmt.Errorf("bar %d: %w", i, err)
		}
		rows = append(rows, barArgs(bar))
	}

	query := fmt.Sprintf(upsertBarSQLTmpl, tf.Table())
	if err := p.db.ExecuteMany(ctx, query, rows); err != nil {
		return 0, fmt.Errorf("upsert %d bars into %s: %w", len(rows), tf.Table(), err)
	}

	p.logger.Info("historical bars stored",
		"symbol", symbol,
		"timeframe", tf,
		"bars", len(bars),
	)

	if len(bars) >= p.cfg.Pipeline.ArchiveMinBars {
		p.archiveBars(ctx, symbol, tf, bars)
	}

	return len(bars), nil
}

// archiveBars uploads a parquet copy of the batch, best effort.
func (p *Pipeline) archiveBars(ctx context.Context, symbol string, tf model.Timeframe, bars []model.OhlcvBar) {
	data, err := archive.EncodeBars(bars)
	if err != nil {
		p.logger.Warn("parquet encode failed, skipping archive",
			"symbol", symbol,
			"timeframe", tf,
			"error", err,
		)
		return
	}

	key := archive.BarKey(symbol, tf, bars[0].Timestamp, time.Now())
	if err := p.archive.Put(ctx, key, data, archive.ContentTypeParquet); err != nil {
		p.logger.Warn("archive upload failed",
			"key", key,
			"error", err,
		)
		return
	}

	metrics.ArchiveUploads.WithLabelValues(symbol, string(tf)).Inc()
	metrics.ArchiveBytes.Add(float64(len(data)))

	p.logger.Info("batch archived", "key", key, "bytes", len(data))
}

// barArgs orders one bar's columns for the batched upsert. An unknown
// trade count stores as NULL.
func barArgs(bar model.OhlcvBar) []any {
	var trades any
	if bar.TradeCount >= 0 {
		trades = bar.TradeCount
	}

	return []any{
		bar.Symbol,
		bar.Timestamp,
		bar.Open,
		bar.High,
		bar.Low,
		bar.Close,
		bar.Volume,
		trades,
		bar.TakerBuyVolume,
	}
}
