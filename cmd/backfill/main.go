// Command backfill loads historical OHLCV bars for the configured
// symbols across all timeframes, upserting into the warm tier and
// archiving large batches to the cold tier.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/helios-trading/helios-data/internal/archive"
	"github.com/helios-trading/helios-data/internal/binance"
	"github.com/helios-trading/helios-data/internal/cache"
	"github.com/helios-trading/helios-data/internal/config"
	"github.com/helios-trading/helios-data/internal/connection"
	"github.com/helios-trading/helios-data/internal/database"
	"github.com/helios-trading/helios-data/internal/model"
	"github.com/helios-trading/helios-data/internal/pipeline"
	"github.com/helios-trading/helios-data/internal/version"
)

// maxKlinesPerRequest is the exchange's page cap.
const maxKlinesPerRequest = 1000

func main() {
	configPath := flag.String("config", "configs/pipeline.local.yaml", "path to config file")
	symbolsFlag := flag.String("symbols", "", "comma-separated symbols (default: configured set)")
	days := flag.Int("days", 7, "how many days of history to request")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("starting backfill",
		"version", version.Version,
		"config", *configPath,
		"days", *days,
	)

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	symbols := cfg.Pipeline.Symbols
	if *symbolsFlag != "" {
		symbols = strings.Split(*symbolsFlag, ",")
	}

	ctx := context.Background()

	db := database.New(cfg.Database, cfg.Pipeline.BatchTxThreshold, logger)
	kv := cache.New(cfg.Redis, logger)
	cold := archive.New(cfg.Archive, logger)

	manager := connection.NewManager(map[string]connection.StoreAdapter{
		database.ServiceName: db,
		cache.ServiceName:    kv,
		archive.ServiceName:  cold,
	}, logger)

	if err := manager.ConnectAll(ctx); err != nil {
		logger.Error("failed to connect stores", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		manager.DisconnectAll(shutdownCtx)
	}()

	schema := database.NewSchemaManager(db, cfg.Database.Schema, logger)
	if err := schema.Initialize(ctx); err != nil {
		logger.Error("failed to initialize schema", "error", err)
		os.Exit(1)
	}

	client := binance.NewClient(
		cfg.Binance.RestURL,
		cfg.Binance.APIKey,
		binance.WithLogger(logger),
		binance.WithTimeout(cfg.Binance.Timeout),
		binance.WithRetries(cfg.Binance.MaxRetries, time.Second),
	)

	p := pipeline.New(*cfg, db, kv, cold, pipeline.NewBinanceSource(client), manager, logger)

	failures := 0
	for _, symbol := range symbols {
		for _, tf := range model.Timeframes() {
			limit := barLimit(tf, *days)

			n, err := p.FetchHistorical(ctx, symbol, tf, limit)
			if err != nil {
				logger.Error("backfill failed",
					"symbol", symbol,
					"timeframe", tf,
					"error", err,
				)
				failures++
				continue
			}

			logger.Info("backfilled",
				"symbol", symbol,
				"timeframe", tf,
				"bars", n,
			)
		}
	}

	if failures > 0 {
		logger.Error("backfill finished with failures", "failures", failures)
		os.Exit(1)
	}

	logger.Info("backfill complete", "symbols", len(symbols))
}

// barLimit converts a day span into a bar count, capped at the
// exchange page limit.
func barLimit(tf model.Timeframe, days int) int {
	bars := int(time.Duration(days) * 24 * time.Hour / tf.Duration())
	if bars > maxKlinesPerRequest {
		return maxKlinesPerRequest
	}
	if bars < 1 {
		return 1
	}
	return bars
}
