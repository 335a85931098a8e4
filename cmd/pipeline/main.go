package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/helios-trading/helios-data/internal/archive"
	"github.com/helios-trading/helios-data/internal/binance"
	"github.com/helios-trading/helios-data/internal/cache"
	"github.com/helios-trading/helios-data/internal/config"
	"github.com/helios-trading/helios-data/internal/connection"
	"github.com/helios-trading/helios-data/internal/database"
	"github.com/helios-trading/helios-data/internal/metrics"
	"github.com/helios-trading/helios-data/internal/pipeline"
	"github.com/helios-trading/helios-data/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/pipeline.local.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting pipeline",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"mode", cfg.Pipeline.Mode,
		"symbols", len(cfg.Pipeline.Symbols),
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Build the three store adapters
	db := database.New(cfg.Database, cfg.Pipeline.BatchTxThreshold, logger)
	kv := cache.New(cfg.Redis, logger)
	cold := archive.New(cfg.Archive, logger)

	manager := connection.NewManager(map[string]connection.StoreAdapter{
		database.ServiceName: db,
		cache.ServiceName:    kv,
		archive.ServiceName:  cold,
	}, logger)

	logger.Info("connecting stores",
		"db_host", cfg.Database.Host,
		"redis_host", cfg.Redis.Host,
		"archive_bucket", cfg.Archive.Bucket,
	)

	if err := manager.ConnectAll(ctx); err != nil {
		logger.Error("failed to connect stores", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		manager.DisconnectAll(shutdownCtx)
	}()

	// Provision and verify the schema
	schema := database.NewSchemaManager(db, cfg.Database.Schema, logger)
	if err := schema.Initialize(ctx); err != nil {
		logger.Error("failed to initialize schema", "error", err)
		os.Exit(1)
	}

	verify, err := schema.Verify(ctx)
	if err != nil {
		logger.Error("failed to verify schema", "error", err)
		os.Exit(1)
	}
	if len(verify.MissingTables) > 0 || len(verify.MissingIndexes) > 0 {
		logger.Error("schema incomplete",
			"missing_tables", verify.MissingTables,
			"missing_indexes", verify.MissingIndexes,
		)
		os.Exit(1)
	}
	logger.Info("schema ready", "tables", verify.TableCount, "indexes", verify.IndexCount)

	// Exchange client
	client := binance.NewClient(
		cfg.Binance.RestURL,
		cfg.Binance.APIKey,
		binance.WithLogger(logger),
		binance.WithTimeout(cfg.Binance.Timeout),
		binance.WithRetries(cfg.Binance.MaxRetries, time.Second),
	)

	opts := []pipeline.Option{pipeline.WithJanitor(schema)}
	if cfg.Pipeline.Mode == config.ModeStream {
		opts = append(opts, pipeline.WithStreamFactory(func() pipeline.TickStream {
			return binance.NewStream(binance.StreamConfig{
				URL:     cfg.Binance.WSURL,
				Symbols: cfg.Pipeline.Symbols,
			}, logger)
		}))
	}

	p := pipeline.New(*cfg,
		db, kv, cold,
		pipeline.NewBinanceSource(client),
		manager,
		logger,
		opts...,
	)

	// Metrics and health endpoint
	metricsAddr := fmt.Sprintf(":%d", cfg.Metrics.Port)
	metricsServer := metrics.Serve(metricsAddr, manager.HealthCheckAll)
	logger.Info("metrics server started", "addr", metricsAddr)

	if err := p.Start(ctx); err != nil {
		logger.Error("failed to start pipeline", "error", err)
		os.Exit(1)
	}

	logger.Info("pipeline running", "instance_id", cfg.Instance.ID)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := p.Stop(shutdownCtx); err != nil {
		logger.Error("pipeline shutdown error", "error", err)
	}
	metricsServer.Shutdown(shutdownCtx)

	logger.Info("pipeline stopped")
}
