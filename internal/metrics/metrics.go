package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/helios-trading/helios-data/internal/model"
)

var (
	TicksProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "helios_ticks_processed_total", Help: "Ticks fully persisted across all tiers"},
		[]string{"symbol"},
	)
	TicksFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "helios_ticks_failed_total", Help: "Ticks rejected or failed during processing"},
		[]string{"symbol", "reason"},
	)
	CycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "helios_cycle_duration_seconds",
			Help:    "Duration of one full ingestion cycle",
			Buckets: prometheus.DefBuckets,
		},
	)
	TickProcessingDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "helios_tick_processing_seconds",
			Help:    "Duration of processing a single tick",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
	)
	QualityScore = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "helios_quality_score",
			Help:    "Distribution of computed data quality scores",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		},
		[]string{"symbol"},
	)
	ArchiveUploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "helios_archive_uploads_total", Help: "Parquet batches uploaded to the cold tier"},
		[]string{"symbol", "timeframe"},
	)
	ArchiveBytes = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "helios_archive_bytes_total", Help: "Total bytes uploaded to the cold tier"},
	)
	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "helios_cache_reads_total", Help: "Hot tier read outcomes"},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		TicksProcessed,
		TicksFailed,
		CycleDuration,
		TickProcessingDuration,
		QualityScore,
		ArchiveUploads,
		ArchiveBytes,
		CacheHits,
	)
}

// HealthFunc reports per-service health for the /healthz endpoint.
type HealthFunc func(ctx context.Context) map[string]model.ConnectionHealth

// Serve starts the metrics and health HTTP server in the background.
// The caller owns shutdown.
func Serve(addr string, health HealthFunc) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		results := health(ctx)
		healthy := true
		for _, h := range results {
			if !h.Healthy {
				healthy = false
				break
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if !healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(results)
	})

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", "addr", addr, "error", err)
		}
	}()
	return srv
}
