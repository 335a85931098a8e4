package pipeline

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/helios-trading/helios-data/internal/config"
	"github.com/helios-trading/helios-data/internal/model"
)

func qualityConfig() config.QualityConfig {
	return config.QualityConfig{
		MaxDataAge:      300 * time.Second,
		StaleAfter:      60 * time.Second,
		SpreadWidePct:   1.0,
		SpreadRaisedPct: 0.5,
		ScoreGood:       0.85,
		ScoreAcceptable: 0.70,
	}
}

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func nd(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d(s), Valid: true}
}

func freshTick(now time.Time) model.Tick {
	return model.Tick{
		Symbol:    "BTCUSDT",
		Price:     d("50000.25"),
		Bid:       nd("50000.00"),
		Ask:       nd("50000.50"),
		Volume24h: d("1234.56"),
		Timestamp: now,
	}
}

func TestScorePerfectTick(t *testing.T) {
	now := time.Now()
	result := scoreTick(freshTick(now), now, qualityConfig())

	if result.Score != 1.0 {
		t.Errorf("score = %v, want 1.0", result.Score)
	}
	if result.Level != model.AlertInfo {
		t.Errorf("level = %v, want info", result.Level)
	}
}

func TestScoreFullyDegradedTick(t *testing.T) {
	// No depth, zero volume, 10 minutes old: 1.0 - 0.2 - 0.3 - 0.3 = 0.2.
	now := time.Now()
	tick := model.Tick{
		Symbol:    "BTCUSDT",
		Price:     d("50000"),
		Volume24h: decimal.Zero,
		Timestamp: now.Add(-10 * time.Minute),
	}

	result := scoreTick(tick, now, qualityConfig())
	if diff := result.Score - 0.2; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("score = %v, want 0.2", result.Score)
	}
	if result.Level != model.AlertError {
		t.Errorf("level = %v, want error", result.Level)
	}
}

func TestScoreAgeBands(t *testing.T) {
	now := time.Now()
	cfg := qualityConfig()

	tests := []struct {
		name string
		age  time.Duration
		want float64
	}{
		{"fresh", 10 * time.Second, 1.0},
		{"raised", 2 * time.Minute, 0.9},
		{"stale", 6 * time.Minute, 0.7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tick := freshTick(now.Add(-tt.age))
			result := scoreTick(tick, now, cfg)
			if diff := result.Score - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("score = %v, want %v", result.Score, tt.want)
			}
		})
	}
}

func TestScoreSpreadBands(t *testing.T) {
	now := time.Now()
	cfg := qualityConfig()

	tests := []struct {
		name string
		bid  string
		ask  string
		want float64
	}{
		{"tight", "100.00", "100.10", 1.0},  // 0.1%
		{"raised", "100.00", "100.70", 0.9}, // 0.7%
		{"wide", "100.00", "101.50", 0.8},   // 1.5%
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tick := model.Tick{
				Symbol:    "ETHUSDT",
				Price:     d("100.00"),
				Bid:       nd(tt.bid),
				Ask:       nd(tt.ask),
				Volume24h: d("10"),
				Timestamp: now,
			}
			result := scoreTick(tick, now, cfg)
			if diff := result.Score - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("score = %v, want %v", result.Score, tt.want)
			}
		})
	}
}

// Degradations only ever push the score down, and never below zero.
func TestScoreMonotonicity(t *testing.T) {
	now := time.Now()
	cfg := qualityConfig()

	tick := freshTick(now)
	prev := scoreTick(tick, now, cfg).Score

	degrade := []func(*model.Tick){
		func(tk *model.Tick) { tk.Bid = decimal.NullDecimal{} },
		func(tk *model.Tick) { tk.Volume24h = decimal.Zero },
		func(tk *model.Tick) { tk.Timestamp = now.Add(-10 * time.Minute) },
	}

	for i, apply := range degrade {
		apply(&tick)
		score := scoreTick(tick, now, cfg).Score
		if score > prev {
			t.Errorf("step %d: score rose from %v to %v", i, prev, score)
		}
		if score < 0 || score > 1 {
			t.Errorf("step %d: score %v outside [0,1]", i, score)
		}
		prev = score
	}
}

func TestAlertLevelBands(t *testing.T) {
	cfg := qualityConfig()

	tests := []struct {
		score float64
		want  model.AlertLevel
	}{
		{1.0, model.AlertInfo},
		{0.85, model.AlertInfo},
		{0.84, model.AlertWarning},
		{0.70, model.AlertWarning},
		{0.69, model.AlertError},
		{0.0, model.AlertError},
	}

	for _, tt := range tests {
		if got := alertLevel(tt.score, cfg); got != tt.want {
			t.Errorf("alertLevel(%v) = %v, want %v", tt.score, got, tt.want)
		}
	}
}
