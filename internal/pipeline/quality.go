package pipeline

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/helios-trading/helios-data/internal/config"
	"github.com/helios-trading/helios-data/internal/model"
)

var hundred = decimal.NewFromInt(100)

// Deduction magnitudes. The thresholds that trigger them are tunable;
// the magnitudes are part of the scoring contract and are not.
const (
	deductMissingDepth = 0.2
	deductNoVolume     = 0.3
	deductVeryStale    = 0.3
	deductStale        = 0.1
	deductWideSpread   = 0.2
	deductRaisedSpread = 0.1
)

// MetricTypeTickerUpdate tags quality rows produced by tick processing.
const MetricTypeTickerUpdate = "ticker_update"

// QualityResult is the outcome of scoring one tick.
type QualityResult struct {
	Score   float64
	Level   model.AlertLevel
	Payload map[string]any
}

// scoreTick computes the quality score for one tick at one instant.
// Pure function; the payload carries the raw inputs for audit.
func scoreTick(tick model.Tick, now time.Time, cfg config.QualityConfig) QualityResult {
	score := 1.0

	hasDepth := tick.Bid.Valid && tick.Ask.Valid
	if !hasDepth {
		score -= deductMissingDepth
	}

	hasVolume := tick.Volume24h.IsPositive()
	if !hasVolume {
		score -= deductNoVolume
	}

	age := tick.Age(now)
	switch {
	case age > cfg.MaxDataAge:
		score -= deductVeryStale
	case age > cfg.StaleAfter:
		score -= deductStale
	}

	spreadPct := 0.0
	if spread, ok := tick.Spread(); ok && tick.Price.IsPositive() {
		spreadPct, _ = spread.Div(tick.Price).Mul(hundred).Float64()
		switch {
		case spreadPct > cfg.SpreadWidePct:
			score -= deductWideSpread
		case spreadPct > cfg.SpreadRaisedPct:
			score -= deductRaisedSpread
		}
	}

	if score < 0 {
		score = 0
	}

	payload := map[string]any{
		"price":       tick.Price.String(),
		"has_depth":   hasDepth,
		"has_volume":  hasVolume,
		"age_seconds": age.Seconds(),
		"spread_pct":  spreadPct,
	}

	return QualityResult{
		Score:   score,
		Level:   alertLevel(score, cfg),
		Payload: payload,
	}
}

// alertLevel maps a score onto the configured alert bands.
func alertLevel(score float64, cfg config.QualityConfig) model.AlertLevel {
	switch {
	case score >= cfg.ScoreGood:
		return model.AlertInfo
	case score >= cfg.ScoreAcceptable:
		return model.AlertWarning
	default:
		return model.AlertError
	}
}
