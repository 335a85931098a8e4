package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidTick is wrapped by all Tick and OhlcvBar validation failures.
// The relational schema enforces the same invariants with check constraints
// as defense in depth.
var ErrInvalidTick = errors.New("invalid market data")

// Timeframe identifies an OHLCV aggregation bucket.
type Timeframe string

const (
	Timeframe1m Timeframe = "1m"
	Timeframe5m Timeframe = "5m"
	Timeframe1h Timeframe = "1h"
	Timeframe4h Timeframe = "4h"
	Timeframe1d Timeframe = "1d"
)

// Timeframes returns all supported timeframes, shortest first.
func Timeframes() []Timeframe {
	return []Timeframe{Timeframe1m, Timeframe5m, Timeframe1h, Timeframe4h, Timeframe1d}
}

// ParseTimeframe validates a timeframe string.
func ParseTimeframe(s string) (Timeframe, error) {
	tf := Timeframe(s)
	for _, known := range Timeframes() {
		if tf == known {
			return tf, nil
		}
	}
	return "", fmt.Errorf("unsupported timeframe %q", s)
}

// Table returns the relational table backing this timeframe.
func (tf Timeframe) Table() string {
	return "ohlcv_" + string(tf)
}

// Duration returns the bucket width.
func (tf Timeframe) Duration() time.Duration {
	switch tf {
	case Timeframe1m:
		return time.Minute
	case Timeframe5m:
		return 5 * time.Minute
	case Timeframe1h:
		return time.Hour
	case Timeframe4h:
		return 4 * time.Hour
	case Timeframe1d:
		return 24 * time.Hour
	}
	return 0
}

// AlertLevel classifies a data quality metric.
type AlertLevel string

const (
	AlertInfo     AlertLevel = "info"
	AlertWarning  AlertLevel = "warning"
	AlertError    AlertLevel = "error"
	AlertCritical AlertLevel = "critical"
)

// Tick is one point-in-time quote for a trading symbol. Immutable; the
// pipeline owns it only for the duration of one processing call.
type Tick struct {
	Symbol       string
	Price        decimal.Decimal
	Bid          decimal.NullDecimal // absent when the exchange omits depth
	Ask          decimal.NullDecimal
	Volume24h    decimal.Decimal
	Change24h    decimal.Decimal // signed absolute move
	ChangePct24h decimal.Decimal // signed percentage move
	High24h      decimal.NullDecimal
	Low24h       decimal.NullDecimal
	Timestamp    time.Time // exchange event time, UTC
}

// Validate checks the field invariants that make a tick storable.
func (t Tick) Validate() error {
	if t.Symbol == "" {
		return fmt.Errorf("%w: empty symbol", ErrInvalidTick)
	}
	if !t.Price.IsPositive() {
		return fmt.Errorf("%w: price %s must be positive", ErrInvalidTick, t.Price)
	}
	if t.Bid.Valid && !t.Bid.Decimal.IsPositive() {
		return fmt.Errorf("%w: bid %s must be positive", ErrInvalidTick, t.Bid.Decimal)
	}
	if t.Ask.Valid && !t.Ask.Decimal.IsPositive() {
		return fmt.Errorf("%w: ask %s must be positive", ErrInvalidTick, t.Ask.Decimal)
	}
	if t.Bid.Valid && t.Ask.Valid && t.Bid.Decimal.GreaterThan(t.Ask.Decimal) {
		return fmt.Errorf("%w: bid %s above ask %s", ErrInvalidTick, t.Bid.Decimal, t.Ask.Decimal)
	}
	if t.Volume24h.IsNegative() {
		return fmt.Errorf("%w: negative 24h volume %s", ErrInvalidTick, t.Volume24h)
	}
	if t.High24h.Valid && t.Low24h.Valid {
		if t.Low24h.Decimal.GreaterThan(t.High24h.Decimal) {
			return fmt.Errorf("%w: low %s above high %s", ErrInvalidTick, t.Low24h.Decimal, t.High24h.Decimal)
		}
		if t.Price.LessThan(t.Low24h.Decimal) || t.Price.GreaterThan(t.High24h.Decimal) {
			return fmt.Errorf("%w: price %s outside 24h range [%s, %s]",
				ErrInvalidTick, t.Price, t.Low24h.Decimal, t.High24h.Decimal)
		}
	}
	if t.Timestamp.IsZero() {
		return fmt.Errorf("%w: zero timestamp", ErrInvalidTick)
	}
	return nil
}

// Spread returns ask-bid, or false when either side is absent.
func (t Tick) Spread() (decimal.Decimal, bool) {
	if !t.Bid.Valid || !t.Ask.Valid {
		return decimal.Decimal{}, false
	}
	return t.Ask.Decimal.Sub(t.Bid.Decimal), true
}

// Age returns how stale the tick is relative to now.
func (t Tick) Age(now time.Time) time.Duration {
	return now.Sub(t.Timestamp)
}

// CurrentPriceRecord is the latest-wins relational row for one symbol.
type CurrentPriceRecord struct {
	Tick
	UpdatedAt time.Time
}

// OhlcvBar is one symbol's aggregate over one timeframe bucket, keyed by
// (symbol, open time). Upserts replace on conflict so replays are idempotent.
type OhlcvBar struct {
	Symbol         string
	Timestamp      time.Time // bucket open time, UTC
	Open           decimal.Decimal
	High           decimal.Decimal
	Low            decimal.Decimal
	Close          decimal.Decimal
	Volume         decimal.Decimal
	TradeCount     int64 // -1 when unknown
	TakerBuyVolume decimal.NullDecimal
}

// Validate checks the OHLC ordering invariants.
func (b OhlcvBar) Validate() error {
	if b.Symbol == "" {
		return fmt.Errorf("%w: empty symbol", ErrInvalidTick)
	}
	for _, p := range []decimal.Decimal{b.Open, b.High, b.Low, b.Close} {
		if !p.IsPositive() {
			return fmt.Errorf("%w: non-positive ohlc price for %s", ErrInvalidTick, b.Symbol)
		}
	}
	if b.High.LessThan(decimal.Max(b.Open, b.Close)) {
		return fmt.Errorf("%w: high %s below open/close", ErrInvalidTick, b.High)
	}
	if b.Low.GreaterThan(decimal.Min(b.Open, b.Close)) {
		return fmt.Errorf("%w: low %s above open/close", ErrInvalidTick, b.Low)
	}
	if b.Volume.IsNegative() {
		return fmt.Errorf("%w: negative volume %s", ErrInvalidTick, b.Volume)
	}
	return nil
}

// ConnectionHealth is a point-in-time health snapshot for one backing store.
// Recomputed on demand, never persisted.
type ConnectionHealth struct {
	Service      string
	Healthy      bool
	ResponseTime time.Duration
	Error        string // empty when healthy
	LastCheck    time.Time
}

// DataQualityMetric is one append-only quality observation for a symbol.
type DataQualityMetric struct {
	Symbol       string
	MetricType   string // "ticker_update" for pipeline ticks
	MetricValue  decimal.Decimal
	QualityScore float64 // 0.0 - 1.0
	AlertLevel   AlertLevel
	MetricData   map[string]any // raw scoring inputs, kept for audit
}
