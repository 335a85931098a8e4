package archive

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/helios-trading/helios-data/internal/model"
)

func bar(ts time.Time, close float64) model.OhlcvBar {
	return model.OhlcvBar{
		Symbol:     "BTCUSDT",
		Timestamp:  ts,
		Open:       decimal.NewFromFloat(close - 10),
		High:       decimal.NewFromFloat(close + 20),
		Low:        decimal.NewFromFloat(close - 20),
		Close:      decimal.NewFromFloat(close),
		Volume:     decimal.NewFromFloat(12.5),
		TradeCount: 42,
	}
}

func TestEncodeBarsRoundTrip(t *testing.T) {
	ts := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	bars := []model.OhlcvBar{bar(ts, 50000), bar(ts.Add(time.Minute), 50100)}

	data, err := EncodeBars(bars)
	if err != nil {
		t.Fatalf("EncodeBars: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("EncodeBars returned empty payload")
	}

	rows, err := DecodeBars(data)
	if err != nil {
		t.Fatalf("DecodeBars: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Symbol != "BTCUSDT" {
		t.Errorf("symbol = %q", rows[0].Symbol)
	}
	if rows[0].Timestamp != "2025-06-15T12:00:00Z" {
		t.Errorf("timestamp = %q", rows[0].Timestamp)
	}
	if rows[1].Close != 50100 {
		t.Errorf("close = %v", rows[1].Close)
	}
	if rows[0].Trades != 42 {
		t.Errorf("trades = %d", rows[0].Trades)
	}
}

func TestEncodeBarsEmpty(t *testing.T) {
	if _, err := EncodeBars(nil); err == nil {
		t.Fatal("expected error for empty batch")
	}
}

func TestBarKey(t *testing.T) {
	first := time.Date(2025, 6, 5, 9, 30, 0, 0, time.UTC)
	uploaded := time.Date(2025, 6, 5, 14, 22, 7, 0, time.UTC)

	key := BarKey("ETHUSDT", model.Timeframe1h, first, uploaded)
	want := "historical/ETHUSDT/1h/2025/06/05/ohlcv_142207.parquet"
	if key != want {
		t.Errorf("key = %q, want %q", key, want)
	}
}

func TestBarKeyUsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	first := time.Date(2025, 1, 1, 2, 0, 0, 0, loc) // 2024-12-31 21:00 UTC
	uploaded := first

	key := BarKey("BTCUSDT", model.Timeframe1m, first, uploaded)
	if !strings.Contains(key, "2024/12/31") {
		t.Errorf("key %q should be partitioned by UTC date", key)
	}
}
