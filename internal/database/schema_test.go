package database

import (
	"strings"
	"testing"
)

func TestExpectedTables(t *testing.T) {
	tables := expectedTables()
	want := []string{
		"current_prices",
		"ohlcv_1m", "ohlcv_5m", "ohlcv_1h", "ohlcv_4h", "ohlcv_1d",
		"trading_sessions", "data_quality_metrics",
	}
	if len(tables) != len(want) {
		t.Fatalf("expectedTables() has %d entries, want %d", len(tables), len(want))
	}
	for i, name := range want {
		if tables[i] != name {
			t.Errorf("expectedTables()[%d] = %q, want %q", i, tables[i], name)
		}
	}
}

func TestTableDDLIdempotent(t *testing.T) {
	for _, stmt := range tableDDL("helios_trading") {
		if !strings.Contains(stmt, "IF NOT EXISTS") {
			t.Errorf("DDL missing IF NOT EXISTS: %.80s", stmt)
		}
		if !strings.Contains(stmt, "helios_trading.") {
			t.Errorf("DDL not schema-qualified: %.80s", stmt)
		}
	}
	for _, stmt := range indexDDL("helios_trading") {
		if !strings.Contains(stmt, "IF NOT EXISTS") {
			t.Errorf("index DDL missing IF NOT EXISTS: %.80s", stmt)
		}
	}
}

func TestCurrentPricesConstraints(t *testing.T) {
	ddl := currentPricesDDL("s")
	for _, constraint := range []string{
		"price_positive", "bid_ask_valid", "high_low_valid",
		"volume_non_negative", "timestamp_recent",
	} {
		if !strings.Contains(ddl, constraint) {
			t.Errorf("current_prices DDL missing constraint %q", constraint)
		}
	}
	if !strings.Contains(ddl, "PRIMARY KEY (symbol)") {
		t.Error("current_prices DDL missing symbol primary key")
	}
}

func TestOhlcvConstraints(t *testing.T) {
	ddl := ohlcvDDL("s", "ohlcv_1h")
	for _, want := range []string{
		"PRIMARY KEY (symbol, timestamp)",
		"ohlcv_1h_prices_positive",
		"ohlcv_1h_ohlc_valid",
		"ohlcv_1h_volume_non_negative",
		"GREATEST(open_price, close_price)",
		"LEAST(open_price, close_price)",
	} {
		if !strings.Contains(ddl, want) {
			t.Errorf("ohlcv DDL missing %q", want)
		}
	}
}

func TestIndexDDLCoversReadPatterns(t *testing.T) {
	joined := strings.Join(indexDDL("s"), "\n")

	// Recent-N-bars-for-symbol pattern
	if !strings.Contains(joined, "ON s.ohlcv_1m (symbol, timestamp DESC)") {
		t.Error("missing symbol+timestamp index on ohlcv_1m")
	}
	// Most-recently-updated-prices pattern
	if !strings.Contains(joined, "ON s.current_prices (updated_at DESC)") {
		t.Error("missing updated_at index on current_prices")
	}
}

func TestExpectedIndexesMatchDDL(t *testing.T) {
	joined := strings.Join(indexDDL("s"), "\n")
	for _, idx := range expectedIndexes() {
		if !strings.Contains(joined, idx+" ") {
			t.Errorf("expected index %q has no CREATE statement", idx)
		}
	}
}
