package model

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

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

func validTick() Tick {
	return Tick{
		Symbol:    "BTCUSDT",
		Price:     d("50000.25"),
		Bid:       nd("50000.00"),
		Ask:       nd("50000.50"),
		Volume24h: d("1234.56"),
		High24h:   nd("51000"),
		Low24h:    nd("49000"),
		Timestamp: time.Now().UTC(),
	}
}

func TestTickValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Tick)
		wantErr bool
	}{
		{"valid", func(*Tick) {}, false},
		{"missing bid/ask ok", func(tk *Tick) {
			tk.Bid = decimal.NullDecimal{}
			tk.Ask = decimal.NullDecimal{}
		}, false},
		{"empty symbol", func(tk *Tick) { tk.Symbol = "" }, true},
		{"zero price", func(tk *Tick) { tk.Price = decimal.Zero }, true},
		{"negative price", func(tk *Tick) { tk.Price = d("-1") }, true},
		{"bid above ask", func(tk *Tick) {
			tk.Bid = nd("50001")
			tk.Ask = nd("50000")
		}, true},
		{"negative volume", func(tk *Tick) { tk.Volume24h = d("-0.01") }, true},
		{"low above high", func(tk *Tick) {
			tk.High24h = nd("49000")
			tk.Low24h = nd("51000")
		}, true},
		{"price above 24h high", func(tk *Tick) { tk.Price = d("51000.01") }, true},
		{"price below 24h low", func(tk *Tick) { tk.Price = d("48999.99") }, true},
		{"price at 24h high ok", func(tk *Tick) { tk.Price = d("51000") }, false},
		{"price outside range but high absent ok", func(tk *Tick) {
			tk.High24h = decimal.NullDecimal{}
			tk.Price = d("60000")
		}, false},
		{"zero timestamp", func(tk *Tick) { tk.Timestamp = time.Time{} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tick := validTick()
			tt.mutate(&tick)
			err := tick.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidTick) {
				t.Errorf("error %v does not wrap ErrInvalidTick", err)
			}
		})
	}
}

func TestTickSpread(t *testing.T) {
	tick := validTick()
	spread, ok := tick.Spread()
	if !ok {
		t.Fatal("Spread() ok = false for two-sided tick")
	}
	if !spread.Equal(d("0.50")) {
		t.Errorf("Spread() = %s, want 0.50", spread)
	}

	tick.Bid = decimal.NullDecimal{}
	if _, ok := tick.Spread(); ok {
		t.Error("Spread() ok = true with missing bid")
	}
}

func TestOhlcvBarValidate(t *testing.T) {
	valid := OhlcvBar{
		Symbol:     "ETHUSDT",
		Timestamp:  time.Now().UTC(),
		Open:       d("3000"),
		High:       d("3100"),
		Low:        d("2950"),
		Close:      d("3050"),
		Volume:     d("42.5"),
		TradeCount: 10,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() error = %v for valid bar", err)
	}

	tests := []struct {
		name   string
		mutate func(*OhlcvBar)
	}{
		{"zero open", func(b *OhlcvBar) { b.Open = decimal.Zero }},
		{"high below close", func(b *OhlcvBar) { b.High = d("3040") }},
		{"low above open", func(b *OhlcvBar) { b.Low = d("3010") }},
		{"negative volume", func(b *OhlcvBar) { b.Volume = d("-1") }},
		{"empty symbol", func(b *OhlcvBar) { b.Symbol = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := valid
			tt.mutate(&bar)
			if err := bar.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestParseTimeframe(t *testing.T) {
	for _, tf := range Timeframes() {
		got, err := ParseTimeframe(string(tf))
		if err != nil {
			t.Errorf("ParseTimeframe(%q) error = %v", tf, err)
		}
		if got != tf {
			t.Errorf("ParseTimeframe(%q) = %q", tf, got)
		}
	}

	if _, err := ParseTimeframe("15m"); err == nil {
		t.Error("ParseTimeframe(15m) = nil error, want unsupported")
	}
}

func TestTimeframeTable(t *testing.T) {
	want := map[Timeframe]string{
		Timeframe1m: "ohlcv_1m",
		Timeframe5m: "ohlcv_5m",
		Timeframe1h: "ohlcv_1h",
		Timeframe4h: "ohlcv_4h",
		Timeframe1d: "ohlcv_1d",
	}
	for tf, table := range want {
		if got := tf.Table(); got != table {
			t.Errorf("%q.Table() = %q, want %q", tf, got, table)
		}
	}
}
