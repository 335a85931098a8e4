package binance

import (
	"testing"
	"time"
)

func sampleTicker() Ticker24h {
	return Ticker24h{
		Symbol:             "BTCUSDT",
		PriceChange:        "-95.5",
		PriceChangePercent: "-0.189",
		LastPrice:          "50000.00",
		BidPrice:           "49999.90",
		AskPrice:           "50000.10",
		HighPrice:          "51000.00",
		LowPrice:           "49500.00",
		Volume:             "8913.3",
		CloseTime:          1717492740000,
	}
}

func TestTickerToTick(t *testing.T) {
	ticker := sampleTicker()

	tick, err := ticker.ToTick()
	if err != nil {
		t.Fatalf("ToTick: %v", err)
	}

	if tick.Symbol != "BTCUSDT" {
		t.Errorf("symbol = %q", tick.Symbol)
	}
	if tick.Price.String() != "50000" {
		t.Errorf("price = %s", tick.Price)
	}
	if !tick.Bid.Valid || tick.Bid.Decimal.String() != "49999.9" {
		t.Errorf("bid = %+v", tick.Bid)
	}
	if !tick.Ask.Valid || tick.Ask.Decimal.String() != "50000.1" {
		t.Errorf("ask = %+v", tick.Ask)
	}
	if tick.Change24h.String() != "-95.5" {
		t.Errorf("change = %s", tick.Change24h)
	}
	want := time.Date(2024, 6, 4, 9, 19, 0, 0, time.UTC)
	if !tick.Timestamp.Equal(want) {
		t.Errorf("timestamp = %v, want %v", tick.Timestamp, want)
	}
	if err := tick.Validate(); err != nil {
		t.Errorf("converted tick invalid: %v", err)
	}
}

func TestTickerToTickZeroDepth(t *testing.T) {
	ticker := sampleTicker()
	ticker.BidPrice = "0.00000000"
	ticker.AskPrice = ""

	tick, err := ticker.ToTick()
	if err != nil {
		t.Fatalf("ToTick: %v", err)
	}
	if tick.Bid.Valid {
		t.Error("zero bid should be absent")
	}
	if tick.Ask.Valid {
		t.Error("empty ask should be absent")
	}
}

func TestTickerToTickBadPrice(t *testing.T) {
	ticker := sampleTicker()
	ticker.LastPrice = "not-a-number"

	if _, err := ticker.ToTick(); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestTickerEventToTick(t *testing.T) {
	event := TickerEvent{
		EventType:          "24hrTicker",
		EventTime:          1717492740000,
		Symbol:             "ETHUSDT",
		PriceChange:        "12.5",
		PriceChangePercent: "0.42",
		LastPrice:          "3000.00",
		BidPrice:           "2999.95",
		AskPrice:           "3000.05",
		HighPrice:          "3050.00",
		LowPrice:           "2950.00",
		Volume:             "1234.5",
	}

	tick, err := event.ToTick()
	if err != nil {
		t.Fatalf("ToTick: %v", err)
	}
	if tick.Symbol != "ETHUSDT" {
		t.Errorf("symbol = %q", tick.Symbol)
	}
	if err := tick.Validate(); err != nil {
		t.Errorf("converted tick invalid: %v", err)
	}
}

func TestKlineToBar(t *testing.T) {
	k := Kline{
		OpenTime:       1717406400000,
		Open:           "50000.1",
		High:           "50100.2",
		Low:            "49900.3",
		Close:          "50050.4",
		Volume:         "123.45",
		TradeCount:     321,
		TakerBuyVolume: "60.5",
	}

	bar, err := k.ToBar("BTCUSDT")
	if err != nil {
		t.Fatalf("ToBar: %v", err)
	}
	if bar.Symbol != "BTCUSDT" {
		t.Errorf("symbol = %q", bar.Symbol)
	}
	if bar.Open.String() != "50000.1" || bar.Close.String() != "50050.4" {
		t.Errorf("open/close = %s/%s", bar.Open, bar.Close)
	}
	if bar.TradeCount != 321 {
		t.Errorf("tradeCount = %d", bar.TradeCount)
	}
	if !bar.TakerBuyVolume.Valid {
		t.Error("takerBuyVolume should be present")
	}
	if !bar.Timestamp.Equal(time.UnixMilli(1717406400000)) {
		t.Errorf("timestamp = %v", bar.Timestamp)
	}
	if err := bar.Validate(); err != nil {
		t.Errorf("converted bar invalid: %v", err)
	}
}

func TestKlineToBarBadField(t *testing.T) {
	k := Kline{OpenTime: 1, Open: "x", High: "1", Low: "1", Close: "1", Volume: "1"}
	if _, err := k.ToBar("BTCUSDT"); err == nil {
		t.Fatal("expected parse error")
	}
}
