package binance

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/helios-trading/helios-data/internal/model"
)

// parseDecimal parses a required decimal field.
func parseDecimal(s, field string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse %s %q: %w", field, s, err)
	}
	return d, nil
}

// parseNullDecimal parses an optional decimal field. Empty and "0" both
// mean absent; Binance reports a zero bid or ask when the book side has
// no depth.
func parseNullDecimal(s string) decimal.NullDecimal {
	if s == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsZero() {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// ToTick converts a 24hr ticker to a model tick. The tick timestamp is
// the server close time of the rolling window.
func (t *Ticker24h) ToTick() (model.Tick, error) {
	price, err := parseDecimal(t.LastPrice, "last price")
	if err != nil {
		return model.Tick{}, err
	}
	volume, err := parseDecimal(t.Volume, "volume")
	if err != nil {
		return model.Tick{}, err
	}
	change, err := parseDecimal(t.PriceChange, "price change")
	if err != nil {
		return model.Tick{}, err
	}
	changePct, err := parseDecimal(t.PriceChangePercent, "price change percent")
	if err != nil {
		return model.Tick{}, err
	}

	return model.Tick{
		Symbol:       t.Symbol,
		Price:        price,
		Bid:          parseNullDecimal(t.BidPrice),
		Ask:          parseNullDecimal(t.AskPrice),
		Volume24h:    volume,
		Change24h:    change,
		ChangePct24h: changePct,
		High24h:      parseNullDecimal(t.HighPrice),
		Low24h:       parseNullDecimal(t.LowPrice),
		Timestamp:    time.UnixMilli(t.CloseTime).UTC(),
	}, nil
}

// ToTick converts a stream ticker event to a model tick.
func (e *TickerEvent) ToTick() (model.Tick, error) {
	price, err := parseDecimal(e.LastPrice, "last price")
	if err != nil {
		return model.Tick{}, err
	}
	volume, err := parseDecimal(e.Volume, "volume")
	if err != nil {
		return model.Tick{}, err
	}
	change, err := parseDecimal(e.PriceChange, "price change")
	if err != nil {
		return model.Tick{}, err
	}
	changePct, err := parseDecimal(e.PriceChangePercent, "price change percent")
	if err != nil {
		return model.Tick{}, err
	}

	return model.Tick{
		Symbol:       e.Symbol,
		Price:        price,
		Bid:          parseNullDecimal(e.BidPrice),
		Ask:          parseNullDecimal(e.AskPrice),
		Volume24h:    volume,
		Change24h:    change,
		ChangePct24h: changePct,
		High24h:      parseNullDecimal(e.HighPrice),
		Low24h:       parseNullDecimal(e.LowPrice),
		Timestamp:    time.UnixMilli(e.EventTime).UTC(),
	}, nil
}

// ToBar converts a kline to an OHLCV bar. The bar timestamp is the
// bucket open time.
func (k *Kline) ToBar(symbol string) (model.OhlcvBar, error) {
	open, err := parseDecimal(k.Open, "open")
	if err != nil {
		return model.OhlcvBar{}, err
	}
	high, err := parseDecimal(k.High, "high")
	if err != nil {
		return model.OhlcvBar{}, err
	}
	low, err := parseDecimal(k.Low, "low")
	if err != nil {
		return model.OhlcvBar{}, err
	}
	closeP, err := parseDecimal(k.Close, "close")
	if err != nil {
		return model.OhlcvBar{}, err
	}
	volume, err := parseDecimal(k.Volume, "volume")
	if err != nil {
		return model.OhlcvBar{}, err
	}

	return model.OhlcvBar{
		Symbol:         symbol,
		Timestamp:      time.UnixMilli(k.OpenTime).UTC(),
		Open:           open,
		High:           high,
		Low:            low,
		Close:          closeP,
		Volume:         volume,
		TradeCount:     k.TradeCount,
		TakerBuyVolume: parseNullDecimal(k.TakerBuyVolume),
	}, nil
}
