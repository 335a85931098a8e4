package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/helios-trading/helios-data/internal/model"
)

// GetTicker24h fetches the 24hr rolling window ticker for one symbol.
func (c *Client) GetTicker24h(ctx context.Context, symbol string) (*Ticker24h, error) {
	query := url.Values{}
	query.Set("symbol", symbol)

	var resp Ticker24h
	if err := c.get(ctx, "/api/v3/ticker/24hr", query, &resp); err != nil {
		return nil, fmt.Errorf("get ticker %s: %w", symbol, err)
	}

	return &resp, nil
}

// GetTickers24h fetches 24hr tickers for several symbols in one request.
func (c *Client) GetTickers24h(ctx context.Context, symbols []string) ([]Ticker24h, error) {
	if len(symbols) == 0 {
		return nil, nil
	}

	// The symbols parameter is a JSON array, e.g. ["BTCUSDT","ETHUSDT"].
	encoded, err := json.Marshal(symbols)
	if err != nil {
		return nil, fmt.Errorf("encode symbols: %w", err)
	}

	query := url.Values{}
	query.Set("symbols", string(encoded))

	var resp []Ticker24h
	if err := c.get(ctx, "/api/v3/ticker/24hr", query, &resp); err != nil {
		return nil, fmt.Errorf("get tickers: %w", err)
	}

	return resp, nil
}

// GetKlinesOptions narrows a kline request.
type GetKlinesOptions struct {
	StartTime int64 // ms since epoch, 0 = unset
	EndTime   int64 // ms since epoch, 0 = unset
	Limit     int   // 0 = server default (500), max 1000
}

// GetKlines fetches klines for a symbol and timeframe.
func (c *Client) GetKlines(ctx context.Context, symbol string, tf model.Timeframe, opts GetKlinesOptions) ([]Kline, error) {
	query := url.Values{}
	query.Set("symbol", symbol)
	query.Set("interval", string(tf))
	if opts.StartTime > 0 {
		query.Set("startTime", strconv.FormatInt(opts.StartTime, 10))
	}
	if opts.EndTime > 0 {
		query.Set("endTime", strconv.FormatInt(opts.EndTime, 10))
	}
	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}

	var raw []rawKline
	if err := c.get(ctx, "/api/v3/klines", query, &raw); err != nil {
		return nil, fmt.Errorf("get klines %s %s: %w", symbol, tf, err)
	}

	klines := make([]Kline, 0, len(raw))
	for i, rk := range raw {
		k, err := parseKline(rk)
		if err != nil {
			return nil, fmt.Errorf("parse kline %d for %s: %w", i, symbol, err)
		}
		klines = append(klines, k)
	}

	return klines, nil
}

// parseKline decodes the positional kline array.
func parseKline(rk rawKline) (Kline, error) {
	if len(rk) < 10 {
		return Kline{}, fmt.Errorf("kline has %d fields, want at least 10", len(rk))
	}

	var k Kline
	fields := []struct {
		idx  int
		dest any
	}{
		{0, &k.OpenTime},
		{1, &k.Open},
		{2, &k.High},
		{3, &k.Low},
		{4, &k.Close},
		{5, &k.Volume},
		{6, &k.CloseTime},
		{8, &k.TradeCount},
		{9, &k.TakerBuyVolume},
	}
	for _, f := range fields {
		if err := json.Unmarshal(rk[f.idx], f.dest); err != nil {
			return Kline{}, fmt.Errorf("field %d: %w", f.idx, err)
		}
	}

	return k, nil
}
