package pipeline

import (
	"context"
	"fmt"

	"github.com/helios-trading/helios-data/internal/binance"
	"github.com/helios-trading/helios-data/internal/model"
)

// BinanceSource adapts the exchange REST client to the Source contract.
type BinanceSource struct {
	client *binance.Client
}

// NewBinanceSource wraps a REST client.
func NewBinanceSource(client *binance.Client) *BinanceSource {
	return &BinanceSource{client: client}
}

// GetQuotes fetches current quotes for all symbols in one exchange
// call. A symbol with an unparseable payload fails the batch; partial
// batches would hide upstream data problems.
func (s *BinanceSource) GetQuotes(ctx context.Context, symbols []string) (map[string]model.Tick, error) {
	tickers, err := s.client.GetTickers24h(ctx, symbols)
	if err != nil {
		return nil, err
	}

	quotes := make(map[string]model.Tick, len(tickers))
	for i := range tickers {
		tick, err := tickers[i].ToTick()
		if err != nil {
			return nil, fmt.Errorf("ticker %s: %w", tickers[i].Symbol, err)
		}
		quotes[tick.Symbol] = tick
	}

	return quotes, nil
}

// GetBars fetches up to limit klines for one symbol and timeframe.
func (s *BinanceSource) GetBars(ctx context.Context, symbol string, tf model.Timeframe, limit int) ([]model.OhlcvBar, error) {
	klines, err := s.client.GetKlines(ctx, symbol, tf, binance.GetKlinesOptions{Limit: limit})
	if err != nil {
		return nil, err
	}

	bars := make([]model.OhlcvBar, 0, len(klines))
	for i := range klines {
		bar, err := klines[i].ToBar(symbol)
		if err != nil {
			return nil, fmt.Errorf("kline %d: %w", i, err)
		}
		bars = append(bars, bar)
	}

	return bars, nil
}
