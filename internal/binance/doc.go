// Package binance provides REST and WebSocket access to Binance spot
// market data. The REST client covers 24h tickers and klines; the
// stream client multiplexes per-symbol ticker streams over a single
// combined connection.
package binance
