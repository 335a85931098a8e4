package binance

import "encoding/json"

// Ticker24h is the wire form of a 24hr rolling window ticker.
// Binance sends all prices and volumes as strings.
type Ticker24h struct {
	Symbol             string `json:"symbol"`
	PriceChange        string `json:"priceChange"`
	PriceChangePercent string `json:"priceChangePercent"`
	LastPrice          string `json:"lastPrice"`
	BidPrice           string `json:"bidPrice"`
	AskPrice           string `json:"askPrice"`
	HighPrice          string `json:"highPrice"`
	LowPrice           string `json:"lowPrice"`
	Volume             string `json:"volume"`
	QuoteVolume        string `json:"quoteVolume"`
	OpenTime           int64  `json:"openTime"`
	CloseTime          int64  `json:"closeTime"`
	Count              int64  `json:"count"`
}

// rawKline is one kline as sent on the wire: a positional array of
// mixed number and string fields.
//
//	[0]  open time (ms)      [6]  close time (ms)
//	[1]  open                [7]  quote asset volume
//	[2]  high                [8]  number of trades
//	[3]  low                 [9]  taker buy base volume
//	[4]  close               [10] taker buy quote volume
//	[5]  volume              [11] unused
type rawKline []json.RawMessage

// Kline is a parsed kline with fields still in string form.
type Kline struct {
	OpenTime       int64
	Open           string
	High           string
	Low            string
	Close          string
	Volume         string
	CloseTime      int64
	TradeCount     int64
	TakerBuyVolume string
}

// StreamEvent is one message from a combined WebSocket stream.
type StreamEvent struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

// TickerEvent is the payload of a <symbol>@ticker stream message.
type TickerEvent struct {
	EventType          string `json:"e"`
	EventTime          int64  `json:"E"`
	Symbol             string `json:"s"`
	PriceChange        string `json:"p"`
	PriceChangePercent string `json:"P"`
	LastPrice          string `json:"c"`
	BidPrice           string `json:"b"`
	AskPrice           string `json:"a"`
	HighPrice          string `json:"h"`
	LowPrice           string `json:"l"`
	Volume             string `json:"v"`
	QuoteVolume        string `json:"q"`
}
