package cache

// Key prefixes for the pipeline's cache namespace.
const (
	prefixPrice  = "price"
	prefixBid    = "bid"
	prefixAsk    = "ask"
	prefixVolume = "volume"
	prefixChange = "change"
	prefixTicker = "ticker"
)

// PriceKey is the scalar last-price key for a symbol.
func PriceKey(symbol string) string { return prefixPrice + ":" + symbol }

// BidKey is the scalar best-bid key for a symbol.
func BidKey(symbol string) string { return prefixBid + ":" + symbol }

// AskKey is the scalar best-ask key for a symbol.
func AskKey(symbol string) string { return prefixAsk + ":" + symbol }

// VolumeKey is the scalar 24h-volume key for a symbol.
func VolumeKey(symbol string) string { return prefixVolume + ":" + symbol }

// ChangeKey is the scalar 24h-percent-change key for a symbol.
func ChangeKey(symbol string) string { return prefixChange + ":" + symbol }

// TickerKey is the JSON full-ticker blob key for a symbol.
func TickerKey(symbol string) string { return prefixTicker + ":" + symbol }
