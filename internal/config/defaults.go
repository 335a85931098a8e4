package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultRestURL          = "https://api.binance.com"
	DefaultWSURL            = "wss://stream.binance.com:9443"
	DefaultAPITimeout       = 30 * time.Second
	DefaultMaxRetries       = 3
	DefaultDBPort           = 5432
	DefaultDBSSLMode        = "prefer"
	DefaultDBSchema         = "helios_trading"
	DefaultMaxConns         = 10
	DefaultMinConns         = 2
	DefaultCommandTimeout   = 10 * time.Second
	DefaultRedisPort        = 6379
	DefaultRedisDialTimeout = 10 * time.Second
	DefaultRedisOpTimeout   = 10 * time.Second
	DefaultArchiveRegion    = "auto"
	DefaultArchiveTimeout   = 30 * time.Second
	DefaultMode             = ModePoll
	DefaultPollInterval     = 30 * time.Second
	DefaultPriceTTL         = 5 * time.Minute
	DefaultTickerTTL        = 10 * time.Minute
	DefaultArchiveMinBars   = 500
	DefaultBatchTxThreshold = 1000
	DefaultMaxDataAge       = 300 * time.Second
	DefaultStaleAfter       = 60 * time.Second
	DefaultSpreadWidePct    = 1.0
	DefaultSpreadRaisedPct  = 0.5
	DefaultScoreGood        = 0.85
	DefaultScoreAcceptable  = 0.70
	DefaultRetentionDays    = 30
	DefaultRetentionPeriod  = 24 * time.Hour
	DefaultMetricsPort      = 9090
	DefaultMetricsPath      = "/metrics"
)

// DefaultSymbols are tracked when the config names none.
var DefaultSymbols = []string{"BTCUSDT", "ETHUSDT", "SOLUSDT", "AVAXUSDT", "LINKUSDT"}

func (c *Config) applyDefaults() {
	// Exchange defaults
	if c.Binance.RestURL == "" {
		c.Binance.RestURL = DefaultRestURL
	}
	if c.Binance.WSURL == "" {
		c.Binance.WSURL = DefaultWSURL
	}
	if c.Binance.Timeout == 0 {
		c.Binance.Timeout = DefaultAPITimeout
	}
	if c.Binance.MaxRetries == 0 {
		c.Binance.MaxRetries = DefaultMaxRetries
	}

	// Database defaults
	if c.Database.Port == 0 {
		c.Database.Port = DefaultDBPort
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = DefaultDBSSLMode
	}
	if c.Database.Schema == "" {
		c.Database.Schema = DefaultDBSchema
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = DefaultMaxConns
	}
	if c.Database.MinConns == 0 {
		c.Database.MinConns = DefaultMinConns
	}
	if c.Database.CommandTimeout == 0 {
		c.Database.CommandTimeout = DefaultCommandTimeout
	}

	// Redis defaults
	if c.Redis.Port == 0 {
		c.Redis.Port = DefaultRedisPort
	}
	if c.Redis.DialTimeout == 0 {
		c.Redis.DialTimeout = DefaultRedisDialTimeout
	}
	if c.Redis.OpTimeout == 0 {
		c.Redis.OpTimeout = DefaultRedisOpTimeout
	}

	// Archive defaults
	if c.Archive.Region == "" {
		c.Archive.Region = DefaultArchiveRegion
	}
	if c.Archive.Timeout == 0 {
		c.Archive.Timeout = DefaultArchiveTimeout
	}

	// Pipeline defaults
	if len(c.Pipeline.Symbols) == 0 {
		c.Pipeline.Symbols = append([]string(nil), DefaultSymbols...)
	}
	if c.Pipeline.Mode == "" {
		c.Pipeline.Mode = DefaultMode
	}
	if c.Pipeline.PollInterval == 0 {
		c.Pipeline.PollInterval = DefaultPollInterval
	}
	if c.Pipeline.PriceTTL == 0 {
		c.Pipeline.PriceTTL = DefaultPriceTTL
	}
	if c.Pipeline.TickerTTL == 0 {
		c.Pipeline.TickerTTL = DefaultTickerTTL
	}
	if c.Pipeline.ArchiveMinBars == 0 {
		c.Pipeline.ArchiveMinBars = DefaultArchiveMinBars
	}
	if c.Pipeline.BatchTxThreshold == 0 {
		c.Pipeline.BatchTxThreshold = DefaultBatchTxThreshold
	}

	// Quality defaults
	if c.Quality.MaxDataAge == 0 {
		c.Quality.MaxDataAge = DefaultMaxDataAge
	}
	if c.Quality.StaleAfter == 0 {
		c.Quality.StaleAfter = DefaultStaleAfter
	}
	if c.Quality.SpreadWidePct == 0 {
		c.Quality.SpreadWidePct = DefaultSpreadWidePct
	}
	if c.Quality.SpreadRaisedPct == 0 {
		c.Quality.SpreadRaisedPct = DefaultSpreadRaisedPct
	}
	if c.Quality.ScoreGood == 0 {
		c.Quality.ScoreGood = DefaultScoreGood
	}
	if c.Quality.ScoreAcceptable == 0 {
		c.Quality.ScoreAcceptable = DefaultScoreAcceptable
	}

	// Retention defaults
	if c.Retention.Days == 0 {
		c.Retention.Days = DefaultRetentionDays
	}
	if c.Retention.Interval == 0 {
		c.Retention.Interval = DefaultRetentionPeriod
	}

	// Metrics defaults
	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}
