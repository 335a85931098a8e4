package config

import "time"

// Config is the root configuration for a pipeline instance.
type Config struct {
	Instance  InstanceConfig  `yaml:"instance"`
	Binance   BinanceConfig   `yaml:"binance"`
	Database  DBConfig        `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Archive   ArchiveConfig   `yaml:"archive"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Quality   QualityConfig   `yaml:"quality"`
	Retention RetentionConfig `yaml:"retention"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// InstanceConfig identifies this pipeline instance.
type InstanceConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// BinanceConfig holds exchange API settings.
type BinanceConfig struct {
	RestURL    string        `yaml:"rest_url"`
	WSURL      string        `yaml:"ws_url"`
	APIKey     string        `yaml:"api_key"`
	APISecret  string        `yaml:"api_secret"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

// DBConfig holds the PostgreSQL connection (warm tier).
type DBConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	Name           string        `yaml:"name"`
	User           string        `yaml:"user"`
	Password       string        `yaml:"password"`
	SSLMode        string        `yaml:"ssl_mode"`
	Schema         string        `yaml:"schema"`
	MaxConns       int           `yaml:"max_conns"`
	MinConns       int           `yaml:"min_conns"`
	CommandTimeout time.Duration `yaml:"command_timeout"`
}

// RedisConfig holds the Redis connection (hot tier).
type RedisConfig struct {
	Host        string        `yaml:"host"`
	Port        int           `yaml:"port"`
	Password    string        `yaml:"password"`
	DB          int           `yaml:"db"`
	TLS         bool          `yaml:"tls"`
	DialTimeout time.Duration `yaml:"dial_timeout"`
	OpTimeout   time.Duration `yaml:"op_timeout"`
}

// ArchiveConfig holds the S3-compatible object store (cold tier).
// Works against Cloudflare R2 or any S3 endpoint.
type ArchiveConfig struct {
	Endpoint  string        `yaml:"endpoint"`
	Region    string        `yaml:"region"`
	Bucket    string        `yaml:"bucket"`
	AccessKey string        `yaml:"access_key"`
	SecretKey string        `yaml:"secret_key"`
	Timeout   time.Duration `yaml:"timeout"`
}

// Ingestion modes.
const (
	ModePoll   = "poll"
	ModeStream = "stream"
)

// PipelineConfig holds ingestion loop settings.
type PipelineConfig struct {
	Symbols          []string      `yaml:"symbols"`
	Mode             string        `yaml:"mode"` // "poll" or "stream"
	PollInterval     time.Duration `yaml:"poll_interval"`
	PriceTTL         time.Duration `yaml:"price_ttl"`  // per-field cache keys
	TickerTTL        time.Duration `yaml:"ticker_ttl"` // full ticker blob
	ArchiveMinBars   int           `yaml:"archive_min_bars"`
	BatchTxThreshold int           `yaml:"batch_tx_threshold"`
}

// QualityConfig holds tunable thresholds for the quality score.
// The deduction magnitudes themselves are fixed; only the boundaries
// that trigger them are operator-tunable.
type QualityConfig struct {
	MaxDataAge      time.Duration `yaml:"max_data_age"`      // hard staleness bound
	StaleAfter      time.Duration `yaml:"stale_after"`       // soft staleness bound
	SpreadWidePct   float64       `yaml:"spread_wide_pct"`   // spread > this % of price
	SpreadRaisedPct float64       `yaml:"spread_raised_pct"` // spread > this % of price
	ScoreGood       float64       `yaml:"score_good"`        // >= -> info
	ScoreAcceptable float64       `yaml:"score_acceptable"`  // >= -> warning, below -> error
}

// RetentionConfig holds housekeeping settings.
type RetentionConfig struct {
	Days     int           `yaml:"days"`
	Interval time.Duration `yaml:"interval"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}
