package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const minimalYAML = `
instance:
  id: test-pipeline
database:
  host: localhost
  name: helios_test
  user: testuser
  password: testpass
redis:
  host: localhost
archive:
  endpoint: https://example.r2.cloudflarestorage.com
  bucket: helios-test
`

func TestLoad(t *testing.T) {
	yaml := minimalYAML + `
binance:
  rest_url: https://testnet.binance.vision
pipeline:
  symbols: [BTCUSDT, ETHUSDT]
  poll_interval: 10s
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Instance.ID != "test-pipeline" {
		t.Errorf("Instance.ID = %q, want %q", cfg.Instance.ID, "test-pipeline")
	}
	if cfg.Binance.RestURL != "https://testnet.binance.vision" {
		t.Errorf("Binance.RestURL = %q, want %q", cfg.Binance.RestURL, "https://testnet.binance.vision")
	}
	if cfg.Database.Host != "localhost" {
		t.Errorf("Database.Host = %q, want %q", cfg.Database.Host, "localhost")
	}
	if len(cfg.Pipeline.Symbols) != 2 || cfg.Pipeline.Symbols[0] != "BTCUSDT" {
		t.Errorf("Pipeline.Symbols = %v, want [BTCUSDT ETHUSDT]", cfg.Pipeline.Symbols)
	}
	if cfg.Pipeline.PollInterval != 10*time.Second {
		t.Errorf("Pipeline.PollInterval = %v, want 10s", cfg.Pipeline.PollInterval)
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_DB_PASSWORD", "secret123")

	yaml := `
instance:
  id: test-pipeline
database:
  host: localhost
  name: helios_test
  user: testuser
  password: ${TEST_DB_PASSWORD}
redis:
  host: localhost
archive:
  endpoint: https://example.r2.cloudflarestorage.com
  bucket: helios-test
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Database.Password != "secret123" {
		t.Errorf("Database.Password = %q, want %q", cfg.Database.Password, "secret123")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	path := writeTempFile(t, minimalYAML)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	if cfg.Binance.RestURL != DefaultRestURL {
		t.Errorf("Binance.RestURL = %q, want default %q", cfg.Binance.RestURL, DefaultRestURL)
	}
	if cfg.Database.Port != DefaultDBPort {
		t.Errorf("Database.Port = %d, want default %d", cfg.Database.Port, DefaultDBPort)
	}
	if cfg.Database.Schema != DefaultDBSchema {
		t.Errorf("Database.Schema = %q, want default %q", cfg.Database.Schema, DefaultDBSchema)
	}
	if cfg.Pipeline.PollInterval != DefaultPollInterval {
		t.Errorf("Pipeline.PollInterval = %v, want default %v", cfg.Pipeline.PollInterval, DefaultPollInterval)
	}
	if cfg.Pipeline.PriceTTL != DefaultPriceTTL {
		t.Errorf("Pipeline.PriceTTL = %v, want default %v", cfg.Pipeline.PriceTTL, DefaultPriceTTL)
	}
	if cfg.Pipeline.ArchiveMinBars != DefaultArchiveMinBars {
		t.Errorf("Pipeline.ArchiveMinBars = %d, want default %d", cfg.Pipeline.ArchiveMinBars, DefaultArchiveMinBars)
	}
	if cfg.Quality.ScoreGood != DefaultScoreGood {
		t.Errorf("Quality.ScoreGood = %v, want default %v", cfg.Quality.ScoreGood, DefaultScoreGood)
	}
	if cfg.Retention.Days != DefaultRetentionDays {
		t.Errorf("Retention.Days = %d, want default %d", cfg.Retention.Days, DefaultRetentionDays)
	}
	if len(cfg.Pipeline.Symbols) == 0 {
		t.Error("Pipeline.Symbols empty after defaults")
	}
}

func TestLoadAndValidate(t *testing.T) {
	path := writeTempFile(t, minimalYAML)

	if _, err := LoadAndValidate(path); err != nil {
		t.Fatalf("LoadAndValidate failed: %v", err)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing instance id", func(c *Config) { c.Instance.ID = "" }},
		{"missing db host", func(c *Config) { c.Database.Host = "" }},
		{"missing redis host", func(c *Config) { c.Redis.Host = "" }},
		{"missing archive bucket", func(c *Config) { c.Archive.Bucket = "" }},
		{"bad mode", func(c *Config) { c.Pipeline.Mode = "batch" }},
		{"min conns above max", func(c *Config) {
			c.Database.MinConns = 20
			c.Database.MaxConns = 10
		}},
		{"inverted quality scores", func(c *Config) {
			c.Quality.ScoreGood = 0.5
			c.Quality.ScoreAcceptable = 0.7
		}},
		{"inverted spread thresholds", func(c *Config) {
			c.Quality.SpreadWidePct = 0.3
			c.Quality.SpreadRaisedPct = 0.5
		}},
		{"bad metrics port", func(c *Config) { c.Metrics.Port = 70000 }},
	}

	path := writeTempFile(t, minimalYAML)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadWithDefaults(path)
			if err != nil {
				t.Fatalf("LoadWithDefaults failed: %v", err)
			}
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("Load of missing file returned nil error")
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}
