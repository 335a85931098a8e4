package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if c.Database.Host == "" {
		return errors.New("database.host is required")
	}
	if c.Database.Name == "" {
		return errors.New("database.name is required")
	}
	if c.Database.User == "" {
		return errors.New("database.user is required")
	}
	if c.Database.MaxConns < 1 {
		return errors.New("database.max_conns must be >= 1")
	}
	if c.Database.MinConns < 0 {
		return errors.New("database.min_conns must be >= 0")
	}
	if c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("database.min_conns (%d) cannot exceed max_conns (%d)",
			c.Database.MinConns, c.Database.MaxConns)
	}

	if c.Redis.Host == "" {
		return errors.New("redis.host is required")
	}

	if c.Archive.Endpoint == "" {
		return errors.New("archive.endpoint is required")
	}
	if c.Archive.Bucket == "" {
		return errors.New("archive.bucket is required")
	}

	if c.Pipeline.Mode != ModePoll && c.Pipeline.Mode != ModeStream {
		return fmt.Errorf("pipeline.mode must be \"poll\" or \"stream\", got %q", c.Pipeline.Mode)
	}
	if len(c.Pipeline.Symbols) == 0 {
		return errors.New("pipeline.symbols must not be empty")
	}
	if c.Pipeline.ArchiveMinBars < 1 {
		return errors.New("pipeline.archive_min_bars must be >= 1")
	}
	if c.Pipeline.BatchTxThreshold < 1 {
		return errors.New("pipeline.batch_tx_threshold must be >= 1")
	}

	if c.Quality.ScoreGood <= c.Quality.ScoreAcceptable {
		return fmt.Errorf("quality.score_good (%.2f) must exceed score_acceptable (%.2f)",
			c.Quality.ScoreGood, c.Quality.ScoreAcceptable)
	}
	if c.Quality.SpreadWidePct <= c.Quality.SpreadRaisedPct {
		return fmt.Errorf("quality.spread_wide_pct (%.2f) must exceed spread_raised_pct (%.2f)",
			c.Quality.SpreadWidePct, c.Quality.SpreadRaisedPct)
	}

	if c.Retention.Days < 1 {
		return errors.New("retention.days must be >= 1")
	}

	if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
		return fmt.Errorf("metrics.port must be between 1 and 65535, got %d", c.Metrics.Port)
	}

	return nil
}
