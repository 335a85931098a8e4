package database

import (
	"fmt"
	"net/url"

	"github.com/helios-trading/helios-data/internal/config"
)

// BuildConnString builds a PostgreSQL connection string from config.
func BuildConnString(cfg config.DBConfig) string {
	// URL-encode password to handle special characters
	escapedPassword := url.QueryEscape(cfg.Password)

	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "prefer"
	}

	connStr := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User,
		escapedPassword,
		cfg.Host,
		cfg.Port,
		cfg.Name,
		sslMode,
	)

	// Put the pipeline schema first on the search path so unqualified
	// statements resolve into it.
	if cfg.Schema != "" {
		connStr += "&options=" + url.QueryEscape(fmt.Sprintf("-csearch_path=%s,public", cfg.Schema))
	}

	return connStr
}
