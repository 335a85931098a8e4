package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/helios-trading/helios-data/internal/model"
)

// Table names within the pipeline schema.
const (
	TableCurrentPrices   = "current_prices"
	TableTradingSessions = "trading_sessions"
	TableQualityMetrics  = "data_quality_metrics"
)

// priceStalenessHours bounds how old a current_prices timestamp may be at
// insert time.
const priceStalenessHours = 24

// SchemaManager provisions the relational schema idempotently. Safe to invoke
// on every process start.
type SchemaManager struct {
	db     *Store
	schema string
	logger *slog.Logger
}

// NewSchemaManager creates a SchemaManager for the given schema namespace.
func NewSchemaManager(db *Store, schema string, logger *slog.Logger) *SchemaManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &SchemaManager{db: db, schema: schema, logger: logger}
}

// Initialize creates the schema namespace, all tables, and all indexes.
func (m *SchemaManager) Initialize(ctx context.Context) error {
	statements := []string{createSchemaSQL(m.schema)}
	statements = append(statements, tableDDL(m.schema)...)
	statements = append(statements, indexDDL(m.schema)...)

	for _, stmt := range statements {
		if _, err := m.db.Execute(ctx, stmt); err != nil {
			return fmt.Errorf("initialize schema: %w", err)
		}
	}

	m.logger.Info("database schema initialized",
		"schema", m.schema,
		"tables", len(expectedTables()),
	)
	return nil
}

// VerifyResult reports what Verify found in the catalog.
type VerifyResult struct {
	TablesOK       bool
	IndexesOK      bool
	TableCount     int
	IndexCount     int
	MissingTables  []string
	MissingIndexes []string
}

// Verify queries catalog metadata to confirm the expected tables and indexes
// exist. It is a startup health gate; constraints do the actual enforcement.
func (m *SchemaManager) Verify(ctx context.Context) (VerifyResult, error) {
	var result VerifyResult

	rows, err := m.db.FetchAll(ctx,
		`SELECT table_name FROM information_schema.tables
		 WHERE table_schema = $1 AND table_type = 'BASE TABLE'`,
		m.schema,
	)
	if err != nil {
		return result, fmt.Errorf("verify tables: %w", err)
	}

	found := make(map[string]bool, len(rows))
	for _, row := range rows {
		if name, ok := row["table_name"].(string); ok {
			found[name] = true
		}
	}

	for _, want := range expectedTables() {
		if found[want] {
			result.TableCount++
		} else {
			result.MissingTables = append(result.MissingTables, want)
		}
	}
	result.TablesOK = len(result.MissingTables) == 0

	idxRows, err := m.db.FetchAll(ctx,
		`SELECT indexname FROM pg_indexes
		 WHERE schemaname = $1 AND indexname LIKE 'idx_%'`,
		m.schema,
	)
	if err != nil {
		return result, fmt.Errorf("verify indexes: %w", err)
	}

	foundIdx := make(map[string]bool, len(idxRows))
	for _, row := range idxRows {
		if name, ok := row["indexname"].(string); ok {
			foundIdx[name] = true
		}
	}

	for _, want := range expectedIndexes() {
		if foundIdx[want] {
			result.IndexCount++
		} else {
			result.MissingIndexes = append(result.MissingIndexes, want)
		}
	}
	result.IndexesOK = len(result.MissingIndexes) == 0

	return result, nil
}

// CleanupOldData deletes OHLCV and quality-metric rows older than the
// retention window. Advisory housekeeping, not part of the hot path.
// Returns deleted row counts per table.
func (m *SchemaManager) CleanupOldData(ctx context.Context, days int) (map[string]int64, error) {
	if days < 1 {
		return nil, fmt.Errorf("retention days must be >= 1, got %d", days)
	}

	deleted := make(map[string]int64)

	tables := make([]string, 0, len(model.Timeframes())+1)
	for _, tf := range model.Timeframes() {
		tables = append(tables, tf.Table())
	}
	tables = append(tables, TableQualityMetrics)

	for _, table := range tables {
		stmt := fmt.Sprintf(
			"DELETE FROM %s.%s WHERE timestamp < CURRENT_TIMESTAMP - make_interval(days => $1)",
			m.schema, table,
		)
		n, err := m.db.Execute(ctx, stmt, days)
		if err != nil {
			return deleted, fmt.Errorf("cleanup %s: %w", table, err)
		}
		deleted[table] = n
		if n > 0 {
			m.logger.Info("retention cleanup", "table", table, "deleted", n)
		}
	}

	return deleted, nil
}

// expectedTables lists every table the pipeline depends on.
func expectedTables() []string {
	tables := []string{TableCurrentPrices}
	for _, tf := range model.Timeframes() {
		tables = append(tables, tf.Table())
	}
	return append(tables, TableTradingSessions, TableQualityMetrics)
}

// expectedIndexes lists the covering indexes for the pipeline's read patterns.
func expectedIndexes() []string {
	indexes := []string{
		"idx_current_prices_timestamp",
		"idx_current_prices_updated_at",
		"idx_trading_sessions_start_time",
		"idx_trading_sessions_status",
		"idx_data_quality_timestamp",
		"idx_data_quality_symbol",
		"idx_data_quality_alert",
	}
	for _, tf := range model.Timeframes() {
		indexes = append(indexes,
			fmt.Sprintf("idx_%s_symbol_time", tf.Table()),
			fmt.Sprintf("idx_%s_timestamp", tf.Table()),
		)
	}
	return indexes
}

func createSchemaSQL(schema string) string {
	return fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schema)
}

// tableDDL returns CREATE TABLE statements in dependency order.
func tableDDL(schema string) []string {
	ddl := []string{currentPricesDDL(schema)}
	for _, tf := range model.Timeframes() {
		ddl = append(ddl, ohlcvDDL(schema, tf.Table()))
	}
	return append(ddl, tradingSessionsDDL(schema), qualityMetricsDDL(schema))
}

func currentPricesDDL(schema string) string {
	return fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %[1]s.current_prices (
		symbol VARCHAR(20) NOT NULL,
		price DECIMAL(18, 8) NOT NULL,
		bid_price DECIMAL(18, 8),
		ask_price DECIMAL(18, 8),
		volume_24h DECIMAL(18, 8),
		price_change_24h DECIMAL(18, 8),
		price_change_percent_24h DECIMAL(8, 4),
		high_24h DECIMAL(18, 8),
		low_24h DECIMAL(18, 8),
		timestamp TIMESTAMP WITH TIME ZONE NOT NULL,
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,

		PRIMARY KEY (symbol),

		CONSTRAINT price_positive CHECK (price > 0),
		CONSTRAINT bid_ask_valid CHECK (bid_price <= ask_price OR bid_price IS NULL OR ask_price IS NULL),
		CONSTRAINT high_low_valid CHECK (high_24h >= low_24h OR high_24h IS NULL OR low_24h IS NULL),
		CONSTRAINT volume_non_negative CHECK (volume_24h >= 0 OR volume_24h IS NULL),
		CONSTRAINT timestamp_recent CHECK (timestamp >= CURRENT_TIMESTAMP - INTERVAL '%[2]d hours')
	)`, schema, priceStalenessHours)
}

func ohlcvDDL(schema, table string) string {
	return fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %[1]s.%[2]s (
		symbol VARCHAR(20) NOT NULL,
		timestamp TIMESTAMP WITH TIME ZONE NOT NULL,
		open_price DECIMAL(18, 8) NOT NULL,
		high_price DECIMAL(18, 8) NOT NULL,
		low_price DECIMAL(18, 8) NOT NULL,
		close_price DECIMAL(18, 8) NOT NULL,
		volume DECIMAL(18, 8) NOT NULL,
		trades_count INTEGER,
		taker_buy_volume DECIMAL(18, 8),
		created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,

		PRIMARY KEY (symbol, timestamp),

		CONSTRAINT %[2]s_prices_positive CHECK (
			open_price > 0 AND high_price > 0 AND
			low_price > 0 AND close_price > 0
		),
		CONSTRAINT %[2]s_ohlc_valid CHECK (
			high_price >= GREATEST(open_price, close_price) AND
			low_price <= LEAST(open_price, close_price)
		),
		CONSTRAINT %[2]s_volume_non_negative CHECK (volume >= 0),
		CONSTRAINT %[2]s_trades_non_negative CHECK (trades_count >= 0 OR trades_count IS NULL)
	)`, schema, table)
}

func tradingSessionsDDL(schema string) string {
	return fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s.trading_sessions (
		session_id UUID PRIMARY KEY,
		session_name VARCHAR(100) NOT NULL,
		strategy_name VARCHAR(50) NOT NULL,
		symbols TEXT[] NOT NULL,
		start_time TIMESTAMP WITH TIME ZONE NOT NULL,
		end_time TIMESTAMP WITH TIME ZONE,
		status VARCHAR(20) NOT NULL DEFAULT 'active',
		config_data JSONB,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,

		CONSTRAINT valid_status CHECK (status IN ('active', 'paused', 'stopped', 'completed', 'error')),
		CONSTRAINT valid_time_range CHECK (end_time IS NULL OR end_time >= start_time)
	)`, schema)
}

func qualityMetricsDDL(schema string) string {
	return fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s.data_quality_metrics (
		id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		timestamp TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP,
		symbol VARCHAR(20),
		metric_type VARCHAR(50) NOT NULL,
		metric_value DECIMAL(18, 8),
		metric_data JSONB,
		quality_score DECIMAL(5, 4) CHECK (quality_score >= 0 AND quality_score <= 1),
		alert_level VARCHAR(20) DEFAULT 'info',

		CONSTRAINT valid_alert_level CHECK (alert_level IN ('info', 'warning', 'error', 'critical'))
	)`, schema)
}

// indexDDL returns covering indexes for the two pipeline read patterns:
// recent bars per symbol, and most recently updated price rows.
func indexDDL(schema string) []string {
	stmts := []string{
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_current_prices_timestamp ON %s.current_prices (timestamp DESC)", schema),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_current_prices_updated_at ON %s.current_prices (updated_at DESC)", schema),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_trading_sessions_start_time ON %s.trading_sessions (start_time DESC)", schema),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_trading_sessions_status ON %s.trading_sessions (status)", schema),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_data_quality_timestamp ON %s.data_quality_metrics (timestamp DESC)", schema),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_data_quality_symbol ON %s.data_quality_metrics (symbol)", schema),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_data_quality_alert ON %s.data_quality_metrics (alert_level) WHERE alert_level IN ('warning', 'error', 'critical')", schema),
	}
	for _, tf := range model.Timeframes() {
		table := tf.Table()
		stmts = append(stmts,
			fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%[2]s_symbol_time ON %[1]s.%[2]s (symbol, timestamp DESC)", schema, table),
			fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%[2]s_timestamp ON %[1]s.%[2]s (timestamp DESC)", schema, table),
		)
	}
	return stmts
}
