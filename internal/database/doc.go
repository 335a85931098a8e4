// Package database provides the PostgreSQL store adapter (warm tier) and
// schema management for the market data pipeline.
//
// One pgxpool-backed Store serves all concurrent symbol processing within a
// poll cycle; pool exhaustion queues callers rather than failing them, up to
// the configured command timeout.
package database
