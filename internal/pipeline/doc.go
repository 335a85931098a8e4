// Package pipeline orchestrates market data ingestion: fetch quotes,
// validate, fan out across the storage tiers, score data quality, and
// serve tiered reads. It is the only component that touches all three
// stores for a single tick.
package pipeline
