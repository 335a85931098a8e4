// Package connection coordinates the lifecycle of the three storage
// tiers. The manager connects them concurrently, tears down cleanly on
// partial failure, and aggregates health checks.
package connection
