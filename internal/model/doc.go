// Package model defines shared data types used across the Helios data platform.
//
// Conventions:
//   - Prices and volumes: shopspring decimals (exchange precision preserved)
//   - Optional monetary fields: decimal.NullDecimal
//   - Timestamps: time.Time in UTC
package model
