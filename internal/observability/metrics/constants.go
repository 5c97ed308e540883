// Package metrics provides constants used across metric definitions.
package metrics

import "time"

// Operation label values recorded by the datastore.
const (
	// OpGameInsert represents storing a new game record.
	OpGameInsert = "game_insert"
	// OpGameList represents listing every game for the report.
	OpGameList = "game_list"
	// OpMigrate represents schema creation at startup.
	OpMigrate = "migrate"
	// OpPing represents a database health check.
	OpPing = "ping"
)

// Label value constants used for metric labels.
const (
	// LabelGames is the table label for the games table.
	LabelGames = "games"
	// StatusSuccess marks an operation that completed.
	StatusSuccess = "success"
	// StatusError marks an operation that failed.
	StatusError = "error"
)

// Histogram bucket configuration constants.
const (
	// BucketStart1ms is the starting bucket for 1ms histograms (1ms to ~16s range).
	BucketStart1ms = 0.001
	// BucketStart64B is the starting bucket for 64 byte histograms.
	BucketStart64B = 64.0
	// BucketStart100B is the starting bucket for 100 byte histograms.
	BucketStart100B = 100.0

	// BucketFactor2 is the common exponential growth factor of 2 for histogram buckets.
	BucketFactor2 = 2

	// BucketCount10 defines 10 exponential buckets.
	BucketCount10 = 10
	// BucketCount15 defines 15 exponential buckets.
	BucketCount15 = 15
)

// ShutdownTimeout is the timeout for graceful shutdown operations.
const ShutdownTimeout = 5 * time.Second
