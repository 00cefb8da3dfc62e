// Package backup provides automated profile store backups with tiered
// retention and integrity verification. It snapshots either the JSON
// document store or the SQLite database, depending on the configured
// storage engine.
package backup

import (
	"time"
)

// StoreKind identifies which storage engine a snapshot targets.
type StoreKind string

const (
	// KindJSONFile snapshots the single-document JSON store.
	KindJSONFile StoreKind = "jsonfile"

	// KindSQLite snapshots the SQLite database via VACUUM INTO.
	KindSQLite StoreKind = "sqlite"
)

// Config holds backup service configuration.
type Config struct {
	// Kind selects the snapshot strategy for the source store.
	Kind StoreKind

	// SourcePath is the path to the store file to snapshot.
	SourcePath string

	// Dir is the directory where snapshots are stored.
	Dir string

	// Interval is the duration between automated snapshots (default: 24 hours).
	Interval time.Duration

	// Retention controls how many snapshots each age tier keeps.
	Retention RetentionPolicy

	// Verify enables integrity checking after each snapshot.
	Verify bool
}

// RetentionPolicy defines how many snapshots to keep per age tier.
// Snapshots are bucketed by age: hourly (<24h), daily (1-7 days),
// weekly (7-30 days), and monthly (30-365 days). Anything older than
// a year is always removed.
type RetentionPolicy struct {
	// Hourly is the number of snapshots under 24 hours old to keep (default: 24).
	Hourly int

	// Daily is the number of 1-7 day old snapshots to keep (default: 7).
	Daily int

	// Weekly is the number of 7-30 day old snapshots to keep (default: 4).
	Weekly int

	// Monthly is the number of 30-365 day old snapshots to keep (default: 12).
	Monthly int
}

// Info contains metadata about a stored snapshot.
type Info struct {
	// Path is the full path to the snapshot file.
	Path string

	// Timestamp is when the snapshot was created.
	Timestamp time.Time

	// Size is the snapshot file size in bytes.
	Size int64
}

// Result contains the outcome of a snapshot operation.
type Result struct {
	// Path is the path to the created snapshot file.
	Path string

	// Duration is how long the snapshot took.
	Duration time.Duration

	// Size is the snapshot file size in bytes.
	Size int64

	// Verified indicates the snapshot passed its integrity check.
	Verified bool

	// Error is any error that occurred during the snapshot.
	Error error
}

// Health represents the state of the backup service.
type Health struct {
	// Status is "healthy", "warning", or "error".
	Status string

	// Message provides additional context about the status.
	Message string

	// LastBackup is when the last successful snapshot completed.
	LastBackup time.Time

	// NextBackup is when the next snapshot is scheduled.
	NextBackup time.Time

	// TotalBackups is the number of snapshots currently stored.
	TotalBackups int

	// Dir is the snapshot storage directory.
	Dir string

	// DiskSpaceUsed is total bytes used by all snapshots.
	DiskSpaceUsed int64
}
