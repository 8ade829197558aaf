package options

import "time"

const (
	// Specifies the default base directory where IgniteDB will store its data files.
	// If no other directory is specified during initialization, this path will be used.
	DefaultDataDir = "/var/lib/ignitedb"

	// Defines the default CompactInterval. The store does not read this
	// value: no background compaction sweep runs, only the
	// threshold-triggered compaction inline with Set/Remove.
	DefaultCompactInterval = time.Hour * 5

	// DefaultRotationThreshold is the number of records an active segment may
	// accumulate before it is rotated into a new immutable segment.
	DefaultRotationThreshold uint64 = 128

	// DefaultCompactionThreshold is the number of immutable segments that may
	// accumulate since the last compaction before one runs automatically.
	DefaultCompactionThreshold uint64 = 4

	// MinCompactionThreshold is the smallest value CompactionThreshold may be
	// configured to. Zero would trigger compaction before any immutable
	// segment exists, which can never do useful work.
	MinCompactionThreshold uint64 = 1
)

// Holds the default configuration settings for an IgniteDB instance.
var defaultOptions = Options{
	DataDir:             DefaultDataDir,
	CompactInterval:     DefaultCompactInterval,
	RotationThreshold:   DefaultRotationThreshold,
	CompactionThreshold: DefaultCompactionThreshold,
	FsyncEveryWrite:     false,
}

func NewDefaultOptions() Options {
	return defaultOptions
}
