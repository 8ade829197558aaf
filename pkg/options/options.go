// Package options provides data structures and functions for configuring
// the IgniteDB store. It defines the parameters that control rotation and
// compaction behavior, the data directory, and write durability, using the
// same functional-options pattern as the rest of the ignite family.
package options

import (
	"strings"
	"time"

	"github.com/ignitedb/ignitedb/pkg/errors"
)

// Defines the configuration parameters for an IgniteDB store.
type Options struct {
	// Specifies the base path where segment files are kept. The store
	// creates no lock file there.
	//
	// Default: "/var/lib/ignitedb"
	DataDir string `json:"dataDir"`

	// Holds a compaction interval. No component of the store reads it and
	// no background sweep runs; compaction is triggered only by the inline
	// threshold check that runs after every Set/Remove.
	//
	// Default: 5h
	CompactInterval time.Duration `json:"compactInterval"`

	// RotationThreshold is the number of records db.active may hold
	// before it is rotated into a new immutable segment.
	//
	// Default: 128
	RotationThreshold uint64 `json:"rotationThreshold"`

	// CompactionThreshold is the number of immutable segments that may
	// accumulate since the last compaction before one runs. Must be >= 1.
	//
	// Default: 4
	CompactionThreshold uint64 `json:"compactionThreshold"`

	// FsyncEveryWrite forces an fsync after every append instead of
	// relying on the operating system to flush dirty pages on its own
	// schedule. Trades write throughput for a tighter durability bound.
	//
	// Default: false
	FsyncEveryWrite bool `json:"fsyncEveryWrite"`
}

// OptionFunc is a function type that modifies the store's configuration.
type OptionFunc func(*Options)

// Applies a predefined set of default configuration values to the Options struct.
func WithDefaultOptions() OptionFunc {
	return func(o *Options) {
		*o = NewDefaultOptions()
	}
}

// Sets the primary data directory.
func WithDataDir(directory string) OptionFunc {
	return func(o *Options) {
		directory = strings.TrimSpace(directory)
		if directory != "" {
			o.DataDir = directory
		}
	}
}

// Sets CompactInterval. The store does not read it; no background
// compaction sweep runs.
func WithCompactInterval(interval time.Duration) OptionFunc {
	return func(o *Options) {
		if interval > 0 {
			o.CompactInterval = interval
		}
	}
}

// Sets the record count at which db.active is rotated.
func WithRotationThreshold(threshold uint64) OptionFunc {
	return func(o *Options) {
		if threshold > 0 {
			o.RotationThreshold = threshold
		}
	}
}

// Sets the immutable segment count at which compaction runs.
func WithCompactionThreshold(threshold uint64) OptionFunc {
	return func(o *Options) {
		if threshold >= MinCompactionThreshold {
			o.CompactionThreshold = threshold
		}
	}
}

// Enables or disables an fsync after every append.
func WithFsyncEveryWrite(enabled bool) OptionFunc {
	return func(o *Options) {
		o.FsyncEveryWrite = enabled
	}
}

// Validate rejects an Options value that the engine cannot safely open
// with. It is called once, at store-open time, before any segment file is
// touched.
func (o *Options) Validate() error {
	if strings.TrimSpace(o.DataDir) == "" {
		return errors.NewRequiredFieldError("DataDir")
	}

	if o.RotationThreshold == 0 {
		return errors.NewFieldRangeError("RotationThreshold", o.RotationThreshold, 1, nil)
	}

	if o.CompactionThreshold < MinCompactionThreshold {
		return errors.NewFieldRangeError(
			"CompactionThreshold", o.CompactionThreshold, MinCompactionThreshold, nil,
		)
	}

	return nil
}
