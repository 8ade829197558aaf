package storage

import (
	"os"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/ignitedb/ignitedb/internal/segment"
	"github.com/ignitedb/ignitedb/pkg/options"
)

// Storage owns every open file handle the store holds and is the only
// package that touches segment files directly. It tracks how many records
// db.active currently holds (for the rotation trigger) and how many
// immutable segments have accumulated since the last compaction (for the
// compaction trigger), but has no opinion about which records are still
// live — that's the index's job.
//
// Per the handle-table design, index entries identify a segment by
// segment.ID rather than by file handle, because rotation and compaction
// rename and delete files out from under any reference that isn't
// re-resolved on every access. Storage keeps the only long-lived handles,
// keyed by ID, and resolves an ID to a handle on demand.
type Storage struct {
	dataDir string
	options *options.Options
	log     *zap.SugaredLogger
	closed  atomic.Bool

	mu              sync.Mutex
	activeSegment   *os.File
	activeCount     uint64
	nextImmutableID uint64
	sinceCompaction uint64
	immutableOrder  []segment.ID
	handles         map[segment.ID]*os.File
}

// Config encapsulates the configuration parameters required to initialize a Storage instance.
type Config struct {
	Options *options.Options
	Logger  *zap.SugaredLogger
}
