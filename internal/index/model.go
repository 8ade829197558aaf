package index

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/ignitedb/ignitedb/internal/segment"
)

// ValuePointer is the address of a key's most recent Set record: which
// segment holds it, the byte offset it starts at within that segment, and
// the version it was written at. Get resolves a key to a ValuePointer and
// then reads exactly that record; nothing else about the segment is
// consulted.
//
// ValuePointer deliberately holds a segment.ID rather than an open file
// handle. Rotation and compaction rename and remove segment files out from
// under any index entries that still reference them by number, so the
// index never holds a reference that rotation would have to chase down and
// fix up.
type ValuePointer struct {
	Segment segment.ID
	Offset  int64
	Version uint64
}

// Index is the volatile in-memory hash table mapping every live key to its
// ValuePointer. It holds no on-disk representation of its own — per the
// store's durability model, the index is rebuilt from scratch by replaying
// segment files at open time, never read from or written to a file of its
// own.
type Index struct {
	dataDir string
	log     *zap.SugaredLogger

	mu      sync.RWMutex
	entries map[string]ValuePointer

	closed atomic.Bool
}

// Config encapsulates the configuration parameters required to initialize an Index.
type Config struct {
	DataDir string
	Logger  *zap.SugaredLogger
}
