// Package index provides the in-memory hash table implementation for the
// store. It maps every live key to the ValuePointer of its most recent Set,
// and nothing else: no ordering guarantees, no on-disk footprint, no
// knowledge of how a segment file is laid out beyond the (segment, offset)
// pair it hands back to callers.
package index

import (
	"context"
	stdErrors "errors"

	"github.com/ignitedb/ignitedb/internal/segment"
	"github.com/ignitedb/ignitedb/pkg/errors"
)

var ErrIndexClosed = stdErrors.New("operation failed: cannot access closed index")

// New creates and initializes a new Index instance configured according to
// the provided parameters. The returned Index is immediately ready for
// concurrent use.
func New(ctx context.Context, config *Config) (*Index, error) {
	if config == nil || config.DataDir == "" || config.Logger == nil {
		return nil, errors.NewValidationError(
			nil, errors.ErrorCodeInvalidInput, "index configuration is required",
		).WithField("config").WithRule("required").WithProvided(config)
	}

	return &Index{
		log:     config.Logger,
		dataDir: config.DataDir,
		entries: make(map[string]ValuePointer, 1024),
	}, nil
}

// Lookup returns the ValuePointer for key, if it is currently live.
func (idx *Index) Lookup(key string) (ValuePointer, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	ptr, ok := idx.entries[key]
	return ptr, ok
}

// Upsert records key's latest ValuePointer. Callers are expected to call
// this with monotonically increasing versions per key; an update whose
// version is not newer than the entry already indexed is silently dropped, which makes
// open-time replay idempotent regardless of call order within a segment.
func (idx *Index) Upsert(key string, ptr ValuePointer) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if existing, ok := idx.entries[key]; ok && existing.Version >= ptr.Version {
		return
	}
	idx.entries[key] = ptr
}

// Repoint updates key's location to segment/offset without the version
// guard Upsert applies, for use when compaction migrates a still-live
// record to a new segment: the record's version is by definition already
// the one indexed for key, so Upsert's "newer version wins" check would
// otherwise discard the move and leave the index pointing at the segment
// compaction is about to delete. Repoint only ever moves a key that is
// already indexed; it is not meant for new writes.
func (idx *Index) Repoint(key string, seg segment.ID, offset int64) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	existing, ok := idx.entries[key]
	if !ok {
		return
	}
	existing.Segment = seg
	existing.Offset = offset
	idx.entries[key] = existing
}

// Erase removes key from the index if present, reporting whether it was.
// The engine ignores the result: Remove checks presence with Lookup before
// it appends its tombstone.
func (idx *Index) Erase(key string) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, ok := idx.entries[key]; !ok {
		return false
	}
	delete(idx.entries, key)
	return true
}

// Len reports how many live keys the index currently holds.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// Close gracefully shuts down the Index, releasing its backing map. A second
// Close returns ErrIndexClosed; the other methods do not check for closure.
func (idx *Index) Close() error {
	if !idx.closed.CompareAndSwap(false, true) {
		return ErrIndexClosed
	}

	idx.log.Infow("closing index")

	idx.mu.Lock()
	defer idx.mu.Unlock()

	clear(idx.entries)
	idx.entries = nil

	idx.log.Infow("index closed")
	return nil
}
