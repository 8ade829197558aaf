// Package engine provides the core database engine: the Store contract
// that Open/Set/Get/Remove/Close are built on. It coordinates the index,
// the storage layer, and compaction, and owns the single invariant that
// ties them together — at most one mutating operation (Set, Remove, or a
// compaction pass it triggers) runs at a time.
package engine

import (
	"context"
	stdErrors "errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/ignitedb/ignitedb/internal/compaction"
	"github.com/ignitedb/ignitedb/internal/index"
	"github.com/ignitedb/ignitedb/internal/record"
	"github.com/ignitedb/ignitedb/internal/segment"
	"github.com/ignitedb/ignitedb/internal/storage"
	"github.com/ignitedb/ignitedb/pkg/errors"
	"github.com/ignitedb/ignitedb/pkg/options"
)

// ErrEngineClosed is returned when attempting to perform operations on a closed engine.
var ErrEngineClosed = stdErrors.New("operation failed: cannot access closed engine")

// Engine is the main database engine that coordinates all subsystems. It
// implements compaction.Ops directly, so a compaction pass it triggers
// reaches back into the index and storage through the same engine instance
// rather than through a second, independently-locked path.
type Engine struct {
	options *options.Options
	log     *zap.SugaredLogger
	closed  atomic.Bool

	// mu serializes every mutating operation: Set, Remove, and any
	// compaction pass one of them triggers. Get does not take mu — the
	// index and storage layers are each safe for concurrent readers
	// against a single in-flight writer on their own.
	mu          sync.Mutex
	nextVersion uint64

	index      *index.Index
	storage    *storage.Storage
	compaction *compaction.Compaction
}

// Config holds all the parameters needed to initialize a new Engine instance.
type Config struct {
	Options *options.Options
	Logger  *zap.SugaredLogger
}

// New opens the store: it builds the index and storage subsystems, then
// replays every segment in recovery order (immutable segments ascending,
// then db.active) to rebuild the index and recover the next version
// counter from the highest version any record was written at.
func New(ctx context.Context, config *Config) (*Engine, error) {
	if config == nil || config.Options == nil || config.Logger == nil {
		return nil, errors.NewValidationError(
			nil, errors.ErrorCodeInvalidInput, "engine configuration is required",
		).WithField("config").WithRule("required").WithProvided(config)
	}

	idx, err := index.New(ctx, &index.Config{DataDir: config.Options.DataDir, Logger: config.Logger})
	if err != nil {
		return nil, err
	}

	store, err := storage.New(ctx, &storage.Config{Options: config.Options, Logger: config.Logger})
	if err != nil {
		return nil, err
	}

	e := &Engine{
		options:    config.Options,
		log:        config.Logger,
		index:      idx,
		storage:    store,
		compaction: compaction.New(&compaction.Config{Logger: config.Logger}),
	}

	var maxVersion uint64
	err = store.Replay(func(id segment.ID, rec record.Record, offset int64) error {
		if rec.Version > maxVersion {
			maxVersion = rec.Version
		}

		switch rec.Kind {
		case record.KindSet:
			idx.Upsert(rec.Key, index.ValuePointer{Segment: id, Offset: offset, Version: rec.Version})
		case record.KindRemove:
			idx.Erase(rec.Key)
		}

		return nil
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	e.nextVersion = maxVersion + 1
	config.Logger.Infow("engine opened", "keys", idx.Len(), "nextVersion", e.nextVersion)

	return e, nil
}

// Set stores key/value durably, assigning it the next version. If rotation
// or compaction thresholds are reached as a result, they run inline before
// Set returns.
func (e *Engine) Set(ctx context.Context, key string, value []byte) error {
	if e.closed.Load() {
		return ErrEngineClosed
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	version := e.nextVersion
	rec := record.NewSet(key, value, version)

	id, offset, err := e.storage.Append(rec)
	if err != nil {
		return err
	}
	e.nextVersion++

	e.index.Upsert(key, index.ValuePointer{Segment: id, Offset: offset, Version: version})

	return e.maybeRotateAndCompact(ctx)
}

// Get returns the value currently associated with key, or a KeyNotFound
// error if the key is absent.
func (e *Engine) Get(ctx context.Context, key string) ([]byte, error) {
	if e.closed.Load() {
		return nil, ErrEngineClosed
	}

	ptr, ok := e.index.Lookup(key)
	if !ok {
		return nil, errors.NewKeyNotFoundError(key)
	}

	rec, err := e.storage.Read(ptr.Segment, ptr.Offset)
	if err != nil {
		return nil, err
	}

	if !rec.IsSet() || rec.Key != key {
		return nil, errors.NewIndexCorruptionError("Get", e.index.Len(), nil).WithKey(key)
	}

	return rec.Value, nil
}

// Remove deletes key, returning a KeyNotFound error if it was already
// absent. A successful Remove still appends a tombstone record so replay
// on a future open sees the same deletion.
func (e *Engine) Remove(ctx context.Context, key string) error {
	if e.closed.Load() {
		return ErrEngineClosed
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.index.Lookup(key); !ok {
		return errors.NewKeyNotFoundError(key)
	}

	version := e.nextVersion
	rec := record.NewRemove(key, version)

	if _, _, err := e.storage.Append(rec); err != nil {
		return err
	}
	e.nextVersion++

	e.index.Erase(key)

	return e.maybeRotateAndCompact(ctx)
}

// maybeRotateAndCompact runs the rotation and compaction checks right after
// an append. It is called with mu already held by Set or Remove.
func (e *Engine) maybeRotateAndCompact(ctx context.Context) error {
	if e.storage.ShouldRotate() {
		if _, err := e.storage.Rotate(); err != nil {
			return err
		}
	}

	if e.storage.ShouldCompact() {
		if err := e.compaction.Run(ctx, e); err != nil {
			return err
		}
	}

	return nil
}

// Close gracefully shuts down the engine, closing the index and every open
// segment handle.
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return ErrEngineClosed
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.index.Close(); err != nil {
		e.log.Warnw("failed to close index cleanly", "error", err)
	}

	return e.storage.Close()
}

// The methods below implement compaction.Ops. They are only ever invoked
// from maybeRotateAndCompact, which already holds mu, so they never race
// with a concurrent Set or Remove.

func (e *Engine) ImmutableSegments() []segment.ID {
	return e.storage.ImmutableSegments()
}

func (e *Engine) ScanSegment(id segment.ID) (*segment.LogReader, error) {
	return segment.NewLogReader(e.options.DataDir, id)
}

func (e *Engine) IsCurrent(key string, id segment.ID, offset int64) bool {
	ptr, ok := e.index.Lookup(key)
	if !ok {
		return false
	}
	return ptr.Segment == id && ptr.Offset == offset
}

func (e *Engine) RewriteRetained(old segment.ID, retained []record.Record) error {
	newID, offsets, err := e.storage.WriteImmutableSegment(retained)
	if err != nil {
		return err
	}

	for i, rec := range retained {
		// Repoint, not Upsert: a retained record's version is by definition
		// the one already indexed for its key, so Upsert's newer-wins guard
		// would discard this move and leave the index pointing at the
		// segment about to be deleted.
		e.index.Repoint(rec.Key, newID, offsets[i])
	}

	return nil
}

func (e *Engine) DeleteSegment(id segment.ID) error {
	return e.storage.DeleteSegment(id)
}

func (e *Engine) ResetCompactionCounter() {
	e.storage.ResetCompactionCounter()
}
