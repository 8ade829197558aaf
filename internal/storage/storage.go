// Package storage owns every on-disk segment file a store touches: the
// data directory's bootstrap and recovery, appending records to db.active,
// resolving a (segment, offset) pair back to a record, rotating db.active
// once it is full, and the low-level mechanics compaction needs to rewrite
// a segment. It has no notion of which keys are live — that decision
// belongs entirely to the index.
package storage

import (
	"context"
	stdErrors "errors"
	"io"
	"math"
	"os"

	"github.com/ignitedb/ignitedb/internal/record"
	"github.com/ignitedb/ignitedb/internal/segment"
	"github.com/ignitedb/ignitedb/pkg/errors"
	"github.com/ignitedb/ignitedb/pkg/filesys"
)

var ErrStorageClosed = stdErrors.New("operation failed: cannot access closed storage")

// New bootstraps the storage layer: it ensures the data directory exists,
// discovers any immutable segments left over from a previous run, opens a
// read handle for each, and opens (or creates) db.active for append. It
// does not replay record content — call Replay once immediately afterward
// to do that.
func New(ctx context.Context, config *Config) (*Storage, error) {
	if config == nil || config.Options == nil || config.Logger == nil {
		return nil, errors.NewValidationError(
			nil, errors.ErrorCodeInvalidInput, "storage configuration is required",
		).WithField("config").WithRule("required").WithProvided(config)
	}

	if err := config.Options.Validate(); err != nil {
		return nil, err
	}

	config.Logger.Infow("initializing storage", "dataDir", config.Options.DataDir)

	if err := filesys.CreateDir(config.Options.DataDir, 0755, true); err != nil {
		return nil, errors.ClassifyDirectoryCreationError(err, config.Options.DataDir)
	}

	ids, err := segment.ListImmutable(config.Options.DataDir)
	if err != nil {
		return nil, err
	}

	s := &Storage{
		dataDir:        config.Options.DataDir,
		options:        config.Options,
		log:            config.Logger,
		immutableOrder: ids,
		handles:        make(map[segment.ID]*os.File, len(ids)),
	}

	for _, id := range ids {
		f, err := segment.OpenForRead(s.dataDir, id)
		if err != nil {
			s.closeHandles()
			return nil, err
		}
		s.handles[id] = f
	}

	if len(ids) > 0 {
		s.nextImmutableID = ids[len(ids)-1].N + 1
	}

	active, err := segment.OpenForAppend(s.dataDir, segment.Active())
	if err != nil {
		s.closeHandles()
		return nil, err
	}
	s.activeSegment = active

	config.Logger.Infow(
		"storage initialized",
		"immutableSegments", len(ids),
		"nextImmutableID", s.nextImmutableID,
	)

	return s, nil
}

func (s *Storage) closeHandles() {
	for _, f := range s.handles {
		_ = f.Close()
	}
	if s.activeSegment != nil {
		_ = s.activeSegment.Close()
	}
}

// Replay iterates every record in the store in open-time recovery order —
// immutable segments ascending, then db.active — invoking visit for each.
// As a side effect it establishes the active segment's record count, which
// ShouldRotate depends on. It is meant to be called exactly once, right
// after New.
func (s *Storage) Replay(visit func(id segment.ID, rec record.Record, offset int64) error) error {
	for _, id := range s.immutableOrder {
		reader, err := segment.NewLogReader(s.dataDir, id)
		if err != nil {
			return err
		}

		for {
			rec, offset, err := reader.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				reader.Close()
				return err
			}
			if err := visit(id, rec, offset); err != nil {
				reader.Close()
				return err
			}
		}

		if err := reader.Close(); err != nil {
			return err
		}
	}

	dec := record.NewDecoder(io.NewSectionReader(s.activeSegment, 0, math.MaxInt64))
	var count uint64
	for {
		rec, offset, err := dec.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		count++
		if err := visit(segment.Active(), rec, offset); err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.activeCount = count
	s.mu.Unlock()

	return nil
}

// Append writes rec to db.active and returns the absolute offset it was
// written at, alongside db.active's identifier.
func (s *Storage) Append(rec record.Record) (segment.ID, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	offset, err := segment.Append(s.activeSegment, rec, s.options.FsyncEveryWrite)
	if err != nil {
		return segment.ID{}, 0, err
	}

	s.activeCount++
	return segment.Active(), offset, nil
}

// Read resolves id/offset to the record stored there, using the long-lived
// handle table for immutable segments and the active segment's own handle
// for db.active.
func (s *Storage) Read(id segment.ID, offset int64) (record.Record, error) {
	s.mu.Lock()
	f := s.activeSegment
	if !id.Active {
		f = s.handles[id]
	}
	s.mu.Unlock()

	if f == nil {
		return record.Record{}, errors.NewStorageError(
			nil, errors.ErrorCodeConsistency, "index points at a segment with no open handle",
		).WithFileName(id.Filename())
	}

	return segment.ReadAt(f, offset)
}

// ActiveRecordCount reports how many records db.active currently holds.
func (s *Storage) ActiveRecordCount() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeCount
}

// ShouldRotate reports whether db.active has reached the configured
// rotation threshold.
func (s *Storage) ShouldRotate() bool {
	return s.ActiveRecordCount() >= s.options.RotationThreshold
}

// Rotate closes db.active, renames it to the next immutable segment,
// reopens it by its new name for reading, and opens a fresh db.active in
// its place. It returns the identifier the old active segment was renamed
// to.
func (s *Storage) Rotate() (segment.ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.activeSegment.Close(); err != nil {
		return segment.ID{}, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to close active segment before rotation")
	}

	newID := segment.Immutable(s.nextImmutableID)
	if err := segment.RenameToImmutable(s.dataDir, newID); err != nil {
		return segment.ID{}, err
	}

	handle, err := segment.OpenForRead(s.dataDir, newID)
	if err != nil {
		return segment.ID{}, err
	}

	active, err := segment.OpenForAppend(s.dataDir, segment.Active())
	if err != nil {
		_ = handle.Close()
		return segment.ID{}, err
	}

	s.handles[newID] = handle
	s.immutableOrder = append(s.immutableOrder, newID)
	s.nextImmutableID++
	s.sinceCompaction++
	s.activeSegment = active
	s.activeCount = 0

	s.log.Infow("rotated active segment", "newImmutableID", newID.N)
	return newID, nil
}

// ImmutableSegments returns the currently known immutable segments in
// ascending counter order. The returned slice is a copy; callers may not
// mutate the storage layer's bookkeeping through it.
func (s *Storage) ImmutableSegments() []segment.ID {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]segment.ID, len(s.immutableOrder))
	copy(out, s.immutableOrder)
	return out
}

// SinceCompaction reports how many immutable segments have accumulated
// since the compaction counter was last reset.
func (s *Storage) SinceCompaction() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sinceCompaction
}

// ShouldCompact reports whether enough immutable segments have
// accumulated to trigger a compaction pass.
func (s *Storage) ShouldCompact() bool {
	return s.SinceCompaction() >= s.options.CompactionThreshold
}

// WriteImmutableSegment writes records to a brand-new immutable segment,
// used by compaction to rewrite the retained records of a segment it is
// about to delete. It returns the new segment's identifier and, parallel
// to records, the absolute offset each one was written at.
func (s *Storage) WriteImmutableSegment(records []record.Record) (segment.ID, []int64, error) {
	s.mu.Lock()
	id := segment.Immutable(s.nextImmutableID)
	s.nextImmutableID++
	s.mu.Unlock()

	f, err := segment.OpenForAppend(s.dataDir, id)
	if err != nil {
		return segment.ID{}, nil, err
	}

	offsets := make([]int64, 0, len(records))
	for _, rec := range records {
		offset, err := segment.Append(f, rec, s.options.FsyncEveryWrite)
		if err != nil {
			_ = f.Close()
			_ = segment.Remove(s.dataDir, id)
			return segment.ID{}, nil, err
		}
		offsets = append(offsets, offset)
	}

	if err := f.Close(); err != nil {
		return segment.ID{}, nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to close rewritten segment").
			WithFileName(id.Filename())
	}

	handle, err := segment.OpenForRead(s.dataDir, id)
	if err != nil {
		return segment.ID{}, nil, err
	}

	s.mu.Lock()
	s.handles[id] = handle
	s.immutableOrder = append(s.immutableOrder, id)
	s.mu.Unlock()

	return id, offsets, nil
}

// DeleteSegment closes id's handle, removes it from the known immutable
// segment order, and deletes its file. Used by compaction once a
// segment's retained records (if any) have been rewritten elsewhere.
func (s *Storage) DeleteSegment(id segment.ID) error {
	s.mu.Lock()
	if handle, ok := s.handles[id]; ok {
		_ = handle.Close()
		delete(s.handles, id)
	}

	for i, existing := range s.immutableOrder {
		if existing == id {
			s.immutableOrder = append(s.immutableOrder[:i], s.immutableOrder[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	return segment.Remove(s.dataDir, id)
}

// ResetCompactionCounter zeroes the since-last-compaction counter. Called
// once a compaction pass completes successfully.
func (s *Storage) ResetCompactionCounter() {
	s.mu.Lock()
	s.sinceCompaction = 0
	s.mu.Unlock()
}

// Close releases every open segment handle.
func (s *Storage) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return ErrStorageClosed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for id, f := range s.handles {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = errors.NewStorageError(err, errors.ErrorCodeIO, "failed to close segment handle").
				WithFileName(id.Filename())
		}
	}

	if err := s.activeSegment.Close(); err != nil && firstErr == nil {
		firstErr = errors.NewStorageError(err, errors.ErrorCodeIO, "failed to close active segment")
	}

	return firstErr
}
