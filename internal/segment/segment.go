// Package segment implements the on-disk segment file abstraction: naming,
// opening, appending, and lazily replaying the append-only record streams a
// store's data directory is made of.
package segment

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/ignitedb/ignitedb/internal/record"
	"github.com/ignitedb/ignitedb/pkg/errors"
)

const (
	// ActiveFilename is the one segment every store has exactly one of:
	// the log new writes land in.
	ActiveFilename    = "db.active"
	immutableSuffix   = ".immutable"
	immutableFileMode = 0o644
)

var immutablePattern = regexp.MustCompile(`^(\d+)\.immutable$`)

// ID identifies a single segment file within a store's data directory.
// Holding an ID rather than an open handle lets the index survive rotation
// and compaction renaming files out from under it; callers resolve an ID to
// a handle only when they need to touch bytes.
type ID struct {
	Active bool
	N      uint64
}

// Active returns the identifier for db.active.
func Active() ID { return ID{Active: true} }

// Immutable returns the identifier for the n'th immutable segment.
func Immutable(n uint64) ID { return ID{N: n} }

// Filename returns the segment's filename within the data directory.
func (id ID) Filename() string {
	if id.Active {
		return ActiveFilename
	}
	return fmt.Sprintf("%d%s", id.N, immutableSuffix)
}

func (id ID) String() string { return id.Filename() }

// ParseImmutableFilename parses "<N>.immutable" into its numeric component.
// Any other shape is a violated naming invariant, reported as a
// Consistency error rather than anything a caller would retry past.
func ParseImmutableFilename(name string) (uint64, error) {
	m := immutablePattern.FindStringSubmatch(name)
	if m == nil {
		return 0, errors.NewStorageError(
			nil, errors.ErrorCodeConsistency, "immutable segment filename does not match <N>.immutable",
		).WithFileName(name)
	}

	n, err := strconv.ParseUint(m[1], 10, 64)
	if err != nil {
		return 0, errors.NewStorageError(
			err, errors.ErrorCodeConsistency, "malformed immutable segment counter",
		).WithFileName(name)
	}

	return n, nil
}

// ListImmutable scans dataDir for immutable segments and returns their IDs
// in ascending counter order, the order open-time replay and compaction
// both require.
func ListImmutable(dataDir string) ([]ID, error) {
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to list data directory").WithPath(dataDir)
	}

	var ids []ID
	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == ActiveFilename {
			continue
		}
		if !immutablePattern.MatchString(entry.Name()) {
			continue
		}

		n, err := ParseImmutableFilename(entry.Name())
		if err != nil {
			return nil, err
		}
		ids = append(ids, ID{N: n})
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i].N < ids[j].N })
	return ids, nil
}

// OpenForAppend opens id's file for appending, creating it if necessary,
// and positions the file so subsequent writes land after anything already
// in it. Used for db.active and for the new segment a compaction pass
// writes.
func OpenForAppend(dataDir string, id ID) (*os.File, error) {
	path := filepath.Join(dataDir, id.Filename())
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, immutableFileMode)
	if err != nil {
		return nil, errors.ClassifyFileOpenError(err, path, id.Filename())
	}
	return f, nil
}

// OpenForRead opens id's file read-only.
func OpenForRead(dataDir string, id ID) (*os.File, error) {
	path := filepath.Join(dataDir, id.Filename())
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.ClassifyFileOpenError(err, path, id.Filename())
	}
	return f, nil
}

// Append encodes rec to the end of f, which must be open with O_APPEND,
// and returns the absolute byte offset the record started at. fsync, when
// true, forces the write to stable storage before returning.
func Append(f *os.File, rec record.Record, fsync bool) (int64, error) {
	offset, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to determine segment length").
			WithFileName(filepath.Base(f.Name()))
	}

	if err := record.Encode(f, rec); err != nil {
		return 0, err
	}

	if fsync {
		if err := f.Sync(); err != nil {
			return 0, errors.ClassifySyncError(err, filepath.Base(f.Name()), f.Name(), int(offset))
		}
	}

	return offset, nil
}

// ReadAt decodes exactly the record starting at offset within f, without
// disturbing f's shared file position. Safe to call concurrently with
// appends and with other reads against the same handle.
func ReadAt(f *os.File, offset int64) (record.Record, error) {
	sr := io.NewSectionReader(f, offset, math.MaxInt64-offset)

	rec, _, err := record.NewDecoder(sr).Next()
	if err != nil {
		if err == io.EOF {
			return record.Record{}, errors.NewStorageError(
				nil, errors.ErrorCodeConsistency, "index points past the end of its segment",
			).WithFileName(filepath.Base(f.Name())).WithOffset(int(offset))
		}
		return record.Record{}, err
	}

	return rec, nil
}

// LogReader lazily decodes every record of a segment file from its start,
// used for open-time replay and for compaction's retain/drop scan.
type LogReader struct {
	f   *os.File
	dec *record.Decoder
}

// NewLogReader opens id within dataDir for sequential replay from offset 0.
func NewLogReader(dataDir string, id ID) (*LogReader, error) {
	f, err := OpenForRead(dataDir, id)
	if err != nil {
		return nil, err
	}
	return &LogReader{f: f, dec: record.NewDecoder(f)}, nil
}

// Next returns the next record and the absolute byte offset it started at.
// It returns io.EOF, unwrapped, once the segment is exhausted.
func (r *LogReader) Next() (record.Record, int64, error) {
	return r.dec.Next()
}

// Close releases the reader's file handle.
func (r *LogReader) Close() error {
	if err := r.f.Close(); err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to close segment reader").
			WithFileName(filepath.Base(r.f.Name()))
	}
	return nil
}

// RenameToImmutable renames db.active to id's filename within dataDir. The
// caller must have already closed any handle it held open on db.active;
// renaming out from under an open write handle is not assumed portable.
func RenameToImmutable(dataDir string, id ID) error {
	oldPath := filepath.Join(dataDir, ActiveFilename)
	newPath := filepath.Join(dataDir, id.Filename())

	if err := os.Rename(oldPath, newPath); err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to rotate active segment").
			WithPath(newPath).WithFileName(id.Filename())
	}

	return nil
}

// Remove deletes id's file within dataDir. Removing an already-absent
// segment is not an error, since compaction and crash recovery can both
// legitimately race to clean up the same file.
func Remove(dataDir string, id ID) error {
	path := filepath.Join(dataDir, id.Filename())
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to remove segment file").
			WithPath(path).WithFileName(id.Filename())
	}
	return nil
}
