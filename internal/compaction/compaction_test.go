package compaction_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ignitedb/ignitedb/internal/compaction"
	"github.com/ignitedb/ignitedb/internal/record"
	"github.com/ignitedb/ignitedb/internal/segment"
)

// fakeOps is a minimal compaction.Ops backed by real, empty segment files on
// disk (so ScanSegment can hand back a genuine segment.LogReader) plus an
// in-memory liveness map standing in for the index.
type fakeOps struct {
	dir       string
	segments  []segment.ID
	live      map[string]segment.ID
	deleted   []segment.ID
	rewritten []record.Record
}

func newFakeOps(t *testing.T, ids ...segment.ID) *fakeOps {
	t.Helper()

	dir := t.TempDir()
	for _, id := range ids {
		f, err := segment.OpenForAppend(dir, id)
		require.NoError(t, err)
		require.NoError(t, f.Close())
	}

	return &fakeOps{dir: dir, segments: ids, live: make(map[string]segment.ID)}
}

func (f *fakeOps) ImmutableSegments() []segment.ID { return f.segments }

func (f *fakeOps) ScanSegment(id segment.ID) (*segment.LogReader, error) {
	return segment.NewLogReader(f.dir, id)
}

func (f *fakeOps) IsCurrent(key string, id segment.ID, offset int64) bool {
	return f.live[key] == id
}

func (f *fakeOps) RewriteRetained(old segment.ID, retained []record.Record) error {
	f.rewritten = append(f.rewritten, retained...)
	return nil
}

func (f *fakeOps) DeleteSegment(id segment.ID) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeOps) ResetCompactionCounter() {}

func TestRunDeletesSegmentsWhereEverythingWasDropped(t *testing.T) {
	id1, id2 := segment.Immutable(1), segment.Immutable(2)
	ops := newFakeOps(t, id1, id2)

	// Every record in both segments is superseded elsewhere, so nothing
	// is retained and both segments should be deleted outright.
	for _, id := range []segment.ID{id1, id2} {
		f, err := segment.OpenForAppend(ops.dir, id)
		require.NoError(t, err)
		_, err = segment.Append(f, record.NewSet("key", []byte("stale"), 1), false)
		require.NoError(t, err)
		require.NoError(t, f.Close())
	}
	ops.live["key"] = segment.Immutable(99)

	c := compaction.New(&compaction.Config{Logger: zap.NewNop().Sugar()})
	err := c.Run(context.Background(), ops)
	require.NoError(t, err)
	require.Equal(t, ops.segments, ops.deleted)
	require.Empty(t, ops.rewritten)
}

func TestRunLeavesSegmentUntouchedWhenNothingDropped(t *testing.T) {
	id := segment.Immutable(1)
	ops := newFakeOps(t, id)

	f, err := segment.OpenForAppend(ops.dir, id)
	require.NoError(t, err)
	_, err = segment.Append(f, record.NewSet("key", []byte("v1"), 1), false)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	// "key" is still live out of this exact segment: nothing to drop.
	ops.live["key"] = id

	c := compaction.New(&compaction.Config{Logger: zap.NewNop().Sugar()})
	require.NoError(t, c.Run(context.Background(), ops))

	require.Empty(t, ops.deleted)
	require.Empty(t, ops.rewritten)
}

func TestRunRetainsOnlyCurrentSetRecords(t *testing.T) {
	id := segment.Immutable(1)
	ops := newFakeOps(t, id)

	f, err := segment.OpenForAppend(ops.dir, id)
	require.NoError(t, err)

	_, err = segment.Append(f, record.NewSet("stale", []byte("old"), 1), false)
	require.NoError(t, err)
	_, err = segment.Append(f, record.NewSet("current", []byte("new"), 2), false)
	require.NoError(t, err)
	_, err = segment.Append(f, record.NewRemove("removed", 3), false)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	// Only "current" is still indexed as pointing at this segment/offset.
	// "stale" was superseded elsewhere; "removed" is a tombstone.
	ops.live["current"] = id
	ops.live["stale"] = segment.Immutable(99) // superseded by a later segment

	c := compaction.New(&compaction.Config{Logger: zap.NewNop().Sugar()})
	require.NoError(t, c.Run(context.Background(), ops))

	require.Len(t, ops.rewritten, 1)
	require.Equal(t, "current", ops.rewritten[0].Key)
	require.Equal(t, []segment.ID{id}, ops.deleted)
}

func TestRunRespectsContextCancellation(t *testing.T) {
	ops := newFakeOps(t, segment.Immutable(1), segment.Immutable(2))

	c := compaction.New(&compaction.Config{Logger: zap.NewNop().Sugar()})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.Run(ctx, ops)
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, ops.deleted)
}
