package index_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ignitedb/ignitedb/internal/index"
	"github.com/ignitedb/ignitedb/internal/segment"
)

func newIndex(t *testing.T) *index.Index {
	t.Helper()
	idx, err := index.New(context.Background(), &index.Config{
		DataDir: t.TempDir(),
		Logger:  zap.NewNop().Sugar(),
	})
	require.NoError(t, err)
	return idx
}

func TestUpsertAndLookup(t *testing.T) {
	idx := newIndex(t)

	_, ok := idx.Lookup("missing")
	require.False(t, ok)

	ptr := index.ValuePointer{Segment: segment.Active(), Offset: 10, Version: 1}
	idx.Upsert("key", ptr)

	got, ok := idx.Lookup("key")
	require.True(t, ok)
	require.Equal(t, ptr, got)
	require.Equal(t, 1, idx.Len())
}

func TestUpsertDropsStaleVersion(t *testing.T) {
	idx := newIndex(t)

	newer := index.ValuePointer{Segment: segment.Active(), Offset: 20, Version: 5}
	older := index.ValuePointer{Segment: segment.Active(), Offset: 10, Version: 2}

	idx.Upsert("key", newer)
	idx.Upsert("key", older)

	got, ok := idx.Lookup("key")
	require.True(t, ok)
	require.Equal(t, newer, got)
}

func TestErase(t *testing.T) {
	idx := newIndex(t)

	require.False(t, idx.Erase("missing"))

	idx.Upsert("key", index.ValuePointer{Segment: segment.Active(), Offset: 1, Version: 1})
	require.True(t, idx.Erase("key"))

	_, ok := idx.Lookup("key")
	require.False(t, ok)
}

func TestCloseIsIdempotentFailure(t *testing.T) {
	idx := newIndex(t)

	require.NoError(t, idx.Close())
	require.ErrorIs(t, idx.Close(), index.ErrIndexClosed)
}
