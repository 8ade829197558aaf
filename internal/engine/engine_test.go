package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ignitedb/ignitedb/internal/engine"
	"github.com/ignitedb/ignitedb/pkg/errors"
	"github.com/ignitedb/ignitedb/pkg/options"
)

func newEngine(t *testing.T, mutate func(*options.Options)) *engine.Engine {
	t.Helper()

	opts := options.NewDefaultOptions()
	opts.DataDir = t.TempDir()
	if mutate != nil {
		mutate(&opts)
	}

	e, err := engine.New(context.Background(), &engine.Config{Options: &opts, Logger: zap.NewNop().Sugar()})
	require.NoError(t, err)
	return e
}

func TestSetGetRoundTrip(t *testing.T) {
	e := newEngine(t, nil)
	defer e.Close()
	ctx := context.Background()

	require.NoError(t, e.Set(ctx, "key", []byte("value")))

	value, err := e.Get(ctx, "key")
	require.NoError(t, err)
	require.Equal(t, []byte("value"), value)
}

func TestGetAbsentKeyIsKeyNotFound(t *testing.T) {
	e := newEngine(t, nil)
	defer e.Close()
	ctx := context.Background()

	_, err := e.Get(ctx, "missing")
	require.Error(t, err)
	require.Equal(t, errors.ErrorCodeKeyNotFound, errors.GetErrorCode(err))
}

func TestSetOverwriteReturnsLatestValue(t *testing.T) {
	e := newEngine(t, nil)
	defer e.Close()
	ctx := context.Background()

	require.NoError(t, e.Set(ctx, "key", []byte("v1")))
	require.NoError(t, e.Set(ctx, "key", []byte("v2")))

	value, err := e.Get(ctx, "key")
	require.NoError(t, err)
	require.Equal(t, []byte("v2"), value)
}

func TestRemoveThenGetIsKeyNotFound(t *testing.T) {
	e := newEngine(t, nil)
	defer e.Close()
	ctx := context.Background()

	require.NoError(t, e.Set(ctx, "key", []byte("value")))
	require.NoError(t, e.Remove(ctx, "key"))

	_, err := e.Get(ctx, "key")
	require.Equal(t, errors.ErrorCodeKeyNotFound, errors.GetErrorCode(err))
}

func TestRemoveAbsentKeyIsKeyNotFound(t *testing.T) {
	e := newEngine(t, nil)
	defer e.Close()
	ctx := context.Background()

	err := e.Remove(ctx, "missing")
	require.Equal(t, errors.ErrorCodeKeyNotFound, errors.GetErrorCode(err))
}

func TestRotationAndCompactionAreTransparentToReaders(t *testing.T) {
	e := newEngine(t, func(o *options.Options) {
		o.RotationThreshold = 2
		o.CompactionThreshold = 1
	})
	defer e.Close()
	ctx := context.Background()

	// Three generations of "key" force at least one rotation; a fourth key
	// plus a removal forces compaction to run with a mix of superseded,
	// live, and removed keys across segments.
	require.NoError(t, e.Set(ctx, "key", []byte("v1")))
	require.NoError(t, e.Set(ctx, "key", []byte("v2")))
	require.NoError(t, e.Set(ctx, "other", []byte("o1")))
	require.NoError(t, e.Remove(ctx, "other"))
	require.NoError(t, e.Set(ctx, "key", []byte("v3")))

	value, err := e.Get(ctx, "key")
	require.NoError(t, err)
	require.Equal(t, []byte("v3"), value)

	_, err = e.Get(ctx, "other")
	require.Equal(t, errors.ErrorCodeKeyNotFound, errors.GetErrorCode(err))
}

// TestGetReturnsMigratedValueWithNoInterveningWrite guards against a
// compaction pass that rewrites a still-live key into a new segment but
// fails to repoint the index at it: unlike
// TestRotationAndCompactionAreTransparentToReaders, nothing touches "key"
// again after the write that triggers compaction, so a dangling pointer
// into the deleted segment would surface here as a Get error instead of
// being masked by a subsequent overwrite.
func TestGetReturnsMigratedValueWithNoInterveningWrite(t *testing.T) {
	e := newEngine(t, func(o *options.Options) {
		o.RotationThreshold = 2
		o.CompactionThreshold = 1
	})
	defer e.Close()
	ctx := context.Background()

	require.NoError(t, e.Set(ctx, "key", []byte("v1")))
	require.NoError(t, e.Set(ctx, "key", []byte("v2")))
	require.NoError(t, e.Set(ctx, "key", []byte("v3")))
	require.NoError(t, e.Set(ctx, "other", []byte("o1")))
	require.NoError(t, e.Remove(ctx, "other"))
	require.NoError(t, e.Set(ctx, "unrelated", []byte("u1")))

	value, err := e.Get(ctx, "key")
	require.NoError(t, err)
	require.Equal(t, []byte("v3"), value)
}

func TestReopenRecoversStateFromDisk(t *testing.T) {
	dir := t.TempDir()
	opts := options.NewDefaultOptions()
	opts.DataDir = dir
	opts.RotationThreshold = 2
	opts.CompactionThreshold = 1

	ctx := context.Background()
	log := zap.NewNop().Sugar()

	e, err := engine.New(ctx, &engine.Config{Options: &opts, Logger: log})
	require.NoError(t, err)

	require.NoError(t, e.Set(ctx, "a", []byte("1")))
	require.NoError(t, e.Set(ctx, "b", []byte("2")))
	require.NoError(t, e.Set(ctx, "a", []byte("3")))
	require.NoError(t, e.Remove(ctx, "b"))
	require.NoError(t, e.Close())

	reopened, err := engine.New(ctx, &engine.Config{Options: &opts, Logger: log})
	require.NoError(t, err)
	defer reopened.Close()

	value, err := reopened.Get(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, []byte("3"), value)

	_, err = reopened.Get(ctx, "b")
	require.Equal(t, errors.ErrorCodeKeyNotFound, errors.GetErrorCode(err))

	// A further Set after reopen must not collide with a version recovered
	// from before the restart.
	require.NoError(t, reopened.Set(ctx, "a", []byte("4")))
	value, err = reopened.Get(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, []byte("4"), value)
}

func TestCloseIsIdempotentFailure(t *testing.T) {
	e := newEngine(t, nil)
	require.NoError(t, e.Close())
	require.ErrorIs(t, e.Close(), engine.ErrEngineClosed)
}

func TestOperationsAfterCloseFail(t *testing.T) {
	e := newEngine(t, nil)
	require.NoError(t, e.Close())
	ctx := context.Background()

	require.ErrorIs(t, e.Set(ctx, "key", []byte("v")), engine.ErrEngineClosed)
	_, err := e.Get(ctx, "key")
	require.ErrorIs(t, err, engine.ErrEngineClosed)
	require.ErrorIs(t, e.Remove(ctx, "key"), engine.ErrEngineClosed)
}
