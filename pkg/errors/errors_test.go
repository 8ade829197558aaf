package errors_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ignitedb/ignitedb/pkg/errors"
)

func TestStorageErrorFluentChain(t *testing.T) {
	err := errors.NewStorageError(nil, errors.ErrorCodeIO, "boom").
		WithPath("/data/db.active").
		WithFileName("db.active").
		WithOffset(42).
		WithSegmentID(3)

	require.Equal(t, "/data/db.active", err.Path())
	require.Equal(t, "db.active", err.FileName())
	require.Equal(t, 42, err.Offset())
	require.Equal(t, 3, err.SegmentId())
	require.Equal(t, errors.ErrorCodeIO, err.Code())
}

func TestIsAndAsStorageError(t *testing.T) {
	var err error = errors.NewStorageError(nil, errors.ErrorCodeConsistency, "bad")

	require.True(t, errors.IsStorageError(err))
	se, ok := errors.AsStorageError(err)
	require.True(t, ok)
	require.Equal(t, errors.ErrorCodeConsistency, se.Code())
}

func TestIsAndAsIndexError(t *testing.T) {
	var err error = errors.NewKeyNotFoundError("missing")

	require.True(t, errors.IsIndexError(err))
	ie, ok := errors.AsIndexError(err)
	require.True(t, ok)
	require.Equal(t, "missing", ie.Key())
	require.Equal(t, errors.ErrorCodeKeyNotFound, ie.Code())
}

func TestGetErrorCodeFallsBackToInternal(t *testing.T) {
	require.Equal(t, errors.ErrorCodeInternal, errors.GetErrorCode(os.ErrNotExist))
}

func TestGetErrorCodePicksSpecificType(t *testing.T) {
	require.Equal(t, errors.ErrorCodeKeyNotFound, errors.GetErrorCode(errors.NewKeyNotFoundError("k")))
	require.Equal(t, errors.ErrorCodeInvalidInput, errors.GetErrorCode(errors.NewRequiredFieldError("DataDir")))
}

func TestClassifyFileOpenErrorPermissionDenied(t *testing.T) {
	err := errors.ClassifyFileOpenError(os.ErrPermission, "/data/db.active", "db.active")

	se, ok := errors.AsStorageError(err)
	require.True(t, ok)
	require.Equal(t, errors.ErrorCodeIO, se.Code())
	require.Equal(t, errors.DetailReasonPermissionDenied, se.Details()["reason"])
}

func TestClassifyDirectoryCreationErrorGenericIO(t *testing.T) {
	err := errors.ClassifyDirectoryCreationError(os.ErrInvalid, "/data")

	se, ok := errors.AsStorageError(err)
	require.True(t, ok)
	require.Equal(t, errors.ErrorCodeIO, se.Code())
	require.Equal(t, "/data", se.Path())
}
