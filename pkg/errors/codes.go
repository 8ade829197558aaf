package errors

// ErrorCode represents a standardized way to categorize different types of errors.
type ErrorCode string

// These four codes classify the storage engine's failures. Configuration
// errors carry ErrorCodeInvalidInput instead, and ErrEngineClosed carries no
// code at all.
const (
	// ErrorCodeIO covers any failed filesystem operation: opening, reading,
	// writing, renaming, or removing a segment file.
	ErrorCodeIO ErrorCode = "IO_ERROR"

	// ErrorCodeSerialization covers a record codec failure: the decoder could
	// not parse the bytes at a given stream position into a Set or Remove.
	ErrorCodeSerialization ErrorCode = "SERIALIZATION_ERROR"

	// ErrorCodeKeyNotFound is returned by Get and Remove when the key is
	// absent from the index. It is the one error kind callers are expected to hit in
	// routine operation rather than treat as a failure.
	ErrorCodeKeyNotFound ErrorCode = "KEY_NOT_FOUND"

	// ErrorCodeConsistency covers a violated structural invariant: an
	// unparsable immutable segment name, an index entry pointing at a record
	// that turned out not to be the expected Set, and similar internal
	// bookkeeping failures. Once this occurs the store should be considered
	// unsafe to keep using.
	ErrorCodeConsistency ErrorCode = "CONSISTENCY_ERROR"
)

// ErrorCodeInvalidInput is used only by ValidationError, for rejecting
// malformed configuration before a store is opened. It is not one of the
// four KvError kinds above.
const ErrorCodeInvalidInput ErrorCode = "INVALID_INPUT"

// ErrorCodeInternal is the fallback GetErrorCode reports for an error that
// isn't one of the engine's own typed errors at all. The engine itself never
// constructs it.
const ErrorCodeInternal ErrorCode = "INTERNAL_ERROR"

// Detail keys used with baseError.WithDetail to classify the underlying
// cause of an IOError without growing the code taxonomy. These are informal
// and only ever read by log statements and tests, never switched on by the
// store itself.
const (
	DetailReasonPermissionDenied   = "permission_denied"
	DetailReasonDiskFull           = "disk_full"
	DetailReasonFilesystemReadonly = "filesystem_readonly"
)
