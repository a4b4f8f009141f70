package errors

// ErrorCode represents a standardized way to categorize different types of errors.
type ErrorCode string

// Base error codes represent the fundamental categories of failures that can
// occur across any software system. These codes provide the foundation layer
// of error classification.
const (
	// ErrorCodeIO represents failures in input/output operations across any
	// system boundary: mapping a journal file, growing its arena, fsync'ing
	// a sealed file, or any other filesystem interaction.
	ErrorCodeIO ErrorCode = "IO_ERROR"

	// ErrorCodeInvalidInput represents client-side errors where the provided
	// data doesn't meet the system's requirements or constraints.
	ErrorCodeInvalidInput ErrorCode = "INVALID_INPUT"

	// ErrorCodeInternal represents unexpected system failures that don't fit
	// into other categories — the equivalent of a programming error or
	// assertion failure that shouldn't occur during normal operation.
	ErrorCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Journal-specific error codes extend the base taxonomy to the unique failure
// modes of a memory-mapped, windowed, typed-object container. These map
// directly onto the taxonomy in spec.md §7.
const (
	// ErrorCodeInvalidMagicNumber indicates the 8-byte signature at offset 0
	// does not match "LPKSHHRH". Fatal at open.
	ErrorCodeInvalidMagicNumber ErrorCode = "INVALID_MAGIC_NUMBER"

	// ErrorCodeUUIDSerde indicates a malformed 16-byte identity input (file
	// id, machine id, boot id, seqnum id). Fatal at create.
	ErrorCodeUUIDSerde ErrorCode = "UUID_SERDE"

	// ErrorCodeInvalidObjectType indicates the type tag stored in an object
	// header does not match the type expected at that offset.
	ErrorCodeInvalidObjectType ErrorCode = "INVALID_OBJECT_TYPE"

	// ErrorCodeZerocopyFailure indicates the geometry of a byte slice (its
	// length, variable-length stride, or declared element count) is
	// inconsistent with the view being constructed over it.
	ErrorCodeZerocopyFailure ErrorCode = "ZEROCOPY_FAILURE"

	// ErrorCodeMissingHashTable indicates a lookup was attempted before the
	// data or field hash table region was initialized. Programming error.
	ErrorCodeMissingHashTable ErrorCode = "MISSING_HASH_TABLE"

	// ErrorCodeValueGuardInUse indicates a second object view was requested
	// while a ValueGuard from a prior view was still held. Programming error.
	ErrorCodeValueGuardInUse ErrorCode = "VALUE_GUARD_IN_USE"

	// ErrorCodeMissingOffset indicates a traversal dereferenced a zero offset
	// where a non-zero offset was required.
	ErrorCodeMissingOffset ErrorCode = "MISSING_OFFSET"

	// ErrorCodeNoSpace indicates a writer or bitmap builder ran out of
	// addressable space — arena exhaustion, u32 offset overflow in compact
	// mode, or tree8 universe overflow. Recoverable at the caller's
	// discretion (e.g. rotate the file).
	ErrorCodeNoSpace ErrorCode = "NO_SPACE"

	// ErrorCodeCorruption is the catch-all for structurally inconsistent
	// on-disk state discovered outside the specific checks above: a bad
	// bucket chain, a cyclical entry-array chain, a stride mismatch.
	ErrorCodeCorruption ErrorCode = "JOURNAL_CORRUPTION"

	// ErrorCodePermissionDenied indicates insufficient permissions to access
	// a resource. Distinct from a generic IO error because it has a specific
	// resolution path: adjust permissions or elevate privileges.
	ErrorCodePermissionDenied ErrorCode = "PERMISSION_DENIED"

	// ErrorCodeDiskFull indicates the storage device has run out of space.
	ErrorCodeDiskFull ErrorCode = "DISK_FULL"

	// ErrorCodeFilesystemReadonly indicates the filesystem is mounted
	// read-only.
	ErrorCodeFilesystemReadonly ErrorCode = "FILESYSTEM_READONLY"
)

// Index-specific error codes address failures building or querying a
// FileIndex: cardinality classification, histogram construction, and the
// split-FST container.
const (
	// ErrorCodeIndexFieldNotFound indicates a query referenced a field name
	// absent from both the primary chunk and the high-cardinality chunks.
	ErrorCodeIndexFieldNotFound ErrorCode = "INDEX_FIELD_NOT_FOUND"

	// ErrorCodeIndexCorrupted indicates the split container's directory,
	// metadata chunk, or a data chunk failed to decode or decompress.
	ErrorCodeIndexCorrupted ErrorCode = "INDEX_CORRUPTED"

	// ErrorCodeIndexBuildFailed indicates the analytical pass over a journal
	// file could not complete. Distinct from skipping one malformed data
	// object, which is logged and does not abort the build.
	ErrorCodeIndexBuildFailed ErrorCode = "INDEX_BUILD_FAILED"

	// ErrorCodeIndexStale indicates an operation required a fresh index but
	// was handed a snapshot built while the journal was still being written
	// and since superseded by new appends.
	ErrorCodeIndexStale ErrorCode = "INDEX_STALE"
)

// Query-specific error codes cover the log-query builder and merge engine.
const (
	// ErrorCodeInvalidQueryTimeRange indicates after >= before in a query's
	// time-window bounds.
	ErrorCodeInvalidQueryTimeRange ErrorCode = "INVALID_QUERY_TIME_RANGE"

	// ErrorCodeQueryCancelled indicates the caller's cancellation token fired
	// at a merge-loop boundary.
	ErrorCodeQueryCancelled ErrorCode = "QUERY_CANCELLED"
)
