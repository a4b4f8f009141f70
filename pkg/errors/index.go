package errors

// IndexError provides specialized error handling for file-indexing operations:
// building the histogram and per-field bitmap catalog, and querying the
// resulting split-FST container. It extends the base error system with
// index-specific context while supporting method chaining through all base
// error methods.
type IndexError struct {
	*baseError

	// field identifies which field name was being processed when the error
	// occurred — the histogram pass has no field, the per-field pass always
	// does.
	field string

	// chunkID identifies which chunk of the split container was involved,
	// when applicable: its position in the container (0 is the metadata
	// chunk, 1 the primary chunk; high-cardinality fields get chunks
	// 2..N+1 in the order they were indexed).
	chunkID uint16

	// operation describes what index operation was being performed
	// (e.g. "BuildHistogram", "BuildFieldBitmap", "RouteLookup").
	operation string

	// entryCount captures how many entries the index covered at the time of
	// the error, useful for correlating failures with file size.
	entryCount int

	// bitmapBytes estimates how many serialized bitmap bytes had been
	// produced when the error occurred.
	bitmapBytes int64
}

// NewIndexError creates a new index-specific error with the provided context.
func NewIndexError(err error, code ErrorCode, msg string) *IndexError {
	return &IndexError{baseError: NewBaseError(err, code, msg)}
}

// WithMessage updates the error message while maintaining the IndexError type.
func (ie *IndexError) WithMessage(msg string) *IndexError {
	ie.baseError.WithMessage(msg)
	return ie
}

// WithCode sets the error code while preserving the IndexError type.
func (ie *IndexError) WithCode(code ErrorCode) *IndexError {
	ie.baseError.WithCode(code)
	return ie
}

// WithDetail adds contextual information while maintaining the IndexError type.
func (ie *IndexError) WithDetail(key string, value any) *IndexError {
	ie.baseError.WithDetail(key, value)
	return ie
}

// WithField records which field name was being processed.
func (ie *IndexError) WithField(field string) *IndexError {
	ie.field = field
	return ie
}

// WithChunkID captures which split-container chunk was involved.
func (ie *IndexError) WithChunkID(chunkID uint16) *IndexError {
	ie.chunkID = chunkID
	return ie
}

// WithOperation records what index operation was being performed.
func (ie *IndexError) WithOperation(operation string) *IndexError {
	ie.operation = operation
	return ie
}

// WithEntryCount captures how many entries the index covered.
func (ie *IndexError) WithEntryCount(count int) *IndexError {
	ie.entryCount = count
	return ie
}

// WithBitmapBytes records the serialized bitmap byte count at error time.
func (ie *IndexError) WithBitmapBytes(bytes int64) *IndexError {
	ie.bitmapBytes = bytes
	return ie
}

// Field returns the field name that was being processed.
func (ie *IndexError) Field() string {
	return ie.field
}

// ChunkID returns the split-container chunk identifier associated with the error.
func (ie *IndexError) ChunkID() uint16 {
	return ie.chunkID
}

// Operation returns the name of the operation that was being performed.
func (ie *IndexError) Operation() string {
	return ie.operation
}

// EntryCount returns how many entries the index covered at the time of the error.
func (ie *IndexError) EntryCount() int {
	return ie.entryCount
}

// BitmapBytes returns the serialized bitmap byte count at the time of the error.
func (ie *IndexError) BitmapBytes() int64 {
	return ie.bitmapBytes
}

// NewFieldNotFoundError creates an error for a query that referenced a field
// absent from the index's field set.
func NewFieldNotFoundError(field string) *IndexError {
	return NewIndexError(nil, ErrorCodeIndexFieldNotFound, "field not present in file index").
		WithField(field).
		WithOperation("RouteLookup")
}

// NewChunkCorruptionError creates an error for a split-container chunk that
// failed to decompress or decode.
func NewChunkCorruptionError(chunkID uint16, field string, cause error) *IndexError {
	return NewIndexError(cause, ErrorCodeIndexCorrupted, "index chunk failed to decode").
		WithChunkID(chunkID).
		WithField(field).
		WithOperation("DecodeChunk").
		WithDetail("recovery_required", true)
}

// NewIndexBuildFailedError creates an error for a histogram or bitmap build
// pass that could not complete, as distinct from skipping one malformed
// data object (which is logged and does not abort the build).
func NewIndexBuildFailedError(operation string, entryCount int, cause error) *IndexError {
	return NewIndexError(cause, ErrorCodeIndexBuildFailed, "file index build failed").
		WithOperation(operation).
		WithEntryCount(entryCount)
}

// NewIndexStaleError creates an error for an operation that required a fresh
// index snapshot but was handed a stale one.
func NewIndexStaleError(field string) *IndexError {
	return NewIndexError(nil, ErrorCodeIndexStale, "file index snapshot is stale").
		WithField(field).
		WithOperation("Resolve")
}
