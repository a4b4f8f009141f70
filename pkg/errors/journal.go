package errors

// JournalError is a specialized error type for failures touching the on-disk
// journal container itself — header parsing, window mapping, object decode,
// hash-table traversal, and writer appends. It embeds baseError to inherit
// the standard error functionality, then adds the positional context needed
// to pinpoint exactly where in the file something went wrong.
type JournalError struct {
	*baseError
	offset     int64  // Byte offset within the journal file where the problem happened.
	objectType string // Expected or observed object type tag, when relevant.
	fileName   string // Name of the journal file that caused the issue.
	path       string // Path of the journal file that caused the issue.
}

// NewJournalError creates a new journal-specific error.
func NewJournalError(err error, code ErrorCode, msg string) *JournalError {
	return &JournalError{baseError: NewBaseError(err, code, msg)}
}

// WithMessage updates the error message while maintaining the JournalError type.
func (je *JournalError) WithMessage(msg string) *JournalError {
	je.baseError.WithMessage(msg)
	return je
}

// WithCode sets the error code while preserving the JournalError type.
func (je *JournalError) WithCode(code ErrorCode) *JournalError {
	je.baseError.WithCode(code)
	return je
}

// WithDetail adds contextual information while maintaining the JournalError type.
func (je *JournalError) WithDetail(key string, value any) *JournalError {
	je.baseError.WithDetail(key, value)
	return je
}

// WithOffset records the byte position where the error occurred.
func (je *JournalError) WithOffset(offset int64) *JournalError {
	je.offset = offset
	return je
}

// WithObjectType records the object type tag involved in the error.
func (je *JournalError) WithObjectType(objectType string) *JournalError {
	je.objectType = objectType
	return je
}

// WithFileName captures which file was being processed when the error occurred.
func (je *JournalError) WithFileName(fileName string) *JournalError {
	je.fileName = fileName
	return je
}

// WithPath captures which path was being processed when the error occurred.
func (je *JournalError) WithPath(path string) *JournalError {
	je.path = path
	return je
}

// Offset returns the byte offset within the journal file where the error happened.
func (je *JournalError) Offset() int64 {
	return je.offset
}

// ObjectType returns the object type tag involved in the error, if any.
func (je *JournalError) ObjectType() string {
	return je.objectType
}

// FileName returns the name of the journal file that was being processed.
func (je *JournalError) FileName() string {
	return je.fileName
}

// Path returns the path of the journal file that was being processed.
func (je *JournalError) Path() string {
	return je.path
}

// Convenience constructors for the fixed taxonomy in spec.md §7. These
// capture the minimal context each condition implies without requiring
// every call site to re-derive it.

// NewInvalidMagicNumberError reports a journal file whose signature does not
// match "LPKSHHRH".
func NewInvalidMagicNumberError(path string, got []byte) *JournalError {
	return NewJournalError(nil, ErrorCodeInvalidMagicNumber, "journal file signature mismatch").
		WithPath(path).
		WithDetail("expected", "LPKSHHRH").
		WithDetail("got", string(got))
}

// NewInvalidObjectTypeError reports a type tag mismatch at a given offset.
func NewInvalidObjectTypeError(offset int64, expected, got string) *JournalError {
	return NewJournalError(nil, ErrorCodeInvalidObjectType, "object type tag mismatch").
		WithOffset(offset).
		WithObjectType(got).
		WithDetail("expectedType", expected)
}

// NewZerocopyFailureError reports a view whose declared size or stride does
// not match the byte slice it was constructed over.
func NewZerocopyFailureError(offset int64, reason string) *JournalError {
	return NewJournalError(nil, ErrorCodeZerocopyFailure, "object view geometry inconsistent").
		WithOffset(offset).
		WithDetail("reason", reason)
}

// NewMissingOffsetError reports a traversal that dereferenced a zero offset.
func NewMissingOffsetError(context string) *JournalError {
	return NewJournalError(nil, ErrorCodeMissingOffset, "traversal hit a zero offset").
		WithDetail("context", context)
}

// NewValueGuardInUseError reports a re-entrant object view request.
func NewValueGuardInUseError() *JournalError {
	return NewJournalError(nil, ErrorCodeValueGuardInUse, "a ValueGuard is already held on this file")
}

// NewNoSpaceError reports arena or offset-space exhaustion.
func NewNoSpaceError(context string) *JournalError {
	return NewJournalError(nil, ErrorCodeNoSpace, "no space left to allocate").
		WithDetail("context", context)
}
