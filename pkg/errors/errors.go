// This package addresses the fundamental challenge that generic error handling presents in complex
// systems: when an error occurs, developers and operators need much more than just "something went wrong."
// They need to understand exactly what failed, why it failed, where it failed, and most importantly,
// what they can do about it. This package transforms error handling from reactive debugging into
// proactive problem resolution.
//
// Architecture and Design Philosophy:
//
// The error system is built around a hierarchical structure that starts with a foundational baseError
// and extends into domain-specific error types. This design provides several key advantages:
// it maintains consistency across all error types while allowing specialized context for different
// domains, enables rich error chaining that preserves the complete failure context, supports
// programmatic error handling through standardized error codes, and facilitates comprehensive
// logging and monitoring through structured error details.
//
// The system recognizes that different layers of a journal engine fail in fundamentally different
// ways and require different types of contextual information for effective diagnosis and recovery.
// A validation error needs to know which option or query field failed and what rule was violated.
// A journal error needs to know which file and byte offset were involved, and what object type was
// expected there. An index error needs to know which field and chunk were being processed. A query
// error needs to know the time bounds and file count in play. By capturing this domain-specific
// context at the point of failure, the system enables much more intelligent error handling throughout
// the application stack.
//
// Error Classification and Codes:
//
// Central to this system is a comprehensive error code taxonomy that provides standardized
// categorization of failures. These codes serve multiple purposes: they enable programmatic
// error handling that doesn't rely on parsing error messages, they provide consistent
// categorization for monitoring and alerting systems, they facilitate error recovery logic
// by identifying specific failure modes, and they support internationalization by separating
// error identification from error presentation.
package errors

import (
	stdErrors "errors"
	"os"
	"syscall"
)

// IsValidationError checks if the given error is a ValidationError or contains one in its error chain.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return stdErrors.As(err, &ve)
}

// IsJournalError determines if an error is related to journal container operations, such as
// window mapping, object decoding, or hash-table traversal. Journal errors often require
// different handling strategies than other error types because they may indicate on-disk
// corruption or capacity problems that need immediate attention.
func IsJournalError(err error) bool {
	var je *JournalError
	return stdErrors.As(err, &je)
}

// IsIndexError identifies errors that occurred while building or querying a FileIndex:
// histogram construction, per-field bitmap passes, or split-container chunk decode.
func IsIndexError(err error) bool {
	var ie *IndexError
	return stdErrors.As(err, &ie)
}

// IsQueryError identifies errors from the log-query builder and merge engine.
func IsQueryError(err error) bool {
	var qe *QueryError
	return stdErrors.As(err, &qe)
}

// AsValidationError safely extracts a ValidationError from an error chain, providing access
// to validation-specific context such as which field failed, what rule was violated, and
// what values were provided versus expected.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if stdErrors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// AsJournalError extracts JournalError context from an error chain, providing access to
// journal-specific information such as byte offsets, object types, file names, and paths.
func AsJournalError(err error) (*JournalError, bool) {
	var je *JournalError
	if stdErrors.As(err, &je) {
		return je, true
	}
	return nil, false
}

// AsIndexError extracts IndexError context, providing access to index-specific information
// such as the field being processed, the chunk involved, and the operation being performed.
func AsIndexError(err error) (*IndexError, bool) {
	var ie *IndexError
	if stdErrors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}

// AsQueryError extracts QueryError context, providing access to the time-range bounds and
// file count involved in a query-builder or merge-engine failure.
func AsQueryError(err error) (*QueryError, bool) {
	var qe *QueryError
	if stdErrors.As(err, &qe) {
		return qe, true
	}
	return nil, false
}

// GetErrorCode extracts the error code from any error that supports it, or returns
// ErrorCodeInternal for errors that don't have specific codes.
func GetErrorCode(err error) ErrorCode {
	if ve, ok := AsValidationError(err); ok {
		return ve.Code()
	}
	if je, ok := AsJournalError(err); ok {
		return je.Code()
	}
	if ie, ok := AsIndexError(err); ok {
		return ie.Code()
	}
	if qe, ok := AsQueryError(err); ok {
		return qe.Code()
	}
	return ErrorCodeInternal
}

// GetErrorDetails extracts structured details from any error that supports them,
// returning an empty map for errors without details.
func GetErrorDetails(err error) map[string]any {
	if ve, ok := AsValidationError(err); ok {
		if details := ve.Details(); details != nil {
			return details
		}
	}
	if je, ok := AsJournalError(err); ok {
		if details := je.Details(); details != nil {
			return details
		}
	}
	if ie, ok := AsIndexError(err); ok {
		if details := ie.Details(); details != nil {
			return details
		}
	}
	if qe, ok := AsQueryError(err); ok {
		if details := qe.Details(); details != nil {
			return details
		}
	}
	return make(map[string]any)
}

// ClassifyDirectoryCreationError analyzes directory creation failures and returns
// appropriate error codes based on the underlying system error.
func ClassifyDirectoryCreationError(err error, path string) error {
	if os.IsPermission(err) {
		return NewJournalError(
			err, ErrorCodePermissionDenied,
			"insufficient permissions to create journal directory",
		).WithPath(path).
			WithDetail("operation", "directory_creation").
			WithDetail("suggestion", "check directory permissions or run with elevated privileges")
	}

	if pathErr, ok := err.(*os.PathError); ok {
		if errno, ok := pathErr.Err.(syscall.Errno); ok {
			switch errno {
			case syscall.ENOSPC:
				return NewJournalError(
					err, ErrorCodeDiskFull,
					"insufficient disk space to create journal directory",
				).WithPath(path).WithDetail("operation", "directory_creation")
			case syscall.EROFS:
				return NewJournalError(
					err, ErrorCodeFilesystemReadonly,
					"cannot create directory on read-only filesystem",
				).WithPath(path).WithDetail("operation", "directory_creation")
			}
		}
	}

	return NewJournalError(
		err, ErrorCodeIO, "failed to create journal directory",
	).WithPath(path).WithDetail("operation", "directory_creation")
}

// ClassifyFileOpenError analyzes journal file opening failures and returns
// appropriate error codes based on the underlying system error.
func ClassifyFileOpenError(err error, filePath, fileName string) error {
	if os.IsPermission(err) {
		return NewJournalError(
			err, ErrorCodePermissionDenied,
			"insufficient permissions to open journal file",
		).WithPath(filePath).WithFileName(fileName).WithDetail("operation", "file_open")
	}

	if pathErr, ok := err.(*os.PathError); ok {
		if errno, ok := pathErr.Err.(syscall.Errno); ok {
			switch errno {
			case syscall.ENOSPC:
				return NewJournalError(
					err, ErrorCodeDiskFull, "insufficient disk space to create journal file",
				).WithPath(filePath).WithFileName(fileName).WithDetail("operation", "file_open")
			case syscall.EROFS:
				return NewJournalError(
					err, ErrorCodeFilesystemReadonly, "cannot create file on read-only filesystem",
				).WithPath(filePath).WithFileName(fileName).WithDetail("operation", "file_open")
			}
		}
	}

	return NewJournalError(err, ErrorCodeIO, "failed to open journal file").
		WithPath(filePath).WithFileName(fileName).WithDetail("operation", "file_open")
}

// ClassifySyncError analyzes sync operation failures and returns appropriate
// error codes. Sync failures can indicate anything from disk space problems
// to filesystem corruption.
func ClassifySyncError(err error, fileName, filePath string, offset int64) error {
	if pathErr, ok := err.(*os.PathError); ok {
		if errno, ok := pathErr.Err.(syscall.Errno); ok {
			switch errno {
			case syscall.ENOSPC:
				return NewJournalError(
					err, ErrorCodeDiskFull, "cannot sync journal file: insufficient disk space",
				).WithFileName(fileName).WithPath(filePath).WithOffset(offset).WithDetail("operation", "file_sync")
			case syscall.EROFS:
				return NewJournalError(
					err, ErrorCodeFilesystemReadonly, "cannot sync journal file: filesystem is read-only",
				).WithFileName(fileName).WithPath(filePath).WithOffset(offset).WithDetail("operation", "file_sync")
			case syscall.EIO:
				return NewJournalError(
					err, ErrorCodeIO, "I/O error during journal file sync",
				).WithFileName(fileName).WithPath(filePath).WithOffset(offset).
					WithDetail("operation", "file_sync").WithDetail("severity", "high")
			}
		}
	}

	return NewJournalError(
		err, ErrorCodeIO, "failed to sync journal file to disk",
	).WithFileName(fileName).WithPath(filePath).WithOffset(offset).WithDetail("operation", "file_sync")
}
