package errors

// QueryError is a specialized error type for the log-query builder and merge
// engine: anchor resolution, time-window validation, and cancellation.
type QueryError struct {
	*baseError
	afterUsec  int64 // The after_usec bound in effect when the error occurred, if any.
	beforeUsec int64 // The before_usec bound in effect when the error occurred, if any.
	fileCount  int   // How many file indexes the query was spanning.
}

// NewQueryError creates a new query-specific error.
func NewQueryError(err error, code ErrorCode, msg string) *QueryError {
	return &QueryError{baseError: NewBaseError(err, code, msg)}
}

// WithTimeRange records the after/before bounds involved in the error.
func (qe *QueryError) WithTimeRange(afterUsec, beforeUsec int64) *QueryError {
	qe.afterUsec = afterUsec
	qe.beforeUsec = beforeUsec
	return qe
}

// WithFileCount records how many file indexes the query was spanning.
func (qe *QueryError) WithFileCount(count int) *QueryError {
	qe.fileCount = count
	return qe
}

// AfterUsec returns the after_usec bound in effect when the error occurred.
func (qe *QueryError) AfterUsec() int64 {
	return qe.afterUsec
}

// BeforeUsec returns the before_usec bound in effect when the error occurred.
func (qe *QueryError) BeforeUsec() int64 {
	return qe.beforeUsec
}

// FileCount returns how many file indexes the query was spanning.
func (qe *QueryError) FileCount() int {
	return qe.fileCount
}

// NewInvalidQueryTimeRangeError reports after >= before in a query's bounds.
func NewInvalidQueryTimeRangeError(afterUsec, beforeUsec int64) *QueryError {
	return NewQueryError(nil, ErrorCodeInvalidQueryTimeRange, "after_usec must be strictly less than before_usec").
		WithTimeRange(afterUsec, beforeUsec)
}

// NewQueryCancelledError reports cancellation observed at a merge-loop boundary.
func NewQueryCancelledError(fileCount int) *QueryError {
	return NewQueryError(nil, ErrorCodeQueryCancelled, "query cancelled at merge-loop boundary").
		WithFileCount(fileCount)
}
