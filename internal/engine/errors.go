package engine

import (
	"errors"
	"fmt"
)

// UpstreamError represents a failed call to the lifelog source or the task
// service.
//
// How the engine reacts depends on the code:
//   - UPSTREAM_FETCH: fatal for the cycle; ends the poll loop
//   - UPSTREAM_LIST: cycle continues against an empty ledger
//   - UPSTREAM_CREATE: the candidate is dropped; other candidates proceed
type UpstreamError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Op names the operation that failed.
	Op string

	// Err is the underlying transport or decoding error.
	Err error

	// Details contains additional context (task text, transcript id).
	Details map[string]string
}

// ErrorCode categorizes upstream errors.
type ErrorCode string

const (
	// ErrCodeUpstreamFetch indicates the lifelog source request failed.
	ErrCodeUpstreamFetch ErrorCode = "UPSTREAM_FETCH"

	// ErrCodeUpstreamList indicates the task listing failed.
	ErrCodeUpstreamList ErrorCode = "UPSTREAM_LIST"

	// ErrCodeUpstreamCreate indicates a task creation failed.
	ErrCodeUpstreamCreate ErrorCode = "UPSTREAM_CREATE"
)

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Op)
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func hasCode(err error, code ErrorCode) bool {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.Code == code
	}
	return false
}

// IsFetchError returns true if err is a lifelog fetch failure.
func IsFetchError(err error) bool { return hasCode(err, ErrCodeUpstreamFetch) }

// IsListError returns true if err is a task listing failure.
func IsListError(err error) bool { return hasCode(err, ErrCodeUpstreamList) }

// IsCreateError returns true if err is a task creation failure.
func IsCreateError(err error) bool { return hasCode(err, ErrCodeUpstreamCreate) }

// NewFetchError wraps a lifelog source failure.
func NewFetchError(err error) *UpstreamError {
	return &UpstreamError{Code: ErrCodeUpstreamFetch, Op: "fetch transcripts", Err: err}
}

// NewListError wraps a task listing failure.
func NewListError(err error) *UpstreamError {
	return &UpstreamError{Code: ErrCodeUpstreamList, Op: "list tasks", Err: err}
}

// NewCreateError wraps a task creation failure for text.
func NewCreateError(text string, err error) *UpstreamError {
	return &UpstreamError{
		Code:    ErrCodeUpstreamCreate,
		Op:      "create task",
		Err:     err,
		Details: map[string]string{"text": text},
	}
}
