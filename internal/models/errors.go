package models

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("not found")
)

// InputError is a client mistake in the request itself (missing file,
// missing query parameter, unusable header). Maps to 400.
type InputError struct {
	Field   string
	Message string
}

func (e *InputError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// MissingParameterError reports a required request parameter that was not supplied
func MissingParameterError(field string) *InputError {
	return &InputError{Field: field, Message: fmt.Sprintf("'%s' is required", field)}
}

// MalformedInputError is a structural problem in the uploaded file
// (wrong column count, broken quoting). It aborts the whole upload.
type MalformedInputError struct {
	Line int
	Err  error
}

func (e *MalformedInputError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed input at line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("malformed input: %v", e.Err)
}

func (e *MalformedInputError) Unwrap() error { return e.Err }

// RowValidationError identifies a source field that could not be converted
type RowValidationError struct {
	Line   int    `json:"line"`
	Field  string `json:"field"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

func (e RowValidationError) Error() string {
	return fmt.Sprintf("line %d: invalid %s %q: %s", e.Line, e.Field, e.Value, e.Reason)
}

// BatchPersistenceError is a failed batch transaction after all attempts
type BatchPersistenceError struct {
	Batch     int
	StartLine int
	EndLine   int
	Attempts  int
	Err       error
}

func (e *BatchPersistenceError) Error() string {
	return fmt.Sprintf("batch %d (lines %d-%d) failed after %d attempt(s): %v",
		e.Batch, e.StartLine, e.EndLine, e.Attempts, e.Err)
}

func (e *BatchPersistenceError) Unwrap() error { return e.Err }

// QueryError wraps a failed analytics query. The wrapped error is logged,
// never returned to the client.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }
