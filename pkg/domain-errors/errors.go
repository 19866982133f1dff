// Package domainerrors provides coded errors shared across all modules.
//
// Every error that crosses a package boundary carries a Code so transport
// layers can map it to a status and log pipelines can aggregate by category
// without string matching. Wrap preserves the underlying cause for errors.Is
// and errors.As while stamping the boundary-level code.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code categorizes an error for transport mapping and aggregation.
type Code string

const (
	CodeInternal           Code = "internal"
	CodeBadRequest         Code = "bad_request"
	CodeValidation         Code = "validation"
	CodeInvalidInput       Code = "invalid_input"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeTimeout            Code = "timeout"
	CodeInvariantViolation Code = "invariant_violation"

	// Screening-specific categories.
	CodeInvalidQuery      Code = "invalid_query"
	CodeSourceUnavailable Code = "source_unavailable"
	CodeConfiguration     Code = "configuration"
	CodeScoring           Code = "scoring"
)

// Error is a coded domain error. Message is safe to return to callers for
// non-internal codes; the wrapped cause is for logs only.
type Error struct {
	Code    Code
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap supports errors.Is / errors.As chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a coded error with no underlying cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap stamps a code and message onto an underlying error. A nil err returns
// nil so call sites can wrap unconditionally.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.Err
		if err == nil {
			break
		}
	}
	return false
}

// Is reports whether the outermost coded error carries the given code.
// Unlike HasCode it does not walk the chain; use it when the boundary-level
// categorization is what matters.
func Is(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the outermost code, defaulting to CodeInternal for uncoded
// errors so transport mapping stays total.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
