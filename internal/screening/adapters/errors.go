package adapters

import (
	"errors"
	"fmt"
)

// ErrorCategory defines the normalized failure taxonomy for source reads
type ErrorCategory string

const (
	// ErrorTimeout indicates the source took longer than its fetch budget
	ErrorTimeout ErrorCategory = "timeout"

	// ErrorOutage indicates the backing store is unavailable
	ErrorOutage ErrorCategory = "source_outage"

	// ErrorCircuitOpen indicates the source was skipped because its
	// circuit breaker is open after repeated failures
	ErrorCircuitOpen ErrorCategory = "circuit_open"

	// ErrorInternal indicates an unexpected internal error
	ErrorInternal ErrorCategory = "internal"
)

// SourceError wraps a failed source read with normalized categorization.
// Every category is survivable: the query continues on the remaining
// sources and the failure surfaces as an advisory warning.
type SourceError struct {
	Category   ErrorCategory
	Source     string
	Message    string
	Underlying error
}

// Error implements the error interface
func (e *SourceError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("source %s [%s]: %s: %v", e.Source, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("source %s [%s]: %s", e.Source, e.Category, e.Message)
}

// Unwrap supports error unwrapping
func (e *SourceError) Unwrap() error {
	return e.Underlying
}

// NewSourceError creates a normalized source read error
func NewSourceError(category ErrorCategory, source, message string, underlying error) *SourceError {
	return &SourceError{
		Category:   category,
		Source:     source,
		Message:    message,
		Underlying: underlying,
	}
}

// GetCategory extracts the error category from an error
func GetCategory(err error) ErrorCategory {
	var se *SourceError
	if errors.As(err, &se) {
		return se.Category
	}
	return ErrorInternal
}
