// Package errors provides domain-specific error types and sentinel errors
// for improved error handling across the application.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common scenarios.
// Use errors.Is() to check these errors in your code.
var (
	// ErrNotFound indicates no knowledge entry matched the query.
	ErrNotFound = errors.New("entry not found")

	// ErrInvalidInput indicates user provided invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrRangeTooLong indicates an extracted year range exceeds the
	// configured maximum span.
	ErrRangeTooLong = errors.New("year range too long")

	// ErrMissingTopic indicates the query contained no topic phrase after
	// year expressions were stripped.
	ErrMissingTopic = errors.New("missing topic")

	// ErrSourceLoad indicates the knowledge source could not be loaded.
	// The process degrades to an empty index instead of failing.
	ErrSourceLoad = errors.New("knowledge source load failed")

	// ErrMissingColumn indicates the tabular source lacks a required column.
	ErrMissingColumn = errors.New("missing required column")
)

// ValidationError represents input validation failures.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// SourceError represents knowledge source loading failures with context.
type SourceError struct {
	Location string
	Err      error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source error (location=%s): %v", e.Location, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// NewSourceError creates a new source error.
func NewSourceError(location string, err error) *SourceError {
	return &SourceError{
		Location: location,
		Err:      err,
	}
}
