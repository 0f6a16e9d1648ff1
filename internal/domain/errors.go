package domain

import (
	"errors"
	"fmt"
)

// Common domain errors that can occur during analysis.
var (
	// ErrMalformedInput indicates that the payload is not the expected
	// container shape. It is fatal for the analysis run.
	ErrMalformedInput = errors.New("malformed input")

	// ErrInputNotFound indicates that the input file does not exist.
	ErrInputNotFound = errors.New("input not found")

	// ErrUnknownCategory indicates an ErrorCategory name outside the closed set.
	ErrUnknownCategory = errors.New("unknown error category")

	// ErrInvalidConfiguration indicates that configuration is invalid or incomplete.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// MalformedInputError reports why a payload could not be analyzed.
// No partial summary is ever produced alongside it.
type MalformedInputError struct {
	// Source names the input, typically a file path. May be empty.
	Source string

	// Reason is a single-line diagnostic such as
	// "input is not a list of results".
	Reason string

	// Err is the underlying decode error, if any.
	Err error
}

// Error implements the error interface for MalformedInputError.
func (e *MalformedInputError) Error() string {
	msg := e.Reason
	if e.Source != "" {
		msg = fmt.Sprintf("%s: %s", e.Source, e.Reason)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error so the error matches both
// ErrMalformedInput and the decode failure.
func (e *MalformedInputError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMalformedInput}
	}
	return []error{ErrMalformedInput, e.Err}
}

// NewMalformedInputError creates a new MalformedInputError with the given details.
func NewMalformedInputError(source, reason string, err error) *MalformedInputError {
	return &MalformedInputError{
		Source: source,
		Reason: reason,
		Err:    err,
	}
}

// ValidationError represents an error that occurred during validation.
// It can contain multiple validation failures.
type ValidationError struct {
	// Entity is the name of the entity that failed validation.
	Entity string

	// Errors contains the list of validation error messages.
	Errors []string
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation error for %s: %s", e.Entity, e.Errors[0])
	}
	return fmt.Sprintf("validation errors for %s: %v", e.Entity, e.Errors)
}

// Unwrap lets callers match validation failures with ErrInvalidConfiguration.
func (e *ValidationError) Unwrap() error { return ErrInvalidConfiguration }

// AddError adds a new error message to the validation error.
func (e *ValidationError) AddError(msg string) { e.Errors = append(e.Errors, msg) }

// HasErrors returns true if there are any validation errors.
func (e *ValidationError) HasErrors() bool { return len(e.Errors) > 0 }

// NewValidationError creates a new ValidationError for the given entity.
func NewValidationError(entity string) *ValidationError {
	return &ValidationError{
		Entity: entity,
		Errors: make([]string, 0),
	}
}

// Fatal error categories printed by the CLI.
const (
	FailureMalformedInput = "malformed-input"
	FailureFileNotFound   = "file-not-found"
	FailureConfig         = "config"
	FailureInternal       = "internal"
)

// FailureCategory maps a fatal error to the short category name used in
// user-facing diagnostics.
func FailureCategory(err error) string {
	switch {
	case errors.Is(err, ErrInputNotFound):
		return FailureFileNotFound
	case errors.Is(err, ErrMalformedInput):
		return FailureMalformedInput
	case errors.Is(err, ErrInvalidConfiguration):
		return FailureConfig
	default:
		return FailureInternal
	}
}
