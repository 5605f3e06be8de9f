package apperrors

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Application exit codes define the standard exit statuses for the application.
// These codes are used to signal the outcome of the program execution to the OS.
const (
	ExitSuccess       = 0   // Indicates successful execution.
	ExitErrorGeneric  = 1   // Indicates a generic error.
	ExitErrorTimeout  = 2   // Indicates the run timed out.
	ExitErrorConfig   = 4   // Indicates a configuration error.
	ExitErrorData     = 5   // Indicates unreadable or inconsistent input data.
	ExitErrorCanceled = 130 // Indicates the run was canceled (e.g., SIGINT).
)

// ConfigError represents a user configuration error, such as invalid flags,
// an unknown region or an inconsistent catalog. It indicates that the
// application cannot proceed due to incorrect user input.
type ConfigError struct {
	// Message explains the specific configuration error.
	Message string
}

// Error returns the error message for a ConfigError.
func (e ConfigError) Error() string { return e.Message }

// NewConfigError creates a new ConfigError with a formatted message.
//
// Parameters:
//   - format: A format string (see fmt.Sprintf).
//   - a: Arguments to be formatted into the string.
//
// Returns:
//   - error: A new ConfigError instance containing the formatted message.
func NewConfigError(format string, a ...any) error {
	return ConfigError{Message: fmt.Sprintf(format, a...)}
}

// DataError reports a problem with an input data file: a missing file, an
// ambiguous file search, a missing variable or a malformed grid. Path names
// the file involved and Cause keeps the underlying error, if any.
type DataError struct {
	// Path is the file (or search pattern) that caused the error.
	Path string
	// Message explains what was wrong with the data.
	Message string
	// Cause is the underlying error, possibly nil.
	Cause error
}

// Error returns a message naming the file and, when present, the cause.
func (e DataError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Unwrap returns the underlying cause, allowing for error chain inspection
// (e.g., using errors.Is or errors.As).
func (e DataError) Unwrap() error { return e.Cause }

// NewDataError creates a DataError for path with a formatted message.
func NewDataError(path string, cause error, format string, a ...any) error {
	return DataError{Path: path, Message: fmt.Sprintf(format, a...), Cause: cause}
}

// TimeoutError represents a run timeout. It captures the operation
// name and the duration limit that was exceeded.
type TimeoutError struct {
	// Operation is the name of the operation that timed out.
	Operation string
	// Limit is the duration after which the operation was considered timed out.
	Limit time.Duration
}

// Error returns a formatted message describing the timeout.
func (e TimeoutError) Error() string {
	return fmt.Sprintf("operation %q timed out after %s", e.Operation, e.Limit)
}

// ValidationError represents an input validation failure. It identifies which
// field failed validation and provides a human-readable explanation.
type ValidationError struct {
	// Field is the name of the field that failed validation.
	Field string
	// Message explains the validation failure.
	Message string
}

// Error returns a formatted message describing the validation failure.
func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error for %q: %s", e.Field, e.Message)
}

// WrapError wraps an error with additional context using fmt.Errorf and %w.
// This allows the wrapped error to be unwrapped with errors.Unwrap() and
// checked with errors.Is() and errors.As().
//
// Parameters:
//   - err: The error to wrap.
//   - format: A format string for the context message.
//   - args: Arguments for the format string.
//
// Returns:
//   - error: The wrapped error, or nil if err is nil.
func WrapError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// IsContextError checks if the error is a context cancellation or deadline exceeded error.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// ExitCode maps an error to the process exit code.
//
// Context errors map to the timeout or canceled codes, configuration and
// validation errors to ExitErrorConfig, data errors to ExitErrorData and
// everything else to ExitErrorGeneric.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var cfgErr ConfigError
	var valErr ValidationError
	var dataErr DataError
	var timeoutErr TimeoutError
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &timeoutErr):
		return ExitErrorTimeout
	case errors.Is(err, context.Canceled):
		return ExitErrorCanceled
	case errors.As(err, &cfgErr), errors.As(err, &valErr):
		return ExitErrorConfig
	case errors.As(err, &dataErr):
		return ExitErrorData
	}
	return ExitErrorGeneric
}
