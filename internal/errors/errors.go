package errors

import (
	"errors"
	"fmt"
)

// Standard application errors
var (
	ErrEmptyInput      = errors.New("input is empty or contains only whitespace")
	ErrInvalidJSON     = errors.New("invalid JSON format")
	ErrMultipleJSON    = errors.New("multiple JSON values found at the root, only one is allowed")
	ErrFileNotFound    = errors.New("file not found")
	ErrFileEmpty       = errors.New("file is empty")
	ErrNoInput         = errors.New("no input provided: please specify a file with -i or pipe text to stdin")
	ErrInvalidFilePath = errors.New("invalid file path")
	ErrCycleDetected   = errors.New("unwrapping made no progress: input decodes back to itself")
)

// ErrorType categorizes errors
type ErrorType string

const (
	ErrorTypeInput    ErrorType = "input"
	ErrorTypeParsing  ErrorType = "parsing"
	ErrorTypeUnescape ErrorType = "unescape"
	ErrorTypeRepair   ErrorType = "repair"
	ErrorTypeOutput   ErrorType = "output"
	ErrorTypeUnknown  ErrorType = "unknown"
)

// AppError is an application-specific error with context
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for comparison
func (e *AppError) Is(target error) bool {
	// Check if target is also an *AppError and if the types match
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// NewInputError creates a new error related to input processing
func NewInputError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeInput,
		Message: message,
		Err:     err,
	}
}

// NewParsingError creates a new error related to JSON parsing
func NewParsingError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeParsing,
		Message: message,
		Err:     err,
	}
}

// NewUnescapeError creates a new error related to single-level unescaping
func NewUnescapeError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeUnescape,
		Message: message,
		Err:     err,
	}
}

// NewRepairError creates a new error related to JSON repair
func NewRepairError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeRepair,
		Message: message,
		Err:     err,
	}
}

// NewOutputError creates a new error related to output processing
func NewOutputError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeOutput,
		Message: message,
		Err:     err,
	}
}

// DepthExhaustedError is returned when the normalizer could not reach a
// terminal decision: it ran out of iterations, detected a decode cycle, or no
// strategy advanced. It carries the last underlying parse error as its cause.
type DepthExhaustedError struct {
	MaxDepthTried int
	EscapeDepth   int
	Err           error
}

// Error implements error interface
func (e *DepthExhaustedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("no JSON value found within %d unwrap attempts (reached escape depth %d): %v",
			e.MaxDepthTried, e.EscapeDepth, e.Err)
	}
	return fmt.Sprintf("no JSON value found within %d unwrap attempts (reached escape depth %d)",
		e.MaxDepthTried, e.EscapeDepth)
}

// Unwrap returns the last underlying parse error
func (e *DepthExhaustedError) Unwrap() error {
	return e.Err
}

// UserFriendlyError returns a user-friendly error message
func UserFriendlyError(err error) string {
	var depthErr *DepthExhaustedError
	if errors.As(err, &depthErr) {
		return fmt.Sprintf("Parsing error: %s", depthErr.Error())
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		switch appErr.Type {
		case ErrorTypeInput:
			return fmt.Sprintf("Input error: %s", appErr.Message)
		case ErrorTypeParsing:
			return fmt.Sprintf("JSON parsing error: %s", appErr.Message)
		case ErrorTypeUnescape:
			return fmt.Sprintf("Unescape error: %s", appErr.Message)
		case ErrorTypeRepair:
			return fmt.Sprintf("Repair error: %s", appErr.Message)
		case ErrorTypeOutput:
			return fmt.Sprintf("Output error: %s", appErr.Message)
		default:
			return fmt.Sprintf("Error: %s", appErr.Message)
		}
	}

	// Handle standard errors
	if errors.Is(err, ErrEmptyInput) {
		return "Error: The input is empty. Please provide some text to process."
	}
	if errors.Is(err, ErrInvalidJSON) {
		return "Error: The input contains invalid JSON. Please check your JSON syntax."
	}
	if errors.Is(err, ErrMultipleJSON) {
		return "Error: Multiple JSON values found. Please provide a single JSON document."
	}
	if errors.Is(err, ErrFileNotFound) {
		return "Error: The specified file could not be found. Please check the file path."
	}
	if errors.Is(err, ErrFileEmpty) {
		return "Error: The specified file is empty. Please provide a file with content."
	}
	if errors.Is(err, ErrNoInput) {
		return "Error: No input provided. Please specify a file with -i or pipe text to stdin."
	}
	if errors.Is(err, ErrInvalidFilePath) {
		return "Error: Invalid file path. Please provide a valid file path."
	}

	// Generic error message for unknown errors
	return fmt.Sprintf("Error: %v", err)
}
