package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Standard sentinel errors for common error cases
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates the provided input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotRepository indicates a directory has no version-control marker
	ErrNotRepository = errors.New("not a git repository")

	// ErrNoCommits indicates a repository exists but has no commit history
	ErrNoCommits = errors.New("repository has no commits")

	// ErrGitOperationFailed indicates a git operation failed
	ErrGitOperationFailed = errors.New("git operation failed")

	// ErrConfigError indicates a configuration error
	ErrConfigError = errors.New("configuration error")

	// ErrDatabaseError indicates a database operation failed
	ErrDatabaseError = errors.New("database error")
)

// ErrorCode represents HTTP-like error codes so a serving layer can map them directly
type ErrorCode int

const (
	CodeBadRequest          ErrorCode = http.StatusBadRequest
	CodeNotFound            ErrorCode = http.StatusNotFound
	CodeUnprocessable       ErrorCode = http.StatusUnprocessableEntity
	CodeInternalServerError ErrorCode = http.StatusInternalServerError
)

// FieldError describes one rejected input field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (f FieldError) String() string {
	return f.Field + ": " + f.Message
}

// AppError represents an application-level error with additional context
type AppError struct {
	Code    ErrorCode    `json:"code"`
	Message string       `json:"message"`
	Err     error        `json:"-"`
	Kind    error        `json:"-"`
	Fields  []FieldError `json:"fields,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	msg := e.Message
	if len(e.Fields) > 0 {
		parts := make([]string, len(e.Fields))
		for i, f := range e.Fields {
			parts[i] = f.String()
		}
		msg = fmt.Sprintf("%s (%s)", msg, strings.Join(parts, "; "))
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches the error's category sentinel; the wrapped error is reached
// through Unwrap
func (e *AppError) Is(target error) bool {
	return e.Kind != nil && e.Kind == target
}

// NewAppError creates a new AppError with the given code, message, and underlying error
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NotFound creates a new not found error
func NotFound(resource string, err error) *AppError {
	return NewAppError(CodeNotFound, fmt.Sprintf("%s not found", resource), err)
}

// BadRequest creates a new bad request error
func BadRequest(message string, err error) *AppError {
	if message == "" {
		message = "invalid request"
	}
	return NewAppError(CodeBadRequest, message, err)
}

// DatabaseError creates a new database error
func DatabaseError(operation string, err error) *AppError {
	e := NewAppError(CodeInternalServerError, fmt.Sprintf("database %s failed", operation), err)
	e.Kind = ErrDatabaseError
	return e
}

// GitError creates a new git operation error
func GitError(operation string, err error) *AppError {
	e := NewAppError(CodeInternalServerError, fmt.Sprintf("git %s failed", operation), err)
	e.Kind = ErrGitOperationFailed
	return e
}

// ConfigError creates a new configuration error
func ConfigError(message string, err error) *AppError {
	e := NewAppError(CodeBadRequest, message, err)
	e.Kind = ErrConfigError
	return e
}

// ValidationFailed creates a validation error carrying every rejected field
func ValidationFailed(fields []FieldError) *AppError {
	e := NewAppError(CodeUnprocessable, "validation failed", ErrInvalidInput)
	e.Fields = fields
	return e
}

// FieldErrors extracts the field-level errors from a validation error
func FieldErrors(err error) []FieldError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Fields
	}
	return nil
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == CodeNotFound
	}
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if an error is an input validation error
func IsValidation(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == CodeUnprocessable || appErr.Code == CodeBadRequest
	}
	return errors.Is(err, ErrInvalidInput)
}

// IsSkip reports whether err marks a directory that should be skipped rather than recorded
func IsSkip(err error) bool {
	return errors.Is(err, ErrNotRepository) || errors.Is(err, ErrNoCommits)
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
