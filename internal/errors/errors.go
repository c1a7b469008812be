// Package errors provides a lightweight structured error type (HerbarioError)
// for category-based classification and retry semantics in the fetch pipeline
// and the CLI.
package errors

import (
	"fmt"
)

// ErrorCategory represents the category of a herbario error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"
	CategoryInput      ErrorCategory = "input"

	// External system integration errors
	CategoryNetwork ErrorCategory = "network"
	CategoryDecode  ErrorCategory = "decode"

	// Processing and packaging errors
	CategoryArchive    ErrorCategory = "archive"
	CategoryFileSystem ErrorCategory = "filesystem"
	CategoryState      ErrorCategory = "state"

	// Runtime and infrastructure errors
	CategoryDaemon   ErrorCategory = "daemon"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
	SeverityInfo    ErrorSeverity = "info"    // Informational, no impact
)

// HerbarioError is a structured error with category, retryability, and context
type HerbarioError struct {
	Category  ErrorCategory `json:"category"`
	Severity  ErrorSeverity `json:"severity"`
	Message   string        `json:"message"`
	Cause     error         `json:"cause,omitempty"`
	Retryable bool          `json:"retryable"`
	Context   ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for HerbarioError
type ContextFields map[string]any

// Error implements the error interface
func (e *HerbarioError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *HerbarioError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *HerbarioError) WithContext(key string, value any) *HerbarioError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new HerbarioError
func New(category ErrorCategory, severity ErrorSeverity, message string) *HerbarioError {
	return &HerbarioError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Retryable: false,
	}
}

// Wrap creates a new HerbarioError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *HerbarioError {
	return &HerbarioError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Cause:     err,
		Retryable: false,
	}
}

// WrapRetryable creates a new retryable HerbarioError that wraps an existing error
func WrapRetryable(err error, category ErrorCategory, severity ErrorSeverity, message string) *HerbarioError {
	return &HerbarioError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Cause:     err,
		Retryable: true,
	}
}

// IsCategory checks if an error belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	if he, ok := err.(*HerbarioError); ok {
		return he.Category == category
	}
	return false
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	if he, ok := err.(*HerbarioError); ok {
		return he.Retryable
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal if not a HerbarioError
func GetCategory(err error) ErrorCategory {
	if he, ok := err.(*HerbarioError); ok {
		return he.Category
	}
	return CategoryInternal
}

// MissingInput creates a fatal input error for a manifest entry that does not
// exist or cannot be read at build time.
func MissingInput(path string, cause error) *HerbarioError {
	e := &HerbarioError{
		Category:  CategoryInput,
		Severity:  SeverityFatal,
		Message:   "manifest entry is missing or unreadable",
		Cause:     cause,
		Retryable: false,
	}
	return e.WithContext("path", path)
}

// Filesystem wraps a filesystem fault (delete or write failure) as fatal.
func Filesystem(err error, message string) *HerbarioError {
	return &HerbarioError{
		Category:  CategoryFileSystem,
		Severity:  SeverityFatal,
		Message:   message,
		Cause:     err,
		Retryable: false,
	}
}

// ValidationError creates a new validation error
func ValidationError(message string) *HerbarioError {
	return &HerbarioError{
		Category:  CategoryValidation,
		Severity:  SeverityWarning,
		Message:   message,
		Retryable: false,
	}
}

// DaemonError creates a new daemon error (service unavailable)
func DaemonError(message string) *HerbarioError {
	return &HerbarioError{
		Category:  CategoryDaemon,
		Severity:  SeverityError,
		Message:   message,
		Retryable: false,
	}
}

// WrapError wraps an existing error with a new HerbarioError
func WrapError(err error, category ErrorCategory, message string) *HerbarioError {
	return &HerbarioError{
		Category:  category,
		Severity:  SeverityError,
		Message:   message,
		Cause:     err,
		Retryable: false,
	}
}
