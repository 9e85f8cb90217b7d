// Package errors provides a lightweight structured error type (FpgadocError)
// for category-based classification in the CLI and the build pipeline.
package errors

import (
	"fmt"
)

// ErrorCategory represents the category of an fpgadoc error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// External system integration errors
	CategoryGit    ErrorCategory = "git"
	CategorySphinx ErrorCategory = "sphinx"
	CategoryVivado ErrorCategory = "vivado"

	// Build and processing errors
	CategoryBuild      ErrorCategory = "build"
	CategoryCoverage   ErrorCategory = "coverage"
	CategoryFileSystem ErrorCategory = "filesystem"

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
)

// FpgadocError is a structured error with category, retryability, and context
type FpgadocError struct {
	Category  ErrorCategory `json:"category"`
	Severity  ErrorSeverity `json:"severity"`
	Message   string        `json:"message"`
	Cause     error         `json:"cause,omitempty"`
	Retryable bool          `json:"retryable"`
	Context   ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for FpgadocError
type ContextFields map[string]any

// Error implements the error interface
func (e *FpgadocError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *FpgadocError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *FpgadocError) WithContext(key string, value any) *FpgadocError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new FpgadocError
func New(category ErrorCategory, severity ErrorSeverity, message string) *FpgadocError {
	return &FpgadocError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Retryable: false,
	}
}

// Wrap creates a new FpgadocError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *FpgadocError {
	return &FpgadocError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Cause:     err,
		Retryable: false,
	}
}

// IsCategory checks if an error belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	if fe, ok := err.(*FpgadocError); ok {
		return fe.Category == category
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal if not a FpgadocError
func GetCategory(err error) ErrorCategory {
	if fe, ok := err.(*FpgadocError); ok {
		return fe.Category
	}
	return CategoryInternal
}
