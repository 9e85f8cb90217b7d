package errors

import "fmt"

// Convenience functions for common error patterns

// Config errors

func ConfigNotFound(path string) *FpgadocError {
	return New(CategoryConfig, SeverityFatal, fmt.Sprintf("configuration file not found: %s", path)).
		WithContext("path", path)
}

func ValidationFailed(field, reason string) *FpgadocError {
	return New(CategoryValidation, SeverityFatal, fmt.Sprintf("validation failed: %s: %s", field, reason)).
		WithContext("field", field).
		WithContext("reason", reason)
}

// Documentation build errors

func BuildFailed(stage string, cause error) *FpgadocError {
	return Wrap(cause, CategoryBuild, SeverityFatal, "build failed").
		WithContext("stage", stage)
}

func WorkspaceError(operation string, cause error) *FpgadocError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "workspace operation failed").
		WithContext("operation", operation)
}

func SphinxExecutionError(cause error) *FpgadocError {
	return Wrap(cause, CategorySphinx, SeverityFatal, "sphinx site generation failed")
}

func CoveragePreconditionError(path string) *FpgadocError {
	return New(CategoryCoverage, SeverityFatal, "coverage report missing, run the test suite with coverage before building documentation").
		WithContext("path", path)
}

// Git errors

func TagLookupError(tag string, cause error) *FpgadocError {
	return Wrap(cause, CategoryGit, SeverityFatal, fmt.Sprintf("tag lookup failed for %s", tag)).
		WithContext("tag", tag)
}

// Vivado errors

func VivadoBuildError(project string, cause error) *FpgadocError {
	return Wrap(cause, CategoryVivado, SeverityFatal, "vivado build failed").
		WithContext("project", project)
}

// Internal errors

func InternalError(message string, cause error) *FpgadocError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
