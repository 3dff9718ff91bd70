package core

import "fmt"

// The error taxonomy. Recoverable conditions (validation failures,
// parameter errors, per-statement execution failures) travel inside
// result objects; these types describe the failure when a caller does
// need a Go error value.

// ConfigurationError reports a missing or malformed spec or file.
type ConfigurationError struct {
	Message string
	Cause   error
}

func (e *ConfigurationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ConfigurationError) Unwrap() error { return e.Cause }

// ValidationError reports a syntax failure or, in strict mode, an
// escalated warning.
type ValidationError struct {
	Statement string
	Message   string
}

func (e *ValidationError) Error() string {
	if e.Statement != "" {
		return fmt.Sprintf("statement %q: %s", e.Statement, e.Message)
	}
	return e.Message
}

// ExecutionError reports an engine-level failure (engine error, timeout).
type ExecutionError struct {
	Statement string
	Message   string
}

func (e *ExecutionError) Error() string {
	if e.Statement != "" {
		return fmt.Sprintf("statement %q: %s", e.Statement, e.Message)
	}
	return e.Message
}

// RenderError reports an unresolved reference or parameter during
// template rendering.
type RenderError struct {
	Message string
}

func (e *RenderError) Error() string { return e.Message }

// TestGenerationError reports an invalid identifier or missing required
// test parameter. Generator identifier checks fail fast with this type
// because they guard against SQL injection.
type TestGenerationError struct {
	Test    string
	Message string
}

func (e *TestGenerationError) Error() string {
	if e.Test != "" {
		return fmt.Sprintf("test %q: %s", e.Test, e.Message)
	}
	return e.Message
}
