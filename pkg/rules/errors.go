package rules

import (
	"fmt"

	"financialguard/sentinel/pkg/expr"
)

// LoadError indicates a rule or template source could not be read or parsed.
type LoadError struct {
	// Path is the file the error occurred in, when known.
	Path string

	// Message describes what went wrong.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	msg := "rule load failed"
	if e.Path != "" {
		msg = fmt.Sprintf("rule load failed for %s", e.Path)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *LoadError) Unwrap() error {
	return e.Cause
}

// CompileError indicates a rule definition was rejected at compile time. It
// carries the rule code and, for condition syntax errors, the source position.
type CompileError struct {
	// RuleCode identifies the rule that failed to compile.
	RuleCode string

	// Message describes the compile failure.
	Message string

	// Pos locates the error within the condition text, when available.
	// The zero value means no position is known.
	Pos expr.Position

	// Cause is the underlying parse error, if any.
	Cause error
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	if e.Pos.Line > 0 {
		return fmt.Sprintf("rule %s: compile error at line %d, column %d: %s",
			e.RuleCode, e.Pos.Line, e.Pos.Column, e.Message)
	}
	return fmt.Sprintf("rule %s: compile error: %s", e.RuleCode, e.Message)
}

// Unwrap returns the underlying error.
func (e *CompileError) Unwrap() error {
	return e.Cause
}

// ExecutionError indicates one rule failed while evaluating a fact. The
// failure is confined to that rule; other rules in the batch run normally.
type ExecutionError struct {
	// RuleCode identifies the rule that failed.
	RuleCode string

	// Cause is the evaluation error.
	Cause error
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	return fmt.Sprintf("rule %s: execution failed: %v", e.RuleCode, e.Cause)
}

// Unwrap returns the underlying error.
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// ValidationError indicates a rule definition or template failed a
// pre-publish structural or dry-run check.
type ValidationError struct {
	// RuleCode identifies the rule or template, when known.
	RuleCode string

	// Message describes the validation failure.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.RuleCode != "" {
		return fmt.Sprintf("rule %s: validation failed: %s", e.RuleCode, e.Message)
	}
	return "validation failed: " + e.Message
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Cause
}
