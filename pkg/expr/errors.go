package expr

import (
	"fmt"
	"strings"
)

// ParseError describes a syntax error in a condition expression.
// It carries the position of the offending token and, where a common mistake
// is recognizable, a suggested fix.
type ParseError struct {
	Message    string
	Pos        Position
	Suggestion string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "parse error at %s: %s", e.Pos, e.Message)
	if e.Suggestion != "" {
		fmt.Fprintf(&sb, " (suggestion: %s)", e.Suggestion)
	}
	return sb.String()
}

// EvalError describes a runtime evaluation failure: an unknown attribute
// reference, a type mismatch, or an arithmetic fault such as division by
// zero. Evaluation errors are scoped to a single rule execution and never
// abort a batch.
type EvalError struct {
	Message string
	Pos     Position
	Cause   error
}

// Error implements the error interface.
func (e *EvalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("evaluation error at %s: %s: %v", e.Pos, e.Message, e.Cause)
	}
	return fmt.Sprintf("evaluation error at %s: %s", e.Pos, e.Message)
}

// Unwrap returns the underlying cause.
func (e *EvalError) Unwrap() error {
	return e.Cause
}
