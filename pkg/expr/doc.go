// Package expr implements the condition expression language used by
// compliance rules.
//
// A condition is a boolean expression over the attributes of a fact, written
// as plain text:
//
//	amount / gmv > 0.05 && empty(explanation)
//	status != "approved" || amount >= 50000
//	account.category in ["revenue", "deferred"] && not exists(voucher_id)
//
// The language supports arithmetic (+ - * / %), comparisons (== != < <= > >=),
// boolean operators (&& || ! with and/or/not synonyms), string operators
// (contains, matches), list membership (in), and a small set of builtin
// functions (empty, exists, len, abs, min, max, round).
//
// Parsing produces a tagged-variant AST that is pure data; evaluation runs the
// AST against a fact attribute bag (map[string]any with dot paths into nested
// maps). Parsing never touches shared state, so expressions can be compiled
// concurrently with live evaluation.
//
// Errors are split by phase: syntax problems surface at parse time as
// *ParseError with line/column positions; references to attributes that do not
// exist in a given fact surface at evaluation time as *EvalError, so that one
// bad rule cannot block an entire rule set from being published.
package expr
