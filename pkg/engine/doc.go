// Package engine holds the compiled rule set container and the execution
// engine.
//
// A CompiledRuleSet is an immutable, versioned bundle of compiled rules. The
// Container publishes new sets through an atomic pointer: rebuilds are
// all-or-nothing (one rule failing to compile leaves the previous set
// untouched), executions acquire the current set once and hold it for the
// whole call, and a superseded set is retired only after the last execution
// holding it completes.
//
// Execution is fail-soft per rule: one rule's evaluation error is recorded in
// its log entry and never aborts the batch or the call.
package engine
