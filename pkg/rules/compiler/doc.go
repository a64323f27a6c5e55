// Package compiler translates rule definitions into executable compiled
// rules: a parsed condition predicate plus compiled action descriptors.
//
// Compilation is pure. It never touches the published rule set, so dry-run
// validation of a candidate rule can run concurrently with live executions.
// Syntax errors are rejected at compile time; references to attributes a
// particular fact lacks surface at execution time instead, confined to that
// rule.
package compiler
