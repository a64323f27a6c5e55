// Package rules defines the data model shared across the rule pipeline:
// severities with their handling-time limits, rule definitions and templates,
// facts, raw findings, and the error taxonomy for loading, compiling,
// validating, and executing rules.
//
// Rule definitions are plain data. Compilation into executable form lives in
// the compiler subpackage, registration and file loading in the store
// subpackage.
package rules
