// Package execlog records one log entry per rule attempted during an
// execution, success or failure, independent of finding lifecycle. Entries
// feed per-rule statistics and audit queries.
//
// Two stores are provided: an in-memory store for tests and ephemeral runs,
// and a SQLite store for single-instance deployments that need history across
// restarts.
package execlog
