// Package audit owns the finding lifecycle: the status state machine,
// severity-driven deadlines, handling-history accumulation, review decisions,
// and expiry of overdue findings.
//
// Transitions on a single finding are serialized; distinct findings update
// concurrently. A finding's deadline is fixed at creation from its severity's
// handling-time limit and never recomputed; only the status responds to time.
package audit
