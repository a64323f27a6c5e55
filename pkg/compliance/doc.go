// Package compliance wires the rule registry, compiler, execution engine,
// finding lifecycle, evidence tracer, and execution log into one service.
// The Service is the surface an API layer or CLI talks to: rule management,
// execution, finding handling, and evidence operations all go through it.
package compliance
