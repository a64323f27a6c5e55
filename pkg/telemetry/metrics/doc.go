// Package metrics exposes Prometheus metrics for rule execution, finding
// creation, and rule set reloads. The Collector implements engine.Observer,
// so wiring it into the engine container is the only integration needed.
package metrics
