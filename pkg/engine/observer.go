package engine

import (
	"time"

	"financialguard/sentinel/pkg/rules"
)

// Observer receives execution and reload events, typically to drive metrics.
// Implementations must be safe for concurrent use.
type Observer interface {
	// ObserveExecution is called once per rule attempted.
	ObserveExecution(ruleCode string, success bool, duration time.Duration)

	// ObserveFinding is called once per raw finding emitted.
	ObserveFinding(severity rules.Severity)

	// ObserveReload is called after every rebuild attempt with the
	// resulting (or, on failure, the still-active) set version and size.
	ObserveReload(success bool, version uint64, ruleCount int)
}

// NopObserver discards all events.
type NopObserver struct{}

func (NopObserver) ObserveExecution(string, bool, time.Duration) {}
func (NopObserver) ObserveFinding(rules.Severity)                {}
func (NopObserver) ObserveReload(bool, uint64, int)              {}
