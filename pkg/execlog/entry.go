package execlog

import (
	"time"
)

// Status is the outcome of one rule execution.
type Status string

const (
	// StatusSuccess means the rule evaluated without error.
	StatusSuccess Status = "success"

	// StatusFailure means the rule's evaluation failed and was isolated.
	StatusFailure Status = "failure"
)

// Entry records one rule attempted during an execution call.
type Entry struct {
	// ID uniquely identifies the entry.
	ID string

	// RuleCode is the code of the rule attempted.
	RuleCode string

	// RuleName is the rule's name as of compile time.
	RuleName string

	// StartedAt is when evaluation of this rule began.
	StartedAt time.Time

	// FinishedAt is when evaluation of this rule ended.
	FinishedAt time.Time

	// Duration is FinishedAt minus StartedAt.
	Duration time.Duration

	// Status is success or failure.
	Status Status

	// Result summarizes the outcome (facts evaluated, findings emitted),
	// truncated to the configured maximum length.
	Result string

	// Error holds the isolated evaluation error text for failed rules.
	Error string

	// Executor identifies who or what triggered the execution.
	Executor string

	// Environment tags the deployment environment the execution ran in.
	Environment string

	// RuleVersion is the definition version the compiled rule was built
	// from.
	RuleVersion int

	// RuleSetVersion is the compiled rule set version the execution ran
	// against.
	RuleSetVersion uint64
}

// Filter selects entries for queries. Zero-valued fields match everything.
type Filter struct {
	// RuleCode restricts results to one rule.
	RuleCode string

	// Status restricts results to one outcome.
	Status Status

	// Since excludes entries started before this time.
	Since time.Time

	// Until excludes entries started after this time.
	Until time.Time

	// Limit caps the number of entries returned; zero means no cap.
	Limit int

	// Offset skips this many matching entries.
	Offset int
}

// Stats aggregates execution history for one rule.
type Stats struct {
	// RuleCode is the rule the statistics cover.
	RuleCode string

	// Total is the number of recorded executions.
	Total int

	// Failures is the number of failed executions.
	Failures int

	// AvgDuration is the mean execution duration.
	AvgDuration time.Duration

	// MaxDuration is the longest execution duration.
	MaxDuration time.Duration

	// LastExecution is the start time of the most recent execution.
	LastExecution time.Time
}
