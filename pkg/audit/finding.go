package audit

import (
	"time"

	"github.com/google/uuid"

	"financialguard/sentinel/pkg/rules"
)

// HandlingRecord is one entry in a finding's handling history.
type HandlingRecord struct {
	// Handler identifies who acted.
	Handler string

	// Action names what happened (e.g. "transition:IN_PROGRESS",
	// "assign", "expire").
	Action string

	// Comment is the handler's free-text note.
	Comment string

	// Time is when the action was recorded.
	Time time.Time
}

// Review captures the reviewer's decision on a finding in PENDING_REVIEW.
type Review struct {
	// Reviewer identifies who decided.
	Reviewer string

	// Decision is the resulting status, RESOLVED or REJECTED.
	Decision Status

	// Comments is the reviewer's free-text note.
	Comments string

	// Time is when the decision was recorded.
	Time time.Time
}

// Finding is a recorded rule violation moving through the handling lifecycle.
// Rule code, name, severity, and version are copied at creation, so later
// rule edits never retroactively alter history. The deadline is fixed at
// creation from the severity's handling-time limit.
type Finding struct {
	// ID uniquely identifies the finding.
	ID string

	// RuleCode is the code of the rule that produced the finding.
	RuleCode string

	// RuleName is the rule's name as of compile time.
	RuleName string

	// Severity classifies the finding and drove its deadline.
	Severity rules.Severity

	// RuleVersion is the definition version the rule was compiled from.
	RuleVersion int

	// CreatedAt is when the finding was recorded.
	CreatedAt time.Time

	// Description explains the violation.
	Description string

	// FactType is the type of the fact that matched.
	FactType string

	// AffectedObjects identifies the business objects involved.
	AffectedObjects map[string]any

	// Recommendations lists remediation suggestions.
	Recommendations []string

	// Tags carries metadata attached by the rule's tag actions.
	Tags map[string]string

	// Escalate marks the finding for escalation, either forced by the
	// rule or derived from the severity.
	Escalate bool

	// Status is the current lifecycle state.
	Status Status

	// Deadline is CreatedAt plus the severity's handling-time limit.
	Deadline time.Time

	// Assignee is the current handler, if assigned.
	Assignee string

	// HandlingHistory lists every accepted action in order.
	HandlingHistory []HandlingRecord

	// Review holds the reviewer's decision once made.
	Review *Review
}

// newFinding builds a Finding from an engine raw finding at the given time.
func newFinding(raw rules.RawFinding, now time.Time) *Finding {
	return &Finding{
		ID:              uuid.NewString(),
		RuleCode:        raw.RuleCode,
		RuleName:        raw.RuleName,
		Severity:        raw.Severity,
		RuleVersion:     raw.RuleVersion,
		CreatedAt:       now,
		Description:     raw.Description,
		FactType:        raw.FactType,
		AffectedObjects: raw.AffectedObjects,
		Recommendations: raw.Recommendations,
		Tags:            raw.Tags,
		Escalate:        raw.Escalate || raw.Severity.RequiresEscalation(),
		Status:          StatusPending,
		Deadline:        now.Add(raw.Severity.HandlingTimeLimit()),
	}
}

// IsOverdue reports whether the deadline has passed while the finding is
// still modifiable.
func (f *Finding) IsOverdue(now time.Time) bool {
	return f.Status.IsModifiable() && now.After(f.Deadline)
}

// RemainingTime returns the time left before the deadline; negative once
// overdue.
func (f *Finding) RemainingTime(now time.Time) time.Duration {
	return f.Deadline.Sub(now)
}

// IsModifiable reports whether the finding still accepts handling.
func (f *Finding) IsModifiable() bool {
	return f.Status.IsModifiable()
}

// Clone returns a deep copy safe to hand to callers.
func (f *Finding) Clone() *Finding {
	clone := *f
	if f.AffectedObjects != nil {
		clone.AffectedObjects = make(map[string]any, len(f.AffectedObjects))
		for k, v := range f.AffectedObjects {
			clone.AffectedObjects[k] = v
		}
	}
	if f.Recommendations != nil {
		clone.Recommendations = append([]string(nil), f.Recommendations...)
	}
	if f.Tags != nil {
		clone.Tags = make(map[string]string, len(f.Tags))
		for k, v := range f.Tags {
			clone.Tags[k] = v
		}
	}
	if f.HandlingHistory != nil {
		clone.HandlingHistory = append([]HandlingRecord(nil), f.HandlingHistory...)
	}
	if f.Review != nil {
		review := *f.Review
		clone.Review = &review
	}
	return &clone
}
