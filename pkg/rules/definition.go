package rules

import (
	"fmt"
	"time"
)

// ActionType identifies what a rule does when its condition matches.
type ActionType string

const (
	// ActionFlag emits a finding for the matched fact.
	ActionFlag ActionType = "flag"

	// ActionTag attaches key/value metadata to findings emitted by the rule.
	ActionTag ActionType = "tag"

	// ActionEscalate marks findings emitted by the rule for escalation
	// regardless of severity.
	ActionEscalate ActionType = "escalate"
)

// Valid reports whether the action type is one of the defined values.
func (t ActionType) Valid() bool {
	switch t {
	case ActionFlag, ActionTag, ActionEscalate:
		return true
	}
	return false
}

// ActionSpec describes one action a rule performs on match.
type ActionSpec struct {
	// Type is the action kind (flag, tag, escalate).
	Type ActionType `yaml:"type" json:"type"`

	// Parameters carries action-specific settings. For flag actions:
	// "description" (template with {{attr}} placeholders), "objects"
	// (fact attribute names identifying the affected business objects),
	// and "recommendations" (remediation suggestions). For tag actions:
	// arbitrary string key/value pairs.
	Parameters map[string]any `yaml:"parameters,omitempty" json:"parameters,omitempty"`
}

// RuleDefinition is a concrete, executable compliance rule as authored. It is
// plain data; the compiler subpackage turns it into executable form.
type RuleDefinition struct {
	// Code uniquely identifies the rule. It is immutable once registered.
	Code string `yaml:"code" json:"code"`

	// Name is the human-readable rule name.
	Name string `yaml:"name" json:"name"`

	// Description explains what the rule checks and why.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Condition is the boolean predicate expression over fact attributes.
	Condition string `yaml:"condition" json:"condition"`

	// Actions lists what happens when the condition matches. At least one
	// flag action is required for the rule to emit findings.
	Actions []ActionSpec `yaml:"actions" json:"actions"`

	// Severity classifies findings emitted by this rule.
	Severity Severity `yaml:"severity" json:"severity"`

	// FactType restricts the rule to facts of this type. Empty means the
	// rule applies to every fact.
	FactType string `yaml:"fact_type,omitempty" json:"fact_type,omitempty"`

	// References cites the regulations or internal standards the rule
	// enforces.
	References []string `yaml:"references,omitempty" json:"references,omitempty"`

	// Enabled controls whether the rule participates in compiled rule sets.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Version counts updates to the definition. The store bumps it on each
	// update; compiled rules record the version they were built from.
	Version int `yaml:"version,omitempty" json:"version,omitempty"`

	// TemplateID records the template this definition was instantiated
	// from, if any.
	TemplateID string `yaml:"template_id,omitempty" json:"template_id,omitempty"`

	// CreatedAt is when the definition was first registered.
	CreatedAt time.Time `yaml:"created_at,omitempty" json:"created_at,omitempty"`

	// UpdatedAt is when the definition was last changed.
	UpdatedAt time.Time `yaml:"updated_at,omitempty" json:"updated_at,omitempty"`

	// UpdatedBy identifies who last changed the definition.
	UpdatedBy string `yaml:"updated_by,omitempty" json:"updated_by,omitempty"`
}

// Validate checks structural requirements of the definition. It does not
// compile the condition; use the compiler's ValidateDefinition for that.
func (d *RuleDefinition) Validate() error {
	if d.Code == "" {
		return &ValidationError{Message: "rule code is required"}
	}
	if d.Name == "" {
		return &ValidationError{RuleCode: d.Code, Message: "rule name is required"}
	}
	if d.Condition == "" {
		return &ValidationError{RuleCode: d.Code, Message: "rule condition is required"}
	}
	if !d.Severity.Valid() {
		return &ValidationError{RuleCode: d.Code, Message: fmt.Sprintf("invalid severity %q", d.Severity)}
	}
	if len(d.Actions) == 0 {
		return &ValidationError{RuleCode: d.Code, Message: "at least one action is required"}
	}
	for i, action := range d.Actions {
		if !action.Type.Valid() {
			return &ValidationError{
				RuleCode: d.Code,
				Message:  fmt.Sprintf("action %d: unknown action type %q", i, action.Type),
			}
		}
	}
	return nil
}

// Clone returns a deep copy of the definition, safe to hold across later
// edits of the original.
func (d *RuleDefinition) Clone() *RuleDefinition {
	clone := *d
	if d.Actions != nil {
		clone.Actions = make([]ActionSpec, len(d.Actions))
		for i, action := range d.Actions {
			clone.Actions[i] = ActionSpec{
				Type:       action.Type,
				Parameters: cloneParams(action.Parameters),
			}
		}
	}
	if d.References != nil {
		clone.References = append([]string(nil), d.References...)
	}
	return &clone
}

func cloneParams(params map[string]any) map[string]any {
	if params == nil {
		return nil
	}
	copied := make(map[string]any, len(params))
	for k, v := range params {
		copied[k] = cloneValue(v)
	}
	return copied
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneParams(val)
	case []any:
		copied := make([]any, len(val))
		for i, elem := range val {
			copied[i] = cloneValue(elem)
		}
		return copied
	case []string:
		return append([]string(nil), val...)
	}
	return v
}
