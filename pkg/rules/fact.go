package rules

// Fact is one unit of financial data submitted for evaluation: an opaque
// attribute bag with a type tag. Facts live only for the duration of the
// execution call that carries them.
type Fact struct {
	// Type classifies the fact (e.g. "voucher", "promotion", "expense").
	// Rules with a FactType filter only see matching facts.
	Type string `yaml:"type" json:"type"`

	// Attributes holds the fact's data. Values may be nested maps; rule
	// conditions address them with dot paths.
	Attributes map[string]any `yaml:"attributes" json:"attributes"`
}

// Attr returns the named top-level attribute, or nil when absent.
func (f *Fact) Attr(name string) any {
	if f.Attributes == nil {
		return nil
	}
	return f.Attributes[name]
}

// RawFinding is the untyped output of a rule matching a fact, produced by the
// execution engine before the audit layer assigns identity, deadline, and
// lifecycle state. Rule code, name, severity, and version are copied at
// creation so later rule edits never rewrite history.
type RawFinding struct {
	// RuleCode is the code of the rule that matched.
	RuleCode string

	// RuleName is the rule's name as of compile time.
	RuleName string

	// Severity is the rule's severity as of compile time.
	Severity Severity

	// RuleVersion is the definition version the compiled rule was built
	// from.
	RuleVersion int

	// Description is the rendered finding description, with {{attr}}
	// placeholders resolved against the matched fact.
	Description string

	// FactType is the type of the fact that matched.
	FactType string

	// AffectedObjects identifies the business objects involved, keyed by
	// attribute name.
	AffectedObjects map[string]any

	// Recommendations lists remediation suggestions from the rule's flag
	// action.
	Recommendations []string

	// Tags carries metadata attached by tag actions.
	Tags map[string]string

	// Escalate marks the finding for forced escalation, set by escalate
	// actions.
	Escalate bool
}
