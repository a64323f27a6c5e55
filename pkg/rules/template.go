package rules

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParamSpec declares one parameter of a rule template.
type ParamSpec struct {
	// Name is the parameter name as referenced by {name} placeholders.
	Name string `yaml:"name" json:"name"`

	// Type is the expected value type: "number", "string", or "bool".
	Type string `yaml:"type" json:"type"`

	// Required marks parameters that must be supplied at instantiation.
	Required bool `yaml:"required,omitempty" json:"required,omitempty"`

	// Default is used when an optional parameter is not supplied.
	Default any `yaml:"default,omitempty" json:"default,omitempty"`

	// Description documents the parameter for rule authors.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// RuleTemplate is a parameterized rule blueprint. Templates never execute;
// they are instantiated into concrete RuleDefinitions by parameter
// substitution.
type RuleTemplate struct {
	// ID uniquely identifies the template.
	ID string `yaml:"id" json:"id"`

	// Name is the human-readable template name.
	Name string `yaml:"name" json:"name"`

	// Description explains what rules derived from this template check.
	// It may contain {param} placeholders.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// ConditionTemplate is the condition expression with {param}
	// placeholders resolved at instantiation.
	ConditionTemplate string `yaml:"condition" json:"condition"`

	// Actions are copied into instantiated definitions with {param}
	// placeholders in string parameters resolved.
	Actions []ActionSpec `yaml:"actions" json:"actions"`

	// Parameters declares the template's parameter schema.
	Parameters []ParamSpec `yaml:"parameters,omitempty" json:"parameters,omitempty"`

	// DefaultSeverity is the severity instantiated rules carry unless
	// overridden.
	DefaultSeverity Severity `yaml:"severity" json:"severity"`

	// Standard names the accounting or compliance standard this template
	// applies to.
	Standard string `yaml:"standard,omitempty" json:"standard,omitempty"`

	// FactType restricts instantiated rules to facts of this type.
	FactType string `yaml:"fact_type,omitempty" json:"fact_type,omitempty"`

	// References cites the regulations the template enforces.
	References []string `yaml:"references,omitempty" json:"references,omitempty"`

	// Enabled controls whether the template may be instantiated.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Version counts updates to the template.
	Version int `yaml:"version,omitempty" json:"version,omitempty"`

	// CreatedAt is when the template was first registered.
	CreatedAt time.Time `yaml:"created_at,omitempty" json:"created_at,omitempty"`

	// UpdatedAt is when the template was last changed.
	UpdatedAt time.Time `yaml:"updated_at,omitempty" json:"updated_at,omitempty"`

	// UpdatedBy identifies who last changed the template.
	UpdatedBy string `yaml:"updated_by,omitempty" json:"updated_by,omitempty"`
}

// Validate checks structural requirements of the template.
func (t *RuleTemplate) Validate() error {
	if t.ID == "" {
		return &ValidationError{Message: "template id is required"}
	}
	if t.Name == "" {
		return &ValidationError{RuleCode: t.ID, Message: "template name is required"}
	}
	if t.ConditionTemplate == "" {
		return &ValidationError{RuleCode: t.ID, Message: "template condition is required"}
	}
	if !t.DefaultSeverity.Valid() {
		return &ValidationError{RuleCode: t.ID, Message: fmt.Sprintf("invalid severity %q", t.DefaultSeverity)}
	}
	seen := make(map[string]bool, len(t.Parameters))
	for _, param := range t.Parameters {
		if param.Name == "" {
			return &ValidationError{RuleCode: t.ID, Message: "template parameter with empty name"}
		}
		if seen[param.Name] {
			return &ValidationError{
				RuleCode: t.ID,
				Message:  fmt.Sprintf("duplicate template parameter %q", param.Name),
			}
		}
		seen[param.Name] = true
		switch param.Type {
		case "number", "string", "bool":
		default:
			return &ValidationError{
				RuleCode: t.ID,
				Message:  fmt.Sprintf("parameter %q: unknown type %q", param.Name, param.Type),
			}
		}
	}
	return nil
}

// Instantiate produces a concrete RuleDefinition from the template by
// substituting {param} placeholders in the condition, description, and string
// action parameters. Required parameters must all be supplied; optional ones
// fall back to their defaults. The resulting definition carries the
// template's severity, fact type, and references.
func (t *RuleTemplate) Instantiate(code, name string, params map[string]any) (*RuleDefinition, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if !t.Enabled {
		return nil, &ValidationError{
			RuleCode: t.ID,
			Message:  "template is disabled",
		}
	}
	if code == "" {
		return nil, &ValidationError{RuleCode: t.ID, Message: "instantiation requires a rule code"}
	}

	resolved, err := t.resolveParams(params)
	if err != nil {
		return nil, err
	}

	if name == "" {
		name = substitute(t.Name, resolved)
	}
	now := time.Now().UTC()
	def := &RuleDefinition{
		Code:        code,
		Name:        name,
		Description: substitute(t.Description, resolved),
		Condition:   substitute(t.ConditionTemplate, resolved),
		Severity:    t.DefaultSeverity,
		FactType:    t.FactType,
		References:  append([]string(nil), t.References...),
		Enabled:     true,
		Version:     1,
		TemplateID:  t.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, action := range t.Actions {
		def.Actions = append(def.Actions, ActionSpec{
			Type:       action.Type,
			Parameters: substituteParams(action.Parameters, resolved),
		})
	}
	if len(def.Actions) == 0 {
		def.Actions = []ActionSpec{{Type: ActionFlag}}
	}
	return def, nil
}

// resolveParams checks supplied parameters against the schema and fills in
// defaults.
func (t *RuleTemplate) resolveParams(params map[string]any) (map[string]any, error) {
	resolved := make(map[string]any, len(t.Parameters))
	for _, spec := range t.Parameters {
		val, ok := params[spec.Name]
		if !ok {
			if spec.Required {
				return nil, &ValidationError{
					RuleCode: t.ID,
					Message:  fmt.Sprintf("missing required parameter %q", spec.Name),
				}
			}
			if spec.Default == nil {
				continue
			}
			val = spec.Default
		}
		if err := checkParamType(spec, val); err != nil {
			return nil, &ValidationError{RuleCode: t.ID, Message: err.Error()}
		}
		resolved[spec.Name] = val
	}
	for name := range params {
		if _, ok := resolved[name]; !ok {
			return nil, &ValidationError{
				RuleCode: t.ID,
				Message:  fmt.Sprintf("unknown parameter %q", name),
			}
		}
	}
	return resolved, nil
}

func checkParamType(spec ParamSpec, val any) error {
	switch spec.Type {
	case "number":
		switch val.(type) {
		case int, int64, float64, float32:
			return nil
		}
	case "string":
		if _, ok := val.(string); ok {
			return nil
		}
	case "bool":
		if _, ok := val.(bool); ok {
			return nil
		}
	}
	return fmt.Errorf("parameter %q: expected %s, got %T", spec.Name, spec.Type, val)
}

// substitute replaces every {name} placeholder in text with the parameter's
// formatted value. Unknown placeholders are left intact so the compile step
// surfaces them as condition syntax errors.
func substitute(text string, params map[string]any) string {
	for name, val := range params {
		text = strings.ReplaceAll(text, "{"+name+"}", formatParam(val))
	}
	return text
}

func substituteParams(params, values map[string]any) map[string]any {
	if params == nil {
		return nil
	}
	copied := make(map[string]any, len(params))
	for k, v := range params {
		if s, ok := v.(string); ok {
			copied[k] = substitute(s, values)
			continue
		}
		copied[k] = cloneValue(v)
	}
	return copied
}

func formatParam(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	}
	return fmt.Sprintf("%v", val)
}
