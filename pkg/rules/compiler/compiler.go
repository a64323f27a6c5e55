package compiler

import (
	"errors"
	"fmt"

	"financialguard/sentinel/pkg/expr"
	"financialguard/sentinel/pkg/rules"
)

// CompiledRule is the executable form of one rule definition. It holds its
// own copies of the definition's identifying fields, so later edits to the
// source definition never affect an already-compiled rule.
type CompiledRule struct {
	// Code is the rule code, copied at compile time.
	Code string

	// Name is the rule name, copied at compile time.
	Name string

	// Severity is the rule severity, copied at compile time.
	Severity rules.Severity

	// Version is the definition version the rule was compiled from.
	Version int

	// FactType restricts the rule to facts of this type; empty matches all.
	FactType string

	condition *expr.Node
	flags     []flagAction
	tags      map[string]string
	escalate  bool
}

// flagAction is a compiled flag action: the finding description template plus
// the affected-object attributes and recommendations to copy onto findings.
type flagAction struct {
	description *template
	objects     []string
	recommends  []string
}

// Compile translates a rule definition into executable form. A syntax error
// in the condition or a malformed action returns *rules.CompileError.
func Compile(def *rules.RuleDefinition) (*CompiledRule, error) {
	if def == nil {
		return nil, &rules.CompileError{Message: "rule definition cannot be nil"}
	}
	if err := def.Validate(); err != nil {
		return nil, &rules.CompileError{RuleCode: def.Code, Message: err.Error(), Cause: err}
	}

	condition, err := expr.Parse(def.Condition)
	if err != nil {
		cerr := &rules.CompileError{RuleCode: def.Code, Message: err.Error(), Cause: err}
		var perr *expr.ParseError
		if errors.As(err, &perr) {
			cerr.Message = perr.Message
			cerr.Pos = perr.Pos
		}
		return nil, cerr
	}

	compiled := &CompiledRule{
		Code:      def.Code,
		Name:      def.Name,
		Severity:  def.Severity,
		Version:   def.Version,
		FactType:  def.FactType,
		condition: condition,
	}

	for i, action := range def.Actions {
		switch action.Type {
		case rules.ActionFlag:
			flag, err := compileFlag(def, i, action)
			if err != nil {
				return nil, err
			}
			compiled.flags = append(compiled.flags, flag)

		case rules.ActionTag:
			if compiled.tags == nil {
				compiled.tags = make(map[string]string)
			}
			for key, val := range action.Parameters {
				s, ok := val.(string)
				if !ok {
					return nil, &rules.CompileError{
						RuleCode: def.Code,
						Message:  fmt.Sprintf("action %d: tag %q must be a string, got %T", i, key, val),
					}
				}
				compiled.tags[key] = s
			}

		case rules.ActionEscalate:
			compiled.escalate = true

		default:
			return nil, &rules.CompileError{
				RuleCode: def.Code,
				Message:  fmt.Sprintf("action %d: unknown action type %q", i, action.Type),
			}
		}
	}

	// A rule with no flag action emits a default finding on match; the
	// definition's description stands in for a template.
	if len(compiled.flags) == 0 {
		tmpl, err := parseTemplate(defaultDescription(def))
		if err != nil {
			return nil, &rules.CompileError{RuleCode: def.Code, Message: err.Error(), Cause: err}
		}
		compiled.flags = []flagAction{{description: tmpl}}
	}

	return compiled, nil
}

func compileFlag(def *rules.RuleDefinition, index int, action rules.ActionSpec) (flagAction, error) {
	flag := flagAction{}

	text := defaultDescription(def)
	if raw, ok := action.Parameters["description"]; ok {
		s, isString := raw.(string)
		if !isString {
			return flag, &rules.CompileError{
				RuleCode: def.Code,
				Message:  fmt.Sprintf("action %d: description must be a string, got %T", index, raw),
			}
		}
		text = s
	}
	tmpl, err := parseTemplate(text)
	if err != nil {
		return flag, &rules.CompileError{
			RuleCode: def.Code,
			Message:  fmt.Sprintf("action %d: %v", index, err),
			Cause:    err,
		}
	}
	flag.description = tmpl

	if raw, ok := action.Parameters["objects"]; ok {
		flag.objects, err = stringList(raw)
		if err != nil {
			return flag, &rules.CompileError{
				RuleCode: def.Code,
				Message:  fmt.Sprintf("action %d: objects: %v", index, err),
			}
		}
	}
	if raw, ok := action.Parameters["recommendations"]; ok {
		flag.recommends, err = stringList(raw)
		if err != nil {
			return flag, &rules.CompileError{
				RuleCode: def.Code,
				Message:  fmt.Sprintf("action %d: recommendations: %v", index, err),
			}
		}
	}
	return flag, nil
}

func defaultDescription(def *rules.RuleDefinition) string {
	if def.Description != "" {
		return def.Description
	}
	return def.Name
}

func stringList(raw any) ([]string, error) {
	switch val := raw.(type) {
	case []string:
		return append([]string(nil), val...), nil
	case []any:
		out := make([]string, 0, len(val))
		for _, elem := range val {
			s, ok := elem.(string)
			if !ok {
				return nil, fmt.Errorf("expected a list of strings, got %T element", elem)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, fmt.Errorf("expected a list of strings, got %T", raw)
}

// Matches evaluates the rule's condition against a fact. Facts whose type
// does not match the rule's filter never match and never error.
func (r *CompiledRule) Matches(fact *rules.Fact) (bool, error) {
	if r.FactType != "" && fact.Type != r.FactType {
		return false, nil
	}
	matched, err := expr.EvaluateBool(r.condition, fact.Attributes)
	if err != nil {
		return false, &rules.ExecutionError{RuleCode: r.Code, Cause: err}
	}
	return matched, nil
}

// Apply evaluates the rule against a fact and, on match, produces the
// findings its flag actions describe.
func (r *CompiledRule) Apply(fact *rules.Fact) ([]rules.RawFinding, error) {
	matched, err := r.Matches(fact)
	if err != nil || !matched {
		return nil, err
	}

	findings := make([]rules.RawFinding, 0, len(r.flags))
	for _, flag := range r.flags {
		finding := rules.RawFinding{
			RuleCode:    r.Code,
			RuleName:    r.Name,
			Severity:    r.Severity,
			RuleVersion: r.Version,
			Description: flag.description.render(fact.Attributes),
			FactType:    fact.Type,
			Escalate:    r.escalate,
		}
		if len(flag.objects) > 0 {
			finding.AffectedObjects = make(map[string]any, len(flag.objects))
			for _, attr := range flag.objects {
				finding.AffectedObjects[attr] = fact.Attr(attr)
			}
		}
		if len(flag.recommends) > 0 {
			finding.Recommendations = append([]string(nil), flag.recommends...)
		}
		if len(r.tags) > 0 {
			finding.Tags = make(map[string]string, len(r.tags))
			for k, v := range r.tags {
				finding.Tags[k] = v
			}
		}
		findings = append(findings, finding)
	}
	return findings, nil
}

// ValidateDefinition dry-run compiles a definition without publishing
// anything. It returns *rules.ValidationError wrapping the compile failure.
func ValidateDefinition(def *rules.RuleDefinition) error {
	if _, err := Compile(def); err != nil {
		code := ""
		if def != nil {
			code = def.Code
		}
		return &rules.ValidationError{
			RuleCode: code,
			Message:  err.Error(),
			Cause:    err,
		}
	}
	return nil
}
