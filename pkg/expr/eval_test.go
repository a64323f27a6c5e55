package expr

import (
	"errors"
	"strings"
	"testing"
)

// promoFact mirrors a typical promotion expense fact.
func promoFact(explanation any) map[string]any {
	attrs := map[string]any{
		"type":   "promotion",
		"amount": 6000,
		"gmv":    100000,
	}
	if explanation != skipAttr {
		attrs["explanation"] = explanation
	}
	return attrs
}

// skipAttr marks an attribute that should be absent from the bag entirely.
var skipAttr = struct{}{}

// TestEvaluateBool_Conditions tests condition evaluation across operators,
// builtins, and coercion rules.
func TestEvaluateBool_Conditions(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		attrs map[string]any
		want  bool
	}{
		{
			name:  "ratio above threshold with null explanation",
			src:   `amount / gmv > 0.05 && empty(explanation)`,
			attrs: promoFact(nil),
			want:  true,
		},
		{
			name:  "ratio above threshold with explanation present",
			src:   `amount / gmv > 0.05 && empty(explanation)`,
			attrs: promoFact("approved"),
			want:  false,
		},
		{
			name:  "ratio above threshold with missing explanation attribute",
			src:   `amount / gmv > 0.05 && empty(explanation)`,
			attrs: promoFact(skipAttr),
			want:  true,
		},
		{
			name:  "ratio below threshold",
			src:   `amount / gmv > 0.05`,
			attrs: map[string]any{"amount": 4000, "gmv": 100000},
			want:  false,
		},
		{
			name:  "int and float compare equal",
			src:   `amount == 6000.0`,
			attrs: map[string]any{"amount": int64(6000)},
			want:  true,
		},
		{
			name:  "short-circuit and skips unknown attribute",
			src:   `false && no_such > 1`,
			attrs: map[string]any{},
			want:  false,
		},
		{
			name:  "short-circuit or skips unknown attribute",
			src:   `true || no_such > 1`,
			attrs: map[string]any{},
			want:  true,
		},
		{
			name:  "nested attribute path",
			src:   `account.category == "revenue"`,
			attrs: map[string]any{"account": map[string]any{"category": "revenue"}},
			want:  true,
		},
		{
			name:  "list membership",
			src:   `currency in ["CNY", "USD"]`,
			attrs: map[string]any{"currency": "USD"},
			want:  true,
		},
		{
			name:  "list membership miss",
			src:   `currency in ["CNY", "USD"]`,
			attrs: map[string]any{"currency": "EUR"},
			want:  false,
		},
		{
			name:  "string contains",
			src:   `memo contains "urgent"`,
			attrs: map[string]any{"memo": "handle as urgent please"},
			want:  true,
		},
		{
			name:  "list contains",
			src:   `tags contains "audit"`,
			attrs: map[string]any{"tags": []any{"audit", "q3"}},
			want:  true,
		},
		{
			name:  "regex match",
			src:   `voucher_id matches "^V[0-9]+$"`,
			attrs: map[string]any{"voucher_id": "V20240301"},
			want:  true,
		},
		{
			name:  "exists present",
			src:   `exists(approver)`,
			attrs: map[string]any{"approver": "chen"},
			want:  true,
		},
		{
			name:  "exists absent",
			src:   `exists(approver)`,
			attrs: map[string]any{},
			want:  false,
		},
		{
			name:  "exists present but null",
			src:   `exists(approver)`,
			attrs: map[string]any{"approver": nil},
			want:  true,
		},
		{
			name:  "null equality",
			src:   `explanation == null`,
			attrs: map[string]any{"explanation": nil},
			want:  true,
		},
		{
			name:  "len of list",
			src:   `len(attachments) >= 2`,
			attrs: map[string]any{"attachments": []any{"a.pdf", "b.pdf"}},
			want:  true,
		},
		{
			name:  "abs of negative balance",
			src:   `abs(balance) > 500`,
			attrs: map[string]any{"balance": -1200.5},
			want:  true,
		},
		{
			name:  "min max round",
			src:   `min(debit, credit) >= 0 && max(debit, credit) <= round(limit)`,
			attrs: map[string]any{"debit": 10, "credit": 20, "limit": 20.4},
			want:  true,
		},
		{
			name:  "arithmetic precedence",
			src:   `2 + 3 * 4 == 14`,
			attrs: map[string]any{},
			want:  true,
		},
		{
			name:  "modulo",
			src:   `amount % 100 == 0`,
			attrs: map[string]any{"amount": 6000},
			want:  true,
		},
		{
			name:  "negation of boolean attribute",
			src:   `!approved`,
			attrs: map[string]any{"approved": false},
			want:  true,
		},
		{
			name:  "empty string is empty",
			src:   `empty(explanation)`,
			attrs: map[string]any{"explanation": ""},
			want:  true,
		},
		{
			name:  "zero is not empty",
			src:   `empty(amount)`,
			attrs: map[string]any{"amount": 0},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, err := Parse(tt.src)
			if err != nil {
				t.Fatalf("Parse(%q) failed: %v", tt.src, err)
			}
			got, err := EvaluateBool(node, tt.attrs)
			if err != nil {
				t.Fatalf("EvaluateBool(%q) failed: %v", tt.src, err)
			}
			if got != tt.want {
				t.Errorf("EvaluateBool(%q) = %v, want %v", tt.src, got, tt.want)
			}
		})
	}
}

// TestEvaluateBool_RuntimeErrors tests evaluation failures that must be
// confined to a single rule execution.
func TestEvaluateBool_RuntimeErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		attrs   map[string]any
		wantMsg string
	}{
		{
			name:    "unknown attribute",
			src:     `missing > 1`,
			attrs:   map[string]any{"amount": 1},
			wantMsg: `unknown fact attribute "missing"`,
		},
		{
			name:    "unknown nested attribute",
			src:     `account.holder.name == "x"`,
			attrs:   map[string]any{"account": map[string]any{"category": "revenue"}},
			wantMsg: "unknown fact attribute",
		},
		{
			name:    "division by zero",
			src:     `amount / gmv > 0.05`,
			attrs:   map[string]any{"amount": 6000, "gmv": 0},
			wantMsg: "division by zero",
		},
		{
			name:    "type mismatch in ordering",
			src:     `status > 5`,
			attrs:   map[string]any{"status": "open"},
			wantMsg: "requires numeric operands",
		},
		{
			name:    "non-boolean condition",
			src:     `amount + 1`,
			attrs:   map[string]any{"amount": 1},
			wantMsg: "must evaluate to a boolean",
		},
		{
			name:    "boolean operator on number",
			src:     `amount && true`,
			attrs:   map[string]any{"amount": 1},
			wantMsg: "requires boolean operands",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, err := Parse(tt.src)
			if err != nil {
				t.Fatalf("Parse(%q) failed: %v", tt.src, err)
			}
			_, err = EvaluateBool(node, tt.attrs)
			if err == nil {
				t.Fatalf("EvaluateBool(%q) succeeded, want error", tt.src)
			}
			var everr *EvalError
			if !errors.As(err, &everr) {
				t.Fatalf("EvaluateBool(%q) returned %T, want *EvalError", tt.src, err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %q, want substring %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

// TestEvaluate_Values tests non-boolean expression results.
func TestEvaluate_Values(t *testing.T) {
	node, err := Parse(`amount / gmv`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	got, err := Evaluate(node, map[string]any{"amount": 6000, "gmv": 100000})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if got != 0.06 {
		t.Errorf("Evaluate = %v, want 0.06", got)
	}
}
