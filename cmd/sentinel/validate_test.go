package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeRuleFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
}

func TestValidateRules_CleanDirectory(t *testing.T) {
	dir := t.TempDir()
	writeRuleFile(t, dir, "promo.yaml", `
rules:
  - code: promo-expense-ratio
    name: Promotion expense ratio check
    condition: "amount / gmv > 0.05 && empty(explanation)"
    severity: high
    enabled: true
    actions:
      - type: flag
`)

	rulesDir := validateFlags.rulesDir
	defer func() { validateFlags.rulesDir = rulesDir }()
	validateFlags.rulesDir = dir

	if err := validateRules(validateCmd, nil); err != nil {
		t.Errorf("validateRules = %v, want nil", err)
	}
}

func TestValidateRules_ReportsBrokenCondition(t *testing.T) {
	dir := t.TempDir()
	writeRuleFile(t, dir, "broken.yaml", `
rules:
  - code: broken-rule
    name: Broken rule
    condition: "amount > "
    severity: low
    enabled: true
    actions:
      - type: flag
`)

	rulesDir := validateFlags.rulesDir
	defer func() { validateFlags.rulesDir = rulesDir }()
	validateFlags.rulesDir = dir

	if err := validateRules(validateCmd, nil); err == nil {
		t.Error("validateRules = nil, want error for broken condition")
	}
}
