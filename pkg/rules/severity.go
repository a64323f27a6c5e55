package rules

import (
	"fmt"
	"strings"
	"time"
)

// Severity classifies how serious a rule violation is. Severities are ordered:
// a lower level number means a more severe finding.
type Severity string

const (
	// SeverityCritical indicates a violation that threatens compliance or
	// financial integrity and demands immediate escalation.
	SeverityCritical Severity = "CRITICAL"

	// SeverityHigh indicates a serious violation requiring prompt action.
	SeverityHigh Severity = "HIGH"

	// SeverityMedium indicates a violation that must be handled within
	// normal working cadence.
	SeverityMedium Severity = "MEDIUM"

	// SeverityLow indicates a minor violation.
	SeverityLow Severity = "LOW"

	// SeverityInfo indicates an informational finding with no direct
	// compliance impact.
	SeverityInfo Severity = "INFO"
)

// handlingLimits maps each severity to the maximum time allowed to act on a
// finding before it expires.
var handlingLimits = map[Severity]time.Duration{
	SeverityCritical: 4 * time.Hour,
	SeverityHigh:     24 * time.Hour,
	SeverityMedium:   72 * time.Hour,
	SeverityLow:      168 * time.Hour,
	SeverityInfo:     720 * time.Hour,
}

var severityLevels = map[Severity]int{
	SeverityCritical: 1,
	SeverityHigh:     2,
	SeverityMedium:   3,
	SeverityLow:      4,
	SeverityInfo:     5,
}

var severityLabels = map[Severity]string{
	SeverityCritical: "critical",
	SeverityHigh:     "high",
	SeverityMedium:   "medium",
	SeverityLow:      "low",
	SeverityInfo:     "informational",
}

// AllSeverities lists every severity from most to least severe.
func AllSeverities() []Severity {
	return []Severity{
		SeverityCritical,
		SeverityHigh,
		SeverityMedium,
		SeverityLow,
		SeverityInfo,
	}
}

// ParseSeverity converts a string into a Severity. Matching is
// case-insensitive; an unrecognized value returns an error.
func ParseSeverity(s string) (Severity, error) {
	sev := Severity(strings.ToUpper(strings.TrimSpace(s)))
	if !sev.Valid() {
		return "", fmt.Errorf("unknown severity %q (expected one of CRITICAL, HIGH, MEDIUM, LOW, INFO)", s)
	}
	return sev, nil
}

// Valid reports whether the severity is one of the defined values.
func (s Severity) Valid() bool {
	_, ok := severityLevels[s]
	return ok
}

// Level returns the numeric rank of the severity, 1 (most severe) through 5.
// An invalid severity returns 0.
func (s Severity) Level() int {
	return severityLevels[s]
}

// Label returns a lower-case human-readable label for the severity.
func (s Severity) Label() string {
	if label, ok := severityLabels[s]; ok {
		return label
	}
	return "unknown"
}

// HandlingTimeLimit returns the maximum time allowed to handle a finding of
// this severity. An invalid severity returns zero.
func (s Severity) HandlingTimeLimit() time.Duration {
	return handlingLimits[s]
}

// RequiresImmediateAction reports whether findings of this severity must be
// acted on immediately. True for CRITICAL and HIGH.
func (s Severity) RequiresImmediateAction() bool {
	return s == SeverityCritical || s == SeverityHigh
}

// RequiresEscalation reports whether findings of this severity must be
// escalated to management. True for CRITICAL only.
func (s Severity) RequiresEscalation() bool {
	return s == SeverityCritical
}

// String returns the canonical upper-case name of the severity.
func (s Severity) String() string {
	return string(s)
}

// MarshalYAML implements yaml.Marshaler.
func (s Severity) MarshalYAML() (interface{}, error) {
	return string(s), nil
}

// UnmarshalYAML implements yaml.Unmarshaler, accepting any casing.
func (s *Severity) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	parsed, err := ParseSeverity(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
