package rules

import (
	"testing"
	"time"
)

func TestSeverity_HandlingTimeLimit(t *testing.T) {
	tests := []struct {
		severity Severity
		want     time.Duration
	}{
		{SeverityCritical, 4 * time.Hour},
		{SeverityHigh, 24 * time.Hour},
		{SeverityMedium, 72 * time.Hour},
		{SeverityLow, 168 * time.Hour},
		{SeverityInfo, 720 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(string(tt.severity), func(t *testing.T) {
			if got := tt.severity.HandlingTimeLimit(); got != tt.want {
				t.Errorf("HandlingTimeLimit() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSeverity_Ordering(t *testing.T) {
	all := AllSeverities()
	if len(all) != 5 {
		t.Fatalf("AllSeverities() returned %d severities, want 5", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].Level() >= all[i].Level() {
			t.Errorf("severity %s (level %d) should rank above %s (level %d)",
				all[i-1], all[i-1].Level(), all[i], all[i].Level())
		}
	}
}

func TestSeverity_Predicates(t *testing.T) {
	tests := []struct {
		severity       Severity
		wantImmediate  bool
		wantEscalation bool
	}{
		{SeverityCritical, true, true},
		{SeverityHigh, true, false},
		{SeverityMedium, false, false},
		{SeverityLow, false, false},
		{SeverityInfo, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.severity), func(t *testing.T) {
			if got := tt.severity.RequiresImmediateAction(); got != tt.wantImmediate {
				t.Errorf("RequiresImmediateAction() = %v, want %v", got, tt.wantImmediate)
			}
			if got := tt.severity.RequiresEscalation(); got != tt.wantEscalation {
				t.Errorf("RequiresEscalation() = %v, want %v", got, tt.wantEscalation)
			}
		})
	}
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		input   string
		want    Severity
		wantErr bool
	}{
		{"CRITICAL", SeverityCritical, false},
		{"high", SeverityHigh, false},
		{"Medium", SeverityMedium, false},
		{"  low  ", SeverityLow, false},
		{"info", SeverityInfo, false},
		{"urgent", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSeverity(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseSeverity(%q) succeeded, want error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSeverity(%q) failed: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseSeverity(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
