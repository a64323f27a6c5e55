package audit

import (
	"financialguard/sentinel/pkg/rules"
)

// RiskLevel buckets an aggregate risk score for reporting.
type RiskLevel string

const (
	RiskCritical RiskLevel = "CRITICAL"
	RiskHigh     RiskLevel = "HIGH"
	RiskElevated RiskLevel = "ELEVATED"
	RiskModerate RiskLevel = "MODERATE"
	RiskLow      RiskLevel = "LOW"
	RiskNormal   RiskLevel = "NORMAL"
)

// severityBaseScores maps a finding's severity to its base contribution.
var severityBaseScores = map[rules.Severity]float64{
	rules.SeverityCritical: 90,
	rules.SeverityHigh:     70,
	rules.SeverityMedium:   50,
	rules.SeverityLow:      30,
	rules.SeverityInfo:     10,
}

// RiskAssessment summarizes the risk posture of a set of findings.
type RiskAssessment struct {
	// Score is the aggregate risk score on a 0-100 scale. Zero means
	// no findings.
	Score float64

	// Level buckets the score.
	Level RiskLevel

	// FindingCount is the number of findings assessed.
	FindingCount int

	// BySeverity counts findings per severity.
	BySeverity map[rules.Severity]int

	// RequiresImmediateAction is set when any assessed finding is
	// CRITICAL.
	RequiresImmediateAction bool
}

// AssessRisk scores a set of findings. The score starts from the highest
// severity base score present and adds two points per additional finding,
// capped at 100, so volume raises the score but never past the next
// severity tier would on its own.
func AssessRisk(findings []*Finding) RiskAssessment {
	a := RiskAssessment{
		Level:        RiskNormal,
		FindingCount: len(findings),
		BySeverity:   make(map[rules.Severity]int),
	}
	if len(findings) == 0 {
		return a
	}

	var maxBase float64
	for _, f := range findings {
		a.BySeverity[f.Severity]++
		if base := severityBaseScores[f.Severity]; base > maxBase {
			maxBase = base
		}
		if f.Severity == rules.SeverityCritical {
			a.RequiresImmediateAction = true
		}
	}

	score := maxBase + 2*float64(len(findings)-1)
	if score > 100 {
		score = 100
	}
	a.Score = score
	a.Level = levelForScore(score)
	return a
}

func levelForScore(score float64) RiskLevel {
	switch {
	case score >= 90:
		return RiskCritical
	case score >= 70:
		return RiskHigh
	case score >= 50:
		return RiskElevated
	case score >= 30:
		return RiskModerate
	case score > 0:
		return RiskLow
	default:
		return RiskNormal
	}
}
