package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"financialguard/sentinel/pkg/rules"
)

func TestCollector_ObserveExecution(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := NewCollector(nil, registry)

	collector.ObserveExecution("promo-ratio", true, 500*time.Microsecond)
	collector.ObserveExecution("promo-ratio", true, 300*time.Microsecond)
	collector.ObserveExecution("promo-ratio", false, 100*time.Microsecond)

	success := testutil.ToFloat64(collector.executionsTotal.WithLabelValues("promo-ratio", "success"))
	if success != 2 {
		t.Errorf("success executions = %v, want 2", success)
	}
	failure := testutil.ToFloat64(collector.executionsTotal.WithLabelValues("promo-ratio", "failure"))
	if failure != 1 {
		t.Errorf("failure executions = %v, want 1", failure)
	}
}

func TestCollector_ObserveFinding(t *testing.T) {
	collector := NewCollector(nil, nil)

	collector.ObserveFinding(rules.SeverityHigh)
	collector.ObserveFinding(rules.SeverityHigh)
	collector.ObserveFinding(rules.SeverityCritical)

	high := testutil.ToFloat64(collector.findingsTotal.WithLabelValues("HIGH"))
	if high != 2 {
		t.Errorf("HIGH findings = %v, want 2", high)
	}
	critical := testutil.ToFloat64(collector.findingsTotal.WithLabelValues("CRITICAL"))
	if critical != 1 {
		t.Errorf("CRITICAL findings = %v, want 1", critical)
	}
}

func TestCollector_ObserveReload(t *testing.T) {
	collector := NewCollector(nil, nil)

	collector.ObserveReload(true, 3, 12)
	collector.ObserveReload(false, 0, 0)

	if got := testutil.ToFloat64(collector.reloadsTotal.WithLabelValues("success")); got != 1 {
		t.Errorf("successful reloads = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.reloadsTotal.WithLabelValues("failure")); got != 1 {
		t.Errorf("failed reloads = %v, want 1", got)
	}

	// A failed reload leaves the active-set gauges where they were.
	if got := testutil.ToFloat64(collector.rulesetVersion); got != 3 {
		t.Errorf("ruleset version gauge = %v, want 3", got)
	}
	if got := testutil.ToFloat64(collector.rulesetRules); got != 12 {
		t.Errorf("ruleset rules gauge = %v, want 12", got)
	}
}

func TestCollector_CustomNamespace(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := NewCollector(&Config{Namespace: "acme", Subsystem: "compliance"}, registry)

	collector.ObserveFinding(rules.SeverityLow)

	count, err := testutil.GatherAndCount(registry, "acme_compliance_findings_total")
	if err != nil {
		t.Fatalf("GatherAndCount: %v", err)
	}
	if count != 1 {
		t.Errorf("gathered %d findings_total series, want 1", count)
	}
}
