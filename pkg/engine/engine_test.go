package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"financialguard/sentinel/pkg/execlog"
	"financialguard/sentinel/pkg/rules"
)

func promoFact(explanation any) *rules.Fact {
	return &rules.Fact{
		Type: "promotion",
		Attributes: map[string]any{
			"voucher_id":  "V20240301",
			"amount":      6000,
			"gmv":         100000,
			"explanation": explanation,
		},
	}
}

func newTestEngine(t *testing.T, defs ...*rules.RuleDefinition) (*Engine, *Container) {
	t.Helper()
	c := NewContainer(&Config{Environment: "test", MaxResultLength: 500}, nil, nil)
	if len(defs) > 0 {
		if _, err := c.Rebuild(defs); err != nil {
			t.Fatalf("Rebuild failed: %v", err)
		}
	}
	e, err := New(c, &Config{Environment: "test", MaxResultLength: 500}, nil, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return e, c
}

func TestEngine_PromoExpenseRatioScenario(t *testing.T) {
	def := ratioRule("promo-expense-ratio", 0.05)
	def.Name = "Promotion expense ratio check"
	e, _ := newTestEngine(t, def)

	// 6000 / 100000 = 0.06 > 0.05 with no explanation: exactly one HIGH
	// finding.
	result, err := e.Execute(context.Background(), []*rules.Fact{promoFact(nil)}, "tester")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(result.Findings) != 1 {
		t.Fatalf("Execute produced %d findings, want 1", len(result.Findings))
	}
	finding := result.Findings[0]
	if finding.Severity != rules.SeverityHigh {
		t.Errorf("Severity = %q, want HIGH", finding.Severity)
	}
	if finding.RuleCode != "promo-expense-ratio" {
		t.Errorf("RuleCode = %q", finding.RuleCode)
	}

	// The same fact with an explanation produces no finding.
	result, err = e.Execute(context.Background(), []*rules.Fact{promoFact("approved")}, "tester")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(result.Findings) != 0 {
		t.Errorf("Execute produced %d findings for explained expense, want 0", len(result.Findings))
	}
	if len(result.Log) != 1 {
		t.Fatalf("Execute produced %d log entries, want 1", len(result.Log))
	}
	if result.Log[0].Status != execlog.StatusSuccess {
		t.Errorf("log status = %q, want success", result.Log[0].Status)
	}
}

func TestEngine_FailSoftPerRule(t *testing.T) {
	good := ratioRule("r-good", 0.05)
	bad := ratioRule("r-bad", 0.05)
	// Compiles fine, fails at execution on every fact.
	bad.Condition = "no_such_attribute > 10"
	e, _ := newTestEngine(t, good, bad)

	result, err := e.Execute(context.Background(), []*rules.Fact{promoFact(nil)}, "tester")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	// The good rule still ran and emitted its finding.
	if len(result.Findings) != 1 {
		t.Fatalf("Execute produced %d findings, want 1 from the good rule", len(result.Findings))
	}
	if result.Findings[0].RuleCode != "r-good" {
		t.Errorf("finding from %q, want r-good", result.Findings[0].RuleCode)
	}

	// One log entry per rule attempted, the bad rule marked failed.
	if len(result.Log) != 2 {
		t.Fatalf("Execute produced %d log entries, want 2", len(result.Log))
	}
	byCode := map[string]execlog.Entry{}
	for _, entry := range result.Log {
		byCode[entry.RuleCode] = entry
	}
	if byCode["r-good"].Status != execlog.StatusSuccess {
		t.Errorf("r-good status = %q, want success", byCode["r-good"].Status)
	}
	if byCode["r-bad"].Status != execlog.StatusFailure {
		t.Errorf("r-bad status = %q, want failure", byCode["r-bad"].Status)
	}
	if byCode["r-bad"].Error == "" {
		t.Error("failed entry carries no error text")
	}
	if byCode["r-bad"].Environment != "test" {
		t.Errorf("Environment = %q, want test", byCode["r-bad"].Environment)
	}
}

func TestEngine_EmptyFacts(t *testing.T) {
	e, _ := newTestEngine(t, ratioRule("r-001", 0.05))
	if _, err := e.Execute(context.Background(), nil, "tester"); err == nil {
		t.Fatal("Execute with no facts succeeded, want error")
	}
}

func TestEngine_CancelledContext(t *testing.T) {
	e, _ := newTestEngine(t, ratioRule("r-001", 0.05))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Execute(ctx, []*rules.Fact{promoFact(nil)}, "tester"); err == nil {
		t.Fatal("Execute with cancelled context succeeded, want error")
	}
}

func TestEngine_VersionIsolationUnderReload(t *testing.T) {
	e, c := newTestEngine(t, ratioRule("r-001", 0.05))

	var wg sync.WaitGroup
	stop := make(chan struct{})
	results := make(chan *Result, 1024)

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				result, err := e.Execute(context.Background(), []*rules.Fact{promoFact(nil)}, "tester")
				if err != nil {
					t.Errorf("Execute failed: %v", err)
					return
				}
				select {
				case results <- result:
				default:
				}
			}
		}()
	}

	for i := 0; i < 30; i++ {
		if _, err := c.Rebuild([]*rules.RuleDefinition{ratioRule("r-001", 0.05)}); err != nil {
			t.Errorf("Rebuild failed: %v", err)
			break
		}
		time.Sleep(time.Millisecond)
	}
	close(stop)
	wg.Wait()
	close(results)

	// Every call's log entries carry exactly the call's rule set version.
	for result := range results {
		for _, entry := range result.Log {
			if entry.RuleSetVersion != result.RuleSetVersion {
				t.Fatalf("log entry version %d differs from call version %d",
					entry.RuleSetVersion, result.RuleSetVersion)
			}
		}
	}
}

// observerRecorder records observer callbacks for assertions.
type observerRecorder struct {
	mu         sync.Mutex
	executions int
	failures   int
	findings   int
	reloads    int
}

func (o *observerRecorder) ObserveExecution(_ string, success bool, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.executions++
	if !success {
		o.failures++
	}
}

func (o *observerRecorder) ObserveFinding(rules.Severity) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.findings++
}

func (o *observerRecorder) ObserveReload(bool, uint64, int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.reloads++
}

func TestEngine_ObserverEvents(t *testing.T) {
	obs := &observerRecorder{}
	c := NewContainer(&Config{Environment: "test"}, nil, obs)
	if _, err := c.Rebuild([]*rules.RuleDefinition{ratioRule("r-001", 0.05)}); err != nil {
		t.Fatalf("Rebuild failed: %v", err)
	}
	e, err := New(c, &Config{Environment: "test"}, nil, obs)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if _, err := e.Execute(context.Background(), []*rules.Fact{promoFact(nil)}, "tester"); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	obs.mu.Lock()
	defer obs.mu.Unlock()
	if obs.reloads != 1 {
		t.Errorf("reload observations = %d, want 1", obs.reloads)
	}
	if obs.executions != 1 {
		t.Errorf("execution observations = %d, want 1", obs.executions)
	}
	if obs.findings != 1 {
		t.Errorf("finding observations = %d, want 1", obs.findings)
	}
}
