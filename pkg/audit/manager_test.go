package audit

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"financialguard/sentinel/pkg/rules"
)

func newTestManager(t *testing.T, now time.Time) *Manager {
	t.Helper()
	m := NewManager(nil, nil)
	m.now = func() time.Time { return now }
	return m
}

func rawFinding(severity rules.Severity) rules.RawFinding {
	return rules.RawFinding{
		RuleCode:    "promo-ratio",
		RuleName:    "Promotion expense ratio",
		Severity:    severity,
		RuleVersion: 3,
		Description: "promotion expense exceeds 5% of GMV",
		FactType:    "settlement",
		AffectedObjects: map[string]any{
			"merchant_id": "m-1001",
		},
		Recommendations: []string{"review promotion spend"},
	}
}

func createOne(t *testing.T, m *Manager, severity rules.Severity) *Finding {
	t.Helper()
	created, err := m.CreateFindings([]rules.RawFinding{rawFinding(severity)})
	if err != nil {
		t.Fatalf("CreateFindings: %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("created %d findings, want 1", len(created))
	}
	return created[0]
}

func TestManager_DeadlineFromSeverity(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	m := newTestManager(t, now)

	for _, severity := range rules.AllSeverities() {
		t.Run(string(severity), func(t *testing.T) {
			finding := createOne(t, m, severity)

			if finding.Status != StatusPending {
				t.Errorf("Status = %s, want %s", finding.Status, StatusPending)
			}
			want := now.Add(severity.HandlingTimeLimit())
			if !finding.Deadline.Equal(want) {
				t.Errorf("Deadline = %v, want %v", finding.Deadline, want)
			}
			if !finding.CreatedAt.Equal(now) {
				t.Errorf("CreatedAt = %v, want %v", finding.CreatedAt, now)
			}
		})
	}
}

func TestManager_EscalationDerivedFromSeverity(t *testing.T) {
	m := newTestManager(t, time.Now())

	low := createOne(t, m, rules.SeverityLow)
	if low.Escalate {
		t.Error("LOW finding escalated without a forced escalate action")
	}
	critical := createOne(t, m, rules.SeverityCritical)
	if !critical.Escalate {
		t.Error("CRITICAL finding not marked for escalation")
	}
}

func TestManager_LifecycleHappyPath(t *testing.T) {
	m := newTestManager(t, time.Now())
	finding := createOne(t, m, rules.SeverityHigh)

	steps := []struct {
		to      Status
		handler string
	}{
		{StatusInProgress, "alice"},
		{StatusPendingReview, "alice"},
	}
	for _, step := range steps {
		var err error
		finding, err = m.Transition(finding.ID, step.to, step.handler, "")
		if err != nil {
			t.Fatalf("Transition to %s: %v", step.to, err)
		}
		if finding.Status != step.to {
			t.Fatalf("Status = %s, want %s", finding.Status, step.to)
		}
	}

	reviewed, err := m.Review(finding.ID, "bob", StatusResolved, "handling verified")
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if reviewed.Status != StatusResolved {
		t.Fatalf("Status after review = %s, want %s", reviewed.Status, StatusResolved)
	}
	if reviewed.Review == nil || reviewed.Review.Reviewer != "bob" {
		t.Fatal("review decision not recorded on finding")
	}

	closed, err := m.Transition(finding.ID, StatusClosed, "alice", "archived")
	if err != nil {
		t.Fatalf("Transition to CLOSED: %v", err)
	}
	if got := len(closed.HandlingHistory); got != 4 {
		t.Errorf("handling history has %d records, want 4", got)
	}
	last := closed.HandlingHistory[len(closed.HandlingHistory)-1]
	if last.Action != "transition:CLOSED" {
		t.Errorf("last record action = %q, want %q", last.Action, "transition:CLOSED")
	}
}

func TestManager_InvalidTransitionLeavesFindingUnchanged(t *testing.T) {
	m := newTestManager(t, time.Now())
	finding := createOne(t, m, rules.SeverityMedium)

	_, err := m.Transition(finding.ID, StatusResolved, "alice", "shortcut")
	var invalid *InvalidTransitionError
	if !errors.As(err, &invalid) {
		t.Fatalf("error = %v, want *InvalidTransitionError", err)
	}
	if invalid.From != StatusPending || invalid.To != StatusResolved {
		t.Errorf("error carries %s->%s, want %s->%s",
			invalid.From, invalid.To, StatusPending, StatusResolved)
	}

	after, err := m.Get(finding.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if after.Status != StatusPending {
		t.Errorf("Status = %s, want unchanged %s", after.Status, StatusPending)
	}
	if len(after.HandlingHistory) != 0 {
		t.Errorf("rejected transition appended %d handling records", len(after.HandlingHistory))
	}
}

func TestManager_ExpiredCannotBeRequested(t *testing.T) {
	m := newTestManager(t, time.Now())
	finding := createOne(t, m, rules.SeverityLow)

	if _, err := m.Transition(finding.ID, StatusExpired, "alice", ""); err == nil {
		t.Fatal("requesting EXPIRED succeeded, want error")
	}
}

func TestManager_Assign(t *testing.T) {
	m := newTestManager(t, time.Now())
	finding := createOne(t, m, rules.SeverityHigh)

	assigned, err := m.Assign(finding.ID, "carol", "lead")
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if assigned.Assignee != "carol" {
		t.Errorf("Assignee = %q, want %q", assigned.Assignee, "carol")
	}

	if _, err := m.Transition(finding.ID, StatusCancelled, "lead", "false positive"); err != nil {
		t.Fatalf("Transition to CANCELLED: %v", err)
	}
	if _, err := m.Assign(finding.ID, "dave", "lead"); err == nil {
		t.Fatal("Assign on cancelled finding succeeded, want error")
	}
}

func TestManager_ReviewRejectsOtherDecisions(t *testing.T) {
	m := newTestManager(t, time.Now())
	finding := createOne(t, m, rules.SeverityHigh)

	if _, err := m.Review(finding.ID, "bob", StatusClosed, ""); err == nil {
		t.Fatal("review decision CLOSED accepted, want error")
	}

	// Review requires PENDING_REVIEW even for a valid decision value.
	_, err := m.Review(finding.ID, "bob", StatusRejected, "")
	var invalid *InvalidTransitionError
	if !errors.As(err, &invalid) {
		t.Fatalf("error = %v, want *InvalidTransitionError", err)
	}
}

func TestManager_RejectedReturnsToWork(t *testing.T) {
	m := newTestManager(t, time.Now())
	finding := createOne(t, m, rules.SeverityMedium)

	mustTransition := func(to Status) {
		t.Helper()
		if _, err := m.Transition(finding.ID, to, "alice", ""); err != nil {
			t.Fatalf("Transition to %s: %v", to, err)
		}
	}
	mustTransition(StatusInProgress)
	mustTransition(StatusPendingReview)

	rejected, err := m.Review(finding.ID, "bob", StatusRejected, "evidence incomplete")
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if rejected.Status != StatusRejected {
		t.Fatalf("Status = %s, want %s", rejected.Status, StatusRejected)
	}

	mustTransition(StatusInProgress)
}

func TestManager_ExpireOverdue(t *testing.T) {
	created := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	m := newTestManager(t, created)

	critical := createOne(t, m, rules.SeverityCritical) // deadline +4h
	low := createOne(t, m, rules.SeverityLow)           // deadline +168h

	resolvedCritical := createOne(t, m, rules.SeverityCritical)
	for _, to := range []Status{StatusInProgress, StatusPendingReview, StatusResolved} {
		if _, err := m.Transition(resolvedCritical.ID, to, "alice", ""); err != nil {
			t.Fatalf("Transition to %s: %v", to, err)
		}
	}

	expired := m.ExpireOverdue(created.Add(5 * time.Hour))
	if len(expired) != 1 {
		t.Fatalf("expired %d findings, want 1", len(expired))
	}
	if expired[0].ID != critical.ID {
		t.Errorf("expired finding %s, want %s", expired[0].ID, critical.ID)
	}
	if expired[0].Status != StatusExpired {
		t.Errorf("Status = %s, want %s", expired[0].Status, StatusExpired)
	}
	last := expired[0].HandlingHistory[len(expired[0].HandlingHistory)-1]
	if last.Handler != "system" || last.Action != "expire" {
		t.Errorf("expiry record = %s/%s, want system/expire", last.Handler, last.Action)
	}

	// The expired finding accepts no further handling.
	if _, err := m.Transition(critical.ID, StatusInProgress, "alice", ""); err == nil {
		t.Error("transition on expired finding succeeded, want error")
	}

	// Findings within deadline or already final are left alone.
	for _, id := range []string{low.ID, resolvedCritical.ID} {
		finding, err := m.Get(id)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if finding.Status == StatusExpired {
			t.Errorf("finding %s swept despite not being overdue and modifiable", id)
		}
	}
}

func TestManager_ConcurrentTransitions(t *testing.T) {
	m := newTestManager(t, time.Now())

	raws := make([]rules.RawFinding, 20)
	for i := range raws {
		raw := rawFinding(rules.SeverityMedium)
		raw.RuleCode = fmt.Sprintf("rule-%03d", i)
		raws[i] = raw
	}
	created, err := m.CreateFindings(raws)
	if err != nil {
		t.Fatalf("CreateFindings: %v", err)
	}

	var wg sync.WaitGroup
	for _, finding := range created {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if _, err := m.Transition(id, StatusInProgress, "alice", ""); err != nil {
				t.Errorf("Transition %s: %v", id, err)
			}
			if _, err := m.Transition(id, StatusPendingReview, "alice", ""); err != nil {
				t.Errorf("Transition %s: %v", id, err)
			}
		}(finding.ID)
	}
	wg.Wait()

	for _, finding := range m.List() {
		if finding.Status != StatusPendingReview {
			t.Errorf("finding %s ended in %s, want %s",
				finding.ID, finding.Status, StatusPendingReview)
		}
	}
}
