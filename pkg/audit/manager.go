package audit

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"financialguard/sentinel/pkg/rules"
)

// Manager owns findings from creation to terminal state. Mutations on a
// single finding are serialized through a per-finding lock; distinct findings
// update concurrently.
type Manager struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewManager creates a lifecycle manager over the given store. A nil store
// uses an in-memory one.
func NewManager(store Store, logger *slog.Logger) *Manager {
	if store == nil {
		store = NewMemoryStore()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:  store,
		logger: logger.With("component", "finding-lifecycle"),
		now:    time.Now,
		locks:  make(map[string]*sync.Mutex),
	}
}

// CreateFindings converts engine raw findings into managed findings in
// PENDING state. Each finding's deadline is fixed here from its severity.
func (m *Manager) CreateFindings(raws []rules.RawFinding) ([]*Finding, error) {
	now := m.now().UTC()
	created := make([]*Finding, 0, len(raws))
	for _, raw := range raws {
		finding := newFinding(raw, now)
		if err := m.store.Save(finding); err != nil {
			return created, fmt.Errorf("saving finding for rule %s: %w", raw.RuleCode, err)
		}
		m.logger.Info("finding created",
			"finding_id", finding.ID,
			"rule_code", finding.RuleCode,
			"severity", finding.Severity,
			"deadline", finding.Deadline,
		)
		created = append(created, finding.Clone())
	}
	return created, nil
}

// Get returns a copy of the finding with the given id.
func (m *Manager) Get(id string) (*Finding, error) {
	finding, ok := m.store.Get(id)
	if !ok {
		return nil, &NotFoundError{FindingID: id}
	}
	return finding.Clone(), nil
}

// List returns copies of all findings, oldest first.
func (m *Manager) List() []*Finding {
	stored := m.store.List()
	findings := make([]*Finding, 0, len(stored))
	for _, finding := range stored {
		findings = append(findings, finding.Clone())
	}
	return findings
}

// Transition moves a finding to a new status. A request outside the
// lifecycle table fails with *InvalidTransitionError and leaves the finding
// unchanged; an accepted transition appends a handling record.
func (m *Manager) Transition(id string, to Status, handler, comment string) (*Finding, error) {
	if !to.Valid() || to == StatusExpired {
		return nil, fmt.Errorf("status %q cannot be requested", to)
	}

	unlock := m.lockFinding(id)
	defer unlock()

	finding, ok := m.store.Get(id)
	if !ok {
		return nil, &NotFoundError{FindingID: id}
	}
	if !finding.Status.CanTransitionTo(to) {
		return nil, &InvalidTransitionError{FindingID: id, From: finding.Status, To: to}
	}

	now := m.now().UTC()
	finding.Status = to
	finding.HandlingHistory = append(finding.HandlingHistory, HandlingRecord{
		Handler: handler,
		Action:  "transition:" + string(to),
		Comment: comment,
		Time:    now,
	})
	if err := m.store.Save(finding); err != nil {
		return nil, fmt.Errorf("saving finding %s: %w", id, err)
	}

	m.logger.Info("finding transitioned",
		"finding_id", id,
		"status", to,
		"handler", handler,
	)
	return finding.Clone(), nil
}

// Assign sets the finding's handler and records the assignment. Only
// modifiable findings can be assigned.
func (m *Manager) Assign(id, assignee, assignedBy string) (*Finding, error) {
	unlock := m.lockFinding(id)
	defer unlock()

	finding, ok := m.store.Get(id)
	if !ok {
		return nil, &NotFoundError{FindingID: id}
	}
	if !finding.IsModifiable() {
		return nil, fmt.Errorf("finding %s is %s and no longer modifiable", id, finding.Status)
	}

	finding.Assignee = assignee
	finding.HandlingHistory = append(finding.HandlingHistory, HandlingRecord{
		Handler: assignedBy,
		Action:  "assign",
		Comment: "assigned to " + assignee,
		Time:    m.now().UTC(),
	})
	if err := m.store.Save(finding); err != nil {
		return nil, fmt.Errorf("saving finding %s: %w", id, err)
	}
	return finding.Clone(), nil
}

// Review records a reviewer decision on a finding in PENDING_REVIEW, moving
// it to RESOLVED or REJECTED.
func (m *Manager) Review(id, reviewer string, decision Status, comments string) (*Finding, error) {
	if decision != StatusResolved && decision != StatusRejected {
		return nil, fmt.Errorf("review decision must be %s or %s, got %q",
			StatusResolved, StatusRejected, decision)
	}

	unlock := m.lockFinding(id)
	defer unlock()

	finding, ok := m.store.Get(id)
	if !ok {
		return nil, &NotFoundError{FindingID: id}
	}
	if !finding.Status.CanTransitionTo(decision) {
		return nil, &InvalidTransitionError{FindingID: id, From: finding.Status, To: decision}
	}

	now := m.now().UTC()
	finding.Status = decision
	finding.Review = &Review{
		Reviewer: reviewer,
		Decision: decision,
		Comments: comments,
		Time:     now,
	}
	finding.HandlingHistory = append(finding.HandlingHistory, HandlingRecord{
		Handler: reviewer,
		Action:  "review:" + string(decision),
		Comment: comments,
		Time:    now,
	})
	if err := m.store.Save(finding); err != nil {
		return nil, fmt.Errorf("saving finding %s: %w", id, err)
	}

	m.logger.Info("finding reviewed",
		"finding_id", id,
		"decision", decision,
		"reviewer", reviewer,
	)
	return finding.Clone(), nil
}

// ExpireOverdue sweeps findings past their deadline into EXPIRED, appending a
// system handling record to each. It returns the expired findings.
func (m *Manager) ExpireOverdue(now time.Time) []*Finding {
	var expired []*Finding
	for _, candidate := range m.store.List() {
		id := candidate.ID

		unlock := m.lockFinding(id)
		finding, ok := m.store.Get(id)
		if !ok || !finding.IsOverdue(now) {
			unlock()
			continue
		}

		finding.Status = StatusExpired
		finding.HandlingHistory = append(finding.HandlingHistory, HandlingRecord{
			Handler: "system",
			Action:  "expire",
			Comment: fmt.Sprintf("deadline %s passed", finding.Deadline.Format(time.RFC3339)),
			Time:    m.now().UTC(),
		})
		if err := m.store.Save(finding); err != nil {
			m.logger.Error("saving expired finding failed", "finding_id", id, "error", err)
			unlock()
			continue
		}
		expired = append(expired, finding.Clone())
		unlock()

		m.logger.Warn("finding expired",
			"finding_id", id,
			"rule_code", finding.RuleCode,
			"severity", finding.Severity,
		)
	}
	return expired
}

// lockFinding returns an unlock function for the finding's serialization
// lock, creating it on first use.
func (m *Manager) lockFinding(id string) func() {
	m.mu.Lock()
	lock, ok := m.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[id] = lock
	}
	m.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
