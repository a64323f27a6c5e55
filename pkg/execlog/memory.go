package execlog

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps execution log entries in memory. It is the default store
// for tests and ephemeral runs; history is lost on restart.
type MemoryStore struct {
	mu         sync.RWMutex
	entries    []Entry
	maxEntries int
}

// NewMemoryStore creates a memory store retaining at most maxEntries entries;
// zero or negative means unbounded. The oldest entries are dropped first.
func NewMemoryStore(maxEntries int) *MemoryStore {
	return &MemoryStore{maxEntries: maxEntries}
}

// Append records entries from one execution call.
func (s *MemoryStore) Append(_ context.Context, entries ...Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entry := range entries {
		if entry.ID == "" {
			entry.ID = uuid.NewString()
		}
		s.entries = append(s.entries, entry)
	}
	if s.maxEntries > 0 && len(s.entries) > s.maxEntries {
		overflow := len(s.entries) - s.maxEntries
		s.entries = append([]Entry(nil), s.entries[overflow:]...)
	}
	return nil
}

// Query returns entries matching the filter, most recent first.
func (s *MemoryStore) Query(_ context.Context, filter Filter) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []Entry
	for i := len(s.entries) - 1; i >= 0; i-- {
		entry := s.entries[i]
		if !matches(entry, filter) {
			continue
		}
		matched = append(matched, entry)
	}

	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return nil, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

// Stats aggregates execution history for one rule code.
func (s *MemoryStore) Stats(_ context.Context, ruleCode string) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &Stats{RuleCode: ruleCode}
	var total time.Duration
	for _, entry := range s.entries {
		if entry.RuleCode != ruleCode {
			continue
		}
		stats.Total++
		if entry.Status == StatusFailure {
			stats.Failures++
		}
		total += entry.Duration
		if entry.Duration > stats.MaxDuration {
			stats.MaxDuration = entry.Duration
		}
		if entry.StartedAt.After(stats.LastExecution) {
			stats.LastExecution = entry.StartedAt
		}
	}
	if stats.Total > 0 {
		stats.AvgDuration = total / time.Duration(stats.Total)
	}
	return stats, nil
}

// Close releases the store's resources.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	return nil
}

func matches(entry Entry, filter Filter) bool {
	if filter.RuleCode != "" && entry.RuleCode != filter.RuleCode {
		return false
	}
	if filter.Status != "" && entry.Status != filter.Status {
		return false
	}
	if !filter.Since.IsZero() && entry.StartedAt.Before(filter.Since) {
		return false
	}
	if !filter.Until.IsZero() && entry.StartedAt.After(filter.Until) {
		return false
	}
	return true
}
