package audit

import (
	"sort"
	"sync"
)

// Store persists findings. The manager is the only writer; implementations
// must be safe for concurrent use.
type Store interface {
	// Save inserts or replaces a finding.
	Save(finding *Finding) error

	// Get returns the finding with the given id.
	Get(id string) (*Finding, bool)

	// List returns all findings sorted by creation time, oldest first.
	List() []*Finding
}

// MemoryStore is the in-memory Store used by default. Findings are stored by
// reference; the manager owns copying at its boundaries.
type MemoryStore struct {
	mu       sync.RWMutex
	findings map[string]*Finding
}

// NewMemoryStore creates an empty memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{findings: make(map[string]*Finding)}
}

// Save inserts or replaces a finding.
func (s *MemoryStore) Save(finding *Finding) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findings[finding.ID] = finding
	return nil
}

// Get returns the finding with the given id.
func (s *MemoryStore) Get(id string) (*Finding, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	finding, ok := s.findings[id]
	return finding, ok
}

// List returns all findings sorted by creation time, oldest first.
func (s *MemoryStore) List() []*Finding {
	s.mu.RLock()
	defer s.mu.RUnlock()

	findings := make([]*Finding, 0, len(s.findings))
	for _, finding := range s.findings {
		findings = append(findings, finding)
	}
	sort.Slice(findings, func(i, j int) bool {
		if findings[i].CreatedAt.Equal(findings[j].CreatedAt) {
			return findings[i].ID < findings[j].ID
		}
		return findings[i].CreatedAt.Before(findings[j].CreatedAt)
	})
	return findings
}
