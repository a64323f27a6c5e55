package store

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"financialguard/sentinel/pkg/rules"
)

// Registry is thread-safe in-memory storage for rule definitions and
// templates, keyed by code. Rule codes are immutable once assigned: a second
// Register with the same code is rejected, and changes go through Update.
type Registry struct {
	mu          sync.RWMutex
	definitions map[string]*rules.RuleDefinition
	templates   map[string]*rules.RuleTemplate
	fingerprint string
	loadTime    time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		definitions: make(map[string]*rules.RuleDefinition),
		templates:   make(map[string]*rules.RuleTemplate),
		loadTime:    time.Now(),
	}
}

// Register adds a new rule definition. The definition is validated and a
// duplicate code is rejected. The registry stores its own copy.
func (r *Registry) Register(def *rules.RuleDefinition) error {
	if def == nil {
		return &rules.ValidationError{Message: "rule definition cannot be nil"}
	}
	if err := def.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.definitions[def.Code]; exists {
		return &rules.ValidationError{
			RuleCode: def.Code,
			Message:  "rule code already registered; codes are immutable",
		}
	}

	stored := def.Clone()
	if stored.Version == 0 {
		stored.Version = 1
	}
	now := time.Now().UTC()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now

	r.definitions[stored.Code] = stored
	r.updateFingerprint()
	return nil
}

// RegisterBatch adds multiple definitions. All are validated before any is
// stored, so a batch either registers wholesale or not at all.
func (r *Registry) RegisterBatch(defs []*rules.RuleDefinition) error {
	if len(defs) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]bool, len(defs))
	for _, def := range defs {
		if def == nil {
			return &rules.ValidationError{Message: "rule definition cannot be nil"}
		}
		if err := def.Validate(); err != nil {
			return err
		}
		if _, exists := r.definitions[def.Code]; exists {
			return &rules.ValidationError{
				RuleCode: def.Code,
				Message:  "rule code already registered; codes are immutable",
			}
		}
		if seen[def.Code] {
			return &rules.ValidationError{
				RuleCode: def.Code,
				Message:  "duplicate rule code within batch",
			}
		}
		seen[def.Code] = true
	}

	now := time.Now().UTC()
	for _, def := range defs {
		stored := def.Clone()
		if stored.Version == 0 {
			stored.Version = 1
		}
		if stored.CreatedAt.IsZero() {
			stored.CreatedAt = now
		}
		stored.UpdatedAt = now
		r.definitions[stored.Code] = stored
	}
	r.updateFingerprint()
	return nil
}

// Update replaces an existing definition. The code must already be
// registered and cannot change. The stored version is bumped.
func (r *Registry) Update(def *rules.RuleDefinition, updatedBy string) error {
	if def == nil {
		return &rules.ValidationError{Message: "rule definition cannot be nil"}
	}
	if err := def.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, exists := r.definitions[def.Code]
	if !exists {
		return &rules.ValidationError{
			RuleCode: def.Code,
			Message:  "rule not found",
		}
	}

	stored := def.Clone()
	stored.Version = current.Version + 1
	stored.CreatedAt = current.CreatedAt
	stored.UpdatedAt = time.Now().UTC()
	stored.UpdatedBy = updatedBy

	r.definitions[stored.Code] = stored
	r.updateFingerprint()
	return nil
}

// Unregister removes a definition by code.
func (r *Registry) Unregister(code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.definitions[code]; !exists {
		return &rules.ValidationError{RuleCode: code, Message: "rule not found"}
	}
	delete(r.definitions, code)
	r.updateFingerprint()
	return nil
}

// Get returns a copy of the definition with the given code.
func (r *Registry) Get(code string) (*rules.RuleDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.definitions[code]
	if !ok {
		return nil, false
	}
	return def.Clone(), true
}

// List returns copies of all definitions sorted by code.
func (r *Registry) List() []*rules.RuleDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	codes := make([]string, 0, len(r.definitions))
	for code := range r.definitions {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	defs := make([]*rules.RuleDefinition, 0, len(codes))
	for _, code := range codes {
		defs = append(defs, r.definitions[code].Clone())
	}
	return defs
}

// SetEnabled flips a definition's enabled flag, bumping its version. It
// reports whether the flag actually changed.
func (r *Registry) SetEnabled(code string, enabled bool, updatedBy string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	def, exists := r.definitions[code]
	if !exists {
		return false, &rules.ValidationError{RuleCode: code, Message: "rule not found"}
	}
	if def.Enabled == enabled {
		return false, nil
	}

	def.Enabled = enabled
	def.Version++
	def.UpdatedAt = time.Now().UTC()
	def.UpdatedBy = updatedBy
	r.updateFingerprint()
	return true, nil
}

// Enable enables a rule.
func (r *Registry) Enable(code string, updatedBy string) (bool, error) {
	return r.SetEnabled(code, true, updatedBy)
}

// Disable disables a rule.
func (r *Registry) Disable(code string, updatedBy string) (bool, error) {
	return r.SetEnabled(code, false, updatedBy)
}

// Snapshot returns copies of all enabled definitions sorted by code. Rebuilds
// compile from a snapshot, so later registry edits never affect a rebuild in
// progress.
func (r *Registry) Snapshot() []*rules.RuleDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	codes := make([]string, 0, len(r.definitions))
	for code, def := range r.definitions {
		if def.Enabled {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)

	defs := make([]*rules.RuleDefinition, 0, len(codes))
	for _, code := range codes {
		defs = append(defs, r.definitions[code].Clone())
	}
	return defs
}

// Count returns the number of registered definitions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.definitions)
}

// RegisterTemplate adds a rule template. Duplicate template ids are rejected.
func (r *Registry) RegisterTemplate(tmpl *rules.RuleTemplate) error {
	if tmpl == nil {
		return &rules.ValidationError{Message: "template cannot be nil"}
	}
	if err := tmpl.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.templates[tmpl.ID]; exists {
		return &rules.ValidationError{
			RuleCode: tmpl.ID,
			Message:  "template id already registered",
		}
	}

	stored := *tmpl
	if stored.Version == 0 {
		stored.Version = 1
	}
	now := time.Now().UTC()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	r.templates[tmpl.ID] = &stored
	return nil
}

// GetTemplate returns the template with the given id.
func (r *Registry) GetTemplate(id string) (*rules.RuleTemplate, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tmpl, ok := r.templates[id]
	if !ok {
		return nil, false
	}
	copied := *tmpl
	return &copied, true
}

// ListTemplates returns all templates sorted by id.
func (r *Registry) ListTemplates() []*rules.RuleTemplate {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.templates))
	for id := range r.templates {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	templates := make([]*rules.RuleTemplate, 0, len(ids))
	for _, id := range ids {
		copied := *r.templates[id]
		templates = append(templates, &copied)
	}
	return templates
}

// Fingerprint returns a short hash over all definition codes, versions, and
// enabled flags. It changes whenever the registry's effective content does.
func (r *Registry) Fingerprint() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fingerprint
}

// LoadTime returns when the registry content last changed.
func (r *Registry) LoadTime() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loadTime
}

// updateFingerprint recomputes the content hash. Caller holds the write lock.
func (r *Registry) updateFingerprint() {
	h := sha256.New()

	codes := make([]string, 0, len(r.definitions))
	for code := range r.definitions {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for _, code := range codes {
		def := r.definitions[code]
		h.Write([]byte(def.Code))
		h.Write([]byte(strconv.Itoa(def.Version)))
		h.Write([]byte(strconv.FormatBool(def.Enabled)))
	}

	r.fingerprint = fmt.Sprintf("%x", h.Sum(nil))[:16]
	r.loadTime = time.Now()
}
