package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"financialguard/sentinel/pkg/rules"
	"financialguard/sentinel/pkg/rules/compiler"
)

// CompiledRuleSet is an immutable, versioned bundle of compiled rules. It is
// never mutated after construction; rebuilds supersede it wholesale.
//
// The set is reference counted. The publisher holds one reference from
// publish until the set is superseded; each execution holds one for the
// duration of its call. When the count reaches zero the set is retired and
// its Retired channel closes.
type CompiledRuleSet struct {
	// Version is the monotonically increasing publish version.
	Version uint64

	// Rules maps rule code to compiled rule.
	Rules map[string]*compiler.CompiledRule

	// BuiltAt is when the set was constructed.
	BuiltAt time.Time

	codes      []string
	refs       atomic.Int64
	retireOnce sync.Once
	retired    chan struct{}
}

func newCompiledRuleSet(version uint64, compiled map[string]*compiler.CompiledRule) *CompiledRuleSet {
	codes := make([]string, 0, len(compiled))
	for code := range compiled {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	set := &CompiledRuleSet{
		Version: version,
		Rules:   compiled,
		BuiltAt: time.Now().UTC(),
		codes:   codes,
		retired: make(chan struct{}),
	}
	// The publisher's reference, released when the set is superseded.
	set.refs.Add(1)
	return set
}

// Codes returns the rule codes in the set, sorted.
func (s *CompiledRuleSet) Codes() []string {
	return append([]string(nil), s.codes...)
}

// Len returns the number of rules in the set.
func (s *CompiledRuleSet) Len() int {
	return len(s.Rules)
}

// Retired is closed once the set has been superseded and the last execution
// holding it has finished.
func (s *CompiledRuleSet) Retired() <-chan struct{} {
	return s.retired
}

// release drops one reference, retiring the set at zero.
func (s *CompiledRuleSet) release() {
	if s.refs.Add(-1) == 0 {
		s.retireOnce.Do(func() { close(s.retired) })
	}
}

// RebuildError aggregates the compile failures that aborted a rebuild.
type RebuildError struct {
	// Errors holds one *rules.CompileError per failed rule.
	Errors []error
}

// Error implements the error interface.
func (e *RebuildError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("rule set rebuild aborted: %v", e.Errors[0])
	}
	return fmt.Sprintf("rule set rebuild aborted: %d rules failed to compile (first: %v)",
		len(e.Errors), e.Errors[0])
}

// Unwrap returns the individual compile errors.
func (e *RebuildError) Unwrap() []error {
	return e.Errors
}

// Container owns the currently published CompiledRuleSet and exchanges it
// atomically. Readers acquire the current set without blocking; rebuilds
// never block on readers.
type Container struct {
	current  atomic.Pointer[CompiledRuleSet]
	version  atomic.Uint64
	maxRules int
	logger   *slog.Logger
	observer Observer

	// rebuildMu serializes rebuilds so versions publish in order.
	rebuildMu sync.Mutex
}

// NewContainer creates a container with an empty published rule set.
func NewContainer(config *Config, logger *slog.Logger, observer Observer) *Container {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if observer == nil {
		observer = NopObserver{}
	}

	c := &Container{
		maxRules: config.MaxRules,
		logger:   logger.With("component", "ruleset-container"),
		observer: observer,
	}
	c.current.Store(newCompiledRuleSet(c.version.Add(1), map[string]*compiler.CompiledRule{}))
	return c
}

// Rebuild compiles a snapshot of enabled definitions and publishes the result
// as a new rule set version. If any rule fails to compile the whole rebuild
// is aborted and the previously published set remains active.
func (c *Container) Rebuild(snapshot []*rules.RuleDefinition) (*CompiledRuleSet, error) {
	c.rebuildMu.Lock()
	defer c.rebuildMu.Unlock()

	if c.maxRules > 0 && len(snapshot) > c.maxRules {
		err := &RebuildError{Errors: []error{
			fmt.Errorf("snapshot has %d rules, exceeding the limit of %d", len(snapshot), c.maxRules),
		}}
		c.observer.ObserveReload(false, c.current.Load().Version, c.current.Load().Len())
		return nil, err
	}

	compiled := make(map[string]*compiler.CompiledRule, len(snapshot))
	var failures []error
	for _, def := range snapshot {
		rule, err := compiler.Compile(def)
		if err != nil {
			failures = append(failures, err)
			continue
		}
		if _, dup := compiled[rule.Code]; dup {
			failures = append(failures, &rules.CompileError{
				RuleCode: rule.Code,
				Message:  "duplicate rule code in snapshot",
			})
			continue
		}
		compiled[rule.Code] = rule
	}
	if len(failures) > 0 {
		active := c.current.Load()
		c.logger.Error("rule set rebuild aborted, previous version stays active",
			"failed_rules", len(failures),
			"active_version", active.Version,
			"error", failures[0],
		)
		c.observer.ObserveReload(false, active.Version, active.Len())
		return nil, &RebuildError{Errors: failures}
	}

	next := newCompiledRuleSet(c.version.Add(1), compiled)
	previous := c.current.Swap(next)
	if previous != nil {
		previous.release()
	}

	c.logger.Info("rule set published",
		"version", next.Version,
		"rules", next.Len(),
	)
	c.observer.ObserveReload(true, next.Version, next.Len())
	return next, nil
}

// Acquire returns the currently published set with a reference held. The
// caller must call Release when done.
func (c *Container) Acquire() *CompiledRuleSet {
	for {
		set := c.current.Load()
		set.refs.Add(1)
		// The set may have been superseded between the load and the
		// increment; re-check and retry so a retiring set is never
		// handed out.
		if c.current.Load() == set {
			return set
		}
		set.release()
	}
}

// Release returns a reference taken by Acquire.
func (c *Container) Release(set *CompiledRuleSet) {
	if set != nil {
		set.release()
	}
}

// Current returns the published set's version and rule count without
// acquiring a reference.
func (c *Container) Current() (version uint64, ruleCount int) {
	set := c.current.Load()
	return set.Version, set.Len()
}

// ValidateSnapshot dry-run compiles a snapshot without publishing. It reports
// the same failures Rebuild would, wrapped as *rules.ValidationError.
func (c *Container) ValidateSnapshot(snapshot []*rules.RuleDefinition) error {
	var failures []error
	for _, def := range snapshot {
		if err := compiler.ValidateDefinition(def); err != nil {
			failures = append(failures, err)
		}
	}
	if len(failures) > 0 {
		return errors.Join(failures...)
	}
	return nil
}
