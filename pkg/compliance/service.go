package compliance

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"financialguard/sentinel/pkg/audit"
	"financialguard/sentinel/pkg/audit/evidence"
	"financialguard/sentinel/pkg/config"
	"financialguard/sentinel/pkg/engine"
	"financialguard/sentinel/pkg/execlog"
	"financialguard/sentinel/pkg/rules"
	"financialguard/sentinel/pkg/rules/compiler"
	"financialguard/sentinel/pkg/rules/store"
)

// Service is the compliance rule engine facade. Rule management operations
// that change the active set trigger an all-or-nothing rebuild: a failed
// rebuild reports the error and leaves the previously published rule set
// serving executions.
type Service struct {
	config *config.Config
	logger *slog.Logger

	// registry is swapped wholesale on directory reloads; reads go
	// through the atomic pointer, mutations additionally hold mu.
	registry  atomic.Pointer[store.Registry]
	loader    *store.Loader
	container *engine.Container
	engine    *engine.Engine
	execLog   execlog.Store
	findings  *audit.Manager
	tracer    *evidence.Tracer
	sweeper   *audit.ExpirySweeper

	mu      sync.Mutex
	watcher *store.Watcher
	started bool
}

// New builds a service from the configuration. A nil observer disables
// metrics.
func New(cfg *config.Config, logger *slog.Logger, observer engine.Observer) (*Service, error) {
	if cfg == nil {
		cfg = config.Defaults()
	}
	if logger == nil {
		logger = slog.Default()
	}

	engineCfg := &engine.Config{
		Environment:     cfg.Engine.Environment,
		MaxResultLength: cfg.Engine.MaxResultLength,
		MaxRules:        cfg.Engine.MaxRules,
	}
	container := engine.NewContainer(engineCfg, logger, observer)
	eng, err := engine.New(container, engineCfg, logger, observer)
	if err != nil {
		return nil, fmt.Errorf("building execution engine: %w", err)
	}

	execLog, err := newExecLogStore(&cfg.ExecutionLog)
	if err != nil {
		return nil, fmt.Errorf("building execution log store: %w", err)
	}

	findings := audit.NewManager(nil, logger)

	s := &Service{
		config: cfg,
		logger: logger.With("component", "compliance-service"),

		loader: store.NewLoader(&store.LoaderConfig{
			MaxFileSize: cfg.Rules.MaxFileSize,
			Extensions:  []string{".yaml", ".yml"},
		}),
		container: container,
		engine:    eng,
		execLog:   execLog,
		findings:  findings,
		tracer:    evidence.NewTracer(logger),
		sweeper:   audit.NewExpirySweeper(findings, cfg.Audit.ExpirySchedule),
	}
	s.registry.Store(store.NewRegistry())
	return s, nil
}

func newExecLogStore(cfg *config.ExecutionLogConfig) (execlog.Store, error) {
	switch cfg.Backend {
	case "sqlite":
		return execlog.NewSQLiteStoreWithConfig(execlog.SQLiteStoreConfig{
			DBPath:             cfg.SQLite.Path,
			BusyTimeout:        cfg.SQLite.BusyTimeout,
			CheckpointInterval: cfg.SQLite.CheckpointInterval,
		})
	case "memory", "":
		return execlog.NewMemoryStore(cfg.MaxEntries), nil
	}
	return nil, fmt.Errorf("unknown execution log backend %q", cfg.Backend)
}

// Start loads rules from the configured directory, publishes the first rule
// set, and starts the expiry sweeper and, when configured, the rule file
// watcher. Start is not required for services driven purely through the
// management API.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("service already started")
	}

	if err := s.loadDirectory(); err != nil {
		return err
	}

	if err := s.sweeper.Start(ctx); err != nil {
		return fmt.Errorf("starting expiry sweeper: %w", err)
	}

	if s.config.Rules.Watch {
		watcher, err := store.NewWatcher(&store.WatcherConfig{
			Path:             s.config.Rules.Directory,
			DebounceInterval: s.config.Rules.DebounceDelay,
			Extensions:       []string{".yaml", ".yml"},
		}, s.logger)
		if err != nil {
			return fmt.Errorf("creating rule watcher: %w", err)
		}
		s.watcher = watcher
		go func() {
			if err := watcher.Watch(ctx, s.Reload); err != nil && ctx.Err() == nil {
				s.logger.Error("rule watcher stopped", "error", err)
			}
		}()
	}

	s.started = true
	s.logger.Info("compliance service started",
		"rules", s.registry.Load().Count(),
		"watch", s.config.Rules.Watch,
	)
	return nil
}

// Close stops the watcher and sweeper and closes the execution log store.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.watcher != nil {
		if err := s.watcher.Stop(); err != nil {
			s.logger.Warn("stopping rule watcher failed", "error", err)
		}
		s.watcher = nil
	}
	s.sweeper.Stop()
	s.started = false
	return s.execLog.Close()
}

// loadDirectory loads definitions and templates from the rules directory
// into the registry and publishes them. Per-file load failures are logged
// and skipped so one bad file does not block the rest.
func (s *Service) loadDirectory() error {
	result, err := s.loader.LoadDirectory(s.config.Rules.Directory)
	if err != nil {
		return fmt.Errorf("loading rules from %s: %w", s.config.Rules.Directory, err)
	}
	for _, loadErr := range result.Errors {
		s.logger.Warn("rule file skipped", "error", loadErr)
	}

	fresh := store.NewRegistry()
	for _, tmpl := range result.Templates {
		if err := fresh.RegisterTemplate(tmpl); err != nil {
			return fmt.Errorf("registering template %s: %w", tmpl.ID, err)
		}
	}
	if err := fresh.RegisterBatch(result.Definitions); err != nil {
		return fmt.Errorf("registering loaded rules: %w", err)
	}

	if _, err := s.container.Rebuild(fresh.Snapshot()); err != nil {
		return err
	}
	s.registry.Store(fresh)
	return nil
}

// Reload re-reads the rules directory and publishes the result as a new rule
// set. A failed reload keeps both the previous registry contents and the
// previously published rule set.
func (s *Service) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadDirectory()
}

// rebuild publishes the registry's current enabled rules as a new rule set.
func (s *Service) rebuild() error {
	_, err := s.container.Rebuild(s.registry.Load().Snapshot())
	return err
}

// RegisterRule adds a single rule and publishes a new rule set including it.
// A rule that fails to compile is removed again, leaving the service as it
// was.
func (s *Service) RegisterRule(def *rules.RuleDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.registry.Load().Register(def); err != nil {
		return err
	}
	if err := s.rebuild(); err != nil {
		if uerr := s.registry.Load().Unregister(def.Code); uerr != nil {
			s.logger.Error("rolling back rule registration failed", "rule_code", def.Code, "error", uerr)
		}
		return err
	}
	return nil
}

// RegisterRules adds a batch of rules atomically: either all are registered
// and published, or none are.
func (s *Service) RegisterRules(defs []*rules.RuleDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.registry.Load().RegisterBatch(defs); err != nil {
		return err
	}
	if err := s.rebuild(); err != nil {
		for _, def := range defs {
			if uerr := s.registry.Load().Unregister(def.Code); uerr != nil {
				s.logger.Error("rolling back batch registration failed", "rule_code", def.Code, "error", uerr)
			}
		}
		return err
	}
	return nil
}

// UpdateRule replaces a rule's definition, bumping its version, and
// publishes a new rule set.
func (s *Service) UpdateRule(def *rules.RuleDefinition, updatedBy string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, ok := s.registry.Load().Get(def.Code)
	if !ok {
		return &rules.ValidationError{RuleCode: def.Code, Message: "rule not registered"}
	}
	if err := s.registry.Load().Update(def, updatedBy); err != nil {
		return err
	}
	if err := s.rebuild(); err != nil {
		if uerr := s.registry.Load().Update(previous, previous.UpdatedBy); uerr != nil {
			s.logger.Error("rolling back rule update failed", "rule_code", def.Code, "error", uerr)
		}
		return err
	}
	return nil
}

// RemoveRule unregisters a rule and publishes a rule set without it.
func (s *Service) RemoveRule(code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.registry.Load().Unregister(code); err != nil {
		return err
	}
	return s.rebuild()
}

// EnableRule enables a disabled rule and publishes a rule set including it.
// Enabling an already enabled rule is a no-op.
func (s *Service) EnableRule(code, updatedBy string) error {
	return s.setEnabled(code, true, updatedBy)
}

// DisableRule disables a rule and publishes a rule set without it. In-flight
// executions that acquired the previous set still run the rule to completion.
func (s *Service) DisableRule(code, updatedBy string) error {
	return s.setEnabled(code, false, updatedBy)
}

func (s *Service) setEnabled(code string, enabled bool, updatedBy string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed, err := s.registry.Load().SetEnabled(code, enabled, updatedBy)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	if err := s.rebuild(); err != nil {
		if _, rerr := s.registry.Load().SetEnabled(code, !enabled, updatedBy); rerr != nil {
			s.logger.Error("rolling back enable toggle failed", "rule_code", code, "error", rerr)
		}
		return err
	}
	return nil
}

// GetRule returns the rule with the given code.
func (s *Service) GetRule(code string) (*rules.RuleDefinition, bool) {
	return s.registry.Load().Get(code)
}

// ListRules returns all registered rules, enabled or not.
func (s *Service) ListRules() []*rules.RuleDefinition {
	return s.registry.Load().List()
}

// ValidateRule dry-run compiles a rule without registering or publishing it.
func (s *Service) ValidateRule(def *rules.RuleDefinition) error {
	return compiler.ValidateDefinition(def)
}

// RegisterTemplate adds a rule template. Templates never execute; they only
// produce definitions through InstantiateTemplate.
func (s *Service) RegisterTemplate(tmpl *rules.RuleTemplate) error {
	return s.registry.Load().RegisterTemplate(tmpl)
}

// GetTemplate returns the template with the given id.
func (s *Service) GetTemplate(id string) (*rules.RuleTemplate, bool) {
	return s.registry.Load().GetTemplate(id)
}

// ListTemplates returns all registered templates.
func (s *Service) ListTemplates() []*rules.RuleTemplate {
	return s.registry.Load().ListTemplates()
}

// InstantiateTemplate produces a concrete rule from a template and registers
// and publishes it.
func (s *Service) InstantiateTemplate(templateID, code, name string, params map[string]any) (*rules.RuleDefinition, error) {
	tmpl, ok := s.registry.Load().GetTemplate(templateID)
	if !ok {
		return nil, fmt.Errorf("template %s not registered", templateID)
	}
	def, err := tmpl.Instantiate(code, name, params)
	if err != nil {
		return nil, err
	}
	if err := s.RegisterRule(def); err != nil {
		return nil, err
	}
	return def, nil
}

// ExecutionReport is the outcome of one Execute call.
type ExecutionReport struct {
	// Findings holds the findings created from matched rules, in PENDING
	// state with severity-derived deadlines.
	Findings []*audit.Finding

	// Log holds one entry per rule attempted.
	Log []execlog.Entry

	// RuleSetVersion is the compiled rule set version the call ran
	// against.
	RuleSetVersion uint64

	// Risk scores the created findings, severity-weighted.
	Risk audit.RiskAssessment
}

// Execute runs the active rule set against the facts, persists the execution
// log, and opens findings for every match. Individual rule failures are
// isolated in the log; they never fail the call.
func (s *Service) Execute(ctx context.Context, facts []*rules.Fact, executor string) (*ExecutionReport, error) {
	result, err := s.engine.Execute(ctx, facts, executor)
	if err != nil {
		return nil, err
	}

	if err := s.execLog.Append(ctx, result.Log...); err != nil {
		// Execution already happened; losing log persistence is worth
		// surfacing but not worth discarding findings over.
		s.logger.Error("persisting execution log failed", "error", err, "entries", len(result.Log))
	}

	findings, err := s.findings.CreateFindings(result.Findings)
	if err != nil {
		return nil, fmt.Errorf("creating findings: %w", err)
	}

	return &ExecutionReport{
		Findings:       findings,
		Log:            result.Log,
		RuleSetVersion: result.RuleSetVersion,
		Risk:           audit.AssessRisk(findings),
	}, nil
}

// ExecutionHistory returns persisted execution log entries matching the
// filter, most recent first.
func (s *Service) ExecutionHistory(ctx context.Context, filter execlog.Filter) ([]execlog.Entry, error) {
	return s.execLog.Query(ctx, filter)
}

// RuleStats aggregates execution history for one rule code.
func (s *Service) RuleStats(ctx context.Context, ruleCode string) (*execlog.Stats, error) {
	return s.execLog.Stats(ctx, ruleCode)
}

// RuleSetVersion returns the active rule set's version and rule count.
func (s *Service) RuleSetVersion() (version uint64, ruleCount int) {
	return s.container.Current()
}

// GetFinding returns the finding with the given id.
func (s *Service) GetFinding(id string) (*audit.Finding, error) {
	return s.findings.Get(id)
}

// ListFindings returns all findings, oldest first.
func (s *Service) ListFindings() []*audit.Finding {
	return s.findings.List()
}

// TransitionFinding moves a finding along the handling lifecycle.
func (s *Service) TransitionFinding(id string, to audit.Status, handler, comment string) (*audit.Finding, error) {
	return s.findings.Transition(id, to, handler, comment)
}

// AssignFinding sets the finding's handler.
func (s *Service) AssignFinding(id, assignee, assignedBy string) (*audit.Finding, error) {
	return s.findings.Assign(id, assignee, assignedBy)
}

// ReviewFinding records a reviewer decision on a finding in PENDING_REVIEW.
func (s *Service) ReviewFinding(id, reviewer string, decision audit.Status, comments string) (*audit.Finding, error) {
	return s.findings.Review(id, reviewer, decision, comments)
}

// ExpireOverdueFindings sweeps findings past their deadline into EXPIRED.
// The sweeper runs this on a schedule; the method exists for manual sweeps.
func (s *Service) ExpireOverdueFindings() []*audit.Finding {
	return s.findings.ExpireOverdue(time.Now())
}

// AttachEvidence appends evidence to a finding's hash-linked chain. The
// finding must exist.
func (s *Service) AttachEvidence(findingID, evidenceType, source string, content any, collector string) (*evidence.Evidence, error) {
	if _, err := s.findings.Get(findingID); err != nil {
		return nil, err
	}
	return s.tracer.Attach(findingID, evidenceType, source, content, collector)
}

// EvidenceChain returns a finding's evidence chain.
func (s *Service) EvidenceChain(findingID string) (*evidence.Chain, error) {
	return s.tracer.Chain(findingID)
}

// VerifyEvidenceChain recomputes a finding's evidence hashes and reports any
// integrity violation.
func (s *Service) VerifyEvidenceChain(findingID string) error {
	return s.tracer.Verify(findingID)
}

// ConcludeEvidenceChain records the closing summary on a verified chain.
func (s *Service) ConcludeEvidenceChain(findingID, conclusion, riskLevel, reviewer string) (*evidence.Chain, error) {
	return s.tracer.Conclude(findingID, conclusion, riskLevel, reviewer)
}
