package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"financialguard/sentinel/pkg/execlog"
	"financialguard/sentinel/pkg/rules"
	"financialguard/sentinel/pkg/rules/compiler"
)

// Result is the outcome of one execution call.
type Result struct {
	// Findings holds the raw findings from all matched rules.
	Findings []rules.RawFinding

	// Log holds one entry per rule attempted, success or failure.
	Log []execlog.Entry

	// RuleSetVersion is the compiled rule set version the call ran
	// against. Every finding and log entry of the call is attributable to
	// this single version.
	RuleSetVersion uint64
}

// Engine matches fact collections against the currently published rule set.
// It is safe for concurrent use; each call acquires the current set once and
// holds it for the call's duration, so a reload mid-call never mixes rule
// versions within a run.
type Engine struct {
	container *Container
	config    *Config
	logger    *slog.Logger
	observer  Observer
}

// New creates an execution engine reading from the given container.
func New(container *Container, config *Config, logger *slog.Logger, observer Observer) (*Engine, error) {
	if container == nil {
		return nil, fmt.Errorf("container cannot be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if observer == nil {
		observer = NopObserver{}
	}

	return &Engine{
		container: container,
		config:    config,
		logger:    logger.With("component", "execution-engine"),
		observer:  observer,
	}, nil
}

// Execute runs every rule in the current set against the facts. A single
// rule's evaluation error becomes a failed log entry and does not prevent
// other rules from running; the call itself only fails on empty input.
func (e *Engine) Execute(ctx context.Context, facts []*rules.Fact, executor string) (*Result, error) {
	if len(facts) == 0 {
		return nil, fmt.Errorf("facts cannot be empty")
	}
	// Once started the call runs to completion; cancellation mid-run is
	// the execution driver's concern.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	set := e.container.Acquire()
	defer e.container.Release(set)

	result := &Result{RuleSetVersion: set.Version}

	for _, code := range set.codes {
		rule := set.Rules[code]
		entry := e.runRule(rule, facts, executor, set.Version, result)
		result.Log = append(result.Log, entry)
	}

	e.logger.Debug("execution finished",
		"rule_set_version", set.Version,
		"facts", len(facts),
		"rules", len(set.codes),
		"findings", len(result.Findings),
	)
	return result, nil
}

// runRule evaluates one rule against all facts, appending findings to the
// result and returning the rule's log entry.
func (e *Engine) runRule(rule *compiler.CompiledRule, facts []*rules.Fact, executor string, setVersion uint64, result *Result) execlog.Entry {
	started := time.Now()
	entry := execlog.Entry{
		ID:             uuid.NewString(),
		RuleCode:       rule.Code,
		RuleName:       rule.Name,
		StartedAt:      started,
		Status:         execlog.StatusSuccess,
		Executor:       executor,
		Environment:    e.config.Environment,
		RuleVersion:    rule.Version,
		RuleSetVersion: setVersion,
	}

	emitted := 0
	var ruleErr error
	for _, fact := range facts {
		findings, err := rule.Apply(fact)
		if err != nil {
			ruleErr = err
			break
		}
		for _, finding := range findings {
			result.Findings = append(result.Findings, finding)
			e.observer.ObserveFinding(finding.Severity)
		}
		emitted += len(findings)
	}

	entry.FinishedAt = time.Now()
	entry.Duration = entry.FinishedAt.Sub(started)

	if ruleErr != nil {
		entry.Status = execlog.StatusFailure
		entry.Error = e.truncate(ruleErr.Error())
		e.logger.Warn("rule execution failed, isolated",
			"rule_code", entry.RuleCode,
			"error", ruleErr,
		)
	} else {
		entry.Result = e.truncate(fmt.Sprintf("evaluated %d facts, %d findings", len(facts), emitted))
	}

	e.observer.ObserveExecution(entry.RuleCode, ruleErr == nil, entry.Duration)
	return entry
}

func (e *Engine) truncate(s string) string {
	max := e.config.MaxResultLength
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max]
}
