package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"financialguard/sentinel/pkg/engine"
	"financialguard/sentinel/pkg/rules"
)

// Config controls metric registration.
type Config struct {
	// Namespace is the metric name prefix.
	Namespace string

	// Subsystem is the metric name sub-prefix.
	Subsystem string

	// ExecutionDurationBuckets overrides the histogram buckets for rule
	// execution duration.
	ExecutionDurationBuckets []float64
}

// Collector registers and records the engine's Prometheus metrics.
//
// Metrics:
//   - sentinel_engine_rule_executions_total: executions by rule code and status
//   - sentinel_engine_rule_execution_duration_seconds: per-rule execution duration
//   - sentinel_engine_findings_total: findings by severity
//   - sentinel_engine_ruleset_reloads_total: reloads by outcome
//   - sentinel_engine_ruleset_version: version of the active rule set
//   - sentinel_engine_ruleset_rules: rule count of the active rule set
type Collector struct {
	registry *prometheus.Registry

	executionsTotal   *prometheus.CounterVec
	executionDuration *prometheus.HistogramVec
	findingsTotal     *prometheus.CounterVec
	reloadsTotal      *prometheus.CounterVec
	rulesetVersion    prometheus.Gauge
	rulesetRules      prometheus.Gauge
}

var _ engine.Observer = (*Collector)(nil)

// NewCollector creates a collector and registers its metrics with the given
// registry. A nil registry gets a fresh one.
func NewCollector(cfg *Config, registry *prometheus.Registry) *Collector {
	if cfg == nil {
		cfg = &Config{}
	}
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "sentinel"
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = "engine"
	}
	if len(cfg.ExecutionDurationBuckets) == 0 {
		// Rule evaluations are in-memory and fast (1µs to ~16ms).
		cfg.ExecutionDurationBuckets = prometheus.ExponentialBuckets(0.000001, 2, 15)
	}

	c := &Collector{
		registry: registry,

		executionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "rule_executions_total",
				Help:      "Total number of rule executions",
			},
			[]string{"rule_code", "status"},
		),

		executionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "rule_execution_duration_seconds",
				Help:      "Duration of a single rule's execution in seconds",
				Buckets:   cfg.ExecutionDurationBuckets,
			},
			[]string{"rule_code"},
		),

		findingsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "findings_total",
				Help:      "Total number of findings produced, by severity",
			},
			[]string{"severity"},
		),

		reloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "ruleset_reloads_total",
				Help:      "Total number of rule set rebuild attempts, by outcome",
			},
			[]string{"status"},
		),

		rulesetVersion: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "ruleset_version",
				Help:      "Version number of the active compiled rule set",
			},
		),

		rulesetRules: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "ruleset_rules",
				Help:      "Number of rules in the active compiled rule set",
			},
		),
	}

	registry.MustRegister(
		c.executionsTotal,
		c.executionDuration,
		c.findingsTotal,
		c.reloadsTotal,
		c.rulesetVersion,
		c.rulesetRules,
	)

	return c
}

// Registry returns the registry the collector's metrics are registered with,
// for serving through promhttp.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveExecution records one rule's execution outcome and duration.
func (c *Collector) ObserveExecution(ruleCode string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	c.executionsTotal.WithLabelValues(ruleCode, status).Inc()
	c.executionDuration.WithLabelValues(ruleCode).Observe(duration.Seconds())
}

// ObserveFinding records one produced finding.
func (c *Collector) ObserveFinding(severity rules.Severity) {
	c.findingsTotal.WithLabelValues(string(severity)).Inc()
}

// ObserveReload records a rule set rebuild attempt. On success the active
// version and rule count gauges move to the new rule set.
func (c *Collector) ObserveReload(success bool, version uint64, ruleCount int) {
	if success {
		c.reloadsTotal.WithLabelValues("success").Inc()
		c.rulesetVersion.Set(float64(version))
		c.rulesetRules.Set(float64(ruleCount))
		return
	}
	c.reloadsTotal.WithLabelValues("failure").Inc()
}
