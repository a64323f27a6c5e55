package config

import "time"

// Config is the root configuration structure for Sentinel.
type Config struct {
	// Rules configures where rule definitions are loaded from and whether
	// the directory is watched for changes.
	Rules RulesConfig `yaml:"rules"`

	// Engine configures the rule execution engine.
	Engine EngineConfig `yaml:"engine"`

	// ExecutionLog configures where execution log entries are persisted.
	ExecutionLog ExecutionLogConfig `yaml:"execution_log"`

	// Audit configures the finding lifecycle, including deadline expiry.
	Audit AuditConfig `yaml:"audit"`

	// Telemetry configures logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// RulesConfig configures the rule definition source.
type RulesConfig struct {
	// Directory is the directory holding rule definition YAML files.
	// Default: "./rules"
	Directory string `yaml:"directory"`

	// Watch enables reloading the rule set when files in Directory change.
	// Default: false
	Watch bool `yaml:"watch"`

	// DebounceDelay is how long to wait after a filesystem event before
	// reloading, collapsing editor write bursts into one reload.
	// Default: 500ms
	DebounceDelay time.Duration `yaml:"debounce_delay"`

	// MaxFileSize is the largest rule file accepted, in bytes.
	// Default: 1048576 (1MB)
	MaxFileSize int64 `yaml:"max_file_size"`
}

// EngineConfig configures rule execution.
type EngineConfig struct {
	// Environment tags execution log entries (e.g. "production").
	// Default: "development"
	Environment string `yaml:"environment"`

	// MaxRules caps the number of rules in a compiled rule set. Zero
	// means no cap.
	// Default: 0
	MaxRules int `yaml:"max_rules"`

	// MaxResultLength truncates result and error text stored per
	// execution log entry.
	// Default: 500
	MaxResultLength int `yaml:"max_result_length"`
}

// ExecutionLogConfig configures execution log persistence.
type ExecutionLogConfig struct {
	// Backend selects the store: "memory" or "sqlite".
	// Default: "memory"
	Backend string `yaml:"backend"`

	// MaxEntries bounds the memory backend; the oldest entries are
	// dropped past the bound.
	// Default: 10000
	MaxEntries int `yaml:"max_entries"`

	// SQLite configures the sqlite backend.
	SQLite SQLiteConfig `yaml:"sqlite"`
}

// SQLiteConfig configures the SQLite execution log store.
type SQLiteConfig struct {
	// Path is the database file path.
	// Default: "data/execlog.db"
	Path string `yaml:"path"`

	// BusyTimeout is how long a locked database is retried.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`

	// CheckpointInterval is how often the WAL is checkpointed. Zero
	// disables periodic checkpoints.
	// Default: 5m
	CheckpointInterval time.Duration `yaml:"checkpoint_interval"`
}

// AuditConfig configures the finding lifecycle.
type AuditConfig struct {
	// ExpirySchedule is the cron schedule for sweeping overdue findings
	// into EXPIRED. Empty disables the sweeper.
	// Default: "*/5 * * * *"
	ExpirySchedule string `yaml:"expiry_schedule"`
}

// TelemetryConfig configures observability.
type TelemetryConfig struct {
	// Logging configures the structured logger.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the output format: "json" or "text".
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected and served.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// ListenAddress is the address the metrics endpoint listens on.
	// Default: "127.0.0.1:9090"
	ListenAddress string `yaml:"listen_address"`

	// Namespace is the metric name prefix.
	// Default: "sentinel"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric name sub-prefix.
	// Default: "engine"
	Subsystem string `yaml:"subsystem"`
}
