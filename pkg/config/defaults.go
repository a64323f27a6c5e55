package config

import "time"

// Default values for configuration fields.
const (
	// Rules defaults
	DefaultRulesDirectory = "./rules"
	DefaultRulesWatch     = false
	DefaultDebounceDelay  = 500 * time.Millisecond
	DefaultMaxFileSize    = int64(1048576) // 1MB

	// Engine defaults
	DefaultEnvironment     = "development"
	DefaultMaxRules        = 0
	DefaultMaxResultLength = 500

	// Execution log defaults
	DefaultExecLogBackend    = "memory"
	DefaultExecLogMaxEntries = 10000
	DefaultSQLitePath        = "data/execlog.db"
	DefaultSQLiteBusyTimeout = 5 * time.Second
	DefaultSQLiteCheckpoint  = 5 * time.Minute

	// Audit defaults
	DefaultExpirySchedule = "*/5 * * * *"

	// Telemetry defaults
	DefaultLogLevel             = "info"
	DefaultLogFormat            = "json"
	DefaultMetricsEnabled       = true
	DefaultMetricsListenAddress = "127.0.0.1:9090"
	DefaultMetricsNamespace     = "sentinel"
	DefaultMetricsSubsystem     = "engine"
)

// Defaults returns a configuration populated with all default values.
// Loading unmarshals file contents over this, so absent keys keep their
// defaults, including booleans that default to true.
func Defaults() *Config {
	return &Config{
		Rules: RulesConfig{
			Directory:     DefaultRulesDirectory,
			Watch:         DefaultRulesWatch,
			DebounceDelay: DefaultDebounceDelay,
			MaxFileSize:   DefaultMaxFileSize,
		},
		Engine: EngineConfig{
			Environment:     DefaultEnvironment,
			MaxRules:        DefaultMaxRules,
			MaxResultLength: DefaultMaxResultLength,
		},
		ExecutionLog: ExecutionLogConfig{
			Backend:    DefaultExecLogBackend,
			MaxEntries: DefaultExecLogMaxEntries,
			SQLite: SQLiteConfig{
				Path:               DefaultSQLitePath,
				BusyTimeout:        DefaultSQLiteBusyTimeout,
				CheckpointInterval: DefaultSQLiteCheckpoint,
			},
		},
		Audit: AuditConfig{
			ExpirySchedule: DefaultExpirySchedule,
		},
		Telemetry: TelemetryConfig{
			Logging: LoggingConfig{
				Level:  DefaultLogLevel,
				Format: DefaultLogFormat,
			},
			Metrics: MetricsConfig{
				Enabled:       DefaultMetricsEnabled,
				ListenAddress: DefaultMetricsListenAddress,
				Namespace:     DefaultMetricsNamespace,
				Subsystem:     DefaultMetricsSubsystem,
			},
		},
	}
}
