package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration
// field.
type FieldError struct {
	// Field is the dotted path to the field (e.g. "rules.directory").
	Field string

	// Message is a human-readable error message.
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError collects all validation errors found in a configuration.
type ValidationError struct {
	Errors []FieldError
}

func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "configuration validation failed with %d errors:\n", len(e.Errors))
	for _, err := range e.Errors {
		fmt.Fprintf(&sb, "  - %s\n", err.Error())
	}
	return sb.String()
}

// Validate checks the configuration and returns a *ValidationError listing
// every violation, or nil when the configuration is valid.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateRules(&cfg.Rules)...)
	errs = append(errs, validateEngine(&cfg.Engine)...)
	errs = append(errs, validateExecutionLog(&cfg.ExecutionLog)...)
	errs = append(errs, validateAudit(&cfg.Audit)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

func validateRules(cfg *RulesConfig) []FieldError {
	var errs []FieldError
	if cfg.Directory == "" {
		errs = append(errs, FieldError{"rules.directory", "must not be empty"})
	}
	if cfg.DebounceDelay < 0 {
		errs = append(errs, FieldError{"rules.debounce_delay", "must not be negative"})
	}
	if cfg.MaxFileSize <= 0 {
		errs = append(errs, FieldError{"rules.max_file_size", "must be positive"})
	}
	return errs
}

func validateEngine(cfg *EngineConfig) []FieldError {
	var errs []FieldError
	if cfg.Environment == "" {
		errs = append(errs, FieldError{"engine.environment", "must not be empty"})
	}
	if cfg.MaxRules < 0 {
		errs = append(errs, FieldError{"engine.max_rules", "must not be negative"})
	}
	if cfg.MaxResultLength <= 0 {
		errs = append(errs, FieldError{"engine.max_result_length", "must be positive"})
	}
	return errs
}

func validateExecutionLog(cfg *ExecutionLogConfig) []FieldError {
	var errs []FieldError
	switch cfg.Backend {
	case "memory":
		if cfg.MaxEntries <= 0 {
			errs = append(errs, FieldError{"execution_log.max_entries", "must be positive"})
		}
	case "sqlite":
		if cfg.SQLite.Path == "" {
			errs = append(errs, FieldError{"execution_log.sqlite.path", "must not be empty"})
		}
		if cfg.SQLite.BusyTimeout < 0 {
			errs = append(errs, FieldError{"execution_log.sqlite.busy_timeout", "must not be negative"})
		}
		if cfg.SQLite.CheckpointInterval < 0 {
			errs = append(errs, FieldError{"execution_log.sqlite.checkpoint_interval", "must not be negative"})
		}
	default:
		errs = append(errs, FieldError{"execution_log.backend",
			fmt.Sprintf("must be %q or %q, got %q", "memory", "sqlite", cfg.Backend)})
	}
	return errs
}

func validateAudit(cfg *AuditConfig) []FieldError {
	var errs []FieldError
	if cfg.ExpirySchedule != "" {
		if _, err := cron.ParseStandard(cfg.ExpirySchedule); err != nil {
			errs = append(errs, FieldError{"audit.expiry_schedule",
				fmt.Sprintf("invalid cron schedule: %v", err)})
		}
	}
	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError
	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "warning", "error", "":
	default:
		errs = append(errs, FieldError{"telemetry.logging.level",
			fmt.Sprintf("must be debug, info, warn, or error, got %q", cfg.Logging.Level)})
	}
	switch strings.ToLower(cfg.Logging.Format) {
	case "json", "text", "":
	default:
		errs = append(errs, FieldError{"telemetry.logging.format",
			fmt.Sprintf("must be json or text, got %q", cfg.Logging.Format)})
	}
	if cfg.Metrics.Enabled && cfg.Metrics.ListenAddress == "" {
		errs = append(errs, FieldError{"telemetry.metrics.listen_address",
			"must not be empty when metrics are enabled"})
	}
	return errs
}
