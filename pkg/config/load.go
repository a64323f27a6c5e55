package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file. Values absent from the
// file keep their defaults; the result is validated before being returned.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and then
// applies SENTINEL_* environment variable overrides. Environment variables
// always take precedence over file values.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides using the format
// SENTINEL_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("SENTINEL_RULES_DIRECTORY"); val != "" {
		cfg.Rules.Directory = val
	}
	if val := os.Getenv("SENTINEL_RULES_WATCH"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Rules.Watch = b
		}
	}
	if val := os.Getenv("SENTINEL_RULES_DEBOUNCE_DELAY"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Rules.DebounceDelay = d
		}
	}

	if val := os.Getenv("SENTINEL_ENGINE_ENVIRONMENT"); val != "" {
		cfg.Engine.Environment = val
	}
	if val := os.Getenv("SENTINEL_ENGINE_MAX_RULES"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Engine.MaxRules = i
		}
	}
	if val := os.Getenv("SENTINEL_ENGINE_MAX_RESULT_LENGTH"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Engine.MaxResultLength = i
		}
	}

	if val := os.Getenv("SENTINEL_EXECUTION_LOG_BACKEND"); val != "" {
		cfg.ExecutionLog.Backend = val
	}
	if val := os.Getenv("SENTINEL_EXECUTION_LOG_MAX_ENTRIES"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.ExecutionLog.MaxEntries = i
		}
	}
	if val := os.Getenv("SENTINEL_EXECUTION_LOG_SQLITE_PATH"); val != "" {
		cfg.ExecutionLog.SQLite.Path = val
	}

	if val := os.Getenv("SENTINEL_AUDIT_EXPIRY_SCHEDULE"); val != "" {
		cfg.Audit.ExpirySchedule = val
	}

	if val := os.Getenv("SENTINEL_TELEMETRY_LOG_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("SENTINEL_TELEMETRY_LOG_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("SENTINEL_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("SENTINEL_TELEMETRY_METRICS_LISTEN_ADDRESS"); val != "" {
		cfg.Telemetry.Metrics.ListenAddress = val
	}
}
