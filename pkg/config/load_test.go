package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sentinel.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	return path
}

func TestLoadConfig_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
rules:
  directory: /etc/sentinel/rules
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Rules.Directory != "/etc/sentinel/rules" {
		t.Errorf("rules.directory = %q, want override", cfg.Rules.Directory)
	}
	if cfg.Rules.DebounceDelay != DefaultDebounceDelay {
		t.Errorf("rules.debounce_delay = %v, want default %v", cfg.Rules.DebounceDelay, DefaultDebounceDelay)
	}
	if cfg.Engine.Environment != DefaultEnvironment {
		t.Errorf("engine.environment = %q, want default %q", cfg.Engine.Environment, DefaultEnvironment)
	}
	if cfg.ExecutionLog.Backend != DefaultExecLogBackend {
		t.Errorf("execution_log.backend = %q, want default %q", cfg.ExecutionLog.Backend, DefaultExecLogBackend)
	}
	if !cfg.Telemetry.Metrics.Enabled {
		t.Error("telemetry.metrics.enabled default lost during load")
	}
}

func TestLoadConfig_FullFile(t *testing.T) {
	path := writeConfig(t, `
rules:
  directory: ./compliance-rules
  watch: true
  debounce_delay: 2s
engine:
  environment: production
  max_rules: 200
  max_result_length: 1000
execution_log:
  backend: sqlite
  sqlite:
    path: /var/lib/sentinel/execlog.db
    busy_timeout: 10s
audit:
  expiry_schedule: "0 * * * *"
telemetry:
  logging:
    level: debug
    format: text
  metrics:
    enabled: false
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if !cfg.Rules.Watch {
		t.Error("rules.watch not loaded")
	}
	if cfg.Rules.DebounceDelay != 2*time.Second {
		t.Errorf("rules.debounce_delay = %v, want 2s", cfg.Rules.DebounceDelay)
	}
	if cfg.Engine.Environment != "production" || cfg.Engine.MaxRules != 200 {
		t.Errorf("engine section = %+v, not loaded", cfg.Engine)
	}
	if cfg.ExecutionLog.Backend != "sqlite" {
		t.Errorf("execution_log.backend = %q, want sqlite", cfg.ExecutionLog.Backend)
	}
	if cfg.ExecutionLog.SQLite.Path != "/var/lib/sentinel/execlog.db" {
		t.Errorf("execution_log.sqlite.path = %q, not loaded", cfg.ExecutionLog.SQLite.Path)
	}
	if cfg.Audit.ExpirySchedule != "0 * * * *" {
		t.Errorf("audit.expiry_schedule = %q, not loaded", cfg.Audit.ExpirySchedule)
	}
	if cfg.Telemetry.Logging.Level != "debug" || cfg.Telemetry.Logging.Format != "text" {
		t.Errorf("telemetry.logging = %+v, not loaded", cfg.Telemetry.Logging)
	}
	if cfg.Telemetry.Metrics.Enabled {
		t.Error("telemetry.metrics.enabled = true, want explicit false")
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("LoadConfig on missing file succeeded")
	}
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "rules: [not a mapping")
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("LoadConfig on malformed YAML succeeded")
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
engine:
  environment: staging
`)

	t.Setenv("SENTINEL_ENGINE_ENVIRONMENT", "production")
	t.Setenv("SENTINEL_RULES_WATCH", "true")
	t.Setenv("SENTINEL_EXECUTION_LOG_BACKEND", "sqlite")
	t.Setenv("SENTINEL_EXECUTION_LOG_SQLITE_PATH", "/tmp/override.db")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides: %v", err)
	}

	if cfg.Engine.Environment != "production" {
		t.Errorf("engine.environment = %q, want env override", cfg.Engine.Environment)
	}
	if !cfg.Rules.Watch {
		t.Error("rules.watch env override not applied")
	}
	if cfg.ExecutionLog.SQLite.Path != "/tmp/override.db" {
		t.Errorf("execution_log.sqlite.path = %q, want env override", cfg.ExecutionLog.SQLite.Path)
	}
}

func TestLoadConfigWithEnvOverrides_InvalidOverride(t *testing.T) {
	path := writeConfig(t, "")

	t.Setenv("SENTINEL_EXECUTION_LOG_BACKEND", "postgres")

	if _, err := LoadConfigWithEnvOverrides(path); err == nil {
		t.Fatal("invalid backend override passed validation")
	}
}
