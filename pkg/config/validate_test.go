package config

import (
	"errors"
	"strings"
	"testing"
)

func TestValidate_DefaultsAreValid(t *testing.T) {
	if err := Validate(Defaults()); err != nil {
		t.Errorf("Validate(Defaults()) = %v, want nil", err)
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Defaults()
	cfg.Rules.Directory = ""
	cfg.Engine.MaxResultLength = 0
	cfg.ExecutionLog.Backend = "redis"
	cfg.Audit.ExpirySchedule = "every 5 minutes"
	cfg.Telemetry.Logging.Level = "loud"

	err := Validate(cfg)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Validate = %v, want *ValidationError", err)
	}
	if len(verr.Errors) != 5 {
		t.Errorf("collected %d errors, want 5: %v", len(verr.Errors), verr)
	}

	fields := make(map[string]bool)
	for _, fe := range verr.Errors {
		fields[fe.Field] = true
	}
	for _, want := range []string{
		"rules.directory",
		"engine.max_result_length",
		"execution_log.backend",
		"audit.expiry_schedule",
		"telemetry.logging.level",
	} {
		if !fields[want] {
			t.Errorf("missing field error for %s", want)
		}
	}
}

func TestValidate_SQLiteBackend(t *testing.T) {
	cfg := Defaults()
	cfg.ExecutionLog.Backend = "sqlite"
	cfg.ExecutionLog.SQLite.Path = ""

	err := Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), "execution_log.sqlite.path") {
		t.Errorf("Validate = %v, want sqlite path error", err)
	}
}

func TestValidate_EmptyExpiryScheduleAllowed(t *testing.T) {
	cfg := Defaults()
	cfg.Audit.ExpirySchedule = ""

	if err := Validate(cfg); err != nil {
		t.Errorf("Validate = %v, want nil for disabled sweeper", err)
	}
}

func TestValidate_MetricsListenAddress(t *testing.T) {
	cfg := Defaults()
	cfg.Telemetry.Metrics.ListenAddress = ""

	if err := Validate(cfg); err == nil {
		t.Error("empty listen address accepted while metrics enabled")
	}

	cfg.Telemetry.Metrics.Enabled = false
	if err := Validate(cfg); err != nil {
		t.Errorf("Validate = %v, want nil when metrics disabled", err)
	}
}
