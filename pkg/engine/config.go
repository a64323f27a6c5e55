package engine

import "fmt"

// Config contains execution engine configuration.
type Config struct {
	// Environment tags every execution log entry with the deployment
	// environment (e.g. "production", "staging").
	Environment string

	// MaxResultLength truncates log entry result and error text to this
	// many bytes. Zero uses the default.
	MaxResultLength int

	// MaxRules caps the number of rules a rebuild accepts. Zero means no
	// cap.
	MaxRules int
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() *Config {
	return &Config{
		Environment:     "development",
		MaxResultLength: 500,
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment cannot be empty")
	}
	if c.MaxResultLength < 0 {
		return fmt.Errorf("max result length cannot be negative")
	}
	if c.MaxRules < 0 {
		return fmt.Errorf("max rules cannot be negative")
	}
	return nil
}
