// Package config defines Sentinel's configuration: rule sources, engine
// settings, execution log backend, finding expiry, and telemetry.
//
// Configuration is loaded from a YAML file, filled with defaults, optionally
// overridden from SENTINEL_* environment variables, and validated. All
// validation errors are collected and reported together.
package config
