// Package store is the rule definition store: a thread-safe in-memory
// registry of RuleDefinitions keyed by code, a YAML file loader for rule and
// template files, and an fsnotify-based directory watcher that drives hot
// reloads.
//
// The store is the source of truth for which rules exist. Whether a rule is
// compiled and executing is the engine package's concern; the store only
// hands out snapshots of enabled definitions for rebuilds.
package store
