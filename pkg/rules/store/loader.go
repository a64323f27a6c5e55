package store

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"financialguard/sentinel/pkg/rules"
)

// LoaderConfig controls rule file loading.
type LoaderConfig struct {
	// MaxFileSize is the largest rule file accepted, in bytes.
	MaxFileSize int64

	// Extensions lists the file extensions treated as rule files.
	Extensions []string
}

// DefaultLoaderConfig returns the default loader configuration.
func DefaultLoaderConfig() *LoaderConfig {
	return &LoaderConfig{
		MaxFileSize: 1 << 20,
		Extensions:  []string{".yaml", ".yml"},
	}
}

// Loader reads rule definition and template YAML files from the file system.
type Loader struct {
	config *LoaderConfig
}

// NewLoader creates a loader with the given configuration. A nil config uses
// the defaults.
func NewLoader(config *LoaderConfig) *Loader {
	if config == nil {
		config = DefaultLoaderConfig()
	}
	return &Loader{config: config}
}

// ruleFile is the YAML shape of one rule file: standalone definitions,
// templates, and template instances expanded at load time.
type ruleFile struct {
	Rules     []*rules.RuleDefinition `yaml:"rules"`
	Templates []templateEntry         `yaml:"templates"`
}

// templateEntry is a template plus the instances declared alongside it.
type templateEntry struct {
	rules.RuleTemplate `yaml:",inline"`

	Instances []templateInstance `yaml:"instances"`
}

// templateInstance declares one definition to derive from the enclosing
// template.
type templateInstance struct {
	Code       string         `yaml:"code"`
	Name       string         `yaml:"name"`
	Parameters map[string]any `yaml:"parameters"`
}

// LoadResult aggregates one load pass over a file or directory.
type LoadResult struct {
	// Definitions holds all loaded rule definitions, including those
	// expanded from template instances.
	Definitions []*rules.RuleDefinition

	// Templates holds all loaded templates.
	Templates []*rules.RuleTemplate

	// Errors collects per-file load failures. A failed file is skipped; it
	// never aborts the rest of the pass.
	Errors []error
}

// LoadFile loads a single rule file.
func (l *Loader) LoadFile(path string) (*LoadResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &rules.LoadError{Path: path, Message: "file not found", Cause: err}
		}
		return nil, &rules.LoadError{Path: path, Message: "failed to access file", Cause: err}
	}
	if !info.Mode().IsRegular() {
		return nil, &rules.LoadError{Path: path, Message: "not a regular file"}
	}
	if info.Size() > l.config.MaxFileSize {
		return nil, &rules.LoadError{
			Path:    path,
			Message: fmt.Sprintf("file size %d bytes exceeds maximum %d bytes", info.Size(), l.config.MaxFileSize),
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &rules.LoadError{Path: path, Message: "failed to read file", Cause: err}
	}
	if !utf8.Valid(data) {
		return nil, &rules.LoadError{Path: path, Message: "file contains invalid UTF-8 encoding"}
	}

	var file ruleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, &rules.LoadError{Path: path, Message: "YAML parsing failed", Cause: err}
	}

	result := &LoadResult{}
	for _, def := range file.Rules {
		if err := def.Validate(); err != nil {
			result.Errors = append(result.Errors, &rules.LoadError{Path: path, Message: "invalid rule", Cause: err})
			continue
		}
		result.Definitions = append(result.Definitions, def)
	}
	for i := range file.Templates {
		entry := &file.Templates[i]
		if err := entry.RuleTemplate.Validate(); err != nil {
			result.Errors = append(result.Errors, &rules.LoadError{Path: path, Message: "invalid template", Cause: err})
			continue
		}
		tmpl := entry.RuleTemplate
		result.Templates = append(result.Templates, &tmpl)

		for _, inst := range entry.Instances {
			def, err := tmpl.Instantiate(inst.Code, inst.Name, inst.Parameters)
			if err != nil {
				result.Errors = append(result.Errors, &rules.LoadError{
					Path:    path,
					Message: fmt.Sprintf("template %s instance %s", tmpl.ID, inst.Code),
					Cause:   err,
				})
				continue
			}
			result.Definitions = append(result.Definitions, def)
		}
	}
	return result, nil
}

// LoadDirectory loads all rule files under dir recursively, in sorted path
// order. Per-file failures are collected in the result; only an unreadable
// directory fails the call.
func (l *Loader) LoadDirectory(dir string) (*LoadResult, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &rules.LoadError{Path: dir, Message: "directory not found", Cause: err}
		}
		return nil, &rules.LoadError{Path: dir, Message: "failed to access directory", Cause: err}
	}
	if !info.IsDir() {
		return nil, &rules.LoadError{Path: dir, Message: "not a directory"}
	}

	var paths []string
	err = filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if strings.HasPrefix(entry.Name(), ".") && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(entry.Name(), ".") {
			return nil
		}
		if l.hasRuleExtension(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, &rules.LoadError{Path: dir, Message: "directory walk failed", Cause: err}
	}
	sort.Strings(paths)

	result := &LoadResult{}
	for _, path := range paths {
		fileResult, err := l.LoadFile(path)
		if err != nil {
			result.Errors = append(result.Errors, err)
			continue
		}
		result.Definitions = append(result.Definitions, fileResult.Definitions...)
		result.Templates = append(result.Templates, fileResult.Templates...)
		result.Errors = append(result.Errors, fileResult.Errors...)
	}
	return result, nil
}

func (l *Loader) hasRuleExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, valid := range l.config.Extensions {
		if ext == strings.ToLower(valid) {
			return true
		}
	}
	return false
}
