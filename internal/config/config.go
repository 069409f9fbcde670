// Package config loads the per-workspace configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/CWBudde/go-xdt99-lsp/internal/dialect"
)

// FileName is the configuration file looked up at a workspace root.
const FileName = ".xdt99-lsp.yaml"

// Trace levels accepted by the server.
const (
	TraceOff      = "off"
	TraceMessages = "messages"
	TraceVerbose  = "verbose"
)

// Config holds the workspace configuration.
type Config struct {
	// MaxProblems limits the number of diagnostics published per document.
	MaxProblems int `yaml:"maxProblems"`

	// Trace controls logging verbosity: off, messages or verbose.
	Trace string `yaml:"trace"`

	// Exclude lists doublestar globs, relative to the workspace root, of
	// files and directories the indexer skips.
	Exclude []string `yaml:"exclude"`

	// RespectGitignore skips files ignored by the workspace's .gitignore.
	RespectGitignore bool `yaml:"respectGitignore"`

	MaxFiles int `yaml:"maxFiles"`
	MaxDepth int `yaml:"maxDepth"`

	// Workers bounds parallel parsing; 0 uses one worker per CPU.
	Workers int `yaml:"workers"`

	// Languages overrides the file extensions of dialects, keyed by dialect name.
	Languages map[string][]string `yaml:"languages"`

	// Suggestions adds "did you mean" hints to undefined-symbol diagnostics.
	Suggestions bool `yaml:"suggestions"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		MaxProblems:      100,
		Trace:            TraceOff,
		RespectGitignore: true,
		MaxFiles:         10000,
		MaxDepth:         20,
		Suggestions:      true,
	}
}

// LoadConfig reads a configuration file. Keys missing from the file keep
// their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes and validates configuration data.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// LoadForRoot loads the configuration file of a workspace root, falling back
// to defaults when the root has none.
func LoadForRoot(root string) (*Config, error) {
	cfg, err := LoadConfig(filepath.Join(root, FileName))
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}

	return cfg, err
}

// ValidateConfig checks value ranges, glob syntax and dialect overrides.
func ValidateConfig(cfg *Config) error {
	if cfg.MaxProblems < 0 {
		return fmt.Errorf("maxProblems must not be negative")
	}

	if cfg.MaxFiles < 0 || cfg.MaxDepth < 0 || cfg.Workers < 0 {
		return fmt.Errorf("maxFiles, maxDepth and workers must not be negative")
	}

	switch cfg.Trace {
	case TraceOff, TraceMessages, TraceVerbose:
	default:
		return fmt.Errorf("unknown trace level %q", cfg.Trace)
	}

	for _, pattern := range cfg.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid exclude pattern %q", pattern)
		}
	}

	if _, err := cfg.Registry(); err != nil {
		return fmt.Errorf("languages: %w", err)
	}

	return nil
}

// Registry returns the dialect registry with the configured extensions.
func (c *Config) Registry() (*dialect.Registry, error) {
	if len(c.Languages) == 0 {
		return dialect.NewRegistry(), nil
	}

	return dialect.NewRegistry().WithExtensions(c.Languages)
}

// Excluded reports whether a slash-separated path relative to the workspace
// root matches an exclude pattern. A pattern matching a directory excludes
// everything below it.
func (c *Config) Excluded(rel string) bool {
	rel = strings.TrimPrefix(filepath.ToSlash(rel), "./")

	for _, pattern := range c.Exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}

		if ok, _ := doublestar.Match(strings.TrimSuffix(pattern, "/")+"/**", rel); ok {
			return true
		}
	}

	return false
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Exclude = append([]string(nil), c.Exclude...)

	if c.Languages != nil {
		clone.Languages = make(map[string][]string, len(c.Languages))
		for k, v := range c.Languages {
			clone.Languages[k] = append([]string(nil), v...)
		}
	}

	return &clone
}
