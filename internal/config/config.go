package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds every path and policy knob the bridge needs. Paths are
// repository-relative and resolved against Root.
type Config struct {
	Root    string       `yaml:"root"`
	Schema  string       `yaml:"schema"`
	EnvFile string       `yaml:"envFile"`
	Plans   PlansConfig  `yaml:"plans"`
	Results string       `yaml:"results"`
	Macros  MacrosConfig `yaml:"macros"`
	Cache   CacheConfig  `yaml:"cache"`
	Tests   TestsConfig  `yaml:"tests"`
	Policy  PolicyConfig `yaml:"policy"`
}

// PlansConfig names the inbox and archive directories.
type PlansConfig struct {
	Inbox     string `yaml:"inbox"`
	Processed string `yaml:"processed"`
	Rejected  string `yaml:"rejected"`
}

// MacrosConfig controls where stubs land and how they are named.
type MacrosConfig struct {
	Root string `yaml:"root"`
	// Registry is the path of the macro registry JSON document.
	Registry string `yaml:"registry"`
	// ContextModule is the repo-relative module path of the shared
	// MacroContext type imported by every generated stub.
	ContextModule string `yaml:"contextModule"`
	// FunctionSuffix is appended to generated function names.
	FunctionSuffix string `yaml:"functionSuffix"`
}

// CacheConfig names the best-effort observability caches.
type CacheConfig struct {
	MacroOutput  string `yaml:"macroOutput"`
	TestOutcomes string `yaml:"testOutcomes"`
}

// TestsConfig supplies fallbacks for plans that declare no tests.
type TestsConfig struct {
	DefaultCommand    string `yaml:"defaultCommand"`
	DefaultTimeoutSec int    `yaml:"defaultTimeoutSec"`
}

// PolicyConfig holds the optional Lua plan-policy predicate.
type PolicyConfig struct {
	Inline    string `yaml:"inline"`
	TimeoutMs int    `yaml:"timeoutMs"`
}

// Default returns the built-in configuration rooted at the current directory.
func Default() *Config {
	return &Config{
		Root:    ".",
		Schema:  "",
		Results: "results",
		Plans: PlansConfig{
			Inbox:     "plans/from_gpt",
			Processed: "plans/processed",
			Rejected:  "plans/rejected",
		},
		Macros: MacrosConfig{
			Root:           "macros",
			Registry:       "macros/registry.json",
			ContextModule:  "types/macro-context",
			FunctionSuffix: "Macro",
		},
		Cache: CacheConfig{
			MacroOutput:  "cache/macro_output.json",
			TestOutcomes: "cache/test_outcomes.json",
		},
		Tests: TestsConfig{
			DefaultCommand:    "npm test",
			DefaultTimeoutSec: 120,
		},
		Policy: PolicyConfig{TimeoutMs: 200},
	}
}

// Load returns the defaults overlaid with the YAML document at path.
// An empty path returns the defaults untouched.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, &Error{Path: path, Err: fmt.Errorf("invalid config: %v", err)}
	}
	if cfg.Root == "" {
		cfg.Root = "."
	}
	return cfg, nil
}

// Resolve joins a repo-relative path onto the configured root.
func (c *Config) Resolve(rel string) string {
	return filepath.Join(c.Root, filepath.FromSlash(rel))
}

func (c *Config) InboxDir() string     { return c.Resolve(c.Plans.Inbox) }
func (c *Config) ProcessedDir() string { return c.Resolve(c.Plans.Processed) }
func (c *Config) RejectedDir() string  { return c.Resolve(c.Plans.Rejected) }
func (c *Config) ResultsDir() string   { return c.Resolve(c.Results) }
func (c *Config) MacrosRoot() string   { return c.Resolve(c.Macros.Root) }
func (c *Config) RegistryPath() string { return c.Resolve(c.Macros.Registry) }

// SchemaPath returns the configured schema document location, or "" when the
// embedded default schema should be used.
func (c *Config) SchemaPath() string {
	if c.Schema == "" {
		return ""
	}
	return c.Resolve(c.Schema)
}
