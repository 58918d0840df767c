package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/borderux/recursica-forge-sub006/pkg/document"
	"github.com/borderux/recursica-forge-sub006/pkg/resolver"
	"github.com/borderux/recursica-forge-sub006/pkg/watch"
)

// defaultConfigPath is where forge looks for project settings.
const defaultConfigPath = ".forge/config.yaml"

// Default document names, relative to the project root.
const (
	defaultTokensPath = "tokens.json"
	defaultThemePath  = "brand.json"
	defaultSpecPath   = "ui-kit.json"
)

// ProjectConfig holds the contents of .forge/config.yaml.
type ProjectConfig struct {
	Version   string      `yaml:"version"`
	Tokens    string      `yaml:"tokens"`
	Theme     string      `yaml:"theme"`
	Spec      string      `yaml:"spec"`
	Namespace string      `yaml:"namespace,omitempty"`
	Mode      string      `yaml:"mode,omitempty"`
	Lenient   bool        `yaml:"lenient,omitempty"`
	LogLevel  string      `yaml:"log_level,omitempty"`
	LogFormat string      `yaml:"log_format,omitempty"`
	Watch     WatchConfig `yaml:"watch,omitempty"`
	MCPLog    string      `yaml:"mcp_log,omitempty"`
}

// WatchConfig is the watch section of the project config.
type WatchConfig struct {
	DebounceMs int      `yaml:"debounce_ms,omitempty"`
	Ignore     []string `yaml:"ignore,omitempty"`
}

// loadProjectConfig reads the config at path. Returns nil (no error) if the
// file does not exist. Relative document paths are resolved against the
// project root, the directory that holds .forge/.
func loadProjectConfig(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	root := filepath.Dir(filepath.Dir(path))
	cfg.Tokens = under(root, cfg.Tokens)
	cfg.Theme = under(root, cfg.Theme)
	cfg.Spec = under(root, cfg.Spec)
	cfg.MCPLog = under(root, cfg.MCPLog)
	return &cfg, nil
}

func under(root, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

// saveProjectConfig writes cfg to path, creating the .forge directory.
func saveProjectConfig(path string, cfg ProjectConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// settings are the effective values for one command run.
type settings struct {
	Paths     document.Paths
	Namespace string
	Mode      string
	Lenient   bool
	LogLevel  string
	LogFormat string
	Watch     watch.Options
	MCPLog    string
}

// resolverOptions returns the engine options for s.
func (s settings) resolverOptions() resolver.Options {
	return resolver.Options{Namespace: s.Namespace, Mode: s.Mode, Lenient: s.Lenient}
}

// resolveSettings applies the fallback chain for every setting:
//  1. Explicit flag value (non-empty override)
//  2. Value from .forge/config.yaml
//  3. Default
func resolveSettings(flags globalFlags) (settings, error) {
	configPath := flags.config
	if configPath == "" {
		configPath = defaultConfigPath
	}
	cfg, err := loadProjectConfig(configPath)
	if err != nil {
		return settings{}, err
	}
	if cfg == nil {
		if flags.config != "" {
			return settings{}, fmt.Errorf("config file not found: %s", flags.config)
		}
		cfg = &ProjectConfig{}
	}

	s := settings{
		Paths: document.Paths{
			Tokens: pick(flags.tokens, cfg.Tokens, defaultTokensPath),
			Theme:  pick(flags.theme, cfg.Theme, defaultThemePath),
			Spec:   pick(flags.spec, cfg.Spec, defaultSpecPath),
		},
		Namespace: pick(flags.namespace, cfg.Namespace, resolver.DefaultNamespace),
		Mode:      pick(flags.mode, cfg.Mode, ""),
		Lenient:   flags.lenient || cfg.Lenient,
		LogLevel:  pick(flags.logLevel, cfg.LogLevel, "info"),
		LogFormat: pick(flags.logFormat, cfg.LogFormat, "text"),
		Watch: watch.Options{
			DebounceMs:     cfg.Watch.DebounceMs,
			IgnorePatterns: cfg.Watch.Ignore,
		},
		MCPLog: pick(flags.mcpLog, cfg.MCPLog, ""),
	}
	if s.Watch.DebounceMs <= 0 {
		s.Watch.DebounceMs = watch.DefaultOptions().DebounceMs
	}
	return s, nil
}

func pick(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
