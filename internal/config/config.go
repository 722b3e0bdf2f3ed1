// Package config provides configuration loading for conductor.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/HendryAvila/conductor/internal/workflow"
)

const (
	// DefaultStateDir is the project-relative directory holding durable state.
	DefaultStateDir = ".conductor"
	// DefaultDocsDir is the project-relative directory generated documents go to.
	DefaultDocsDir = "docs"
	// ConfigFile is the config filename inside the state directory.
	ConfigFile = "config.yaml"
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "CONDUCTOR_"
	// EnvConfigPath overrides the config file location.
	EnvConfigPath = "CONDUCTOR_CONFIG"
)

// Config is the full runtime configuration.
type Config struct {
	ProjectRoot       string            `koanf:"project_root"`
	StateDir          string            `koanf:"state_dir"`
	Backend           string            `koanf:"backend"`
	IntegrationLogCap int               `koanf:"integration_log_cap"`
	AgentsDir         string            `koanf:"agents_dir"`
	DocsDir           string            `koanf:"docs_dir"`
	Model             string            `koanf:"model"`
	Models            map[string]string `koanf:"models"`
	Commands          map[string]string `koanf:"commands"`
	Approval          ApprovalConfig    `koanf:"approval"`
	Log               LogConfig         `koanf:"log"`
	Metrics           MetricsConfig     `koanf:"metrics"`
}

// ApprovalConfig lists tools that need an explicit confirm=true argument.
type ApprovalConfig struct {
	Require []string `koanf:"require"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// MetricsConfig controls the optional Prometheus listener. Empty Listen
// disables it.
type MetricsConfig struct {
	Listen string `koanf:"listen"`
}

// Default returns a configuration rooted at projectRoot with every
// default applied.
func Default(projectRoot string) *Config {
	cfg := &Config{ProjectRoot: projectRoot}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.StateDir == "" {
		cfg.StateDir = DefaultStateDir
	}
	if cfg.Backend == "" {
		cfg.Backend = "file"
	}
	if cfg.IntegrationLogCap == 0 {
		cfg.IntegrationLogCap = 100
	}
	if cfg.DocsDir == "" {
		cfg.DocsDir = DefaultDocsDir
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Models == nil {
		cfg.Models = map[string]string{}
	}
	if cfg.Commands == nil {
		cfg.Commands = map[string]string{}
	}
}

// Validate rejects values the rest of the program cannot act on.
func (c *Config) Validate() error {
	if c.ProjectRoot == "" {
		return fmt.Errorf("project_root is required")
	}
	switch c.Backend {
	case "file", "sqlite":
	default:
		return fmt.Errorf("backend must be file or sqlite, got %q", c.Backend)
	}
	if c.IntegrationLogCap < 1 {
		return fmt.Errorf("integration_log_cap must be positive, got %d", c.IntegrationLogCap)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console, got %q", c.Log.Format)
	}
	for phase, cmd := range c.Commands {
		if _, err := workflow.ParsePhase(phase); err != nil {
			return fmt.Errorf("commands: %w", err)
		}
		if strings.TrimSpace(cmd) == "" {
			return fmt.Errorf("commands.%s is empty", phase)
		}
	}
	for key, model := range c.Models {
		if strings.TrimSpace(model) == "" {
			return fmt.Errorf("models.%s is empty", key)
		}
	}
	for _, name := range c.Approval.Require {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("approval.require contains an empty tool name")
		}
	}
	return nil
}

// StatePath returns the absolute state directory.
func (c *Config) StatePath() string {
	return c.resolve(c.StateDir)
}

// DocsPath returns the absolute docs directory.
func (c *Config) DocsPath() string {
	return c.resolve(c.DocsDir)
}

// AgentsPath returns the absolute persona override directory, or "" when
// none is configured.
func (c *Config) AgentsPath() string {
	if c.AgentsDir == "" {
		return ""
	}
	return c.resolve(c.AgentsDir)
}

// RequiresApproval reports whether tool is listed in approval.require.
func (c *Config) RequiresApproval(tool string) bool {
	for _, name := range c.Approval.Require {
		if strings.TrimSpace(name) == tool {
			return true
		}
	}
	return false
}

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.ProjectRoot, p)
}
