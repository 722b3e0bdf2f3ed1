package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, root, body string) {
	t.Helper()
	dir := filepath.Join(root, DefaultStateDir)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFile), []byte(body), 0o644))
}

func TestLoad_Defaults(t *testing.T) {
	root := t.TempDir()

	cfg, err := Load(root)
	require.NoError(t, err)

	assert.Equal(t, root, cfg.ProjectRoot)
	assert.Equal(t, "file", cfg.Backend)
	assert.Equal(t, 100, cfg.IntegrationLogCap)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, filepath.Join(root, ".conductor"), cfg.StatePath())
	assert.Equal(t, filepath.Join(root, "docs"), cfg.DocsPath())
	assert.Empty(t, cfg.AgentsPath())
	assert.Empty(t, cfg.Metrics.Listen)
}

func TestLoad_YAMLFile(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `
backend: sqlite
integration_log_cap: 25
agents_dir: personas
model: base-model
models:
  dev: fast-model
commands:
  qa: make test
approval:
  require:
    - transition_phase
log:
  level: debug
  format: console
`)

	cfg, err := Load(root)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Backend)
	assert.Equal(t, 25, cfg.IntegrationLogCap)
	assert.Equal(t, filepath.Join(root, "personas"), cfg.AgentsPath())
	assert.Equal(t, "fast-model", cfg.Models["dev"])
	assert.Equal(t, "make test", cfg.Commands["qa"])
	assert.True(t, cfg.RequiresApproval("transition_phase"))
	assert.False(t, cfg.RequiresApproval("record_decision"))
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "backend: sqlite\nlog:\n  level: debug\n")
	t.Setenv("CONDUCTOR_BACKEND", "file")
	t.Setenv("CONDUCTOR_LOG__LEVEL", "warn")
	t.Setenv("CONDUCTOR_INTEGRATION_LOG_CAP", "7")

	cfg, err := Load(root)
	require.NoError(t, err)

	assert.Equal(t, "file", cfg.Backend)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 7, cfg.IntegrationLogCap)
}

func TestLoad_ExplicitConfigPath(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("docs_dir: out\n"), 0o644))
	t.Setenv(EnvConfigPath, path)

	cfg, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "out"), cfg.DocsPath())
}

func TestLoad_DotEnv(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env"), []byte("CONDUCTOR_MODEL=from-dotenv\n"), 0o644))
	// Registering the variable with t.Setenv restores it after the test,
	// so the value godotenv writes does not leak into other tests.
	t.Setenv("CONDUCTOR_MODEL", "")
	require.NoError(t, os.Unsetenv("CONDUCTOR_MODEL"))

	cfg, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Model)
}

func TestLoad_InvalidYAML(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "backend: [unclosed\n")

	_, err := Load(root)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad backend", func(c *Config) { c.Backend = "redis" }},
		{"negative cap", func(c *Config) { c.IntegrationLogCap = -1 }},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }},
		{"unknown command phase", func(c *Config) { c.Commands["designer"] = "run" }},
		{"empty command", func(c *Config) { c.Commands["qa"] = " " }},
		{"empty model", func(c *Config) { c.Models["dev"] = "" }},
		{"empty approval entry", func(c *Config) { c.Approval.Require = []string{""} }},
		{"missing root", func(c *Config) { c.ProjectRoot = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default(t.TempDir())
			require.NoError(t, cfg.Validate())
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestStatePath_Absolute(t *testing.T) {
	cfg := Default("/project")
	cfg.StateDir = "/var/lib/conductor"
	assert.Equal(t, "/var/lib/conductor", cfg.StatePath())
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "log.level", envKey("CONDUCTOR_LOG__LEVEL"))
	assert.Equal(t, "state_dir", envKey("CONDUCTOR_STATE_DIR"))
	assert.Equal(t, "models.dev", envKey("CONDUCTOR_MODELS__DEV"))
}

func TestFindRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, DefaultStateDir), 0o755))
	nested := filepath.Join(root, "web", "src")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	got, err := FindRoot(nested)
	require.NoError(t, err)
	assert.Equal(t, root, got)

	got, err = FindRoot(root)
	require.NoError(t, err)
	assert.Equal(t, root, got)
}

func TestFindRoot_FallsBackToStart(t *testing.T) {
	start := filepath.Join(t.TempDir(), "fresh")
	require.NoError(t, os.MkdirAll(start, 0o755))

	got, err := FindRoot(start)
	require.NoError(t, err)
	assert.Equal(t, start, got)
}

func TestFindRoot_IgnoresStateFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, DefaultStateDir), []byte("x"), 0o644))

	got, err := FindRoot(root)
	require.NoError(t, err)
	assert.Equal(t, root, got)
}
