package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "https://api.limitless.ai", cfg.LimitlessAPIURL)
	assert.Equal(t, "https://api.todoist.com/rest/v2", cfg.TodoistAPIURL)
	assert.Equal(t, "https://api.openai.com/v1", cfg.OpenAIAPIURL)
	assert.Equal(t, "gpt-4.1", cfg.OpenAIModel)
	assert.Equal(t, 3*time.Second, cfg.PollInterval)
	assert.Equal(t, 10, cfg.PollLimit)
	assert.Equal(t, 10, cfg.BatchSize)
	assert.Equal(t, 4.0, cfg.TodoistRate)
	assert.False(t, cfg.IncludeCompleted)
	assert.Empty(t, cfg.Journal)
}

func TestLoad_DefaultsOnly(t *testing.T) {
	cfg, err := Load(Options{Dir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_EnvFilesFirstWins(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".env.local", "LIMITLESS_API_KEY=local-key\n")
	writeFile(t, dir, ".env", "LIMITLESS_API_KEY=shared-key\nTODOIST_API_TOKEN=shared-token\nPOLL_INTERVAL=5s\n")

	cfg, err := Load(Options{Dir: dir})
	require.NoError(t, err)

	assert.Equal(t, "local-key", cfg.LimitlessAPIKey)
	assert.Equal(t, "shared-token", cfg.TodoistAPIToken)
	assert.Equal(t, 5*time.Second, cfg.PollInterval)
}

func TestLoad_YAMLOverridesEnvFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".env", "TODOIST_PARENT_ID=from-env-file\nPOLL_LIMIT=20\n")
	file := writeFile(t, dir, "lifesync.yaml", "todoist_parent_id: from-yaml\ninclude_completed: true\ntodoist_rate: 2.5\n")

	cfg, err := Load(Options{Dir: dir, File: file})
	require.NoError(t, err)

	assert.Equal(t, "from-yaml", cfg.TodoistParentID)
	assert.Equal(t, 20, cfg.PollLimit)
	assert.True(t, cfg.IncludeCompleted)
	assert.Equal(t, 2.5, cfg.TodoistRate)
}

func TestLoad_EnvironmentOverridesAll(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".env", "LIMITLESS_API_URL=https://file.example\n")
	file := writeFile(t, dir, "lifesync.yaml", "limitless_api_url: https://yaml.example\n")
	t.Setenv("LIMITLESS_API_URL", "https://env.example/")

	cfg, err := Load(Options{Dir: dir, File: file})
	require.NoError(t, err)
	assert.Equal(t, "https://env.example", cfg.LimitlessAPIURL, "trailing slash trimmed")
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := Load(Options{Dir: t.TempDir(), File: filepath.Join(t.TempDir(), "nope.yaml")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope.yaml")
}

func TestLoad_InvalidValues(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".env", "BATCH_SIZE=50\nTODOIST_API_URL=ftp://nope\n")

	_, err := Load(Options{Dir: dir})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.Contains(t, err.Error(), "batch_size")
	assert.Contains(t, err.Error(), "todoist_api_url")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"zero interval", func(c *Config) { c.PollInterval = 0 }, "poll_interval"},
		{"negative limit", func(c *Config) { c.PollLimit = -1 }, "poll_limit"},
		{"zero rate", func(c *Config) { c.TodoistRate = 0 }, "todoist_rate"},
		{"empty model", func(c *Config) { c.OpenAIModel = "" }, "openai_model"},
		{"bad url", func(c *Config) { c.OpenAIAPIURL = "not a url" }, "openai_api_url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Validate(cfg)
			require.Error(t, err)
			assert.True(t, IsValidationError(err))
			assert.Contains(t, err.Error(), tt.field)
		})
	}

	assert.NoError(t, Validate(Default()))
}

func TestRequire(t *testing.T) {
	cfg := Default()
	cfg.LimitlessAPIKey = "key"

	err := cfg.Require(KeyLimitlessAPIKey, KeyTodoistAPIToken, KeyTodoistParentID)
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))

	var ce *ConfigurationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, []string{"TODOIST_API_TOKEN", "TODOIST_PARENT_ID"}, ce.Missing)
	assert.Equal(t, "missing required configuration: TODOIST_API_TOKEN, TODOIST_PARENT_ID", err.Error())

	assert.NoError(t, cfg.Require(KeyLimitlessAPIKey))
}

func TestRedacted(t *testing.T) {
	cfg := Default()
	cfg.LimitlessAPIKey = "sk-1234567890"
	cfg.TodoistAPIToken = "short"

	r := cfg.Redacted()
	assert.Equal(t, "sk-1****", r.LimitlessAPIKey)
	assert.Equal(t, "****", r.TodoistAPIToken)
	assert.Empty(t, r.OpenAIAPIKey)
	assert.Equal(t, "sk-1234567890", cfg.LimitlessAPIKey, "original untouched")
}
