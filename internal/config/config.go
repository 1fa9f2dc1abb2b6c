// Package config loads lifesync settings from dotenv files, an optional
// YAML file and the process environment.
//
// Precedence, lowest first:
//  1. built-in defaults
//  2. .env.local, then .env (the first file defining a key wins)
//  3. the YAML file given with --config
//  4. process environment
//
// Keys are the lowercased environment variable names, so LIMITLESS_API_KEY
// in the environment and limitless_api_key in YAML set the same value.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Keys.
const (
	KeyLimitlessAPIKey  = "limitless_api_key"
	KeyLimitlessAPIURL  = "limitless_api_url"
	KeyTodoistAPIToken  = "todoist_api_token"
	KeyTodoistAPIURL    = "todoist_api_url"
	KeyTodoistParentID  = "todoist_parent_id"
	KeyOpenAIAPIKey     = "openai_api_key"
	KeyOpenAIAPIURL     = "openai_api_url"
	KeyOpenAIModel      = "openai_model"
	KeyPollInterval     = "poll_interval"
	KeyPollLimit        = "poll_limit"
	KeyBatchSize        = "batch_size"
	KeyTimezone         = "timezone"
	KeyTodoistRate      = "todoist_rate"
	KeyIncludeCompleted = "include_completed"
	KeyJournal          = "journal"
)

// DefaultEnvFiles are read from the working directory in this order.
var DefaultEnvFiles = []string{".env.local", ".env"}

// Config is the resolved configuration.
type Config struct {
	LimitlessAPIKey  string        `mapstructure:"limitless_api_key" json:"limitless_api_key"`
	LimitlessAPIURL  string        `mapstructure:"limitless_api_url" json:"limitless_api_url"`
	TodoistAPIToken  string        `mapstructure:"todoist_api_token" json:"todoist_api_token"`
	TodoistAPIURL    string        `mapstructure:"todoist_api_url" json:"todoist_api_url"`
	TodoistParentID  string        `mapstructure:"todoist_parent_id" json:"todoist_parent_id"`
	OpenAIAPIKey     string        `mapstructure:"openai_api_key" json:"openai_api_key"`
	OpenAIAPIURL     string        `mapstructure:"openai_api_url" json:"openai_api_url"`
	OpenAIModel      string        `mapstructure:"openai_model" json:"openai_model"`
	PollInterval     time.Duration `mapstructure:"poll_interval" json:"poll_interval"`
	PollLimit        int           `mapstructure:"poll_limit" json:"poll_limit"`
	BatchSize        int           `mapstructure:"batch_size" json:"batch_size"`
	Timezone         string        `mapstructure:"timezone" json:"timezone"`
	TodoistRate      float64       `mapstructure:"todoist_rate" json:"todoist_rate"`
	IncludeCompleted bool          `mapstructure:"include_completed" json:"include_completed"`
	Journal          string        `mapstructure:"journal" json:"journal"`
}

// Options controls where Load looks.
type Options struct {
	// Dir holds the dotenv files. Empty means the working directory.
	Dir string

	// EnvFiles overrides DefaultEnvFiles. Names are relative to Dir.
	EnvFiles []string

	// File is an optional YAML config file. A missing file is an error.
	File string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyLimitlessAPIKey, "")
	v.SetDefault(KeyLimitlessAPIURL, "https://api.limitless.ai")
	v.SetDefault(KeyTodoistAPIToken, "")
	v.SetDefault(KeyTodoistAPIURL, "https://api.todoist.com/rest/v2")
	v.SetDefault(KeyTodoistParentID, "")
	v.SetDefault(KeyOpenAIAPIKey, "")
	v.SetDefault(KeyOpenAIAPIURL, "https://api.openai.com/v1")
	v.SetDefault(KeyOpenAIModel, "gpt-4.1")
	v.SetDefault(KeyPollInterval, "3s")
	v.SetDefault(KeyPollLimit, 10)
	v.SetDefault(KeyBatchSize, 10)
	v.SetDefault(KeyTimezone, "")
	v.SetDefault(KeyTodoistRate, 4.0)
	v.SetDefault(KeyIncludeCompleted, false)
	v.SetDefault(KeyJournal, "")
}

// Default returns the configuration with nothing but defaults applied.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{}
	// Defaults always decode.
	_ = v.Unmarshal(cfg)
	return cfg
}

// Load resolves the configuration and validates it.
func Load(opts Options) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	dotenv, err := readEnvFiles(opts.Dir, opts.EnvFiles)
	if err != nil {
		return nil, err
	}
	if err := v.MergeConfigMap(dotenv); err != nil {
		return nil, fmt.Errorf("merge env files: %w", err)
	}

	if opts.File != "" {
		v.SetConfigFile(opts.File)
		v.SetConfigType("yaml")
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", opts.File, err)
		}
	}

	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.trim()

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// readEnvFiles merges dotenv files. A key keeps the value from the first
// file that defines it; missing files are skipped.
func readEnvFiles(dir string, names []string) (map[string]any, error) {
	if names == nil {
		names = DefaultEnvFiles
	}

	merged := make(map[string]any)
	for _, name := range names {
		path := name
		if dir != "" && !filepath.IsAbs(name) {
			path = filepath.Join(dir, name)
		}
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			continue
		}

		fv := viper.New()
		fv.SetConfigFile(path)
		fv.SetConfigType("env")
		if err := fv.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read env file %s: %w", path, err)
		}
		for _, key := range fv.AllKeys() {
			if _, ok := merged[key]; !ok {
				merged[key] = fv.Get(key)
			}
		}
	}
	return merged, nil
}

func (c *Config) trim() {
	c.LimitlessAPIKey = strings.TrimSpace(c.LimitlessAPIKey)
	c.TodoistAPIToken = strings.TrimSpace(c.TodoistAPIToken)
	c.TodoistParentID = strings.TrimSpace(c.TodoistParentID)
	c.OpenAIAPIKey = strings.TrimSpace(c.OpenAIAPIKey)
	c.LimitlessAPIURL = strings.TrimRight(strings.TrimSpace(c.LimitlessAPIURL), "/")
	c.TodoistAPIURL = strings.TrimRight(strings.TrimSpace(c.TodoistAPIURL), "/")
	c.OpenAIAPIURL = strings.TrimRight(strings.TrimSpace(c.OpenAIAPIURL), "/")
}

// Require returns a ConfigurationError naming every key in keys whose value
// is empty.
func (c *Config) Require(keys ...string) error {
	var missing []string
	for _, key := range keys {
		if c.lookup(key) == "" {
			missing = append(missing, EnvName(key))
		}
	}
	if len(missing) > 0 {
		return &ConfigurationError{Missing: missing}
	}
	return nil
}

func (c *Config) lookup(key string) string {
	switch key {
	case KeyLimitlessAPIKey:
		return c.LimitlessAPIKey
	case KeyLimitlessAPIURL:
		return c.LimitlessAPIURL
	case KeyTodoistAPIToken:
		return c.TodoistAPIToken
	case KeyTodoistAPIURL:
		return c.TodoistAPIURL
	case KeyTodoistParentID:
		return c.TodoistParentID
	case KeyOpenAIAPIKey:
		return c.OpenAIAPIKey
	case KeyOpenAIAPIURL:
		return c.OpenAIAPIURL
	case KeyOpenAIModel:
		return c.OpenAIModel
	case KeyTimezone:
		return c.Timezone
	case KeyJournal:
		return c.Journal
	}
	return ""
}

// Redacted returns a copy with credentials masked, for display.
func (c *Config) Redacted() Config {
	out := *c
	out.LimitlessAPIKey = mask(out.LimitlessAPIKey)
	out.TodoistAPIToken = mask(out.TodoistAPIToken)
	out.OpenAIAPIKey = mask(out.OpenAIAPIKey)
	return out
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:4] + "****"
}

// EnvName returns the environment variable for a key.
func EnvName(key string) string {
	return strings.ToUpper(key)
}
