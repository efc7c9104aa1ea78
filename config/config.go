// Package config loads the runtime configuration from flags, the
// environment (ACC_ prefix) and an optional .accagent.yaml file.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// EnvPrefix is prepended to every environment key.
	EnvPrefix = "ACC"

	// FileName is the config file looked up in the working directory.
	FileName = ".accagent"
)

// Config is the full runtime configuration.
type Config struct {
	LLMProvider       string        `mapstructure:"llm_provider"`
	LLMModel          string        `mapstructure:"llm_model"`
	EmbeddingProvider string        `mapstructure:"embedding_provider"`
	Debug             bool          `mapstructure:"debug"`
	UserName          string        `mapstructure:"user_name"`
	SettingsDir       string        `mapstructure:"settings_dir"`
	DataDir           string        `mapstructure:"data_dir"`
	Port              int           `mapstructure:"port"`
	RateLimit         float64       `mapstructure:"rate_limit"`
	RateBurst         int           `mapstructure:"rate_burst"`
	FinalizeTimeout   time.Duration `mapstructure:"finalize_timeout"`
}

var defaults = map[string]interface{}{
	"llm_provider":       "openai",
	"llm_model":          "",
	"embedding_provider": "",
	"debug":              false,
	"user_name":          "default",
	"settings_dir":       "agent-settings",
	"data_dir":           ".acc",
	"port":               8000,
	"rate_limit":         1.0,
	"rate_burst":         5,
	"finalize_timeout":   "2m",
}

// Setup registers defaults, the environment binding and the config file
// location on v. An empty file searches FileName in dir.
func Setup(v *viper.Viper, file, dir string) {
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		return
	}
	v.AddConfigPath(dir)
	v.SetConfigType("yaml")
	v.SetConfigName(FileName)
}

// Load reads the config file, if any, and unmarshals v. A missing file in
// the search path is not an error; a missing explicit file is.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	applyDefaults(cfg)
	return cfg, cfg.Validate()
}

// applyDefaults fills values that depend on other fields.
func applyDefaults(cfg *Config) {
	cfg.LLMProvider = strings.ToLower(strings.TrimSpace(cfg.LLMProvider))
	cfg.EmbeddingProvider = strings.ToLower(strings.TrimSpace(cfg.EmbeddingProvider))
	if cfg.EmbeddingProvider == "" {
		switch cfg.LLMProvider {
		case "gemini":
			cfg.EmbeddingProvider = "gemini"
		default:
			cfg.EmbeddingProvider = "openai"
		}
	}
	if strings.TrimSpace(cfg.UserName) == "" {
		cfg.UserName = "default"
	}
}

// Validate checks the provider names and numeric bounds.
func (c *Config) Validate() error {
	validLLM := map[string]bool{"anthropic": true, "openai": true, "gemini": true}
	if !validLLM[c.LLMProvider] {
		return fmt.Errorf("invalid llm provider: %s (must be anthropic, openai, or gemini)", c.LLMProvider)
	}
	validEmbedding := map[string]bool{"openai": true, "gemini": true, "mock": true}
	if !validEmbedding[c.EmbeddingProvider] {
		return fmt.Errorf("invalid embedding provider: %s (must be openai, gemini, or mock)", c.EmbeddingProvider)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.RateBurst < 0 {
		return fmt.Errorf("invalid rate burst: %d", c.RateBurst)
	}
	if c.FinalizeTimeout <= 0 {
		return fmt.Errorf("invalid finalize timeout: %s", c.FinalizeTimeout)
	}
	return nil
}

// UserSettingsDir is the per-user settings directory.
func (c *Config) UserSettingsDir() string {
	return filepath.Join(c.SettingsDir, c.UserName)
}

// VectorDir is where the artifact store persists.
func (c *Config) VectorDir() string {
	return filepath.Join(c.DataDir, "chroma")
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
