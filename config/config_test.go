package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/becomeliminal/acc-agent/config"
)

func load(t *testing.T, file, dir string) (*config.Config, error) {
	t.Helper()
	v := viper.New()
	config.Setup(v, file, dir)
	return config.Load(v)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(t, "", t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.LLMProvider)
	assert.Equal(t, "openai", cfg.EmbeddingProvider)
	assert.Equal(t, "default", cfg.UserName)
	assert.Equal(t, "agent-settings", cfg.SettingsDir)
	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, 5, cfg.RateBurst)
	assert.Equal(t, 2*time.Minute, cfg.FinalizeTimeout)
	assert.Equal(t, filepath.Join(".acc", "chroma"), cfg.VectorDir())
	assert.Equal(t, ":8000", cfg.Addr())
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("ACC_LLM_PROVIDER", "Gemini")
	t.Setenv("ACC_DEBUG", "true")
	t.Setenv("ACC_PORT", "9001")
	t.Setenv("ACC_USER_NAME", "jack")

	cfg, err := load(t, "", t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.LLMProvider)
	assert.Equal(t, "gemini", cfg.EmbeddingProvider, "embedding follows the llm provider")
	assert.True(t, cfg.Debug)
	assert.Equal(t, 9001, cfg.Port)
	assert.Equal(t, filepath.Join("agent-settings", "jack"), cfg.UserSettingsDir())
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	yaml := "llm_provider: anthropic\nembedding_provider: mock\nfinalize_timeout: 30s\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.FileName+".yaml"), []byte(yaml), 0o644))

	cfg, err := load(t, "", dir)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", cfg.LLMProvider)
	assert.Equal(t, "mock", cfg.EmbeddingProvider)
	assert.Equal(t, 30*time.Second, cfg.FinalizeTimeout)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := load(t, filepath.Join(t.TempDir(), "nope.yaml"), "")
	assert.Error(t, err)
}

func TestLoad_InvalidProvider(t *testing.T) {
	t.Setenv("ACC_LLM_PROVIDER", "llama")
	_, err := load(t, "", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid llm provider")
}
