package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lewisedginton/persona_chatbot/pkg/config"
)

func validEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/chat")
	t.Setenv("OPENAI_API_KEY", "sk-test")
}

func TestLoadFromEnvDefaults(t *testing.T) {
	validEnv(t)

	var cfg AppConfig
	require.NoError(t, config.GetConfigFromEnvVars(&cfg))

	assert.Equal(t, "persona-chatbot", cfg.ServiceName)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	assert.True(t, cfg.Supermemory.Enabled)
	assert.Equal(t, "remote", cfg.Supermemory.Backend)
	assert.Equal(t, "default", cfg.Supermemory.Namespace)
	assert.Equal(t, 3, cfg.Background.Workers)
	assert.Equal(t, 9090, cfg.Monitoring.MetricsPort)
}

func TestValidateRequiresCompletionKey(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/chat")
	t.Setenv("OPENAI_API_KEY", "")

	var cfg AppConfig
	err := config.GetConfigFromEnvVars(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
}

func TestValidateClaudeProvider(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/chat")
	t.Setenv("LLM_PROVIDER", "claude")
	t.Setenv("ANTHROPIC_API_KEY", "")

	var cfg AppConfig
	err := config.GetConfigFromEnvVars(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ANTHROPIC_API_KEY")

	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")
	require.NoError(t, config.GetConfigFromEnvVars(&cfg))
	assert.Equal(t, "claude-3-5-sonnet-20241022", cfg.ModelName())
}

func TestMemoryKeyIsOptional(t *testing.T) {
	validEnv(t)

	var cfg AppConfig
	require.NoError(t, config.GetConfigFromEnvVars(&cfg))
	assert.Empty(t, cfg.Supermemory.APIKey)
}

func TestValidateRejectsUnknownProvider(t *testing.T) {
	validEnv(t)
	t.Setenv("LLM_PROVIDER", "mystery")

	var cfg AppConfig
	err := config.GetConfigFromEnvVars(&cfg)
	assert.Error(t, err)
}

func TestValidateRejectsUnknownBackend(t *testing.T) {
	validEnv(t)
	t.Setenv("MEMORY_BACKEND", "carrier-pigeon")

	var cfg AppConfig
	err := config.GetConfigFromEnvVars(&cfg)
	assert.Error(t, err)
}

func TestValidateRequiresDatabaseURL(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("DATABASE_URL", "")

	var cfg AppConfig
	err := config.GetConfigFromEnvVars(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestAuthTokensParsing(t *testing.T) {
	validEnv(t)
	t.Setenv("AUTH_TOKENS", "tok1:usr-1,tok2:usr-2")

	var cfg AppConfig
	require.NoError(t, config.GetConfigFromEnvVars(&cfg))
	assert.Equal(t, []string{"tok1:usr-1", "tok2:usr-2"}, cfg.AuthTokens)
}
