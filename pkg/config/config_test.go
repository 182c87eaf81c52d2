package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Name     string        `env:"TEST_NAME" yaml:"name" default:"fallback"`
	Port     int           `env:"TEST_PORT" yaml:"port" default:"8080"`
	Timeout  time.Duration `env:"TEST_TIMEOUT" yaml:"timeout" default:"30s"`
	Enabled  bool          `env:"TEST_ENABLED" yaml:"enabled" default:"true"`
	Tags     []string      `env:"TEST_TAGS" yaml:"tags"`
	Required string        `env:"TEST_REQUIRED" yaml:"required" required:"true"`
	Nested   nestedConfig  `yaml:"nested,inline"`
}

type nestedConfig struct {
	Value string `env:"TEST_NESTED_VALUE" yaml:"value" default:"nested-default"`
}

type validatedConfig struct {
	Mode string `env:"TEST_MODE" yaml:"mode" default:"bad"`
}

func (c *validatedConfig) Validate() error {
	if c.Mode != "good" {
		return errors.New("mode must be good")
	}
	return nil
}

func TestGetConfigFromEnvVarsDefaults(t *testing.T) {
	t.Setenv("TEST_REQUIRED", "present")

	var cfg testConfig
	require.NoError(t, GetConfigFromEnvVars(&cfg))

	assert.Equal(t, "fallback", cfg.Name)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "nested-default", cfg.Nested.Value)
}

func TestGetConfigFromEnvVarsOverrides(t *testing.T) {
	t.Setenv("TEST_REQUIRED", "present")
	t.Setenv("TEST_NAME", "custom")
	t.Setenv("TEST_PORT", "9999")
	t.Setenv("TEST_TIMEOUT", "5m")
	t.Setenv("TEST_ENABLED", "false")
	t.Setenv("TEST_TAGS", "a, b,c")
	t.Setenv("TEST_NESTED_VALUE", "from-env")

	var cfg testConfig
	require.NoError(t, GetConfigFromEnvVars(&cfg))

	assert.Equal(t, "custom", cfg.Name)
	assert.Equal(t, 9999, cfg.Port)
	assert.Equal(t, 5*time.Minute, cfg.Timeout)
	assert.False(t, cfg.Enabled)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.Tags)
	assert.Equal(t, "from-env", cfg.Nested.Value)
}

func TestGetConfigFromEnvVarsMissingRequired(t *testing.T) {
	os.Unsetenv("TEST_REQUIRED")

	var cfg testConfig
	err := GetConfigFromEnvVars(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TEST_REQUIRED")
}

func TestGetConfigFromEnvVarsBadValue(t *testing.T) {
	t.Setenv("TEST_REQUIRED", "present")
	t.Setenv("TEST_PORT", "not-a-number")

	var cfg testConfig
	assert.Error(t, GetConfigFromEnvVars(&cfg))
}

func TestValidatorIsCalled(t *testing.T) {
	var cfg validatedConfig
	err := GetConfigFromEnvVars(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mode must be good")

	t.Setenv("TEST_MODE", "good")
	require.NoError(t, GetConfigFromEnvVars(&cfg))
}

func TestGetConfigFromYAMLFile(t *testing.T) {
	t.Setenv("TEST_REQUIRED", "present")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: from-yaml\nport: 7000\n"), 0o600))

	var cfg testConfig
	require.NoError(t, GetConfig(&cfg, path, false))

	assert.Equal(t, "from-yaml", cfg.Name)
	assert.Equal(t, 7000, cfg.Port)
	// Defaults still fill what the file omits.
	assert.Equal(t, 30*time.Second, cfg.Timeout)
}

func TestGetConfigEnvOverridesFile(t *testing.T) {
	t.Setenv("TEST_REQUIRED", "present")
	t.Setenv("TEST_NAME", "from-env")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: from-yaml\n"), 0o600))

	var cfg testConfig
	require.NoError(t, GetConfig(&cfg, path, false))
	assert.Equal(t, "from-env", cfg.Name)
}

func TestGetConfigMissingFile(t *testing.T) {
	t.Setenv("TEST_REQUIRED", "present")
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	var cfg testConfig
	assert.Error(t, GetConfig(&cfg, missing, false))

	var relaxed testConfig
	assert.NoError(t, GetConfig(&relaxed, missing, true))
	assert.Equal(t, "fallback", relaxed.Name)
}
