package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromDefaults(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "sk-or-test-key")

	v := viper.New()
	SetDefaults(v)

	cfg, err := LoadFrom(v)
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, DefaultModel, cfg.DefaultModel)
	assert.Equal(t, "sk-or-test-key", cfg.APIKey)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.AllowedOrigins)
	assert.Zero(t, cfg.IdleTimeout())
}

func TestLoadFromOverrides(t *testing.T) {
	t.Setenv("MY_KEY", "secret-value")

	v := viper.New()
	SetDefaults(v)
	v.Set("api_key", "${MY_KEY}")
	v.Set("default_model", "mistralai/mistral-7b-instruct")
	v.Set("idle_timeout_seconds", 15)

	cfg, err := LoadFrom(v)
	require.NoError(t, err)

	assert.Equal(t, "secret-value", cfg.APIKey)
	assert.Equal(t, "mistralai/mistral-7b-instruct", cfg.DefaultModel)
	assert.Equal(t, 15*time.Second, cfg.IdleTimeout())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"empty base url", func(c *Config) { c.BaseURL = "" }, true},
		{"empty model", func(c *Config) { c.DefaultModel = "" }, true},
		{"negative idle timeout", func(c *Config) { c.IdleTimeoutSeconds = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestExpandEnvVar(t *testing.T) {
	t.Setenv("CHATT_TEST_VAR", "expanded")

	assert.Equal(t, "expanded", expandEnvVar("$CHATT_TEST_VAR"))
	assert.Equal(t, "expanded", expandEnvVar("${CHATT_TEST_VAR}"))
	assert.Equal(t, "literal", expandEnvVar("literal"))
	assert.Equal(t, "", expandEnvVar("$CHATT_TEST_UNSET_VAR"))
}

func TestGetters(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.BaseURL = "https://example.test/api/v1/"
	cfg.APIKey = ""

	baseURL, err := cfg.GetBaseURL()
	require.NoError(t, err)
	assert.Equal(t, "https://example.test/api/v1", baseURL)

	_, err = cfg.GetToken()
	assert.Error(t, err)

	assert.Equal(t, "********", MaskToken("short"))
	assert.Equal(t, "sk-o...cdef", MaskToken("sk-or-1234567890abcdef"))
}
