package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultBaseURL      = "https://openrouter.ai/api/v1"
	DefaultModel        = "openai/gpt-3.5-turbo"
	DefaultAddr         = ":8080"
	DefaultAPIKeyEnvRef = "$OPENROUTER_API_KEY"
)

// Config holds the configuration for the relay
type Config struct {
	BaseURL            string   `toml:"base_url" mapstructure:"base_url"`
	APIKey             string   `toml:"api_key" mapstructure:"api_key"`             // Literal key or "$VAR" / "${VAR}" reference
	DefaultModel       string   `toml:"default_model" mapstructure:"default_model"` // Used when a request has no model override
	Addr               string   `toml:"addr" mapstructure:"addr"`
	AllowedOrigins     []string `toml:"allowed_origins" mapstructure:"allowed_origins"`
	IdleTimeoutSeconds int      `toml:"idle_timeout_seconds" mapstructure:"idle_timeout_seconds"` // 0 = disabled
	ErrorEvent         bool     `toml:"error_event" mapstructure:"error_event"`                   // Send an "error" event before a failing close
	LogLevel           string   `toml:"log_level" mapstructure:"log_level"`
	LogPretty          bool     `toml:"log_pretty" mapstructure:"log_pretty"`
	LogFile            string   `toml:"log_file" mapstructure:"log_file"`
}

// NewDefaultConfig returns a new Config with default values
func NewDefaultConfig() *Config {
	return &Config{
		BaseURL:            DefaultBaseURL,
		APIKey:             DefaultAPIKeyEnvRef,
		DefaultModel:       DefaultModel,
		Addr:               DefaultAddr,
		AllowedOrigins:     []string{"http://localhost:5173"},
		IdleTimeoutSeconds: 0,
		ErrorEvent:         false,
		LogLevel:           "info",
		LogPretty:          true,
		LogFile:            "",
	}
}

// SetDefaults registers every default value with v so that viper can
// merge files and environment variables on top of them.
func SetDefaults(v *viper.Viper) {
	d := NewDefaultConfig()
	v.SetDefault("base_url", d.BaseURL)
	v.SetDefault("api_key", d.APIKey)
	v.SetDefault("default_model", d.DefaultModel)
	v.SetDefault("addr", d.Addr)
	v.SetDefault("allowed_origins", d.AllowedOrigins)
	v.SetDefault("idle_timeout_seconds", d.IdleTimeoutSeconds)
	v.SetDefault("error_event", d.ErrorEvent)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_pretty", d.LogPretty)
	v.SetDefault("log_file", d.LogFile)
}

// LoadConfig loads configuration from the global viper instance
func LoadConfig() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom loads configuration from v and expands environment references.
func LoadFrom(v *viper.Viper) (*Config, error) {
	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	config.APIKey = expandEnvVar(config.APIKey)
	config.BaseURL = expandEnvVar(config.BaseURL)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate reports configuration values the relay cannot run with.
// A missing API key is not an error here; see GetToken.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL is not configured. Set it in config file (base_url) or environment variable (CHATT_BASE_URL)")
	}
	if c.DefaultModel == "" {
		return fmt.Errorf("default model is not configured. Set it in config file (default_model) or environment variable (CHATT_DEFAULT_MODEL)")
	}
	if c.IdleTimeoutSeconds < 0 {
		return fmt.Errorf("idle_timeout_seconds must not be negative (got %d)", c.IdleTimeoutSeconds)
	}
	return nil
}

// IdleTimeout returns the maximum wait between upstream chunks, or 0 when disabled
func (c *Config) IdleTimeout() time.Duration {
	return time.Duration(c.IdleTimeoutSeconds) * time.Second
}
