package config

import (
	"fmt"
	"os"
	"strings"
)

// expandEnvVar expands an environment variable reference.
// Supports both $VAR and ${VAR} syntax; any other value is returned as-is.
// If the environment variable is not set, returns empty string.
func expandEnvVar(value string) string {
	if !strings.HasPrefix(value, "$") {
		return value
	}

	var envVarName string
	if strings.HasPrefix(value, "${") && strings.HasSuffix(value, "}") {
		envVarName = value[2 : len(value)-1]
	} else {
		envVarName = strings.TrimPrefix(value, "$")
	}

	return os.Getenv(envVarName)
}

// GetBaseURL returns the upstream base URL without a trailing slash
func (c *Config) GetBaseURL() (string, error) {
	baseURL := strings.TrimRight(c.BaseURL, "/")
	if baseURL == "" {
		return "", fmt.Errorf("base URL is not configured. Set it in config file (base_url) or environment variable (CHATT_BASE_URL)")
	}
	return baseURL, nil
}

// GetToken returns the upstream API key.
// Environment references are already expanded during LoadConfig().
func (c *Config) GetToken() (string, error) {
	if c.APIKey == "" {
		return "", fmt.Errorf("API key is not configured. Set it in config file (api_key) or environment variable (CHATT_API_KEY or OPENROUTER_API_KEY)")
	}
	return c.APIKey, nil
}

// MaskToken returns a masked version of the token for display
func MaskToken(token string) string {
	if len(token) <= 8 {
		return "********"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
