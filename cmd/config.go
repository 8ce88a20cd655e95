package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Joach27/chatt/internal/chatt/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configFields = []string{
	"configfile", "base_url", "api_key", "default_model", "addr", "allowed_origins",
	"idle_timeout_seconds", "error_event", "log_level", "log_pretty", "log_file",
}

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config [field]",
	Short: "Display current configuration",
	Long: `Display the current configuration values.
This command shows all configuration values loaded from the config file and environment variables.
The API key is always masked.

If a field name is specified, only that field's value is displayed.
Available fields: ` + strings.Join(configFields, ", ") + `

Examples:
  chatt config                  # Show all configuration
  chatt config default_model    # Show only the default model
  chatt config api_key          # Show only the (masked) API key`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(args) > 0 {
			value, err := configValue(cfg, viper.ConfigFileUsed(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(out, value)
			return nil
		}
		printConfig(out, cfg, viper.ConfigFileUsed())
		return nil
	},
}

// configValue returns the display value of one field
func configValue(cfg *config.Config, configFile, field string) (string, error) {
	switch strings.ToLower(field) {
	case "configfile":
		return configFile, nil
	case "base_url", "baseurl":
		return cfg.BaseURL, nil
	case "api_key", "apikey":
		return config.MaskToken(cfg.APIKey), nil
	case "default_model", "model":
		return cfg.DefaultModel, nil
	case "addr":
		return cfg.Addr, nil
	case "allowed_origins", "origins":
		return strings.Join(cfg.AllowedOrigins, ","), nil
	case "idle_timeout_seconds", "idle_timeout":
		return strconv.Itoa(cfg.IdleTimeoutSeconds), nil
	case "error_event":
		return strconv.FormatBool(cfg.ErrorEvent), nil
	case "log_level":
		return cfg.LogLevel, nil
	case "log_pretty":
		return strconv.FormatBool(cfg.LogPretty), nil
	case "log_file":
		return cfg.LogFile, nil
	default:
		return "", fmt.Errorf("unknown field: %s (available fields: %s)", field, strings.Join(configFields, ", "))
	}
}

func printConfig(w io.Writer, cfg *config.Config, configFile string) {
	for _, field := range configFields {
		value, _ := configValue(cfg, configFile, field)
		fmt.Fprintf(w, "%s: %s\n", field, value)
	}
}

func init() {
	rootCmd.AddCommand(configCmd)
}
