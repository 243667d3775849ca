package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/specify-labs/specify/internal/config"
	"github.com/spf13/cobra"
)

var configKeys = []string{
	config.KeyAPIBase,
	config.KeyGitHubToken,
	config.KeyLogLevel,
	config.KeyTemplateRepo,
}

func init() {
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage user settings",
	Long: `Read and write settings stored at ~/.specify/config.yaml.

Keys: ` + strings.Join(configKeys, ", ") + `.
Every key can also be set through the environment, e.g. SPECIFY_API_BASE.`,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		if err := checkConfigKey(key); err != nil {
			return err
		}
		if err := config.Set(key, value); err != nil {
			return fmt.Errorf("setting config key %q: %w", key, err)
		}
		shown := value
		if key == config.KeyGitHubToken {
			shown = maskSecret(value)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, shown)
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkConfigKey(args[0]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), config.Get(args[0]))
		return nil
	},
}

func checkConfigKey(key string) error {
	if slices.Contains(configKeys, key) {
		return nil
	}
	return fmt.Errorf("unknown config key %q; valid keys: %s", key, strings.Join(configKeys, ", "))
}

// maskSecret keeps the last four characters of a token.
func maskSecret(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}
