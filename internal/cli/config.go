package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/credpub/credpub/internal/model"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage credpub configuration",
	Long: `Manage credpub configuration files and settings.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (CREDPUB_*)
3. Config file (~/.credpub/config.yaml)
4. Defaults`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := model.DefaultConfig()
		if err := viper.Unmarshal(cfg); err != nil {
			return fmt.Errorf("resolve configuration: %w", err)
		}
		// Never echo credentials
		cfg.Registry.APIKey = ""

		if configFile := viper.ConfigFileUsed(); configFile != "" {
			fmt.Fprintf(os.Stderr, "Configuration file: %s\n\n", configFile)
		} else {
			fmt.Fprintf(os.Stderr, "No configuration file found (using defaults)\n\n")
		}

		out, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}
		fmt.Println(string(out))
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize default configuration file",
	Long:  `Create a default configuration file at ~/.credpub/config.yaml.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("find home directory: %w", err)
		}

		configDir := home + "/.credpub"
		configPath := configDir + "/config.yaml"

		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("config file already exists: %s\nUse 'credpub config show' to view it, or delete it first to recreate", configPath)
		}
		if err := os.MkdirAll(configDir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}

		body, err := yaml.Marshal(model.DefaultConfig())
		if err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}

		header := "# credpub configuration\n" +
			"#\n" +
			"# Hierarchy (highest to lowest priority):\n" +
			"#   1. CLI flags\n" +
			"#   2. Environment variables (CREDPUB_*)\n" +
			"#   3. This config file\n" +
			"#   4. Built-in defaults\n" +
			"#\n" +
			"# The API key is read from CREDPUB_API_KEY; prefer the environment\n" +
			"# variable over writing it here.\n\n"

		if err := os.WriteFile(configPath, append([]byte(header), body...), 0o600); err != nil {
			return fmt.Errorf("write config file: %w", err)
		}

		fmt.Printf("Created default configuration: %s\n", configPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}
