package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/safelink/internal/model"
)

var envKeyReplacer = strings.NewReplacer(".", "_")

// configKeys are the dotted keys bound to SAFELINK_* variables. Viper only
// resolves env vars for keys it already knows about.
var configKeys = []string{
	"http.timeout", "http.user_agent", "http.http_proxy", "http.https_proxy", "http.no_proxy",
	"gate.enabled", "gate.probe_timeout", "gate.allow_list", "gate.cache_ttl",
	"reputation.provider", "reputation.base_url", "reputation.api_key", "reputation.model", "reputation.timeout",
	"heuristics.mode", "heuristics.whois_timeout",
	"store.backend", "store.dir", "store.database_url", "store.memory_ttl",
	"concurrency.workers",
	"rate_limiting.requests_per_second", "rate_limiting.burst_size",
	"server.listen_addr",
	"output.verbose",
}

// loadConfig layers v (flags, env, file) over the defaults
func loadConfig(v *viper.Viper) (*model.Config, error) {
	cfg := model.DefaultConfig()

	for _, key := range configKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	// Provider keys may come from the usual variable instead of SAFELINK_*
	if cfg.Reputation.APIKey == "" {
		switch strings.ToLower(cfg.Reputation.Provider) {
		case "openai":
			cfg.Reputation.APIKey = os.Getenv("OPENAI_API_KEY")
		case "anthropic":
			cfg.Reputation.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	}

	return cfg, nil
}

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage Safelink configuration",
	Long: `Manage Safelink configuration files and settings.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (SAFELINK_*)
3. Config file (~/.safelink/config.yaml)
4. Defaults`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration after applying defaults, config file, env vars and flags.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}

		configFile := viper.ConfigFileUsed()
		if configFile != "" {
			fmt.Fprintf(os.Stderr, "Configuration file: %s\n\n", configFile)
		} else {
			fmt.Fprintf(os.Stderr, "No configuration file found (using defaults)\n\n")
		}

		// Never echo secrets
		if cfg.Reputation.APIKey != "" {
			cfg.Reputation.APIKey = "********"
		}
		if cfg.Store.DatabaseURL != "" {
			cfg.Store.DatabaseURL = "********"
		}

		fmt.Println("═══════════════════════════════════════════════════════════")
		fmt.Println("  Current Configuration")
		fmt.Println("═══════════════════════════════════════════════════════════")
		fmt.Println()

		yamlData, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("error marshaling config: %w", err)
		}

		fmt.Println(string(yamlData))

		fmt.Println("═══════════════════════════════════════════════════════════")
		fmt.Println()
		fmt.Println("Configuration hierarchy (highest to lowest priority):")
		fmt.Println("  1. CLI flags")
		fmt.Println("  2. Environment variables (SAFELINK_*, OPENAI_API_KEY, ANTHROPIC_API_KEY)")
		fmt.Println("  3. Config file (~/.safelink/config.yaml)")
		fmt.Println("  4. Defaults")
		fmt.Println()

		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize default configuration file",
	Long:  `Create a default configuration file at ~/.safelink/config.yaml with all available options.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("error finding home directory: %w", err)
		}

		configDir := home + "/.safelink"
		configPath := configDir + "/config.yaml"

		if err := writeDefaultConfig(configDir, configPath); err != nil {
			return err
		}

		fmt.Printf("✓ Created default configuration: %s\n", configPath)
		fmt.Printf("\nTo view the configuration:\n")
		fmt.Printf("  safelink config show\n")
		fmt.Printf("\nTo customize, edit the file with your preferred editor:\n")
		fmt.Printf("  $EDITOR %s\n", configPath)
		fmt.Printf("\n")

		return nil
	},
}

// writeDefaultConfig writes the commented defaults, refusing to overwrite
func writeDefaultConfig(configDir, configPath string) (err error) {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists: %s\nUse 'safelink config show' to view it, or delete it first to recreate", configPath)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	yamlData, err := yaml.Marshal(model.DefaultConfig())
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	f, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("error creating config file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close config file: %w", closeErr)
		}
	}()

	// Helper for writing with error checking
	printf := func(format string, a ...interface{}) {
		if err != nil {
			return
		}
		_, err = fmt.Fprintf(f, format, a...)
	}

	printf("# Safelink Configuration File\n")
	printf("#\n")
	printf("# Configuration hierarchy (highest to lowest priority):\n")
	printf("#   1. CLI flags\n")
	printf("#   2. Environment variables (SAFELINK_*, e.g. SAFELINK_STORE_BACKEND=memory)\n")
	printf("#   3. This config file\n")
	printf("#   4. Built-in defaults\n\n")
	printf("%s", yamlData)
	printf("\n# Reputation providers: \"http\" (base_url + api_key), \"openai\" (model + api_key),\n#   \"anthropic\" (model + api_key), \"ollama\" (model, base_url)\n")
	printf("# Store backends: memory, disk, postgres (database_url)\n")
	printf("# API keys are better kept in the environment:\n")
	printf("#   export SAFELINK_REPUTATION_API_KEY=...\n")
	printf("#   export OPENAI_API_KEY=sk-...\n")
	printf("#   export ANTHROPIC_API_KEY=sk-ant-...\n")

	return err
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}
