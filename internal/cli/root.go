package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/safelink/internal/model"
	"github.com/ppiankov/safelink/internal/pipeline"
	"github.com/ppiankov/safelink/internal/store"
)

// Version is set at build time
var Version = "v0.1.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "safelink",
	Short: "Safelink - URL safety scoring with community feedback",
	Long: `Safelink scores a URL from 0 (dangerous) to 10 (safe) using a fixed set of
transparent heuristics, optionally confirms ambiguous results with an external
reputation service, and keeps a shared history of scans with community
likes, dislikes and comments.

A score is an indicator, not a guarantee.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number and build information for Safelink.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("safelink %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.safelink/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Bind flags to viper
	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(home + "/.safelink")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match SAFELINK_* (SAFELINK_STORE_BACKEND -> store.backend)
	viper.SetEnvPrefix("SAFELINK")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// app holds what a command needs to scan and read history
type app struct {
	cfg      *model.Config
	store    store.Store
	pipeline *pipeline.Pipeline
}

// openApp loads configuration, opens the store and wires the pipeline
func openApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return nil, err
	}

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Backend, err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Store: %s\n", cfg.Store.Backend)
		if cfg.Reputation.Provider != "" {
			fmt.Fprintf(os.Stderr, "Reputation provider: %s\n", cfg.Reputation.Provider)
		}
		fmt.Fprintln(os.Stderr)
	}

	return &app{
		cfg:      cfg,
		store:    st,
		pipeline: pipeline.FromConfig(cfg, st, os.Stderr),
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close store: %v\n", err)
	}
}
