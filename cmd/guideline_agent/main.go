// Package main implements the guideline_agent CLI, which discovers FDA
// Philippines regulatory issuances and ingests them into the guideline store.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/divyanshwrite/Philippines-Automation/internal/config"
	"github.com/divyanshwrite/Philippines-Automation/internal/ingestion"
	"github.com/divyanshwrite/Philippines-Automation/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "guideline_agent",
	Short: "FDA Philippines regulatory guideline ingestion agent",
	Long: `guideline_agent walks the FDA Philippines issuance listing, keeps the circulars,
orders, advisories and memoranda published in the target years, and upserts their
text into the guideline store.

Configuration is read from a YAML (or JSON) file given with --config, then from
the environment (DATABASE_URL, GUIDELINE_TARGET_YEARS, GUIDELINE_TRACKER_PATH,
FIRESTORE_PROJECT_ID, PUSHGATEWAY_URL, LOG_LEVEL). Command-line flags win.`,
	SilenceUsage: true,
}

var (
	configPath string
	logLevel   string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML or JSON config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides LOG_LEVEL)")
}

// loadConfig builds the effective configuration: defaults, then the config
// file, then the environment, then the persistent flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, &ingestion.ConfigurationError{Component: "config", Cause: err}
		}
		cfg = loaded
	}
	cfg.ApplyEnv()

	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *logger.Logger {
	return logger.NewWithWriter(os.Stderr, cfg.Log.Level, cfg.Log.Format)
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
