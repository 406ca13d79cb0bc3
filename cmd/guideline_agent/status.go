package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/divyanshwrite/Philippines-Automation/internal/config"
	"github.com/divyanshwrite/Philippines-Automation/internal/db"
	"github.com/divyanshwrite/Philippines-Automation/internal/ingestion"
	"github.com/divyanshwrite/Philippines-Automation/internal/observability"
	"github.com/divyanshwrite/Philippines-Automation/internal/tracker"
)

// statusLatest is how many recent records the status command lists.
const statusLatest = 5

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the processed-URL log size and guideline store statistics",
	Long:  "Prints how many URLs the processed-URL log holds and, for the Postgres backend, record totals, per-year counts and the latest records.",
	RunE:  runStatus,
}

var statusTracker string

func init() {
	statusCmd.Flags().StringVar(&statusTracker, "tracker", "", "Path to the processed-URL log")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("tracker") {
		cfg.Tracker.Path = statusTracker
	}
	log := newLogger(cfg)

	processed, err := tracker.Open(cfg.Tracker.Path)
	if err != nil {
		return &ingestion.ConfigurationError{Component: "tracker", Cause: err}
	}

	var stats *db.GuidelineStats
	if cfg.Store.Backend == config.BackendPostgres && cfg.Store.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		database, err := db.ConnectTable(ctx, cfg.Store.DatabaseURL, cfg.Table())
		if err != nil {
			return &ingestion.ConfigurationError{Component: "store", Cause: err}
		}
		defer database.Close()

		stats, err = database.GuidelineStats(ctx, cfg.Ingestion.Agency, statusLatest)
		if err != nil {
			return err
		}
	} else {
		log.Debug("no postgres store configured, showing tracker only")
	}

	observability.NewPrinter(cmd.OutOrStdout()).PrintStatus(processed.Path(), processed.Len(), stats)
	return nil
}
