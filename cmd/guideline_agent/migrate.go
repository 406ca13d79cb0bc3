package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/divyanshwrite/Philippines-Automation/internal/config"
	"github.com/divyanshwrite/Philippines-Automation/internal/db"
	"github.com/divyanshwrite/Philippines-Automation/internal/ingestion"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the guideline schema, table and unique URL index in Postgres",
	Long:  "Creates the configured schema, the guideline table and its unique index on link_guidance. Safe to run repeatedly.",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Store.DatabaseURL == "" {
		return &ingestion.ConfigurationError{
			Component: "store",
			Cause:     fmt.Errorf("database URL required: set store.database_url or %s", config.EnvDatabaseURL),
		}
	}
	log := newLogger(cfg)

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	database, err := db.ConnectTable(ctx, cfg.Store.DatabaseURL, cfg.Table())
	if err != nil {
		return &ingestion.ConfigurationError{Component: "store", Cause: err}
	}
	defer database.Close()

	if err := database.EnsureSchema(ctx); err != nil {
		return err
	}

	log.Info("schema ready", "table", database.Table().String())
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Schema ready: %s\n", database.Table())
	return nil
}
