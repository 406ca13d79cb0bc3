package main

import (
	"context"
	"fmt"
	"os"

	"github.com/divyanshwrite/Philippines-Automation/internal/archive"
	"github.com/divyanshwrite/Philippines-Automation/internal/config"
	"github.com/divyanshwrite/Philippines-Automation/internal/crawling"
	"github.com/divyanshwrite/Philippines-Automation/internal/db"
	"github.com/divyanshwrite/Philippines-Automation/internal/gcp"
	"github.com/divyanshwrite/Philippines-Automation/internal/ingestion"
	"github.com/divyanshwrite/Philippines-Automation/internal/listing"
	"github.com/divyanshwrite/Philippines-Automation/internal/logger"
	"github.com/divyanshwrite/Philippines-Automation/internal/metrics"
)

// buildSource returns the REST paginator, followed by the archive crawl when
// categories are enabled.
func buildSource(cfg *config.Config, log *logger.Logger) listing.Source {
	pag := listing.NewPaginator(cfg.ListingOptions(), log.With("component", "listing"))
	if !cfg.Categories.Enabled {
		return pag
	}
	arch := crawling.NewArchiveSource(cfg.Categories.URLs, cfg.Categories.PageDelay, cfg.HTTPOptions(), log.With("component", "categories"))
	return listing.Multi{pag, arch}
}

// openStore connects the configured backend. The returned close func is never nil.
func openStore(ctx context.Context, cfg *config.Config) (ingestion.Store, func(), error) {
	switch cfg.Store.Backend {
	case config.BackendMemory:
		return ingestion.NewMemoryStore(), func() {}, nil

	case config.BackendFirestore:
		client, err := gcp.NewFirestoreClient(ctx, cfg.Store.ProjectID)
		if err != nil {
			return nil, nil, &ingestion.ConfigurationError{Component: "store", Cause: err}
		}
		store := gcp.NewGuidelineStore(client, cfg.Store.Collection)
		return store, func() { _ = store.Close() }, nil

	case config.BackendPostgres, "":
		database, err := db.ConnectTable(ctx, cfg.Store.DatabaseURL, cfg.Table())
		if err != nil {
			return nil, nil, &ingestion.ConfigurationError{Component: "store", Cause: err}
		}
		return database, database.Close, nil
	}
	return nil, nil, &ingestion.ConfigurationError{
		Component: "store",
		Cause:     fmt.Errorf("unknown store backend %q", cfg.Store.Backend),
	}
}

// openArchiver returns the text archive, or nil when neither a directory nor
// a bucket is configured.
func openArchiver(ctx context.Context, cfg *config.Config, log *logger.Logger) (ingestion.Archiver, func(), error) {
	switch {
	case cfg.Archive.Dir != "":
		dir, err := archive.NewDir(cfg.Archive.Dir, cfg.Archive.Source, log.With("component", "archive"))
		if err != nil {
			return nil, nil, &ingestion.ConfigurationError{Component: "archive", Cause: err}
		}
		return dir, func() {}, nil

	case cfg.Archive.Bucket != "":
		client, err := gcp.NewStorageClient(ctx)
		if err != nil {
			return nil, nil, &ingestion.ConfigurationError{Component: "archive", Cause: err}
		}
		arch := gcp.NewObjectArchive(client, cfg.Archive.Bucket, cfg.Archive.Prefix, cfg.Archive.Source, log.With("component", "archive"))
		return arch, func() { _ = client.Close() }, nil
	}
	return nil, func() {}, nil
}

// pushMetrics sends the run's counters to the Pushgateway when one is
// configured. Failures are logged, never returned.
func pushMetrics(ctx context.Context, cfg *config.Config, rec *metrics.Recorder, sum *ingestion.Summary, log *logger.Logger) {
	rec.Finished(sum.Duration().Seconds(), sum.FinishedAt.Unix())
	if cfg.Metrics.PushgatewayURL == "" {
		return
	}

	instance, _ := os.Hostname()
	if err := rec.Push(ctx, cfg.Metrics.PushgatewayURL, cfg.Metrics.Job, instance); err != nil {
		log.Warn("metrics push failed", "url", cfg.Metrics.PushgatewayURL, "error", err)
		return
	}
	log.Debug("metrics pushed", "url", cfg.Metrics.PushgatewayURL, "job", cfg.Metrics.Job)
}
