package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/divyanshwrite/Philippines-Automation/internal/classify"
	"github.com/divyanshwrite/Philippines-Automation/internal/config"
	"github.com/divyanshwrite/Philippines-Automation/internal/fetch"
	"github.com/divyanshwrite/Philippines-Automation/internal/ingestion"
	"github.com/divyanshwrite/Philippines-Automation/internal/logger"
	"github.com/divyanshwrite/Philippines-Automation/internal/metrics"
	"github.com/divyanshwrite/Philippines-Automation/internal/observability"
	"github.com/divyanshwrite/Philippines-Automation/internal/tracker"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Discover and ingest regulatory issuances for the target years",
	Long: `Walks the listing newest first, classifies each entry, skips anything outside
the year window or already processed, then fetches, normalizes and upserts the rest.

Item failures are logged and counted; the run continues. URLs are recorded in the
processed-URL log only after their record was stored.`,
	RunE: runIngestCmd,
}

var (
	runYears           string
	runMaxPages        int
	runTracker         string
	runDryRun          bool
	runCategories      bool
	runBrowserFallback bool
	runArchiveDir      string
	runArchiveBucket   string
	runFailOnErrors    bool
)

func init() {
	runCommand.Flags().StringVar(&runYears, "years", "", "Comma-separated target years (default: current and previous year)")
	runCommand.Flags().IntVar(&runMaxPages, "max-pages", 0, "Maximum listing pages to walk")
	runCommand.Flags().StringVar(&runTracker, "tracker", "", "Path to the processed-URL log")
	runCommand.Flags().BoolVar(&runDryRun, "dry-run", false, "Store in memory, skip archiving and leave the processed-URL log untouched")
	runCommand.Flags().BoolVar(&runCategories, "categories", false, "Also crawl the category archive pages")
	runCommand.Flags().BoolVar(&runBrowserFallback, "browser-fallback", false, "Render short pages with headless Chrome")
	runCommand.Flags().StringVar(&runArchiveDir, "archive-dir", "", "Write a text snapshot of every stored document to this directory")
	runCommand.Flags().StringVar(&runArchiveBucket, "archive-bucket", "", "Write a text snapshot of every stored document to this GCS bucket")
	runCommand.Flags().BoolVar(&runFailOnErrors, "fail-on-errors", false, "Exit non-zero when the run is degraded")

	rootCmd.AddCommand(runCommand)
}

// applyRunFlags overrides cfg with the flags that were set on cmd.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("years") {
		cfg.Ingestion.TargetYears = config.SplitList(runYears)
	}
	if flags.Changed("max-pages") {
		cfg.Listing.MaxPages = runMaxPages
	}
	if flags.Changed("tracker") {
		cfg.Tracker.Path = runTracker
	}
	if flags.Changed("categories") {
		cfg.Categories.Enabled = runCategories
	}
	if flags.Changed("browser-fallback") {
		cfg.Fetch.BrowserFallback = runBrowserFallback
	}
	if flags.Changed("archive-dir") {
		cfg.Archive.Dir = runArchiveDir
		cfg.Archive.Bucket = ""
	}
	if flags.Changed("archive-bucket") {
		cfg.Archive.Bucket = runArchiveBucket
		cfg.Archive.Dir = ""
	}
	if runDryRun {
		cfg.Store.Backend = config.BackendMemory
	}
}

func runIngestCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyRunFlags(cmd, cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sum, err := ingest(ctx, cfg, runDryRun, cmd.OutOrStdout(), newLogger(cfg))
	if err != nil {
		return err
	}
	if runFailOnErrors && sum.Status() == ingestion.StatusDegraded {
		return fmt.Errorf("run degraded: %d failed, stop reason %s", sum.Failed(), sum.StopReason)
	}
	return nil
}

// ingest wires every component from cfg, runs one pass, prints the summary to
// out and pushes metrics. Configuration problems are *ingestion.ConfigurationError.
func ingest(ctx context.Context, cfg *config.Config, dryRun bool, out io.Writer, log *logger.Logger) (*ingestion.Summary, error) {
	if err := cfg.Validate(); err != nil {
		return nil, &ingestion.ConfigurationError{Component: "config", Cause: err}
	}
	window, err := cfg.Window(time.Now())
	if err != nil {
		return nil, &ingestion.ConfigurationError{Component: "config", Cause: err}
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer closeStore()

	processed, err := tracker.Open(cfg.Tracker.Path)
	if err != nil {
		return nil, &ingestion.ConfigurationError{Component: "tracker", Cause: err}
	}
	var urls ingestion.URLSet = processed
	if dryRun {
		urls = ingestion.ReadOnly(processed)
	}

	// Dry runs leave no trace: no tracker writes and no archive snapshots.
	var archiver ingestion.Archiver
	if !dryRun {
		var closeArchiver func()
		archiver, closeArchiver, err = openArchiver(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		defer closeArchiver()
	}

	recorder := metrics.NewRecorder()
	coord, err := ingestion.NewCoordinator(ingestion.Deps{
		Source:     buildSource(cfg, log),
		Classifier: classify.New(cfg.Rules()),
		Fetcher:    fetch.NewFetcher(cfg.FetcherOptions(), cfg.Fetch.Retry, log.With("component", "fetch")),
		Store:      store,
		Tracker:    urls,
		Archiver:   archiver,
		Metrics:    recorder,
	}, ingestion.Options{
		ItemDelay: cfg.Ingestion.ItemDelay,
		Record:    cfg.RecordOptions(),
	}, log)
	if err != nil {
		return nil, err
	}

	log.Info("starting ingestion",
		"window", window.String(),
		"backend", cfg.Store.Backend,
		"tracker", processed.Path(),
		"known_urls", processed.Len(),
		"dry_run", dryRun,
	)

	sum, runErr := coord.Run(ctx, window)
	if sum == nil || ingestion.IsConfigurationError(runErr) {
		return sum, runErr
	}

	printer := observability.NewPrinter(out)
	printer.PrintRunSummary(sum)
	if mem, ok := store.(*ingestion.MemoryStore); ok && dryRun {
		printer.PrintRecords(mem.Records())
	}

	// Push even after an interrupt; the parent context may be done.
	pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	pushMetrics(pushCtx, cfg, recorder, sum, log)

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			return sum, fmt.Errorf("run interrupted after %d stored: %w", sum.Stored, runErr)
		}
		return sum, runErr
	}
	return sum, nil
}
