package ingestion

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/divyanshwrite/Philippines-Automation/internal/archive"
	"github.com/divyanshwrite/Philippines-Automation/internal/classify"
	"github.com/divyanshwrite/Philippines-Automation/internal/listing"
	"github.com/divyanshwrite/Philippines-Automation/internal/logger"
	"github.com/divyanshwrite/Philippines-Automation/internal/retry"
	"github.com/divyanshwrite/Philippines-Automation/internal/types"
)

// DefaultItemDelay is the pause after every item that reached the network.
const DefaultItemDelay = 800 * time.Millisecond

// Store persists guideline records keyed by URL.
type Store interface {
	UpsertGuideline(ctx context.Context, rec *types.GuidelineRecord) (types.UpsertResult, error)
}

// URLSet is the durable set of URLs already ingested in earlier runs.
type URLSet interface {
	Contains(url string) bool
	AddAll(urls []string) error
}

// Fetcher retrieves and normalizes one detail page.
type Fetcher interface {
	Fetch(ctx context.Context, url, title string) (*types.IngestedDocument, error)
}

// Archiver keeps a text snapshot of an ingested document and returns where
// it was written.
type Archiver interface {
	Archive(ctx context.Context, item types.ClassifiedDocument, doc *types.IngestedDocument) (string, error)
}

// Recorder receives run counters. metrics.Recorder implements it.
type Recorder interface {
	Outcome(outcome string)
	Page(origin string)
	Stored(characters int)
}

// Deps are the collaborators of a Coordinator. Archiver and Metrics are optional.
type Deps struct {
	Source     listing.Source
	Classifier *classify.Classifier
	Fetcher    Fetcher
	Store      Store
	Tracker    URLSet
	Archiver   Archiver
	Metrics    Recorder
}

// Options tunes a Coordinator.
type Options struct {
	ItemDelay time.Duration
	Record    RecordOptions
}

// Coordinator runs one ingestion pass. It is not safe for concurrent use.
type Coordinator struct {
	deps  Deps
	opts  Options
	sleep retry.SleepFunc
	now   func() time.Time
	log   *logger.Logger
}

// NewCoordinator validates deps and builds a coordinator.
func NewCoordinator(deps Deps, opts Options, log *logger.Logger) (*Coordinator, error) {
	if deps.Source == nil {
		return nil, &ConfigurationError{Component: "listing", Cause: ErrNoSource}
	}
	if deps.Store == nil {
		return nil, &ConfigurationError{Component: "store", Cause: ErrNoStore}
	}
	if deps.Classifier == nil {
		deps.Classifier = classify.New(classify.DefaultRules())
	}
	if deps.Fetcher == nil {
		return nil, &ConfigurationError{Component: "fetcher", Cause: errors.New("no fetcher configured")}
	}
	if deps.Tracker == nil {
		return nil, &ConfigurationError{Component: "tracker", Cause: errors.New("no tracker configured")}
	}
	if opts.ItemDelay < 0 {
		opts.ItemDelay = 0
	}
	return &Coordinator{
		deps:  deps,
		opts:  opts,
		sleep: retry.Sleep,
		now:   time.Now,
		log:   logger.OrDiscard(log),
	}, nil
}

// WithSleep replaces the pause between items.
func (c *Coordinator) WithSleep(sleep retry.SleepFunc) *Coordinator {
	c.sleep = sleep
	return c
}

// WithClock replaces the clock used for run timestamps.
func (c *Coordinator) WithClock(now func() time.Time) *Coordinator {
	c.now = now
	return c
}

// Run walks the source once for window. Item failures are counted, never
// returned. The returned error is a *ConfigurationError when the source fails
// its preflight, or the context's error when the run was cut short; in the
// latter case the summary is still returned and URLs stored so far are
// recorded in the tracker.
func (c *Coordinator) Run(ctx context.Context, window types.YearWindow) (*Summary, error) {
	sum := &Summary{
		RunID:     uuid.NewString(),
		Window:    window.String(),
		StartedAt: c.now(),
	}
	log := c.log.With("run_id", sum.RunID)

	if p, ok := c.deps.Source.(listing.Preflighter); ok {
		if err := p.Preflight(ctx); err != nil {
			sum.FinishedAt = c.now()
			return sum, &ConfigurationError{Component: "listing", Cause: err}
		}
	}

	log.Info("ingestion run started", "window", sum.Window)

	inRun := make(map[string]bool)
	var pending []string

	reason, walkErr := c.deps.Source.Walk(ctx, window, func(page *listing.Page) error {
		sum.Pages++
		if c.deps.Metrics != nil {
			c.deps.Metrics.Page(pageOrigin(page))
		}
		log.Debug("listing page", "page", page.Number, "entries", len(page.Entries))

		for _, entry := range page.Entries {
			if err := ctx.Err(); err != nil {
				return err
			}
			sum.Discovered++

			out := c.dispatch(ctx, log, window, entry, inRun)
			sum.record(out)
			if c.deps.Metrics != nil {
				c.deps.Metrics.Outcome(string(out.Kind))
				if out.Kind == OutcomeStored {
					c.deps.Metrics.Stored(out.Chars)
				}
			}
			if out.Kind == OutcomeStored {
				inRun[out.URL] = true
				pending = append(pending, out.URL)
			}

			if out.Networked() {
				if err := c.sleep(ctx, c.opts.ItemDelay); err != nil {
					return err
				}
			}
		}
		return nil
	})
	sum.StopReason = reason
	if walkErr != nil {
		sum.Interrupted = true
		log.Warn("ingestion run interrupted", "error", walkErr)
	}

	if len(pending) > 0 {
		if err := c.deps.Tracker.AddAll(pending); err != nil {
			sum.TrackerError = err.Error()
			log.Error("failed to record processed URLs", "count", len(pending), "error", err)
		} else {
			sum.TrackerFlushed = len(pending)
		}
	}

	sum.FinishedAt = c.now()
	log.Info("ingestion run finished",
		"status", sum.Status(),
		"stop_reason", sum.StopReason,
		"discovered", sum.Discovered,
		"in_scope", sum.InScope,
		"stored", sum.Stored,
		"failed", sum.Failed(),
	)
	return sum, walkErr
}

// dispatch decides and performs the work for one entry.
func (c *Coordinator) dispatch(ctx context.Context, log *logger.Logger, window types.YearWindow, entry types.ListingEntry, inRun map[string]bool) Outcome {
	item, ok := c.deps.Classifier.Classify(entry)
	if !ok {
		return Outcome{Kind: OutcomeOutOfScope, URL: entry.URL}
	}
	if !window.Contains(item.DocumentYear) {
		return Outcome{Kind: OutcomeOutsideWindow, URL: entry.URL}
	}
	if c.deps.Tracker.Contains(entry.URL) {
		return Outcome{Kind: OutcomeAlreadyProcessed, URL: entry.URL}
	}
	if inRun[entry.URL] {
		return Outcome{Kind: OutcomeDuplicateInRun, URL: entry.URL}
	}

	itemLog := log.With("url", entry.URL, "title", logger.Title(item.Title))

	doc, err := c.deps.Fetcher.Fetch(ctx, entry.URL, item.Title)
	if err != nil {
		itemLog.Error("fetch failed", "error", err)
		return Outcome{Kind: OutcomeFetchFailed, URL: entry.URL, Err: err}
	}

	rec := BuildRecord(item, doc, c.opts.Record)
	result, err := c.deps.Store.UpsertGuideline(ctx, rec)
	if err != nil {
		itemLog.Error("store failed", "error", err)
		return Outcome{Kind: OutcomeStoreFailed, URL: entry.URL, Err: err}
	}
	itemLog.Info("stored guideline", "result", result, "year", item.DocumentYear, "chars", doc.ContentLength)

	if c.deps.Archiver != nil {
		location, err := c.deps.Archiver.Archive(ctx, item, doc)
		switch {
		case errors.Is(err, archive.ErrBodyTooShort):
			itemLog.Debug("archive skipped", "reason", err)
		case err != nil:
			itemLog.Warn("archive failed", "error", err)
		default:
			itemLog.Debug("archived", "location", location)
		}
	}

	return Outcome{Kind: OutcomeStored, URL: entry.URL, Result: result, Chars: doc.ContentLength}
}

func pageOrigin(page *listing.Page) string {
	if len(page.Entries) > 0 && page.Entries[0].Origin != "" {
		return page.Entries[0].Origin
	}
	return types.OriginRESTListing
}
