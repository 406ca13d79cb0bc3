package crawling

import (
	"context"
	"net/url"
	"time"

	"github.com/divyanshwrite/Philippines-Automation/internal/fetch"
	"github.com/divyanshwrite/Philippines-Automation/internal/listing"
	"github.com/divyanshwrite/Philippines-Automation/internal/logger"
	"github.com/divyanshwrite/Philippines-Automation/internal/retry"
	"github.com/divyanshwrite/Philippines-Automation/internal/types"
)

// DefaultPageDelay is the delay between archive page requests.
const DefaultPageDelay = 1 * time.Second

// DefaultArchiveURLs are the FDA pages that list recent issuances as links.
var DefaultArchiveURLs = []string{
	"https://www.fda.gov.ph/archives/",
	"https://www.fda.gov.ph/latest-issuances/",
}

// ArchiveSource yields one listing page per archive URL. It implements
// listing.Source.
type ArchiveSource struct {
	urls  []string
	delay time.Duration
	http  *fetch.Options
	sleep retry.SleepFunc
	log   *logger.Logger
}

// NewArchiveSource creates an archive source. Invalid URLs are dropped.
func NewArchiveSource(urls []string, delay time.Duration, httpOpts *fetch.Options, log *logger.Logger) *ArchiveSource {
	valid := make([]string, 0, len(urls))
	for _, u := range urls {
		parsed, err := url.Parse(u)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			continue
		}
		valid = append(valid, u)
	}
	if delay < 0 {
		delay = 0
	}
	return &ArchiveSource{
		urls:  valid,
		delay: delay,
		http:  httpOpts,
		sleep: retry.Sleep,
		log:   logger.OrDiscard(log),
	}
}

// WithSleep replaces the pause between archive pages.
func (a *ArchiveSource) WithSleep(sleep retry.SleepFunc) *ArchiveSource {
	a.sleep = sleep
	return a
}

// URLs returns the archive pages that will be read.
func (a *ArchiveSource) URLs() []string {
	return a.urls
}

// Walk fetches every archive URL once. A page that fails to load is logged
// and skipped; the window is applied downstream by the classifier's year.
func (a *ArchiveSource) Walk(ctx context.Context, _ types.YearWindow, visit listing.Visitor) (listing.StopReason, error) {
	for i, pageURL := range a.urls {
		if i > 0 {
			if err := a.sleep(ctx, a.delay); err != nil {
				return "", err
			}
		}

		entries, err := a.crawl(ctx, pageURL)
		if err != nil {
			a.log.Warn("archive page skipped", "url", pageURL, "error", err)
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", ctxErr
			}
			continue
		}
		a.log.Info("archive page read", "url", pageURL, "entries", len(entries))

		if err := visit(&listing.Page{
			Number:     i + 1,
			Entries:    entries,
			Total:      -1,
			TotalPages: len(a.urls),
		}); err != nil {
			return "", err
		}
	}
	return listing.StopExhausted, nil
}

func (a *ArchiveSource) crawl(ctx context.Context, pageURL string) ([]types.ListingEntry, error) {
	result, err := fetch.URL(ctx, pageURL, a.http)
	if err != nil {
		return nil, &PageError{URL: pageURL, Stage: StageFetch, Cause: err}
	}
	entries, err := ExtractEntries(result.HTML, pageURL)
	if err != nil {
		return nil, &PageError{URL: pageURL, Stage: StageExtract, Cause: err}
	}
	return entries, nil
}
