package listing

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/divyanshwrite/Philippines-Automation/internal/classify"
	"github.com/divyanshwrite/Philippines-Automation/internal/fetch"
	"github.com/divyanshwrite/Philippines-Automation/internal/logger"
	"github.com/divyanshwrite/Philippines-Automation/internal/retry"
	"github.com/divyanshwrite/Philippines-Automation/internal/schemas"
	"github.com/divyanshwrite/Philippines-Automation/internal/types"
)

const (
	// DefaultBaseURL is the FDA Philippines posts endpoint.
	DefaultBaseURL = "https://www.fda.gov.ph/wp-json/wp/v2/posts"
	// MaxPageSize is the largest per_page WordPress accepts.
	MaxPageSize      = 100
	DefaultMaxPages  = 20
	DefaultPageDelay = 500 * time.Millisecond
)

// Options configures a Paginator.
type Options struct {
	BaseURL   string
	PageSize  int
	MaxPages  int
	PageDelay time.Duration
	HTTP      *fetch.Options
}

// DefaultOptions returns the options used against the live site.
func DefaultOptions() Options {
	return Options{
		BaseURL:   DefaultBaseURL,
		PageSize:  MaxPageSize,
		MaxPages:  DefaultMaxPages,
		PageDelay: DefaultPageDelay,
	}
}

// Paginator walks the REST listing newest first.
type Paginator struct {
	opts       Options
	policy     retry.Policy
	sleep      retry.SleepFunc
	yearOf     func(types.ListingEntry) string
	lookupHost func(ctx context.Context, host string) ([]string, error)
	log        *logger.Logger
}

// NewPaginator creates a paginator. Zero option fields take their defaults.
func NewPaginator(opts Options, log *logger.Logger) *Paginator {
	def := DefaultOptions()
	if opts.BaseURL == "" {
		opts.BaseURL = def.BaseURL
	}
	if opts.PageSize <= 0 || opts.PageSize > MaxPageSize {
		opts.PageSize = MaxPageSize
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = def.MaxPages
	}
	if opts.PageDelay < 0 {
		opts.PageDelay = 0
	}
	if opts.HTTP == nil {
		opts.HTTP = fetch.DefaultOptions()
	}
	httpOpts := *opts.HTTP
	headers := make(map[string]string, len(httpOpts.Headers)+1)
	for k, v := range httpOpts.Headers {
		headers[k] = v
	}
	headers["Accept"] = "application/json"
	httpOpts.Headers = headers
	opts.HTTP = &httpOpts

	return &Paginator{
		opts:       opts,
		policy:     retry.Once(),
		sleep:      retry.Sleep,
		yearOf:     classify.DeriveYear,
		lookupHost: net.DefaultResolver.LookupHost,
		log:        logger.OrDiscard(log),
	}
}

// WithSleep replaces the pause between pages.
func (p *Paginator) WithSleep(sleep retry.SleepFunc) *Paginator {
	p.sleep = sleep
	return p
}

// WithResolver replaces the DNS lookup used by Preflight.
func (p *Paginator) WithResolver(lookup func(ctx context.Context, host string) ([]string, error)) *Paginator {
	p.lookupHost = lookup
	return p
}

// Options returns the effective options.
func (p *Paginator) Options() Options {
	return p.opts
}

// Preflight checks that the base URL is well formed and its host resolves.
func (p *Paginator) Preflight(ctx context.Context) error {
	u, err := url.Parse(p.opts.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid listing URL %q: %w", p.opts.BaseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid listing URL %q: must have scheme and host", p.opts.BaseURL)
	}
	if _, err := p.lookupHost(ctx, u.Hostname()); err != nil {
		return fmt.Errorf("listing host %s does not resolve: %w", u.Hostname(), err)
	}
	return nil
}

// Walk fetches pages starting at 1 and hands each to visit before the next
// page is requested. Listing failures end the walk and are reported through
// the stop reason; the returned error is only ever the context's or visit's.
func (p *Paginator) Walk(ctx context.Context, window types.YearWindow, visit Visitor) (StopReason, error) {
	for n := 1; ; n++ {
		if n > 1 {
			if err := p.sleep(ctx, p.opts.PageDelay); err != nil {
				return "", err
			}
		}

		page, reason := p.fetchPage(ctx, n)
		if reason != "" {
			if err := ctx.Err(); err != nil {
				return reason, err
			}
			return reason, nil
		}

		if len(page.Entries) == 0 {
			p.log.Info("listing exhausted", "page", n)
			return StopExhausted, nil
		}
		if n == 1 {
			p.log.Info("listing totals", "total", page.Total, "total_pages", page.TotalPages)
		}

		if err := visit(page); err != nil {
			return "", err
		}

		if page.TotalPages >= 0 && n+1 > page.TotalPages {
			p.log.Info("listing exhausted", "page", n, "total_pages", page.TotalPages)
			return StopExhausted, nil
		}
		if p.allBelow(page.Entries, window) {
			p.log.Info("listing crossed below year window", "page", n, "min_year", window.Min())
			return StopBelowWindow, nil
		}
		if n >= p.opts.MaxPages {
			p.log.Warn("listing page ceiling reached", "max_pages", p.opts.MaxPages)
			return StopPageCeiling, nil
		}
	}
}

// allBelow reports whether every entry has a known year older than the window.
// Entries without a year never count as below.
func (p *Paginator) allBelow(entries []types.ListingEntry, window types.YearWindow) bool {
	if len(entries) == 0 {
		return false
	}
	for _, e := range entries {
		if !window.IsBelow(p.yearOf(e)) {
			return false
		}
	}
	return true
}

// PageURL builds the request URL for page n.
func (p *Paginator) PageURL(n int) string {
	q := url.Values{}
	q.Set("per_page", strconv.Itoa(p.opts.PageSize))
	q.Set("page", strconv.Itoa(n))
	q.Set("orderby", "date")
	q.Set("order", "desc")

	sep := "?"
	if strings.Contains(p.opts.BaseURL, "?") {
		sep = "&"
	}
	return p.opts.BaseURL + sep + q.Encode()
}

type wpPost struct {
	Link  string `json:"link"`
	Date  string `json:"date"`
	Title struct {
		Rendered string `json:"rendered"`
	} `json:"title"`
}

func (p *Paginator) fetchPage(ctx context.Context, n int) (*Page, StopReason) {
	pageURL := p.PageURL(n)

	var res *fetch.Result
	err := p.policy.Do(ctx, p.sleep, func(ctx context.Context, _ int) error {
		r, err := fetch.URL(ctx, pageURL, p.opts.HTTP)
		if err != nil {
			return err
		}
		res = r
		return nil
	})
	if err != nil {
		p.log.Error("listing page fetch failed", "page", n, "url", pageURL, "error", err)
		return nil, StopTransportError
	}

	body := []byte(res.HTML)
	if err := schemas.ValidateListingPage(body); err != nil {
		p.log.Error("listing page payload malformed", "page", n, "error", err)
		return nil, StopMalformed
	}

	var posts []wpPost
	if err := json.Unmarshal(body, &posts); err != nil {
		p.log.Error("listing page decode failed", "page", n, "error", err)
		return nil, StopMalformed
	}

	page := &Page{
		Number:     n,
		Entries:    make([]types.ListingEntry, 0, len(posts)),
		Total:      headerInt(res, "X-WP-Total"),
		TotalPages: headerInt(res, "X-WP-TotalPages"),
	}
	for _, post := range posts {
		link := strings.TrimSpace(post.Link)
		if link == "" {
			continue
		}
		page.Entries = append(page.Entries, types.ListingEntry{
			Title:         fetch.TextFromFragment(post.Title.Rendered),
			URL:           link,
			PublishedDate: strings.TrimSpace(post.Date),
			Origin:        types.OriginRESTListing,
		})
	}
	return page, ""
}

func headerInt(res *fetch.Result, name string) int {
	if res.Header == nil {
		return -1
	}
	v, err := strconv.Atoi(strings.TrimSpace(res.Header.Get(name)))
	if err != nil || v < 0 {
		return -1
	}
	return v
}
