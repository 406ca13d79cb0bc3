package fetch

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/divyanshwrite/Philippines-Automation/internal/logger"
	"github.com/divyanshwrite/Philippines-Automation/internal/retry"
	"github.com/divyanshwrite/Philippines-Automation/internal/types"
)

// DefaultMinContentLength is the shortest body accepted as a real document.
// Block and interstitial pages come in under it.
const DefaultMinContentLength = 50

var (
	// ErrContentTooShort is returned when the normalized body is below the minimum length
	ErrContentTooShort = errors.New("extracted content too short")
	// ErrUnsupportedContent is returned for non-HTML responses when no document extractor is configured
	ErrUnsupportedContent = errors.New("unsupported content type")
)

// ExtractionError reports a detail page whose content could not be used.
type ExtractionError struct {
	URL    string
	Length int
	Min    int
	Cause  error
}

func (e *ExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("extraction error for %s: %v", e.URL, e.Cause)
	}
	return fmt.Sprintf("extraction error for %s: %d chars (minimum %d)", e.URL, e.Length, e.Min)
}

func (e *ExtractionError) Unwrap() error {
	if e.Cause != nil {
		return e.Cause
	}
	return ErrContentTooShort
}

// DocumentExtractor turns a downloaded non-HTML document into text.
// It returns an empty string when nothing could be extracted.
type DocumentExtractor interface {
	ExtractText(ctx context.Context, path string) (string, error)
}

// FetcherOptions configures detail-page fetching.
type FetcherOptions struct {
	HTTP             *Options
	MinContentLength int
	ContentSelectors []string // empty means the whole body
	NoiseSelectors   []string // in addition to the base and site noise selectors
	TitleSuffixes    []string // in addition to the site suffixes
	BrowserFallback  bool
	BrowserTimeout   time.Duration
}

// Fetcher retrieves and normalizes detail pages.
type Fetcher struct {
	opts      FetcherOptions
	policy    retry.Policy
	sleep     retry.SleepFunc
	render    RenderFunc
	extractor DocumentExtractor
	log       *logger.Logger
	now       func() time.Time
}

// NewFetcher creates a detail fetcher that retries according to policy.
func NewFetcher(opts FetcherOptions, policy retry.Policy, log *logger.Logger) *Fetcher {
	if opts.HTTP == nil {
		opts.HTTP = DefaultOptions()
	}
	if opts.MinContentLength <= 0 {
		opts.MinContentLength = DefaultMinContentLength
	}
	return &Fetcher{
		opts:   opts,
		policy: policy,
		sleep:  retry.Sleep,
		render: WithBrowser,
		log:    logger.OrDiscard(log),
		now:    time.Now,
	}
}

// WithSleep replaces the pause between attempts.
func (f *Fetcher) WithSleep(sleep retry.SleepFunc) *Fetcher {
	f.sleep = sleep
	return f
}

// WithRenderer replaces the headless browser used for the short-body fallback.
func (f *Fetcher) WithRenderer(render RenderFunc) *Fetcher {
	f.render = render
	return f
}

// WithDocumentExtractor sets the collaborator used for non-HTML responses.
func (f *Fetcher) WithDocumentExtractor(x DocumentExtractor) *Fetcher {
	f.extractor = x
	return f
}

// WithClock replaces the clock used for FetchedAt.
func (f *Fetcher) WithClock(now func() time.Time) *Fetcher {
	f.now = now
	return f
}

// Fetch retrieves urlStr and returns its normalized content. title, when not
// empty, is used instead of the page's own title.
func (f *Fetcher) Fetch(ctx context.Context, urlStr, title string) (*types.IngestedDocument, error) {
	var doc *types.IngestedDocument

	err := f.policy.Do(ctx, f.sleep, func(ctx context.Context, attempt int) error {
		d, err := f.fetchOnce(ctx, urlStr, title)
		if err != nil {
			if isPermanent(err) {
				return retry.Permanent(err)
			}
			f.log.Warn("detail fetch attempt failed",
				"url", urlStr,
				"attempt", attempt,
				"max_attempts", f.policy.MaxAttempts,
				"error", err,
			)
			return err
		}
		doc = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func isPermanent(err error) bool {
	if errors.Is(err, ErrUnsupportedContent) {
		return true
	}
	var fe *Error
	return errors.As(err, &fe) && !fe.Retryable
}

func (f *Fetcher) fetchOnce(ctx context.Context, urlStr, title string) (*types.IngestedDocument, error) {
	res, err := URL(ctx, urlStr, f.opts.HTTP)
	if err != nil {
		return nil, err
	}
	f.log.Debug("fetched detail page", "url", urlStr, "status", res.StatusCode, "bytes", len(res.HTML))

	if !isHTML(res.ContentType) {
		return f.extractDocument(ctx, urlStr, title, res)
	}

	site := DetectSite(urlStr)
	noise := append(SiteNoiseSelectors(site), f.opts.NoiseSelectors...)

	page, err := Normalize(res.HTML, urlStr, f.opts.ContentSelectors, noise...)
	if err != nil {
		return nil, &ExtractionError{URL: urlStr, Cause: err}
	}
	method := types.ExtractionHTMLText

	if f.opts.BrowserFallback && f.render != nil && f.tooShort(page.Text) {
		f.log.Info("body too short, rendering with headless browser", "url", urlStr, "chars", utf8.RuneCountInString(page.Text))
		rendered, rerr := f.render(ctx, urlStr, f.opts.BrowserTimeout)
		if rerr != nil {
			f.log.Warn("browser rendering failed", "url", urlStr, "error", rerr)
		} else if rp, perr := Normalize(rendered, urlStr, f.opts.ContentSelectors, noise...); perr == nil &&
			utf8.RuneCountInString(rp.Text) > utf8.RuneCountInString(page.Text) {
			page = rp
			method = types.ExtractionBrowserRender
		}
	}

	if f.tooShort(page.Text) {
		return nil, &ExtractionError{URL: urlStr, Length: utf8.RuneCountInString(page.Text), Min: f.opts.MinContentLength}
	}

	if title == "" {
		suffixes := append(SiteTitleSuffixes(site), f.opts.TitleSuffixes...)
		title = StripTitleSuffix(page.Title, suffixes)
	}

	return f.document(urlStr, title, page.Text, page.FileLink, method), nil
}

func (f *Fetcher) extractDocument(ctx context.Context, urlStr, title string, res *Result) (*types.IngestedDocument, error) {
	if f.extractor == nil {
		return nil, &ExtractionError{
			URL:   urlStr,
			Cause: fmt.Errorf("%w: %s", ErrUnsupportedContent, res.ContentType),
		}
	}

	ext := path.Ext(res.URL)
	if len(ext) > 8 {
		ext = ""
	}
	tmp, err := os.CreateTemp("", "guideline-*"+ext)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.WriteString(res.HTML); err != nil {
		_ = tmp.Close()
		return nil, fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to close temp file: %w", err)
	}

	text, err := f.extractor.ExtractText(ctx, tmp.Name())
	if err != nil {
		return nil, &ExtractionError{URL: urlStr, Cause: err}
	}
	text = CollapseWhitespace(text)
	if f.tooShort(text) {
		return nil, &ExtractionError{URL: urlStr, Length: utf8.RuneCountInString(text), Min: f.opts.MinContentLength}
	}

	if title == "" {
		title = path.Base(res.URL)
	}
	return f.document(urlStr, title, text, urlStr, types.ExtractionDocumentExtractor), nil
}

func (f *Fetcher) document(urlStr, title, text, fileLink, method string) *types.IngestedDocument {
	return &types.IngestedDocument{
		Title:            title,
		URL:              urlStr,
		BodyText:         text,
		ContentLength:    utf8.RuneCountInString(text),
		FileLink:         fileLink,
		ExtractionMethod: method,
		FetchedAt:        f.now().UTC(),
	}
}

func (f *Fetcher) tooShort(text string) bool {
	return utf8.RuneCountInString(text) < f.opts.MinContentLength
}

// isHTML treats missing and text/* content types as HTML.
func isHTML(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(strings.ToLower(contentType), "html")
	}
	return strings.Contains(mediaType, "html") || strings.HasPrefix(mediaType, "text/") || strings.HasSuffix(mediaType, "xml")
}
