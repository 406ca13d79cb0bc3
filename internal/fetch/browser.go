package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// DefaultBrowserTimeout bounds one headless render.
const DefaultBrowserTimeout = 45 * time.Second

// renderSettle is how long a rendered page may keep running scripts before its
// DOM is read. The FDA site serves a JavaScript challenge that redirects after
// about two seconds.
const renderSettle = 3 * time.Second

// RenderFunc returns the rendered HTML of a page.
type RenderFunc func(ctx context.Context, url string, timeout time.Duration) (string, error)

// browserOptions launches a throwaway headless Chrome that presents the same
// user agent as plain HTTP fetches.
func browserOptions() []chromedp.ExecAllocatorOption {
	return append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Headless,
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(DefaultUserAgent),
	)
}

// WithBrowser renders url in headless Chrome and returns the document's outer
// HTML. Chrome or Chromium must be installed.
func WithBrowser(ctx context.Context, url string, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = DefaultBrowserTimeout
	}
	ctx, cancelTimeout := context.WithTimeout(ctx, timeout)
	defer cancelTimeout()

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, browserOptions()...)
	defer cancelAlloc()

	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()

	var html string
	if err := chromedp.Run(tabCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(renderSettle),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	); err != nil {
		return "", fmt.Errorf("browser rendering of %s failed: %w", url, err)
	}
	return html, nil
}
