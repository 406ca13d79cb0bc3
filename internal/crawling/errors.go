// Package crawling reads category and archive HTML pages of the FDA site and
// turns their post links into listing entries.
package crawling

import "fmt"

// Stages at which an archive page can fail.
const (
	StageFetch   = "fetch"
	StageExtract = "extract"
)

// PageError is a failure to read one archive page. The crawl skips the page
// and carries on with the next.
type PageError struct {
	URL   string
	Stage string
	Cause error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("archive page %s failed at %s: %v", e.URL, e.Stage, e.Cause)
}

func (e *PageError) Unwrap() error {
	return e.Cause
}

// LinkExtractionError means the page URL or markup could not be used as a
// base for anchor resolution.
type LinkExtractionError struct {
	PageURL string
	Reason  string
	Cause   error
}

func (e *LinkExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("cannot extract links from %s: %s: %v", e.PageURL, e.Reason, e.Cause)
	}
	return fmt.Sprintf("cannot extract links from %s: %s", e.PageURL, e.Reason)
}

func (e *LinkExtractionError) Unwrap() error {
	return e.Cause
}
