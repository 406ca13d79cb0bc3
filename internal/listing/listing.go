// Package listing walks the paginated WordPress REST listing of posts and
// yields its entries page by page.
package listing

import (
	"context"

	"github.com/divyanshwrite/Philippines-Automation/internal/types"
)

// StopReason records why a walk ended.
type StopReason string

const (
	StopExhausted      StopReason = "exhausted"
	StopBelowWindow    StopReason = "below_window"
	StopPageCeiling    StopReason = "page_ceiling"
	StopTransportError StopReason = "transport_error"
	StopMalformed      StopReason = "malformed_payload"
)

// Failed reports whether the walk ended because the source misbehaved.
func (r StopReason) Failed() bool {
	return r == StopTransportError || r == StopMalformed
}

// Page is one page of listing entries.
type Page struct {
	Number     int
	Entries    []types.ListingEntry
	Total      int // X-WP-Total, -1 when unknown
	TotalPages int // X-WP-TotalPages, -1 when unknown
}

// Visitor receives pages in order. Returning an error ends the walk.
type Visitor func(page *Page) error

// Source produces listing pages for a year window.
type Source interface {
	Walk(ctx context.Context, window types.YearWindow, visit Visitor) (StopReason, error)
}

// Multi walks several sources one after another. The walk stops early only
// when a visitor or the context fails.
type Multi []Source

// Preflighter is implemented by sources that can verify their configuration
// before a walk.
type Preflighter interface {
	Preflight(ctx context.Context) error
}

// Preflight checks every source that supports it.
func (m Multi) Preflight(ctx context.Context) error {
	for _, src := range m {
		if p, ok := src.(Preflighter); ok {
			if err := p.Preflight(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// Walk runs every source in order and returns the stop reason of the first
// source, which is the primary listing.
func (m Multi) Walk(ctx context.Context, window types.YearWindow, visit Visitor) (StopReason, error) {
	var first StopReason
	for i, src := range m {
		reason, err := src.Walk(ctx, window, visit)
		if err != nil {
			return reason, err
		}
		if i == 0 {
			first = reason
		}
		if err := ctx.Err(); err != nil {
			return first, err
		}
	}
	return first, nil
}
