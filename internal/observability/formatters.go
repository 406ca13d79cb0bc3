// Package observability provides formatted run and status output for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/divyanshwrite/Philippines-Automation/internal/db"
	"github.com/divyanshwrite/Philippines-Automation/internal/ingestion"
	"github.com/divyanshwrite/Philippines-Automation/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// fit truncates s to width display cells and pads it on the right.
func fit(s string, width int) string {
	if runewidth.StringWidth(s) > width {
		s = runewidth.Truncate(s, width, "...")
	}
	return runewidth.FillRight(s, width)
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", fit(title, boxWidth-4))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %s │\n", fit(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintRunSummary outputs the counters of a finished run.
func (p *Printer) PrintRunSummary(sum *ingestion.Summary) {
	if sum == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Run:          %s\n", sum.RunID))
	sb.WriteString(fmt.Sprintf("Window:       %s\n", sum.Window))
	sb.WriteString(fmt.Sprintf("Status:       %s\n", sum.Status()))
	if sum.StopReason != "" {
		sb.WriteString(fmt.Sprintf("Stopped:      %s\n", sum.StopReason))
	}
	if sum.Interrupted {
		sb.WriteString("Interrupted:  yes\n")
	}
	sb.WriteString(fmt.Sprintf("Duration:     %s\n", sum.Duration().Round(time.Millisecond)))
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("Pages:        %d\n", sum.Pages))
	sb.WriteString(fmt.Sprintf("Discovered:   %d\n", sum.Discovered))
	sb.WriteString(fmt.Sprintf("In scope:     %d (out of scope %d, outside window %d)\n", sum.InScope, sum.OutOfScope, sum.OutsideWindow))
	sb.WriteString(fmt.Sprintf("Skipped:      %d processed, %d duplicate\n", sum.SkippedProcessed, sum.SkippedDuplicate))
	sb.WriteString(fmt.Sprintf("Fetched:      %d\n", sum.Fetched))
	sb.WriteString(fmt.Sprintf("Stored:       %d (inserted %d, updated %d)\n", sum.Stored, sum.Inserted, sum.Updated))
	sb.WriteString(fmt.Sprintf("Failed:       %d (fetch %d, store %d)\n", sum.Failed(), sum.FetchFailed, sum.StoreFailed))
	sb.WriteString(fmt.Sprintf("Tracked:      %d", sum.TrackerFlushed))
	if sum.TrackerError != "" {
		sb.WriteString(fmt.Sprintf("\n⚠ tracker: %s", sum.TrackerError))
	}

	p.printBox("INGESTION RUN", sb.String())
}

// PrintRecords outputs the first stored records, as shown after a dry run.
func (p *Printer) PrintRecords(recs []types.GuidelineRecord) {
	if len(recs) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d records:\n\n", len(recs)))

	count := min(len(recs), maxItemsToShow)
	for i := 0; i < count; i++ {
		rec := recs[i]
		sb.WriteString(fmt.Sprintf("• %s\n", rec.Title))
		sb.WriteString(fmt.Sprintf("  %s  %d chars\n", rec.Metadata.Year, rec.Metadata.ContentLength))
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(recs) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more", len(recs)-maxItemsToShow))
	}

	p.printBox("DRY RUN RECORDS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintStatus outputs the tracker size and, when available, store statistics.
func (p *Printer) PrintStatus(trackerPath string, tracked int, stats *db.GuidelineStats) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Tracker:      %s\n", trackerPath))
	sb.WriteString(fmt.Sprintf("Processed:    %d URLs", tracked))

	if stats != nil {
		sb.WriteString("\n\n")
		sb.WriteString(fmt.Sprintf("Records:      %d\n", stats.Total))
		sb.WriteString(fmt.Sprintf("Avg length:   %.0f chars\n", stats.AvgContentLength))

		if len(stats.Years) > 0 {
			sb.WriteString("\nBy year:\n")
			for _, y := range stats.Years {
				year := y.Year
				if year == "" {
					year = "unknown"
				}
				sb.WriteString(fmt.Sprintf("  %-8s %d\n", year, y.Count))
			}
		}

		if len(stats.Latest) > 0 {
			sb.WriteString("\nLatest:\n")
			count := min(len(stats.Latest), maxItemsToShow)
			for i := 0; i < count; i++ {
				g := stats.Latest[i]
				date := "          "
				if g.IssueDate != nil {
					date = g.IssueDate.Format("2006-01-02")
				}
				sb.WriteString(fmt.Sprintf("  %s %s\n", date, g.Title))
			}
		}
	}

	p.printBox("GUIDELINE STATUS", strings.TrimSuffix(sb.String(), "\n"))
}
