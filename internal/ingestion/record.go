package ingestion

import (
	"time"
	"unicode/utf8"

	"github.com/divyanshwrite/Philippines-Automation/internal/types"
)

const (
	// SummaryLength is the number of body characters kept in a summary.
	SummaryLength = 1000
	// ProcessedDateLayout formats json_data.processed_date.
	ProcessedDateLayout = "2006-01-02 15:04:05"

	DefaultCountry = "Philippines"
	DefaultAgency  = "FDA Philippines"
)

// RecordOptions holds the constant fields written on every record.
type RecordOptions struct {
	Country string
	Agency  string
}

// DefaultRecordOptions returns the Philippine FDA values.
func DefaultRecordOptions() RecordOptions {
	return RecordOptions{Country: DefaultCountry, Agency: DefaultAgency}
}

// BuildRecord maps a classified listing entry and its fetched content to the
// persisted record. Every field comes from the inputs, so the same inputs
// always produce the same record.
func BuildRecord(item types.ClassifiedDocument, doc *types.IngestedDocument, opts RecordOptions) *types.GuidelineRecord {
	if opts.Country == "" {
		opts.Country = DefaultCountry
	}
	if opts.Agency == "" {
		opts.Agency = DefaultAgency
	}

	title := doc.Title
	if title == "" {
		title = item.Title
	}

	rec := &types.GuidelineRecord{
		URL:       doc.URL,
		Title:     title,
		Summary:   Summarize(doc.BodyText),
		IssueDate: IssueDate(item.PublishedDate, item.DocumentYear),
		Country:   opts.Country,
		Agency:    opts.Agency,
		AllText:   doc.BodyText,
		Metadata: types.GuidelineMetadata{
			SourceURL:        doc.URL,
			ContentLength:    doc.ContentLength,
			ExtractionDate:   item.PublishedDate,
			Year:             item.DocumentYear,
			ExtractionMethod: doc.ExtractionMethod,
			ListingSource:    item.Origin,
			ProcessedDate:    doc.FetchedAt.UTC().Format(ProcessedDateLayout),
		},
	}
	if doc.FileLink != "" {
		link := doc.FileLink
		rec.FileLink = &link
	}
	return rec
}

// Summarize returns the first SummaryLength characters of body, followed by
// "..." when body is longer.
func Summarize(body string) string {
	if utf8.RuneCountInString(body) <= SummaryLength {
		return body
	}
	return string([]rune(body)[:SummaryLength]) + "..."
}

// IssueDate returns the date part of published, or January 1 of year when
// published does not start with a date. It returns nil when neither is usable.
func IssueDate(published, year string) *time.Time {
	if len(published) >= 10 {
		if d, err := time.Parse("2006-01-02", published[:10]); err == nil {
			return &d
		}
	}
	if types.IsYear(year) {
		if d, err := time.Parse("2006-01-02", year+"-01-01"); err == nil {
			return &d
		}
	}
	return nil
}
