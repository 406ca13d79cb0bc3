package ingestion

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/divyanshwrite/Philippines-Automation/internal/types"
)

func TestSummarize(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty", "", ""},
		{"short", "Advisory text", "Advisory text"},
		{"exactly limit", strings.Repeat("a", SummaryLength), strings.Repeat("a", SummaryLength)},
		{"over limit", strings.Repeat("a", SummaryLength+5), strings.Repeat("a", SummaryLength) + "..."},
		{"multibyte", strings.Repeat("ñ", SummaryLength+1), strings.Repeat("ñ", SummaryLength) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Summarize(tt.body))
		})
	}
}

func TestIssueDate(t *testing.T) {
	tests := []struct {
		name      string
		published string
		year      string
		want      string
	}{
		{"full timestamp", "2025-03-14T10:22:01", "2025", "2025-03-14"},
		{"date only", "2024-12-31", "2024", "2024-12-31"},
		{"year fallback", "", "2025", "2025-01-01"},
		{"garbage date falls back", "March 2025", "2025", "2025-01-01"},
		{"nothing usable", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IssueDate(tt.published, tt.year)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Format("2006-01-02"))
		})
	}
}

func TestBuildRecord(t *testing.T) {
	item := types.ClassifiedDocument{
		ListingEntry: types.ListingEntry{
			Title:         "FDA Advisory No.2025-0101 || Public Health Warning",
			URL:           "https://www.fda.gov.ph/fda-advisory-no-2025-0101/",
			PublishedDate: "2025-02-20T08:15:00",
			Origin:        types.OriginRESTListing,
		},
		DocumentYear: "2025",
		IsRegulatory: true,
	}
	doc := &types.IngestedDocument{
		URL:              item.URL,
		BodyText:         strings.Repeat("x", SummaryLength+10),
		ContentLength:    SummaryLength + 10,
		ExtractionMethod: types.ExtractionHTMLText,
		FileLink:         "https://www.fda.gov.ph/wp-content/uploads/2025/02/advisory.pdf",
		FetchedAt:        time.Date(2025, 2, 21, 1, 2, 3, 0, time.FixedZone("PHT", 8*3600)),
	}

	rec := BuildRecord(item, doc, RecordOptions{})

	assert.Equal(t, item.URL, rec.URL)
	assert.Equal(t, item.Title, rec.Title, "falls back to the listing title")
	assert.Equal(t, DefaultCountry, rec.Country)
	assert.Equal(t, DefaultAgency, rec.Agency)
	assert.Equal(t, doc.BodyText, rec.AllText)
	assert.True(t, strings.HasSuffix(rec.Summary, "..."))
	require.NotNil(t, rec.IssueDate)
	assert.Equal(t, "2025-02-20", rec.IssueDate.Format("2006-01-02"))
	require.NotNil(t, rec.FileLink)
	assert.Equal(t, doc.FileLink, *rec.FileLink)
	assert.Nil(t, rec.Products)

	assert.Equal(t, item.URL, rec.Metadata.SourceURL)
	assert.Equal(t, SummaryLength+10, rec.Metadata.ContentLength)
	assert.Equal(t, "2025", rec.Metadata.Year)
	assert.Equal(t, item.PublishedDate, rec.Metadata.ExtractionDate)
	assert.Equal(t, types.ExtractionHTMLText, rec.Metadata.ExtractionMethod)
	assert.Equal(t, types.OriginRESTListing, rec.Metadata.ListingSource)
	assert.Equal(t, "2025-02-20 17:02:03", rec.Metadata.ProcessedDate)

	again := BuildRecord(item, doc, RecordOptions{})
	assert.Equal(t, rec, again)
}

func TestBuildRecord_PrefersFetchedTitle(t *testing.T) {
	item := types.ClassifiedDocument{ListingEntry: types.ListingEntry{Title: "listing title", URL: "https://www.fda.gov.ph/a/"}}
	doc := &types.IngestedDocument{URL: item.URL, Title: "Page Title", BodyText: "body"}

	rec := BuildRecord(item, doc, RecordOptions{Country: "PH", Agency: "FDA"})
	assert.Equal(t, "Page Title", rec.Title)
	assert.Equal(t, "PH", rec.Country)
	assert.Equal(t, "FDA", rec.Agency)
	assert.Nil(t, rec.FileLink)
	assert.Nil(t, rec.IssueDate)
}
