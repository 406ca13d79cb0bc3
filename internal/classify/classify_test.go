package classify

import (
	"testing"

	"github.com/divyanshwrite/Philippines-Automation/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_InScopeCircular(t *testing.T) {
	c := New(DefaultRules())

	doc, ok := c.Classify(types.ListingEntry{
		Title: "FDA Circular No.2025-004 || Adoption of Codex Standard for Food Additives",
		URL:   "https://www.fda.gov.ph/fda-circular-no-2025-004/",
	})

	require.True(t, ok)
	assert.True(t, doc.IsRegulatory)
	assert.Equal(t, "2025", doc.DocumentYear)
	assert.Equal(t, "FDA Circular No.", doc.Marker)
	assert.Equal(t, "https://www.fda.gov.ph/fda-circular-no-2025-004/", doc.URL)
}

func TestClassify_OutOfScope(t *testing.T) {
	c := New(DefaultRules())

	tests := []struct {
		name  string
		title string
	}{
		{"no separator", "About FDA"},
		{"roster without separator", "FDA Advisory No.2025-0317 Public Health Warning"},
		{"separator without marker", "Job Vacancy || Pharmacist II"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := c.Classify(types.ListingEntry{Title: tt.title, URL: "https://www.fda.gov.ph/x/"})
			assert.False(t, ok)
		})
	}
}

func TestClassify_PatternFamilies(t *testing.T) {
	c := New(DefaultRules())

	tests := []struct {
		title  string
		marker string
	}{
		{"FDA Advisory No.2024-1120 || Public Health Warning", "FDA Advisory No."},
		{"DEPARTMENT CIRCULAR NO. 2024-0301 || Guidelines", "DEPARTMENT CIRCULAR NO."},
		{"ANNOUNCEMENT || Holiday schedule", "ANNOUNCEMENT"},
		{"Memorandum No. 2025-01 || Updated fees", "memorandum no."},
		{"fda memorandum 2025 || lowercase title", "fda memorandum"},
		{"Draft for Comments || Proposed rules on labeling", "draft for comments"},
		{"Joint Administrative Order 2024-0001 || Licensing", "administrative order"},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			doc, ok := c.Classify(types.ListingEntry{Title: tt.title})
			require.True(t, ok)
			assert.Equal(t, tt.marker, doc.Marker)
		})
	}
}

func TestClassify_RosterIsCaseSensitive(t *testing.T) {
	// Only the roster is consulted; no pattern contains "itb no" in this rule set.
	c := New(Rules{Separator: "||", Roster: []string{"ITB No."}})

	_, ok := c.Classify(types.ListingEntry{Title: "itb no. 2025-01 || Supply of reagents"})
	assert.False(t, ok)

	_, ok = c.Classify(types.ListingEntry{Title: "ITB No. 2025-01 || Supply of reagents"})
	assert.True(t, ok)
}

func TestClassify_CustomSeparatorAndExtend(t *testing.T) {
	rules := DefaultRules().Extend([]string{"Bid Bulletin"}, []string{"notice of award"})
	rules.Separator = "|"
	c := New(rules)

	doc, ok := c.Classify(types.ListingEntry{Title: "Bid Bulletin 3 | Procurement"})
	require.True(t, ok)
	assert.Equal(t, "Bid Bulletin", doc.Marker)

	_, ok = c.Classify(types.ListingEntry{Title: "Notice of Award | Lot 2"})
	assert.True(t, ok)

	assert.Len(t, DefaultRules().Roster, 9, "Extend must not modify the original rules")
}

func TestDeriveYear(t *testing.T) {
	tests := []struct {
		name     string
		entry    types.ListingEntry
		expected string
	}{
		{"from date", types.ListingEntry{PublishedDate: "2024-11-20T08:15:00", Title: "FDA Circular No.2025-004 || x"}, "2024"},
		{"from title", types.ListingEntry{Title: "FDA Circular No.2025-004 || x"}, "2025"},
		{"bad date falls back", types.ListingEntry{PublishedDate: "n/a", Title: "Advisory 2023-01"}, "2023"},
		{"short digit runs ignored", types.ListingEntry{Title: "No. 12-345 || 2022 update"}, "2022"},
		{"none", types.ListingEntry{Title: "Announcement || holiday"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DeriveYear(tt.entry))
		})
	}
}

func TestClassify_YearWindowSelection(t *testing.T) {
	c := New(DefaultRules())
	window, err := types.NewYearWindow("2024", "2025")
	require.NoError(t, err)

	var inWindow []string
	for _, year := range []string{"2022", "2023", "2024", "2025"} {
		doc, ok := c.Classify(types.ListingEntry{
			Title:         "FDA Advisory No." + year + "-001 || Notice",
			PublishedDate: year + "-06-01T00:00:00",
		})
		require.True(t, ok)
		if window.Contains(doc.DocumentYear) {
			inWindow = append(inWindow, doc.DocumentYear)
		}
	}

	assert.Equal(t, []string{"2024", "2025"}, inWindow)
}
