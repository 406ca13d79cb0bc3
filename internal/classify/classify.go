// Package classify decides whether a listing entry is an in-scope regulatory issuance
// and derives its document year.
package classify

import (
	"strings"

	"github.com/divyanshwrite/Philippines-Automation/internal/types"
)

// DefaultSeparator is the token every regulatory title carries between its
// reference number and its subject.
const DefaultSeparator = "||"

// Rules configures the classifier.
type Rules struct {
	Separator string   `yaml:"separator" json:"separator"`
	Roster    []string `yaml:"roster" json:"roster"`     // matched case-sensitively
	Patterns  []string `yaml:"patterns" json:"patterns"` // matched case-insensitively
}

// DefaultRules returns the document-type roster and numbered-reference patterns
// seen on the FDA Philippines issuance listing.
func DefaultRules() Rules {
	return Rules{
		Separator: DefaultSeparator,
		Roster: []string{
			"FDA Circular No.",
			"Administrative Order No.",
			"FDA Order No.",
			"FDA Memorandum",
			"DEPARTMENT CIRCULAR NO.",
			"FDA Advisory No.",
			"ITB No.",
			"ANNOUNCEMENT",
			"Announcement",
		},
		Patterns: []string{
			"circular no.",
			"order no.",
			"advisory no.",
			"memorandum no.",
			"administrative order",
			"fda circular",
			"fda advisory",
			"fda memorandum",
			"itb no.",
			"announcement",
			"draft for comments",
		},
	}
}

// Extend returns a copy of r with extra roster phrases and patterns appended.
func (r Rules) Extend(roster, patterns []string) Rules {
	out := Rules{
		Separator: r.Separator,
		Roster:    append(append([]string{}, r.Roster...), roster...),
		Patterns:  append(append([]string{}, r.Patterns...), patterns...),
	}
	return out
}

// Classifier applies Rules to listing entries.
type Classifier struct {
	separator string
	roster    []string
	patterns  []string
}

// New creates a classifier. An empty separator falls back to DefaultSeparator.
func New(rules Rules) *Classifier {
	sep := rules.Separator
	if sep == "" {
		sep = DefaultSeparator
	}

	patterns := make([]string, 0, len(rules.Patterns))
	for _, p := range rules.Patterns {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			patterns = append(patterns, p)
		}
	}

	return &Classifier{
		separator: sep,
		roster:    append([]string{}, rules.Roster...),
		patterns:  patterns,
	}
}

// Classify returns the classified document and true when entry is in scope.
// Misses return false and are not errors.
func (c *Classifier) Classify(entry types.ListingEntry) (types.ClassifiedDocument, bool) {
	if !strings.Contains(entry.Title, c.separator) {
		return types.ClassifiedDocument{}, false
	}

	marker, ok := c.match(entry.Title)
	if !ok {
		return types.ClassifiedDocument{}, false
	}

	return types.ClassifiedDocument{
		ListingEntry: entry,
		DocumentYear: DeriveYear(entry),
		IsRegulatory: true,
		Marker:       marker,
	}, true
}

func (c *Classifier) match(title string) (string, bool) {
	for _, phrase := range c.roster {
		if phrase != "" && strings.Contains(title, phrase) {
			return phrase, true
		}
	}

	lower := strings.ToLower(title)
	for _, pattern := range c.patterns {
		if strings.Contains(lower, pattern) {
			return pattern, true
		}
	}
	return "", false
}

// DeriveYear takes the year from the first four characters of the published
// date, falling back to the first run of four digits in the title.
// It returns "" when neither yields a year.
func DeriveYear(entry types.ListingEntry) string {
	if len(entry.PublishedDate) >= 4 && types.IsYear(entry.PublishedDate[:4]) {
		return entry.PublishedDate[:4]
	}
	return firstFourDigitRun(entry.Title)
}

// firstFourDigitRun returns the first four consecutive ASCII digits in s.
func firstFourDigitRun(s string) string {
	run := 0
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			run++
			if run == 4 {
				return s[i-3 : i+1]
			}
			continue
		}
		run = 0
	}
	return ""
}
