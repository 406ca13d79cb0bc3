package types

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// YearWindow is the set of document years a run ingests.
type YearWindow struct {
	years map[string]struct{}
	min   string
}

// NewYearWindow builds a window from 4-digit year strings. Duplicates are ignored.
func NewYearWindow(years ...string) (YearWindow, error) {
	w := YearWindow{years: make(map[string]struct{}, len(years))}
	for _, y := range years {
		y = strings.TrimSpace(y)
		if !IsYear(y) {
			return YearWindow{}, fmt.Errorf("invalid year %q: must be 4 digits", y)
		}
		w.years[y] = struct{}{}
		if w.min == "" || y < w.min {
			w.min = y
		}
	}
	if len(w.years) == 0 {
		return YearWindow{}, fmt.Errorf("year window is empty")
	}
	return w, nil
}

// CurrentAndPreviousYear returns the two calendar years ending at now.
func CurrentAndPreviousYear(now time.Time) []string {
	y := now.Year()
	return []string{strconv.Itoa(y), strconv.Itoa(y - 1)}
}

// Contains reports whether year is in the window.
func (w YearWindow) Contains(year string) bool {
	_, ok := w.years[year]
	return ok
}

// Min returns the oldest year in the window.
func (w YearWindow) Min() string {
	return w.min
}

// IsBelow reports whether year is known and older than every year in the window.
// An empty year is never below.
func (w YearWindow) IsBelow(year string) bool {
	return year != "" && w.min != "" && year < w.min
}

// Years returns the window's years sorted newest first.
func (w YearWindow) Years() []string {
	out := make([]string, 0, len(w.years))
	for y := range w.years {
		out = append(out, y)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(out)))
	return out
}

// String renders the window as "2025/2024".
func (w YearWindow) String() string {
	return strings.Join(w.Years(), "/")
}

// IsYear reports whether s is exactly four ASCII digits.
func IsYear(s string) bool {
	if len(s) != 4 {
		return false
	}
	for i := 0; i < 4; i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
