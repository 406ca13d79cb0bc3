package crawling

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/divyanshwrite/Philippines-Automation/internal/fetch"
	"github.com/divyanshwrite/Philippines-Automation/internal/types"
)

// MinAnchorTextLength is the anchor text length at or below which a link is
// treated as navigation rather than a post title.
const MinAnchorTextLength = 15

// SkipPathFragments lists URL fragments that mark taxonomy, theme, and admin
// links rather than posts.
var SkipPathFragments = []string{
	"/category/",
	"/tag/",
	"/author/",
	"/page/",
	"/wp-content/",
	"/wp-admin/",
	"/feed",
	"/citizens-charter",
	"/fda-academy",
	"/downloadables",
	"/transparency",
	"/bids-and-awards",
	"/about-fda",
}

// ExtractEntries extracts same-host post links from an archive page, in page
// order and without duplicates.
func ExtractEntries(htmlContent string, pageURL string) ([]types.ListingEntry, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, &LinkExtractionError{PageURL: pageURL, Reason: "unparsable URL", Cause: err}
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, &LinkExtractionError{PageURL: pageURL, Reason: "URL must have scheme and host"}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, &LinkExtractionError{PageURL: pageURL, Reason: "unparsable HTML", Cause: err}
	}

	seen := make(map[string]bool)
	entries := make([]types.ListingEntry, 0)

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}

		linkURL, err := url.Parse(href)
		if err != nil {
			return
		}
		abs := base.ResolveReference(linkURL)
		if !strings.EqualFold(abs.Host, base.Host) {
			return
		}
		abs.Fragment = ""
		link := abs.String()

		if skipLink(link) {
			return
		}

		title := fetch.CollapseWhitespace(s.Text())
		if utf8.RuneCountInString(title) <= MinAnchorTextLength {
			return
		}

		if seen[link] {
			return
		}
		seen[link] = true
		entries = append(entries, types.ListingEntry{
			Title:  title,
			URL:    link,
			Origin: types.OriginCategoryArchive,
		})
	})

	return entries, nil
}

func skipLink(link string) bool {
	lower := strings.ToLower(link)
	for _, frag := range SkipPathFragments {
		if strings.Contains(lower, frag) {
			return true
		}
	}
	return false
}
