// Package fetch - site.go provides site detection and site-specific extraction profiles.
package fetch

import (
	"net/url"
	"strings"
)

// Site represents a known document source site.
type Site string

const (
	// SiteFDAPhilippines is the Philippine Food and Drug Administration WordPress site
	SiteFDAPhilippines Site = "fda_ph"
	// SiteUnknown is any other host
	SiteUnknown Site = "unknown"
)

// FDATitleSuffix is appended to every page title on www.fda.gov.ph.
const FDATitleSuffix = " - Food and Drug Administration"

// DetectSite identifies the source site from a URL.
func DetectSite(urlStr string) Site {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return SiteUnknown
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "fda.gov.ph" || strings.HasSuffix(host, ".fda.gov.ph") {
		return SiteFDAPhilippines
	}

	return SiteUnknown
}

// BaseNoiseSelectors are removed from every page before text extraction.
func BaseNoiseSelectors() []string {
	return []string{"script", "style", "nav", "footer", "header", "aside", "noscript"}
}

// SiteNoiseSelectors returns extra noise selectors for a site.
func SiteNoiseSelectors(site Site) []string {
	common := []string{
		".cookie-banner",
		".cookie-consent",
		".social-share",
		".share-buttons",
	}

	switch site {
	case SiteFDAPhilippines:
		return append(common,
			"#wpadminbar",
			".widget-area",
			"#secondary",
			".breadcrumbs",
			".post-navigation",
			".screen-reader-text",
		)
	default:
		return common
	}
}

// SiteTitleSuffixes returns title suffixes to strip for a site.
func SiteTitleSuffixes(site Site) []string {
	switch site {
	case SiteFDAPhilippines:
		return []string{FDATitleSuffix}
	default:
		return nil
	}
}

// StripTitleSuffix removes the first matching suffix and trims the result.
func StripTitleSuffix(title string, suffixes []string) string {
	title = strings.TrimSpace(title)
	for _, suffix := range suffixes {
		if suffix != "" && strings.HasSuffix(title, suffix) {
			return strings.TrimSpace(strings.TrimSuffix(title, suffix))
		}
	}
	return title
}
