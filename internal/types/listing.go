// Package types provides type definitions for the documents that flow through the ingestion pipeline.
package types

// Listing origins recorded on each entry.
const (
	OriginRESTListing     = "wp_rest_api"
	OriginCategoryArchive = "category_archive"
)

// ListingEntry is one raw item from a page of the listing source. It is never persisted.
type ListingEntry struct {
	Title         string `json:"title"`
	URL           string `json:"url"`
	PublishedDate string `json:"published_date,omitempty"` // ISO-8601, may be empty
	Origin        string `json:"origin,omitempty"`
}

// ClassifiedDocument is a ListingEntry judged in scope by the classifier.
type ClassifiedDocument struct {
	ListingEntry
	DocumentYear string `json:"document_year"`
	IsRegulatory bool   `json:"is_regulatory"`
	Marker       string `json:"marker,omitempty"` // roster phrase or pattern that matched
}
