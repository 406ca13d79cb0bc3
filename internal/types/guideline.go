package types

import "time"

// Extraction methods recorded on ingested documents.
const (
	ExtractionHTMLText          = "html_text"
	ExtractionBrowserRender     = "browser_render"
	ExtractionDocumentExtractor = "document_extractor"
)

// IngestedDocument is the normalized result of fetching one detail page.
type IngestedDocument struct {
	Title            string    `json:"title"`
	URL              string    `json:"url"`
	BodyText         string    `json:"body_text"`
	ContentLength    int       `json:"content_length"` // characters in BodyText
	FileLink         string    `json:"file_link,omitempty"`
	ExtractionMethod string    `json:"extraction_method"`
	FetchedAt        time.Time `json:"fetched_at"`
}

// GuidelineRecord is the persisted form of an ingested document, keyed by URL.
type GuidelineRecord struct {
	ID        int64             `json:"id"`
	URL       string            `json:"link_guidance"`
	Title     string            `json:"title"`
	Summary   string            `json:"summary"`
	IssueDate *time.Time        `json:"issue_date,omitempty"`
	Products  *string           `json:"products,omitempty"`
	FileLink  *string           `json:"link_file,omitempty"`
	Country   string            `json:"country"`
	Agency    string            `json:"agency"`
	AllText   string            `json:"all_text"`
	Metadata  GuidelineMetadata `json:"json_data"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// GuidelineMetadata is the structured side channel stored with each record.
type GuidelineMetadata struct {
	SourceURL        string `json:"source_url"`
	ContentLength    int    `json:"content_length"`
	ExtractionDate   string `json:"extraction_date,omitempty"`
	Year             string `json:"year,omitempty"`
	ExtractionMethod string `json:"extraction_method"`
	ListingSource    string `json:"listing_source,omitempty"`
	ProcessedDate    string `json:"processed_date"`
}

// UpsertResult tells whether an upsert created or updated a record.
type UpsertResult string

// Upsert results
const (
	UpsertInserted UpsertResult = "inserted"
	UpsertUpdated  UpsertResult = "updated"
)
