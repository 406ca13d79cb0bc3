// Package gcp provides the Google Cloud backends: a Firestore guideline store
// and a Cloud Storage text archive.
package gcp

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/divyanshwrite/Philippines-Automation/internal/types"
)

// DefaultCollection holds guideline documents.
const DefaultCollection = "medical_guidelines"

// NewFirestoreClient creates and returns a new Firestore client for the given project ID.
func NewFirestoreClient(ctx context.Context, projectID string) (*firestore.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID must be provided to create a firestore client")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	return client, nil
}

// DocumentID is the deterministic Firestore document ID for a URL.
func DocumentID(url string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(url)).String()
}

// GuidelineStore upserts guideline records into a Firestore collection keyed
// by DocumentID.
type GuidelineStore struct {
	client     *firestore.Client
	collection string
	now        func() time.Time
}

// NewGuidelineStore creates a store on collection.
func NewGuidelineStore(client *firestore.Client, collection string) *GuidelineStore {
	if collection == "" {
		collection = DefaultCollection
	}
	return &GuidelineStore{client: client, collection: collection, now: time.Now}
}

// Close closes the underlying client.
func (s *GuidelineStore) Close() error {
	return s.client.Close()
}

// guidelineFields maps a record to Firestore fields. id and created_at are
// left to the caller.
func guidelineFields(rec *types.GuidelineRecord) map[string]any {
	fields := map[string]any{
		"title":         rec.Title,
		"summary":       rec.Summary,
		"link_guidance": rec.URL,
		"country":       rec.Country,
		"agency":        rec.Agency,
		"all_text":      rec.AllText,
		"issue_date":    nil,
		"products":      nil,
		"link_file":     nil,
		"json_data": map[string]any{
			"source_url":        rec.Metadata.SourceURL,
			"content_length":    rec.Metadata.ContentLength,
			"extraction_date":   rec.Metadata.ExtractionDate,
			"year":              rec.Metadata.Year,
			"extraction_method": rec.Metadata.ExtractionMethod,
			"listing_source":    rec.Metadata.ListingSource,
			"processed_date":    rec.Metadata.ProcessedDate,
		},
	}
	if rec.IssueDate != nil {
		fields["issue_date"] = *rec.IssueDate
	}
	if rec.Products != nil {
		fields["products"] = *rec.Products
	}
	if rec.FileLink != nil {
		fields["link_file"] = *rec.FileLink
	}
	return fields
}

// UpsertGuideline creates the document for rec.URL or merges every field but
// id and created_at into the existing one.
func (s *GuidelineStore) UpsertGuideline(ctx context.Context, rec *types.GuidelineRecord) (types.UpsertResult, error) {
	if rec.URL == "" {
		return "", fmt.Errorf("guideline URL cannot be empty")
	}
	ref := s.client.Collection(s.collection).Doc(DocumentID(rec.URL))

	var (
		result    types.UpsertResult
		createdAt time.Time
		updatedAt time.Time
	)
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil && status.Code(err) != codes.NotFound {
			return err
		}

		now := s.now().UTC()
		fields := guidelineFields(rec)
		fields["updated_at"] = now
		updatedAt = now

		if snap == nil || !snap.Exists() {
			fields["id"] = ref.ID
			fields["created_at"] = now
			createdAt = now
			result = types.UpsertInserted
			return tx.Set(ref, fields)
		}

		var existing struct {
			CreatedAt time.Time `firestore:"created_at"`
		}
		if err := snap.DataTo(&existing); err == nil {
			createdAt = existing.CreatedAt
		}
		result = types.UpsertUpdated
		return tx.Set(ref, fields, firestore.MergeAll)
	})
	if err != nil {
		return "", fmt.Errorf("failed to upsert guideline: %w", err)
	}

	rec.CreatedAt = createdAt
	rec.UpdatedAt = updatedAt
	return result, nil
}

type guidelineDoc struct {
	Title     string     `firestore:"title"`
	Summary   string     `firestore:"summary"`
	URL       string     `firestore:"link_guidance"`
	IssueDate *time.Time `firestore:"issue_date"`
	Products  *string    `firestore:"products"`
	FileLink  *string    `firestore:"link_file"`
	Country   string     `firestore:"country"`
	Agency    string     `firestore:"agency"`
	AllText   string     `firestore:"all_text"`
	Metadata  struct {
		SourceURL        string `firestore:"source_url"`
		ContentLength    int    `firestore:"content_length"`
		ExtractionDate   string `firestore:"extraction_date"`
		Year             string `firestore:"year"`
		ExtractionMethod string `firestore:"extraction_method"`
		ListingSource    string `firestore:"listing_source"`
		ProcessedDate    string `firestore:"processed_date"`
	} `firestore:"json_data"`
	CreatedAt time.Time `firestore:"created_at"`
	UpdatedAt time.Time `firestore:"updated_at"`
}

// GetGuidelineByURL reads the document for url. It returns nil when absent.
func (s *GuidelineStore) GetGuidelineByURL(ctx context.Context, url string) (*types.GuidelineRecord, error) {
	snap, err := s.client.Collection(s.collection).Doc(DocumentID(url)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get guideline: %w", err)
	}

	var doc guidelineDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode guideline: %w", err)
	}
	return &types.GuidelineRecord{
		URL:       doc.URL,
		Title:     doc.Title,
		Summary:   doc.Summary,
		IssueDate: doc.IssueDate,
		Products:  doc.Products,
		FileLink:  doc.FileLink,
		Country:   doc.Country,
		Agency:    doc.Agency,
		AllText:   doc.AllText,
		Metadata: types.GuidelineMetadata{
			SourceURL:        doc.Metadata.SourceURL,
			ContentLength:    doc.Metadata.ContentLength,
			ExtractionDate:   doc.Metadata.ExtractionDate,
			Year:             doc.Metadata.Year,
			ExtractionMethod: doc.Metadata.ExtractionMethod,
			ListingSource:    doc.Metadata.ListingSource,
			ProcessedDate:    doc.Metadata.ProcessedDate,
		},
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}, nil
}
