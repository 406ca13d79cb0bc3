package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/googleapi"

	"github.com/divyanshwrite/Philippines-Automation/internal/archive"
	"github.com/divyanshwrite/Philippines-Automation/internal/logger"
	"github.com/divyanshwrite/Philippines-Automation/internal/types"
)

// DefaultArchivePrefix is the object prefix for archived text.
const DefaultArchivePrefix = "fda-ph/html-extract"

// NewStorageClient creates a Cloud Storage client with default credentials.
func NewStorageClient(ctx context.Context) (*storage.Client, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Storage client: %w", err)
	}
	return client, nil
}

// ObjectName returns <prefix>/<year>/<uuidv5(url)>.txt. An unknown year is
// filed under "undated".
func ObjectName(prefix, year, url string) string {
	if year == "" {
		year = "undated"
	}
	name := uuid.NewSHA1(uuid.NameSpaceURL, []byte(url)).String() + ".txt"
	return path.Join(strings.Trim(prefix, "/"), year, name)
}

// isPreconditionFailed reports whether err is a 412 from a DoesNotExist condition.
func isPreconditionFailed(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == 412
}

// SaveToGCSAtomically writes content to a GCS object only if it doesn't already
// exist. It reports whether the object was written.
func SaveToGCSAtomically(ctx context.Context, bucket *storage.BucketHandle, objectName, content string) (bool, error) {
	writer := bucket.Object(objectName).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	writer.ContentType = "text/plain; charset=utf-8"

	if _, err := io.Copy(writer, strings.NewReader(content)); err != nil {
		_ = writer.Close()
		if isPreconditionFailed(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to write to GCS: %w", err)
	}

	if err := writer.Close(); err != nil {
		if isPreconditionFailed(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to finalize GCS write: %w", err)
	}
	return true, nil
}

// ObjectArchive archives snapshots as write-once objects in a bucket.
type ObjectArchive struct {
	bucket     *storage.BucketHandle
	bucketName string
	prefix     string
	source     string
	log        *logger.Logger
}

// NewObjectArchive archives into bucketName under prefix.
func NewObjectArchive(client *storage.Client, bucketName, prefix, source string, log *logger.Logger) *ObjectArchive {
	if prefix == "" {
		prefix = DefaultArchivePrefix
	}
	if source == "" {
		source = archive.DefaultSource
	}
	return &ObjectArchive{
		bucket:     client.Bucket(bucketName),
		bucketName: bucketName,
		prefix:     prefix,
		source:     source,
		log:        logger.OrDiscard(log),
	}
}

// Archive writes doc under the item's year and returns its gs:// location.
// An object that already exists is left alone.
func (a *ObjectArchive) Archive(ctx context.Context, item types.ClassifiedDocument, doc *types.IngestedDocument) (string, error) {
	if !archive.Archivable(doc.BodyText) {
		return "", archive.ErrBodyTooShort
	}

	name := ObjectName(a.prefix, item.DocumentYear, doc.URL)
	written, err := SaveToGCSAtomically(ctx, a.bucket, name, archive.Render(archive.EntryFor(a.source, doc)))
	if err != nil {
		return "", err
	}
	if !written {
		a.log.Debug("archive object already exists", "object", name)
	}
	return "gs://" + a.bucketName + "/" + name, nil
}
