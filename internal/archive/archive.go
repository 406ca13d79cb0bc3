// Package archive writes plain-text snapshots of ingested documents.
package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/divyanshwrite/Philippines-Automation/internal/logger"
	"github.com/divyanshwrite/Philippines-Automation/internal/types"
)

const (
	// MinBodyLength is the shortest body worth archiving, in characters.
	MinBodyLength = 50
	// MaxTitleLength bounds the title part of a file name, in characters.
	MaxTitleLength = 70
	ruleWidth      = 80
	fileSuffix     = "_HTML"
	fileExt        = ".txt"
	maxCollisions  = 10000
)

// DefaultSource is written on the Source: header line.
const DefaultSource = "FDA"

// ErrBodyTooShort is returned when a body is below MinBodyLength.
var ErrBodyTooShort = errors.New("body too short to archive")

// Entry is the content of one snapshot.
type Entry struct {
	Source string
	URL    string
	Title  string
	Body   string
}

// EntryFor builds the snapshot entry for an ingested document.
func EntryFor(source string, doc *types.IngestedDocument) Entry {
	return Entry{
		Source: source,
		URL:    doc.URL,
		Title:  doc.Title,
		Body:   doc.BodyText,
	}
}

// Archivable reports whether body is long enough to keep.
func Archivable(body string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(body)) >= MinBodyLength
}

// Render formats an entry as a header block, a rule, and the body.
func Render(e Entry) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Source: %s\n", e.Source)
	fmt.Fprintf(&sb, "URL: %s\n", e.URL)
	fmt.Fprintf(&sb, "Title: %s\n", e.Title)
	sb.WriteString("Type: HTML Content\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n\n")
	sb.WriteString(e.Body)
	return sb.String()
}

// SafeTitle keeps letters, digits, spaces, hyphens and underscores of title
// and cuts it to MaxTitleLength characters.
func SafeTitle(title string) string {
	var sb strings.Builder
	for _, r := range title {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			sb.WriteRune(r)
		}
	}
	safe := []rune(strings.TrimRight(sb.String(), " "))
	if len(safe) > MaxTitleLength {
		safe = safe[:MaxTitleLength]
	}
	out := strings.TrimRight(string(safe), " ")
	if out == "" {
		return "untitled"
	}
	return out
}

// FileName returns the snapshot file name for title. n > 0 selects the n-th
// collision variant.
func FileName(title string, n int) string {
	if n <= 0 {
		return SafeTitle(title) + fileSuffix + fileExt
	}
	return fmt.Sprintf("%s%s_%d%s", SafeTitle(title), fileSuffix, n, fileExt)
}

// Dir archives snapshots as files in a local directory.
type Dir struct {
	path   string
	source string
	log    *logger.Logger
}

// NewDir creates the directory when needed.
func NewDir(path, source string, log *logger.Logger) (*Dir, error) {
	if path == "" {
		return nil, fmt.Errorf("archive directory cannot be empty")
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}
	if source == "" {
		source = DefaultSource
	}
	return &Dir{path: path, source: source, log: logger.OrDiscard(log)}, nil
}

// Path returns the archive directory.
func (d *Dir) Path() string {
	return d.path
}

// Archive writes doc to a new file and returns its path. An existing file is
// never overwritten; a numbered variant is used instead.
func (d *Dir) Archive(ctx context.Context, _ types.ClassifiedDocument, doc *types.IngestedDocument) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !Archivable(doc.BodyText) {
		return "", ErrBodyTooShort
	}

	content := Render(EntryFor(d.source, doc))
	for n := 0; n < maxCollisions; n++ {
		path := filepath.Join(d.path, FileName(doc.Title, n))
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err != nil {
			if errors.Is(err, os.ErrExist) {
				continue
			}
			return "", fmt.Errorf("failed to create archive file: %w", err)
		}
		if _, err := f.WriteString(content); err != nil {
			_ = f.Close()
			return "", fmt.Errorf("failed to write archive file: %w", err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("failed to close archive file: %w", err)
		}
		d.log.Debug("archived document", "path", path)
		return path, nil
	}
	return "", fmt.Errorf("failed to archive %s: too many files named %q", doc.URL, FileName(doc.Title, 0))
}
