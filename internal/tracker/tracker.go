// Package tracker persists the set of document URLs already ingested across runs.
//
// The backing store is an append-only text file with one absolute URL per line.
// Duplicate lines are tolerated; membership is the union of all lines read at Open.
package tracker

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DefaultPath is the processed-URL log used when no path is configured.
const DefaultPath = "processed_urls.txt"

// Tracker owns the in-memory set and the durable log behind it.
// It is not safe for concurrent runs against the same file.
type Tracker struct {
	path string
	seen map[string]struct{}
}

// Open reads the log at path fully into memory. A missing file is an empty set.
func Open(path string) (*Tracker, error) {
	if path == "" {
		path = DefaultPath
	}

	t := &Tracker{
		path: path,
		seen: make(map[string]struct{}),
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return t, nil
		}
		return nil, fmt.Errorf("failed to open processed URL log %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			t.seen[line] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read processed URL log %s: %w", path, err)
	}

	return t, nil
}

// Path returns the backing file path.
func (t *Tracker) Path() string {
	return t.path
}

// Contains reports whether url was recorded by this or any earlier run.
func (t *Tracker) Contains(url string) bool {
	_, ok := t.seen[url]
	return ok
}

// Len returns the number of distinct URLs known.
func (t *Tracker) Len() int {
	return len(t.seen)
}

// AddAll appends urls to the log and then to the in-memory set.
// The file is synced before returning so a successful call is durable.
func (t *Tracker) AddAll(urls []string) error {
	if len(urls) == 0 {
		return nil
	}

	if dir := filepath.Dir(t.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", t.path, err)
		}
	}

	f, err := os.OpenFile(t.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open processed URL log %s: %w", t.path, err)
	}

	w := bufio.NewWriter(f)
	for _, u := range urls {
		if u = strings.TrimSpace(u); u == "" {
			continue
		}
		if _, err := w.WriteString(u + "\n"); err != nil {
			_ = f.Close()
			return fmt.Errorf("failed to append to %s: %w", t.path, err)
		}
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to append to %s: %w", t.path, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to sync %s: %w", t.path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", t.path, err)
	}

	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			t.seen[u] = struct{}{}
		}
	}
	return nil
}
