package ingestion

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/divyanshwrite/Philippines-Automation/internal/types"
)

// MemoryStore keeps records in memory with the same upsert semantics as the
// database stores. It backs dry runs.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*types.GuidelineRecord
	nextID  int64
	now     func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*types.GuidelineRecord),
		now:     time.Now,
	}
}

// WithClock replaces the clock used for timestamps.
func (m *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	m.now = now
	return m
}

// UpsertGuideline inserts or updates the record for rec.URL.
func (m *MemoryStore) UpsertGuideline(ctx context.Context, rec *types.GuidelineRecord) (types.UpsertResult, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if rec.URL == "" {
		return "", fmt.Errorf("guideline URL cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	stored := *rec
	result := types.UpsertInserted
	if existing, ok := m.records[rec.URL]; ok {
		stored.ID = existing.ID
		stored.CreatedAt = existing.CreatedAt
		result = types.UpsertUpdated
	} else {
		m.nextID++
		stored.ID = m.nextID
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	m.records[rec.URL] = &stored

	rec.ID = stored.ID
	rec.CreatedAt = stored.CreatedAt
	rec.UpdatedAt = stored.UpdatedAt
	return result, nil
}

// Get returns a copy of the record for url, or nil.
func (m *MemoryStore) Get(url string) *types.GuidelineRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[url]
	if !ok {
		return nil
	}
	cp := *rec
	return &cp
}

// Len returns the number of records.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// Records returns copies of all records in insertion order.
func (m *MemoryStore) Records() []types.GuidelineRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]types.GuidelineRecord, 0, len(m.records))
	for _, rec := range m.records {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// readOnlySet answers membership from the wrapped set and drops additions.
type readOnlySet struct {
	URLSet
}

func (readOnlySet) AddAll([]string) error { return nil }

// ReadOnly wraps set so that AddAll is a no-op.
func ReadOnly(set URLSet) URLSet {
	return readOnlySet{set}
}
