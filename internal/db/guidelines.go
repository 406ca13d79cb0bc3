package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/divyanshwrite/Philippines-Automation/internal/types"
)

// -----------------------------------------------------------------------------
// Guideline Methods
// -----------------------------------------------------------------------------

const guidelineColumns = `id, title, summary, issue_date, products, link_guidance, link_file,
	country, agency, all_text, json_data, created_at, updated_at`

func upsertGuidelineSQL(table Table) string {
	return fmt.Sprintf(
		`INSERT INTO %s (title, summary, issue_date, products, link_guidance, link_file,
			country, agency, all_text, json_data, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		 ON CONFLICT (link_guidance) DO UPDATE SET
			title = EXCLUDED.title,
			summary = EXCLUDED.summary,
			issue_date = EXCLUDED.issue_date,
			products = EXCLUDED.products,
			link_file = EXCLUDED.link_file,
			country = EXCLUDED.country,
			agency = EXCLUDED.agency,
			all_text = EXCLUDED.all_text,
			json_data = EXCLUDED.json_data,
			updated_at = NOW()
		 RETURNING id, created_at, updated_at, (xmax = 0)`,
		table.Sanitize(),
	)
}

// upsertArgs returns the positional arguments for upsertGuidelineSQL.
func upsertArgs(rec *types.GuidelineRecord) ([]any, error) {
	meta, err := json.Marshal(rec.Metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata: %w", err)
	}
	return []any{
		rec.Title,
		rec.Summary,
		rec.IssueDate,
		rec.Products,
		rec.URL,
		rec.FileLink,
		rec.Country,
		rec.Agency,
		rec.AllText,
		meta,
	}, nil
}

// UpsertGuideline inserts a record keyed by its URL, or updates every mutable
// field of the existing row in place. The ID and created_at of an existing
// row are left untouched; ID, CreatedAt and UpdatedAt are written back to rec.
func (db *DB) UpsertGuideline(ctx context.Context, rec *types.GuidelineRecord) (types.UpsertResult, error) {
	if rec.URL == "" {
		return "", fmt.Errorf("guideline URL cannot be empty")
	}
	args, err := upsertArgs(rec)
	if err != nil {
		return "", err
	}

	var inserted bool
	err = db.pool.QueryRow(ctx, upsertGuidelineSQL(db.table), args...).
		Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt, &inserted)
	if err != nil {
		return "", fmt.Errorf("failed to upsert guideline: %w", err)
	}

	if inserted {
		return types.UpsertInserted, nil
	}
	return types.UpsertUpdated, nil
}

// GetGuidelineByURL retrieves a record by link_guidance. It returns nil when
// no row exists.
func (db *DB) GetGuidelineByURL(ctx context.Context, url string) (*types.GuidelineRecord, error) {
	var (
		rec      types.GuidelineRecord
		summary  *string
		country  *string
		agency   *string
		allText  *string
		metaJSON []byte
	)
	err := db.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM %s WHERE link_guidance = $1`, guidelineColumns, db.table.Sanitize()),
		url,
	).Scan(&rec.ID, &rec.Title, &summary, &rec.IssueDate, &rec.Products, &rec.URL, &rec.FileLink,
		&country, &agency, &allText, &metaJSON, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get guideline: %w", err)
	}

	rec.Summary = derefString(summary)
	rec.Country = derefString(country)
	rec.Agency = derefString(agency)
	rec.AllText = derefString(allText)
	if len(metaJSON) > 0 {
		if err := json.Unmarshal(metaJSON, &rec.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode guideline metadata: %w", err)
		}
	}
	return &rec, nil
}

// YearCount is the number of records for one document year.
type YearCount struct {
	Year  string
	Count int64
}

// GuidelineSummary is a lightweight view of a record for listings.
type GuidelineSummary struct {
	ID        int64
	Title     string
	URL       string
	IssueDate *time.Time
	UpdatedAt time.Time
}

// GuidelineStats summarizes the records of one agency.
type GuidelineStats struct {
	Total            int64
	AvgContentLength float64
	Years            []YearCount
	Latest           []GuidelineSummary
}

// GuidelineStats returns totals, per-year counts, and the latest records for
// agency. An empty agency means every row.
func (db *DB) GuidelineStats(ctx context.Context, agency string, latest int) (*GuidelineStats, error) {
	if latest <= 0 {
		latest = 5
	}
	table := db.table.Sanitize()
	filter := `($1::text = '' OR agency = $1)`

	stats := &GuidelineStats{}
	err := db.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT COUNT(*), COALESCE(AVG(LENGTH(all_text)), 0)::float8 FROM %s WHERE %s`, table, filter),
		agency,
	).Scan(&stats.Total, &stats.AvgContentLength)
	if err != nil {
		return nil, fmt.Errorf("failed to count guidelines: %w", err)
	}

	rows, err := db.pool.Query(ctx,
		fmt.Sprintf(`SELECT COALESCE(json_data->>'year', ''), COUNT(*) FROM %s WHERE %s
		 GROUP BY 1 ORDER BY 1 DESC`, table, filter),
		agency,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count guideline years: %w", err)
	}
	for rows.Next() {
		var yc YearCount
		if err := rows.Scan(&yc.Year, &yc.Count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan year count: %w", err)
		}
		stats.Years = append(stats.Years, yc)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to count guideline years: %w", err)
	}

	rows, err = db.pool.Query(ctx,
		fmt.Sprintf(`SELECT id, title, link_guidance, issue_date, updated_at FROM %s WHERE %s
		 ORDER BY updated_at DESC LIMIT $2`, table, filter),
		agency, latest,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list latest guidelines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var s GuidelineSummary
		if err := rows.Scan(&s.ID, &s.Title, &s.URL, &s.IssueDate, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan guideline: %w", err)
		}
		stats.Latest = append(stats.Latest, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list latest guidelines: %w", err)
	}

	return stats, nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
