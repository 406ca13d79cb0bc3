package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// schemaStatements returns the DDL that creates the guidelines table. Every
// statement is safe to run against an existing table.
func schemaStatements(table Table) []string {
	stmts := make([]string, 0, 3)
	if table.Schema != "" {
		stmts = append(stmts, fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, pgx.Identifier{table.Schema}.Sanitize()))
	}
	stmts = append(stmts,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
			title TEXT NOT NULL,
			summary TEXT,
			issue_date DATE,
			products TEXT,
			link_guidance TEXT NOT NULL,
			link_file TEXT,
			country TEXT,
			agency TEXT,
			all_text TEXT,
			json_data JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, table.Sanitize()),
		fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s (link_guidance)`,
			pgx.Identifier{table.Name + "_link_guidance_key"}.Sanitize(), table.Sanitize()),
	)
	return stmts
}

// EnsureSchema creates the schema, the guidelines table, and the unique index
// on link_guidance that the upsert depends on.
func (db *DB) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements(db.table) {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema for %s: %w", db.table, err)
		}
	}
	return nil
}
