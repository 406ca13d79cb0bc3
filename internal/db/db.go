// Package db provides PostgreSQL storage for ingested guideline records.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Default location of the guidelines table.
const (
	DefaultSchema = "source"
	DefaultTable  = "medical_guidelines"
)

// DefaultConnectTimeout bounds New.
const DefaultConnectTimeout = 10 * time.Second

// Table names a schema-qualified table.
type Table struct {
	Schema string
	Name   string
}

// DefaultGuidelinesTable returns source.medical_guidelines.
func DefaultGuidelinesTable() Table {
	return Table{Schema: DefaultSchema, Name: DefaultTable}
}

// Identifier returns the table as a pgx identifier.
func (t Table) Identifier() pgx.Identifier {
	if t.Schema == "" {
		return pgx.Identifier{t.Name}
	}
	return pgx.Identifier{t.Schema, t.Name}
}

// Sanitize returns the quoted, schema-qualified table name.
func (t Table) Sanitize() string {
	return t.Identifier().Sanitize()
}

func (t Table) String() string {
	if t.Schema == "" {
		return t.Name
	}
	return t.Schema + "." + t.Name
}

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool  *pgxpool.Pool
	table Table
}

// Connect establishes a connection pool to the database using the default
// guidelines table.
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	return ConnectTable(ctx, databaseURL, DefaultGuidelinesTable())
}

// ConnectTable establishes a connection pool that reads and writes table.
func ConnectTable(ctx context.Context, databaseURL string, table Table) (*DB, error) {
	if table.Name == "" {
		return nil, fmt.Errorf("table name cannot be empty")
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool, table: table}, nil
}

// New connects with a bounded timeout and the default table.
func New(databaseURL string) (*DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultConnectTimeout)
	defer cancel()
	return Connect(ctx, databaseURL)
}

// Table returns the table this DB writes to.
func (db *DB) Table() Table {
	return db.table
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}
