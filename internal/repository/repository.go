// Package repository provides database access layer.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Repository provides database access methods over a single SQLite store file.
type Repository struct {
	db *sql.DB
}

// New opens the store file and applies the schema idempotently.
func New(ctx context.Context, path string) (*Repository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("database path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite handles one writer at a time; a single connection avoids
	// SQLITE_BUSY churn under concurrent requests.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	r := &Repository{db: db}
	if err := r.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return r, nil
}

// Ping checks database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database handle.
func (r *Repository) Close() {
	_ = r.db.Close()
}

// initSchema creates the tables if absent and adds any optional dossier
// columns a store created by an older schema is missing. Re-running it
// against an initialized store is a no-op.
func (r *Repository) initSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT UNIQUE NOT NULL,
			name TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL CHECK(role IN ('admin','user')),
			created_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS dossiers (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			owner_id TEXT NOT NULL REFERENCES users(id),
			created_at INTEGER NOT NULL
		);
	`

	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}

	return r.ensureDossierColumns(ctx)
}

// optionalDossierColumns are the company-profile columns added after the
// initial release. Stores created before them are migrated additively.
var optionalDossierColumns = []string{
	"company_name",
	"siret",
	"signer_first_name",
	"signer_last_name",
	"signer_role",
	"signer_phone",
	"signer_email",
	"billing_address",
	"billing_zip",
	"billing_city",
	"shipping_address",
	"shipping_zip",
	"shipping_city",
}

func (r *Repository) ensureDossierColumns(ctx context.Context) error {
	rows, err := r.db.QueryContext(ctx, `PRAGMA table_info(dossiers)`)
	if err != nil {
		return fmt.Errorf("read dossier columns: %w", err)
	}
	defer rows.Close()

	existing := make(map[string]bool)
	for rows.Next() {
		var (
			cid        int
			name, typ  string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &defaultVal, &pk); err != nil {
			return fmt.Errorf("scan dossier column: %w", err)
		}
		existing[name] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate dossier columns: %w", err)
	}

	for _, col := range optionalDossierColumns {
		if existing[col] {
			continue
		}
		stmt := fmt.Sprintf(`ALTER TABLE dossiers ADD COLUMN %s TEXT NOT NULL DEFAULT ''`, col)
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("add column %s: %w", col, err)
		}
	}

	return nil
}

// Timestamps are stored as millisecond integers so ordering is numeric and
// independent of the driver's text time format.
func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// isUniqueViolation reports whether the error is a unique-constraint failure.
// modernc.org/sqlite surfaces constraint violations as plain-text errors with
// the SQLITE_CONSTRAINT_UNIQUE message embedded.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
