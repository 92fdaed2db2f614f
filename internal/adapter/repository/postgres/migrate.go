package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// migration is one step of the schema upgrade path
type migration struct {
	version     int
	description string
	statements  []string
}

// migrations are applied in order; each runs in its own transaction together
// with the schema_version bump. Statements are idempotent so databases created
// before versioning existed upgrade in place.
var migrations = []migration{
	{
		version:     1,
		description: "create nav_history and scheme_master",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS nav_history (
				scheme_code TEXT NOT NULL,
				date DATE NOT NULL,
				nav NUMERIC NOT NULL,
				PRIMARY KEY (scheme_code, date)
			)`,
			`CREATE TABLE IF NOT EXISTS scheme_master (
				scheme_code TEXT PRIMARY KEY,
				scheme_name TEXT NOT NULL
			)`,
		},
	},
	{
		version:     2,
		description: "add scheme attribute flags",
		statements: []string{
			`ALTER TABLE scheme_master ADD COLUMN IF NOT EXISTS is_direct BOOLEAN NOT NULL DEFAULT FALSE`,
			`ALTER TABLE scheme_master ADD COLUMN IF NOT EXISTS is_growth BOOLEAN NOT NULL DEFAULT FALSE`,
			`ALTER TABLE scheme_master ADD COLUMN IF NOT EXISTS is_idcw BOOLEAN NOT NULL DEFAULT FALSE`,
		},
	},
	{
		version:     3,
		description: "create catalog_meta",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS catalog_meta (
				classifier_version INTEGER NOT NULL,
				refreshed_at TIMESTAMPTZ NOT NULL
			)`,
		},
	},
}

// SchemaVersion is the version a fully migrated database reports
func SchemaVersion() int {
	return migrations[len(migrations)-1].version
}

// Migrate brings the schema up to SchemaVersion and returns the versions it applied
func Migrate(ctx context.Context, db *DB) ([]int, error) {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create schema_version: %w", err)
	}

	current, err := currentVersion(ctx, db)
	if err != nil {
		return nil, err
	}

	var applied []int
	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := apply(ctx, db, m); err != nil {
			return applied, err
		}
		applied = append(applied, m.version)
	}

	return applied, nil
}

func currentVersion(ctx context.Context, db *DB) (int, error) {
	var version sql.NullInt64
	err := db.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_version`).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return int(version.Int64), nil
}

func apply(ctx context.Context, db *DB, m migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration %d: %w", m.version, err)
	}
	defer tx.Rollback()

	for _, stmt := range m.statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", m.version, m.description, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_version (version) VALUES ($1)`, m.version); err != nil {
		return fmt.Errorf("failed to record migration %d: %w", m.version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %d: %w", m.version, err)
	}
	return nil
}
