package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// migration is one step of the schema upgrade path
type migration struct {
	version     int
	description string
	apply       func(ctx context.Context, tx *sql.Tx) error
}

// Databases written before versioning have the tables but no schema_version rows,
// so every step checks for what it creates.
var migrations = []migration{
	{
		version:     1,
		description: "create nav_history and scheme_master",
		apply: execAll(
			`CREATE TABLE IF NOT EXISTS nav_history (
				scheme_code TEXT NOT NULL,
				date TEXT NOT NULL,
				nav REAL NOT NULL,
				PRIMARY KEY (scheme_code, date)
			)`,
			`CREATE TABLE IF NOT EXISTS scheme_master (
				scheme_code TEXT PRIMARY KEY,
				scheme_name TEXT NOT NULL
			)`,
		),
	},
	{
		version:     2,
		description: "add scheme attribute flags",
		apply:       addFlagColumns,
	},
	{
		version:     3,
		description: "create catalog_meta",
		apply: execAll(
			`CREATE TABLE IF NOT EXISTS catalog_meta (
				classifier_version INTEGER NOT NULL,
				refreshed_at TEXT NOT NULL
			)`,
		),
	},
}

// SchemaVersion is the version a fully migrated database reports
func SchemaVersion() int {
	return migrations[len(migrations)-1].version
}

func execAll(statements ...string) func(context.Context, *sql.Tx) error {
	return func(ctx context.Context, tx *sql.Tx) error {
		for _, stmt := range statements {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	}
}

// addFlagColumns adds the attribute columns that are missing; existing rows get 0
func addFlagColumns(ctx context.Context, tx *sql.Tx) error {
	existing, err := columns(ctx, tx, "scheme_master")
	if err != nil {
		return err
	}
	for _, col := range []string{"is_direct", "is_growth", "is_idcw"} {
		if existing[col] {
			continue
		}
		stmt := fmt.Sprintf(`ALTER TABLE scheme_master ADD COLUMN %s INTEGER NOT NULL DEFAULT 0`, col)
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func columns(ctx context.Context, tx *sql.Tx, table string) (map[string]bool, error) {
	rows, err := tx.QueryContext(ctx, fmt.Sprintf(`SELECT name FROM pragma_table_info('%s')`, table))
	if err != nil {
		return nil, fmt.Errorf("failed to inspect %s: %w", table, err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		cols[name] = true
	}
	return cols, rows.Err()
}

// Migrate brings the schema up to SchemaVersion and returns the versions it applied
func Migrate(ctx context.Context, db *DB) ([]int, error) {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create schema_version: %w", err)
	}

	var current sql.NullInt64
	if err := db.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_version`).Scan(&current); err != nil {
		return nil, fmt.Errorf("failed to read schema version: %w", err)
	}

	var applied []int
	for _, m := range migrations {
		if int64(m.version) <= current.Int64 {
			continue
		}
		if err := apply(ctx, db, m); err != nil {
			return applied, err
		}
		applied = append(applied, m.version)
	}

	return applied, nil
}

func apply(ctx context.Context, db *DB, m migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration %d: %w", m.version, err)
	}
	defer tx.Rollback()

	if err := m.apply(ctx, tx); err != nil {
		return fmt.Errorf("migration %d (%s) failed: %w", m.version, m.description, err)
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_version (version) VALUES (?)`, m.version); err != nil {
		return fmt.Errorf("failed to record migration %d: %w", m.version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %d: %w", m.version, err)
	}
	return nil
}
