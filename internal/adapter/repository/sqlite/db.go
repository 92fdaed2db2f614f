// Package sqlite stores NAV history and the scheme catalog in a local SQLite file
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// DB wraps the database handle
type DB struct {
	*sql.DB
}

// NewDB opens (creating if needed) the SQLite database at path.
// Use ":memory:" for a private in-memory database.
func NewDB(ctx context.Context, path string) (*DB, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000&_txlock=immediate", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite serializes writers; one connection also keeps ":memory:" a single database
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db}, nil
}

// Close closes the database
func (db *DB) Close() error {
	return db.DB.Close()
}
