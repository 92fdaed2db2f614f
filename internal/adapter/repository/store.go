// Package repository selects and opens the configured storage backend
package repository

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/simaogato/navflow-backend/internal/adapter/repository/postgres"
	"github.com/simaogato/navflow-backend/internal/adapter/repository/sqlite"
	"github.com/simaogato/navflow-backend/internal/config"
	"github.com/simaogato/navflow-backend/internal/domain"
)

// Store is an open, migrated backend. It owns the database handle: hold it for the
// lifetime of the process and Close it on shutdown.
type Store struct {
	Backend       string
	NAV           domain.NAVRepository
	Schemes       domain.SchemeRepository
	SchemaVersion int
	Applied       []int // Migrations applied while opening

	close func() error
}

// Close releases the database handle
func (s *Store) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// Open connects to the backend named by cfg.Store and brings its schema up to date.
// Supported backends: "sqlite" (default), "postgres".
func Open(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Store, error) {
	var (
		store *Store
		err   error
	)

	switch cfg.Store {
	case config.StoreSQLite, "":
		store, err = openSQLite(ctx, cfg.SQLitePath)
	case config.StorePostgres:
		store, err = openPostgres(ctx, cfg.PostgresDSN())
	default:
		return nil, fmt.Errorf("unknown store backend: %s (supported: %s, %s)", cfg.Store, config.StoreSQLite, config.StorePostgres)
	}
	if err != nil {
		return nil, err
	}

	if len(store.Applied) > 0 {
		logger.Info().
			Str("backend", store.Backend).
			Ints("applied", store.Applied).
			Int("schema_version", store.SchemaVersion).
			Msg("Database migrated")
	} else {
		logger.Debug().
			Str("backend", store.Backend).
			Int("schema_version", store.SchemaVersion).
			Msg("Database schema up to date")
	}

	return store, nil
}

func openSQLite(ctx context.Context, path string) (*Store, error) {
	db, err := sqlite.NewDB(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite store %s: %w", path, err)
	}

	applied, err := sqlite.Migrate(ctx, db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate sqlite store: %w", err)
	}

	return &Store{
		Backend:       config.StoreSQLite,
		NAV:           sqlite.NewNAVRepository(db),
		Schemes:       sqlite.NewSchemeRepository(db),
		SchemaVersion: sqlite.SchemaVersion(),
		Applied:       applied,
		close:         db.Close,
	}, nil
}

func openPostgres(ctx context.Context, dsn string) (*Store, error) {
	db, err := postgres.NewDB(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres store: %w", err)
	}

	applied, err := postgres.Migrate(ctx, db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate postgres store: %w", err)
	}

	return &Store{
		Backend:       config.StorePostgres,
		NAV:           postgres.NewNAVRepository(db),
		Schemes:       postgres.NewSchemeRepository(db),
		SchemaVersion: postgres.SchemaVersion(),
		Applied:       applied,
		close:         db.Close,
	}, nil
}
