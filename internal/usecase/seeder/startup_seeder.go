package seeder

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/simaogato/navflow-backend/internal/domain"
)

// CatalogRefresher rebuilds a stale catalog
type CatalogRefresher interface {
	EnsureFresh(ctx context.Context) (bool, error)
}

// HistorySyncer brings one scheme's NAV history up to date
type HistorySyncer interface {
	Sync(ctx context.Context, code string) (int, error)
}

// Result reports what a Seed run did
type Result struct {
	CatalogRebuilt bool
	Synced         map[string]int // NAVs inserted per watched scheme
}

// StartupSeeder prepares the store at boot: it makes sure the catalog is usable and
// pulls the history of the watched schemes so the first comparison is served from local data
type StartupSeeder struct {
	catalog CatalogRefresher
	syncer  HistorySyncer
	watch   []string
	logger  zerolog.Logger
}

// NewStartupSeeder creates a new StartupSeeder instance
func NewStartupSeeder(catalog CatalogRefresher, syncer HistorySyncer, watch []string, logger zerolog.Logger) *StartupSeeder {
	return &StartupSeeder{
		catalog: catalog,
		syncer:  syncer,
		watch:   watch,
		logger:  logger,
	}
}

// Seed refreshes a stale catalog and syncs every watched scheme.
// An unreachable source is not fatal (the server can still answer from local data);
// storage failures are returned.
func (s *StartupSeeder) Seed(ctx context.Context) (*Result, error) {
	result := &Result{Synced: make(map[string]int, len(s.watch))}

	rebuilt, err := s.catalog.EnsureFresh(ctx)
	switch {
	case errors.Is(err, domain.ErrStorage):
		return nil, err
	case err != nil:
		s.logger.Warn().Err(err).Msg("Catalog not refreshed at startup")
	default:
		result.CatalogRebuilt = rebuilt
	}

	for _, code := range s.watch {
		if code == "" {
			continue
		}
		inserted, err := s.syncer.Sync(ctx, code)
		if err != nil {
			return nil, err
		}
		result.Synced[code] = inserted
	}

	s.logger.Info().
		Bool("catalog_rebuilt", result.CatalogRebuilt).
		Int("watched", len(result.Synced)).
		Msg("Startup seeding complete")

	return result, nil
}
