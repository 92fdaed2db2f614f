package catalog

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/simaogato/navflow-backend/internal/domain"
)

// ClassifierVersion identifies the name classification rules in domain.NewScheme.
// Bump it whenever those rules change so stored catalogs are rebuilt.
const ClassifierVersion = 1

// CatalogService maintains the scheme catalog and serves keyword search over it
type CatalogService struct {
	SchemeRepo domain.SchemeRepository
	Source     domain.CatalogSource
	logger     zerolog.Logger
}

// NewCatalogService creates a new CatalogService instance
func NewCatalogService(schemeRepo domain.SchemeRepository, source domain.CatalogSource, logger zerolog.Logger) *CatalogService {
	return &CatalogService{
		SchemeRepo: schemeRepo,
		Source:     source,
		logger:     logger,
	}
}

// IsStale reports whether a stored catalog must be rebuilt:
// it is empty, was classified by an older rule set, or has no flagged record at all
func IsStale(state domain.CatalogState) bool {
	return state.Rows == 0 ||
		state.ClassifierVersion < ClassifierVersion ||
		state.FlaggedRows == 0
}

// EnsureFresh rebuilds the catalog when IsStale says so.
// It returns true when a rebuild happened.
func (s *CatalogService) EnsureFresh(ctx context.Context) (bool, error) {
	state, err := s.SchemeRepo.State(ctx)
	if err != nil {
		return false, err
	}

	if !IsStale(state) {
		return false, nil
	}

	s.logger.Info().
		Int("rows", state.Rows).
		Int("flagged_rows", state.FlaggedRows).
		Int("classifier_version", state.ClassifierVersion).
		Msg("Catalog is stale, rebuilding")

	if _, err := s.Refresh(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Refresh unconditionally rebuilds the catalog from the source.
// The source is read in full before the store is touched, so a failed fetch leaves the catalog as it was.
// It returns the number of schemes stored.
func (s *CatalogService) Refresh(ctx context.Context) (int, error) {
	summaries, err := s.Source.Schemes(ctx)
	if err != nil {
		return 0, err
	}

	schemes := classify(summaries)
	if err := s.SchemeRepo.Replace(ctx, schemes, ClassifierVersion); err != nil {
		return 0, err
	}

	s.logger.Info().Int("schemes", len(schemes)).Msg("Catalog rebuilt")
	return len(schemes), nil
}

// Search returns schemes whose name contains keyword, refreshing a stale catalog first.
// When that refresh cannot reach the source the result is empty rather than an error;
// storage failures are returned.
func (s *CatalogService) Search(ctx context.Context, keyword string, filter domain.SearchFilter) ([]domain.SchemeSummary, error) {
	if _, err := s.EnsureFresh(ctx); err != nil {
		if errors.Is(err, domain.ErrStorage) {
			return nil, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s.logger.Warn().Err(err).Msg("Catalog refresh failed, returning no results")
		return []domain.SchemeSummary{}, nil
	}

	return s.SchemeRepo.Search(ctx, keyword, filter)
}

// SchemeName returns the display name of code, or ErrNotFound
func (s *CatalogService) SchemeName(ctx context.Context, code string) (string, error) {
	return s.SchemeRepo.Name(ctx, code)
}

// classify derives the attribute flags of every fund, keeping the first entry of a repeated code
func classify(summaries []domain.SchemeSummary) []domain.Scheme {
	seen := make(map[string]bool, len(summaries))
	schemes := make([]domain.Scheme, 0, len(summaries))
	for _, summary := range summaries {
		if seen[summary.Code] {
			continue
		}
		seen[summary.Code] = true
		schemes = append(schemes, domain.NewScheme(summary.Code, summary.Name))
	}
	return schemes
}
