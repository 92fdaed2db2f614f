package domain

import (
	"context"
)

// NAVRepository defines the Series Store: persisted (scheme code, date) -> NAV
type NAVRepository interface {
	// LatestDate returns the most recent stored date for code.
	// ok is false when nothing is stored for code.
	LatestDate(ctx context.Context, code string) (latest Date, ok bool, err error)

	// AppendIfNew inserts every point whose date is not already stored for code.
	// Existing points are left untouched, so re-applying the same input is a no-op.
	// The call is all-or-nothing; it returns the number of rows actually inserted.
	AppendIfNew(ctx context.Context, code string, points []ValuationPoint) (int, error)

	// ReadAll returns every stored point for code, ascending by date
	ReadAll(ctx context.Context, code string) ([]ValuationPoint, error)
}

// SchemeRepository defines catalog persistence operations
type SchemeRepository interface {
	// State returns row counts and the classifier version stamp
	State(ctx context.Context) (CatalogState, error)

	// Replace swaps the whole catalog for schemes and stamps classifierVersion, atomically
	Replace(ctx context.Context, schemes []Scheme, classifierVersion int) error

	// Search returns schemes whose name contains keyword (case-sensitive),
	// ordered direct first, then growth, then by name
	Search(ctx context.Context, keyword string, filter SearchFilter) ([]SchemeSummary, error)

	// Name returns the display name of code, or ErrNotFound
	Name(ctx context.Context, code string) (string, error)
}

// NAVSource is the external valuation-history source.
// It always returns the full history; it has no incremental query.
type NAVSource interface {
	History(ctx context.Context, code string) ([]ValuationPoint, error)
}

// CatalogSource is the external fund-list source
type CatalogSource interface {
	Schemes(ctx context.Context) ([]SchemeSummary, error)
}
