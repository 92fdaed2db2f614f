package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/simaogato/navflow-backend/internal/domain"
)

// schemeRepository implements domain.SchemeRepository
type schemeRepository struct {
	db *DB
}

// NewSchemeRepository creates a new scheme catalog repository
func NewSchemeRepository(db *DB) domain.SchemeRepository {
	return &schemeRepository{db: db}
}

// State returns catalog row counts and the classifier version stamp
func (r *schemeRepository) State(ctx context.Context) (domain.CatalogState, error) {
	var state domain.CatalogState

	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE is_direct OR is_growth OR is_idcw)
		FROM scheme_master
	`).Scan(&state.Rows, &state.FlaggedRows)
	if err != nil {
		return state, domain.NewStorageError("failed to count schemes", err)
	}

	var version sql.NullInt64
	err = r.db.QueryRowContext(ctx, `SELECT MAX(classifier_version) FROM catalog_meta`).Scan(&version)
	if err != nil {
		return state, domain.NewStorageError("failed to read catalog version", err)
	}
	state.ClassifierVersion = int(version.Int64)

	return state, nil
}

// Replace deletes the catalog and inserts schemes in a single transaction
func (r *schemeRepository) Replace(ctx context.Context, schemes []domain.Scheme, classifierVersion int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.NewStorageError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM scheme_master`); err != nil {
		return domain.NewStorageError("failed to clear scheme catalog", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO scheme_master (scheme_code, scheme_name, is_direct, is_growth, is_idcw)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (scheme_code) DO UPDATE
		SET scheme_name = EXCLUDED.scheme_name,
			is_direct = EXCLUDED.is_direct,
			is_growth = EXCLUDED.is_growth,
			is_idcw = EXCLUDED.is_idcw
	`)
	if err != nil {
		return domain.NewStorageError("failed to prepare scheme insert", err)
	}
	defer stmt.Close()

	for _, s := range schemes {
		if _, err := stmt.ExecContext(ctx, s.Code, s.Name, s.IsDirect, s.IsGrowth, s.IsIncomeDistribution); err != nil {
			return domain.NewStorageError(fmt.Sprintf("failed to insert scheme %s", s.Code), err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM catalog_meta`); err != nil {
		return domain.NewStorageError("failed to clear catalog version", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO catalog_meta (classifier_version, refreshed_at)
		VALUES ($1, NOW())
	`, classifierVersion)
	if err != nil {
		return domain.NewStorageError("failed to stamp catalog version", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.NewStorageError("failed to commit scheme catalog", err)
	}

	return nil
}

// Search finds schemes whose name contains keyword (case-sensitive, no wildcards)
func (r *schemeRepository) Search(ctx context.Context, keyword string, filter domain.SearchFilter) ([]domain.SchemeSummary, error) {
	query := `
		SELECT scheme_code, scheme_name
		FROM scheme_master
		WHERE strpos(scheme_name, $1) > 0
	`

	switch filter {
	case domain.FilterDirectGrowth:
		query += ` AND is_direct AND is_growth`
	case domain.FilterRegular:
		query += ` AND NOT is_direct`
	}

	// Direct Growth first, then byte order within tier to match the sqlite backend
	query += ` ORDER BY is_direct DESC, is_growth DESC, scheme_name COLLATE "C" ASC`

	rows, err := r.db.QueryContext(ctx, query, keyword)
	if err != nil {
		return nil, domain.NewStorageError("failed to search schemes", err)
	}
	defer rows.Close()

	results := []domain.SchemeSummary{}
	for rows.Next() {
		var s domain.SchemeSummary
		if err := rows.Scan(&s.Code, &s.Name); err != nil {
			return nil, domain.NewStorageError("failed to scan scheme", err)
		}
		results = append(results, s)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStorageError("failed to iterate schemes", err)
	}

	return results, nil
}

// Name retrieves the display name of a scheme
func (r *schemeRepository) Name(ctx context.Context, code string) (string, error) {
	var name string
	err := r.db.QueryRowContext(ctx, `SELECT scheme_name FROM scheme_master WHERE scheme_code = $1`, code).Scan(&name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("scheme %s: %w", code, domain.ErrNotFound)
		}
		return "", domain.NewStorageError("failed to get scheme name", err)
	}
	return name, nil
}
