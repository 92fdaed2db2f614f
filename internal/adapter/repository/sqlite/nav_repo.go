package sqlite

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"
	"github.com/simaogato/navflow-backend/internal/domain"
)

// navRepository implements domain.NAVRepository
type navRepository struct {
	db *DB
}

// NewNAVRepository creates a new NAV history repository
func NewNAVRepository(db *DB) domain.NAVRepository {
	return &navRepository{db: db}
}

// LatestDate retrieves the most recent stored date for a scheme.
// Dates are ISO text, so MAX orders them chronologically.
func (r *navRepository) LatestDate(ctx context.Context, code string) (domain.Date, bool, error) {
	var latest sql.Null[domain.Date]
	err := r.db.QueryRowContext(ctx, `SELECT MAX(date) FROM nav_history WHERE scheme_code = ?`, code).Scan(&latest)
	if err != nil {
		return domain.Date{}, false, domain.NewStorageError("failed to get latest nav date", err)
	}

	return latest.V, latest.Valid, nil
}

// AppendIfNew inserts the points in one transaction, skipping dates already stored
func (r *navRepository) AppendIfNew(ctx context.Context, code string, points []domain.ValuationPoint) (int, error) {
	if len(points) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, domain.NewStorageError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO nav_history (scheme_code, date, nav)
		VALUES (?, ?, ?)
		ON CONFLICT (scheme_code, date) DO NOTHING
	`)
	if err != nil {
		return 0, domain.NewStorageError("failed to prepare nav insert", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, p := range points {
		res, err := stmt.ExecContext(ctx, code, p.Date, p.NAV.InexactFloat64())
		if err != nil {
			return 0, domain.NewStorageError("failed to insert nav history entry", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, domain.NewStorageError("failed to read affected rows", err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, domain.NewStorageError("failed to commit nav history", err)
	}

	return inserted, nil
}

// ReadAll retrieves the stored history of a scheme in ascending date order
func (r *navRepository) ReadAll(ctx context.Context, code string) ([]domain.ValuationPoint, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT date, nav
		FROM nav_history
		WHERE scheme_code = ?
		ORDER BY date ASC
	`, code)
	if err != nil {
		return nil, domain.NewStorageError("failed to query nav history", err)
	}
	defer rows.Close()

	points := []domain.ValuationPoint{}
	for rows.Next() {
		var p domain.ValuationPoint
		var nav float64
		if err := rows.Scan(&p.Date, &nav); err != nil {
			return nil, domain.NewStorageError("failed to scan nav history", err)
		}
		p.NAV = decimal.NewFromFloat(nav)
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStorageError("failed to iterate nav history", err)
	}

	return points, nil
}
