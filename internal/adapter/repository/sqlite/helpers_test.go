package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/navflow-backend/internal/domain"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = Migrate(context.Background(), db)
	require.NoError(t, err)
	return db
}

func pt(year int, month time.Month, day int, nav string) domain.ValuationPoint {
	return domain.ValuationPoint{
		Date: domain.NewDate(year, month, day),
		NAV:  decimal.RequireFromString(nav),
	}
}
