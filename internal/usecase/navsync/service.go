package navsync

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/simaogato/navflow-backend/internal/domain"
)

// SyncService merges newly published NAVs from the external source into the Series Store
type SyncService struct {
	NAVRepo domain.NAVRepository
	Source  domain.NAVSource
	logger  zerolog.Logger
}

// NewSyncService creates a new SyncService instance
func NewSyncService(navRepo domain.NAVRepository, source domain.NAVSource, logger zerolog.Logger) *SyncService {
	return &SyncService{
		NAVRepo: navRepo,
		Source:  source,
		logger:  logger,
	}
}

// Sync fetches the full history of a scheme and stores the points newer than the
// latest locally known date. It returns the number of points inserted.
//
// Source failures (unreachable, bad status, malformed or empty payload) are logged and
// swallowed: the store is left as it was and the caller carries on with local data.
// Only storage failures are returned.
func (s *SyncService) Sync(ctx context.Context, code string) (int, error) {
	latest, hasLatest, err := s.NAVRepo.LatestDate(ctx, code)
	if err != nil {
		return 0, err
	}

	points, err := s.Source.History(ctx, code)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}
		event := s.logger.Warn()
		if !errors.Is(err, domain.ErrTransport) && !errors.Is(err, domain.ErrMalformedResponse) {
			event = s.logger.Error()
		}
		event.Err(err).Str("scheme_code", code).Msg("NAV sync skipped, using local data")
		return 0, nil
	}

	fresh := points
	if hasLatest {
		fresh = newerThan(points, latest)
	}

	if len(fresh) == 0 {
		s.logger.Debug().Str("scheme_code", code).Int("fetched", len(points)).Msg("NAV history up to date")
		return 0, nil
	}

	inserted, err := s.NAVRepo.AppendIfNew(ctx, code, fresh)
	if err != nil {
		return 0, err
	}

	s.logger.Debug().
		Str("scheme_code", code).
		Int("fetched", len(points)).
		Int("inserted", inserted).
		Msg("NAV history synced")

	return inserted, nil
}

// newerThan keeps the points strictly after latest
func newerThan(points []domain.ValuationPoint, latest domain.Date) []domain.ValuationPoint {
	fresh := make([]domain.ValuationPoint, 0)
	for _, p := range points {
		if p.Date.After(latest) {
			fresh = append(fresh, p)
		}
	}
	return fresh
}
