package analysis

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"
	"github.com/simaogato/navflow-backend/internal/domain"
	"github.com/simaogato/navflow-backend/internal/usecase/stats"
	"github.com/simaogato/navflow-backend/internal/usecase/timeseries"
)

// Syncer brings the local NAV history of a scheme up to date
type Syncer interface {
	Sync(ctx context.Context, code string) (int, error)
}

// NameLookup resolves a scheme code to its display name
type NameLookup interface {
	SchemeName(ctx context.Context, code string) (string, error)
}

// Config holds the tunables of the analysis pipeline
type Config struct {
	HighReturnThreshold float64 // Fixed threshold behind Probabilities.BeatThreshold
	MinHorizonYears     float64 // Horizons must be strictly greater than this
	TailPoints          int     // Rolling-sample points kept in AnalysisReport.Series
}

// DefaultConfig returns the production defaults
func DefaultConfig() Config {
	return Config{
		HighReturnThreshold: stats.DefaultHighReturnThreshold,
		MinHorizonYears:     0.5,
		TailPoints:          100,
	}
}

// Request asks for a comparison of several schemes over one horizon
type Request struct {
	Codes     []string
	Years     float64
	Benchmark float64
}

// AnalysisService runs sync -> read -> densify -> rolling returns -> summarize per scheme
type AnalysisService struct {
	Syncer  Syncer
	NAVRepo domain.NAVRepository
	Names   NameLookup
	cfg     Config
	logger  zerolog.Logger
}

// NewAnalysisService creates a new AnalysisService instance
func NewAnalysisService(syncer Syncer, navRepo domain.NAVRepository, names NameLookup, cfg Config, logger zerolog.Logger) *AnalysisService {
	return &AnalysisService{
		Syncer:  syncer,
		NAVRepo: navRepo,
		Names:   names,
		cfg:     cfg,
		logger:  logger,
	}
}

// Validate checks a request before any sync or compute work and returns its codes, trimmed and deduplicated
func (s *AnalysisService) Validate(req Request) ([]string, error) {
	if len(req.Codes) == 0 {
		return nil, fmt.Errorf("%w: at least one scheme code is required", domain.ErrValidation)
	}
	if math.IsNaN(req.Years) || math.IsInf(req.Years, 0) || req.Years <= s.cfg.MinHorizonYears {
		return nil, fmt.Errorf("%w: years must be greater than %v, got %v", domain.ErrValidation, s.cfg.MinHorizonYears, req.Years)
	}
	if timeseries.HorizonDays(req.Years) < 1 {
		return nil, fmt.Errorf("%w: horizon of %v years is shorter than one day", domain.ErrValidation, req.Years)
	}
	if math.IsNaN(req.Benchmark) || math.IsInf(req.Benchmark, 0) {
		return nil, fmt.Errorf("%w: benchmark must be a finite rate", domain.ErrValidation)
	}

	seen := make(map[string]bool, len(req.Codes))
	codes := make([]string, 0, len(req.Codes))
	for _, raw := range req.Codes {
		code := strings.TrimSpace(raw)
		if code == "" {
			return nil, fmt.Errorf("%w: scheme code must not be empty", domain.ErrValidation)
		}
		if seen[code] {
			continue
		}
		seen[code] = true
		codes = append(codes, code)
	}
	return codes, nil
}

// Compare analyses every requested scheme and returns one report per scheme that had enough data.
// Schemes whose source failed and that have too little local history are omitted.
// A storage failure aborts the whole request.
func (s *AnalysisService) Compare(ctx context.Context, req Request) (map[string]*domain.AnalysisReport, error) {
	codes, err := s.Validate(req)
	if err != nil {
		return nil, err
	}

	reports := make(map[string]*domain.AnalysisReport, len(codes))
	for _, code := range codes {
		report, err := s.Analyze(ctx, code, req.Years, req.Benchmark)
		if errors.Is(err, domain.ErrInsufficientData) {
			s.logger.Info().Str("scheme_code", code).Float64("years", req.Years).Msg("Skipping scheme, insufficient data")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to analyse scheme %s: %w", code, err)
		}
		reports[code] = report
	}

	return reports, nil
}

// Analyze runs the pipeline for a single, already validated scheme.
// It returns ErrInsufficientData when the history is shorter than the horizon.
func (s *AnalysisService) Analyze(ctx context.Context, code string, years, benchmark float64) (*domain.AnalysisReport, error) {
	if _, err := s.Syncer.Sync(ctx, code); err != nil {
		return nil, err
	}

	points, err := s.NAVRepo.ReadAll(ctx, code)
	if err != nil {
		return nil, err
	}

	rolling := timeseries.RollingReturns(timeseries.Densify(points), years)
	if len(rolling) == 0 {
		return nil, fmt.Errorf("%d observations for a %v year horizon: %w", len(points), years, domain.ErrInsufficientData)
	}

	summary, err := stats.Summarize(timeseries.Values(rolling), benchmark, s.cfg.HighReturnThreshold)
	if err != nil {
		return nil, err
	}

	name, err := s.schemeName(ctx, code)
	if err != nil {
		return nil, err
	}

	return &domain.AnalysisReport{
		SchemeCode:    code,
		Name:          name,
		BenchmarkUsed: benchmark,
		Threshold:     s.cfg.HighReturnThreshold,
		Observations:  len(rolling),
		Metrics:       summary.Metrics,
		Probabilities: summary.Probabilities,
		Series:        tail(rolling, s.cfg.TailPoints),
	}, nil
}

// schemeName falls back to the code for schemes missing from the catalog
func (s *AnalysisService) schemeName(ctx context.Context, code string) (string, error) {
	if s.Names == nil {
		return code, nil
	}
	name, err := s.Names.SchemeName(ctx, code)
	if errors.Is(err, domain.ErrNotFound) {
		return code, nil
	}
	if err != nil {
		return "", err
	}
	return name, nil
}

func tail(points []domain.ReturnPoint, n int) []domain.ReturnPoint {
	if n <= 0 {
		return []domain.ReturnPoint{}
	}
	if len(points) > n {
		points = points[len(points)-n:]
	}
	out := make([]domain.ReturnPoint, len(points))
	copy(out, points)
	return out
}
