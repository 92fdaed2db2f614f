// Package app wires configuration, storage, the external source and the use cases.
// It is the shared core of cmd/server and cmd/navctl.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/simaogato/navflow-backend/internal/adapter/mfapi"
	"github.com/simaogato/navflow-backend/internal/adapter/repository"
	"github.com/simaogato/navflow-backend/internal/config"
	"github.com/simaogato/navflow-backend/internal/usecase/analysis"
	"github.com/simaogato/navflow-backend/internal/usecase/catalog"
	"github.com/simaogato/navflow-backend/internal/usecase/navsync"
	"github.com/simaogato/navflow-backend/internal/usecase/seeder"
)

// App holds the initialized store and services
type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Store    *repository.Store
	Source   *mfapi.Client
	Sync     *navsync.SyncService
	Catalog  *catalog.CatalogService
	Analysis *analysis.AnalysisService
	Seeder   *seeder.StartupSeeder
}

// New opens and migrates the configured store and builds every service on top of it.
// Close the returned App to release the store.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	store, err := repository.Open(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	source := mfapi.NewClient(
		mfapi.WithBaseURL(cfg.SourceBaseURL),
		mfapi.WithTimeout(cfg.SourceTimeout),
		mfapi.WithRateLimit(cfg.SourceRateLimit),
		mfapi.WithLogger(logger),
	)

	syncService := navsync.NewSyncService(store.NAV, source, logger)
	catalogService := catalog.NewCatalogService(store.Schemes, source, logger)
	analysisService := analysis.NewAnalysisService(syncService, store.NAV, catalogService, analysis.Config{
		HighReturnThreshold: cfg.HighReturnThreshold,
		MinHorizonYears:     cfg.MinHorizonYears,
		TailPoints:          cfg.TailPoints,
	}, logger)

	return &App{
		Config:   cfg,
		Logger:   logger,
		Store:    store,
		Source:   source,
		Sync:     syncService,
		Catalog:  catalogService,
		Analysis: analysisService,
		Seeder:   seeder.NewStartupSeeder(catalogService, syncService, cfg.WatchCodes, logger),
	}, nil
}

// Close releases the store
func (a *App) Close() error {
	return a.Store.Close()
}
