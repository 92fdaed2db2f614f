package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	grpcadapter "github.com/simaogato/navflow-backend/internal/adapter/grpc"
	"github.com/simaogato/navflow-backend/internal/app"
	"github.com/simaogato/navflow-backend/internal/config"
	"github.com/simaogato/navflow-backend/internal/logging"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		bootLogger := logging.New("info", "console")
		bootLogger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	// 2. Open the store (migrates on open) and build the services
	ctx := context.Background()
	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("store", cfg.Store).Msg("Failed to initialize application")
	}
	defer application.Close()

	logger.Info().
		Str("store", application.Store.Backend).
		Int("schema_version", application.Store.SchemaVersion).
		Str("source", cfg.SourceBaseURL).
		Msg("Application initialized")

	// Refresh the catalog and pull watched schemes before serving
	if _, err := application.Seeder.Seed(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to seed store")
	}

	// 3. Start gRPC Server
	grpcServer := newGRPCServer(application, cfg, logger)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		logger.Fatal().Err(err).Str("addr", cfg.GRPCAddr).Msg("Failed to listen")
	}

	// Start server in a goroutine
	go func() {
		logger.Info().Str("addr", cfg.GRPCAddr).Msg("gRPC server listening")
		if err := grpcServer.Serve(lis); err != nil {
			logger.Fatal().Err(err).Msg("Failed to serve gRPC server")
		}
	}()

	// Graceful shutdown
	waitForShutdown(grpcServer, logger)
}

// newGRPCServer builds the server with logging and auth interceptors and registers the service
func newGRPCServer(application *app.App, cfg *config.Config, logger zerolog.Logger) *grpclib.Server {
	grpcServer := grpclib.NewServer(
		grpclib.ChainUnaryInterceptor(
			grpcadapter.LoggingInterceptor(logger),
			grpcadapter.AuthInterceptor(cfg.APIToken),
		),
	)

	grpcAdapter := grpcadapter.NewServer(application.Catalog, application.Analysis, cfg.DefaultBenchmark)
	grpcadapter.RegisterFundAnalyticsServer(grpcServer, grpcAdapter)

	reflection.Register(grpcServer)

	return grpcServer
}

// waitForShutdown waits for SIGTERM or SIGINT and gracefully shuts down the server
func waitForShutdown(grpcServer *grpclib.Server, logger zerolog.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	logger.Info().Str("signal", sig.String()).Msg("Shutting down gracefully")

	grpcServer.GracefulStop()
	logger.Info().Msg("gRPC server stopped")
}
