package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	app_grpc "github.com/spounge-ai/logshipper/internal/app/grpc"
	"github.com/spounge-ai/logshipper/internal/app/httpserver"
	app_errors "github.com/spounge-ai/logshipper/internal/errors"
	infra_config "github.com/spounge-ai/logshipper/internal/infra/config"
	"github.com/spounge-ai/logshipper/internal/infra/logging"
	"github.com/spounge-ai/logshipper/internal/metrics"
	"github.com/spounge-ai/logshipper/internal/wiring"
	"github.com/spounge-ai/logshipper/pkg/patterns/lifecycle"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := infra_config.Load(os.Getenv("LOGSHIPPER_CONFIG_PATH"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger = logger.With(
		zap.String("service_version", cfg.ServiceVersion),
		zap.String("build_commit", cfg.BuildCommit),
	)

	metrics.Register()

	deps, err := wiring.ProvideDependencies(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to get dependencies", zap.Error(err))
		return err
	}
	defer func() {
		if err := deps.Close(); err != nil {
			logger.Error("failed to close dependencies", zap.Error(err))
		}
	}()

	classifier := app_errors.NewErrorClassifier(logger.Named("errors"))
	srv, err := httpserver.New(cfg.Server.Port, httpserver.Routes(deps.Shipper, classifier, logger.Named("http")), logger.Named("http"))
	if err != nil {
		logger.Error("failed to create server", zap.Error(err))
		return err
	}

	resources := []lifecycle.ManagedResource{srv}
	if cfg.Server.HealthPort > 0 {
		healthSrv, err := app_grpc.NewHealthServer(cfg.Server.HealthPort, logger.Named("grpc"))
		if err != nil {
			logger.Error("failed to create health server", zap.Error(err))
			return err
		}
		resources = append(resources, healthSrv)
	}

	group := lifecycle.NewGroup(resources...)
	logger.Info("starting application resources")
	if err := group.Start(ctx); err != nil {
		logger.Error("error starting resources", zap.Error(err))
		return err
	}
	logger.Info("application started successfully",
		zap.String("address", srv.Addr().String()),
		zap.String("storage", cfg.Storage.Provider),
		zap.String("secret_source", cfg.Secret.Source),
	)

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-signalChan:
		logger.Info("received shutdown signal", zap.String("signal", s.String()))
	case <-ctx.Done():
		logger.Info("context cancelled, initiating shutdown")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	logger.Info("shutting down application resources")
	if err := group.Stop(shutdownCtx); err != nil {
		logger.Error("error stopping resources", zap.Error(err))
	}
	logger.Info("shutdown complete")
	return nil
}
