// Command eco-server starts the sustainability actions REST API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/and161185/eco-actions/internal/config"
	"github.com/and161185/eco-actions/internal/migrate"
	"github.com/and161185/eco-actions/internal/repository"
	"github.com/and161185/eco-actions/internal/repository/filestore"
	"github.com/and161185/eco-actions/internal/repository/postgres"
	grpcserver "github.com/and161185/eco-actions/internal/server/grpc"
	httpserver "github.com/and161185/eco-actions/internal/server/http"
	"github.com/and161185/eco-actions/internal/service"
)

var (
	version   = "1.0.0"
	buildDate = "unknown"
)

// main loads configuration, opens the configured store and serves HTTP
// (plus optional gRPC health) until SIGINT/SIGTERM.
func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	cfg, err := config.Load(os.Args[1:], os.Getenv)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}

	logger, _ := zap.NewProduction()
	if cfg.Dev {
		logger, _ = zap.NewDevelopment()
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Addr),
		zap.String("store", cfg.Store),
	)

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, probe, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("open store", zap.Error(err))
	}
	defer closeStore()

	if !cfg.Strict {
		logger.Info("strict validation disabled: the API accepts any date string and any numeric points")
	}
	actions := service.NewActionService(store, logger, cfg.Strict)

	api := httpserver.New(actions, logger, httpserver.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		Version:        version,
	})
	srv := api.NewHTTPServer(cfg.Addr)

	errCh := make(chan error, 2)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Addr), zap.Strings("origins", cfg.AllowedOrigins))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var health *grpcserver.Server
	if cfg.HealthAddr != "" {
		lis, err := net.Listen("tcp", cfg.HealthAddr)
		if err != nil {
			logger.Fatal("listen health", zap.Error(err))
		}
		health = grpcserver.New(logger, probe, cfg.Dev)
		go health.Watch(ctx, cfg.HealthInterval)
		go func() {
			logger.Info("health listening", zap.String("addr", cfg.HealthAddr))
			if err := health.Serve(lis); err != nil {
				errCh <- err
			}
		}()
	}

	// Wait for stop
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	if health != nil {
		health.Stop(cfg.ShutdownTimeout)
	}
	logger.Info("shutdown complete")
}

func openStore(ctx context.Context, cfg config.Config, log *zap.Logger) (repository.ActionStore, grpcserver.Probe, func(), error) {
	switch cfg.Store {
	case config.StorePostgres:
		if err := migrate.Up(ctx, cfg.DatabaseURL, log); err != nil {
			return nil, nil, nil, fmt.Errorf("migrate up: %w", err)
		}
		db, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect: %w", err)
		}
		return postgres.NewDocumentStore(db, cfg.Document, log), db.Ping, db.Close, nil
	default:
		fs := filestore.New(cfg.DataFile, log)
		log.Info("using data file", zap.String("path", fs.Path()))
		return fs, fs.Check, func() {}, nil
	}
}
