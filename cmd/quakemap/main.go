package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/quake-compass/internal/adapter/csvsource"
	httpadapter "github.com/couchcryptid/quake-compass/internal/adapter/http"
	"github.com/couchcryptid/quake-compass/internal/adapter/mapbox"
	"github.com/couchcryptid/quake-compass/internal/config"
	"github.com/couchcryptid/quake-compass/internal/observability"
	"github.com/couchcryptid/quake-compass/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	opts := []pipeline.Option{}
	if cfg.FallbackEnabled {
		opts = append(opts, pipeline.WithFallback(csvsource.Fallback{}))
	}

	// Region backfill is feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN.
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.PlaceType(), cfg.MapboxTimeout, metrics, logger)
		opts = append(opts, pipeline.WithResolver(mapbox.NewCachedResolver(client, cfg.MapboxCacheSize, metrics)))
		logger.Info("mapbox region backfill enabled",
			"place_type", cfg.PlaceType(),
			"cache_size", cfg.MapboxCacheSize,
			"timeout", cfg.MapboxTimeout,
		)
	} else {
		logger.Info("mapbox region backfill disabled")
	}

	source := csvsource.NewSource(cfg.DataSource, cfg.SourceTimeout, logger)
	svc := pipeline.New(source, cfg.Engine, logger, metrics, opts...)

	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		if err := svc.Run(ctx, cfg.RefreshInterval); err != nil {
			logger.Error("refresh loop error", "error", err)
		}
	}()

	logger.Info("quakemap started",
		"variant", cfg.Variant,
		"source", cfg.DataSource,
		"refresh_interval", cfg.RefreshInterval,
	)

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
