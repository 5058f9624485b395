package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/crop-phenology-service/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/crop-phenology-service/internal/adapter/kafka"
	"github.com/couchcryptid/crop-phenology-service/internal/adapter/npn"
	"github.com/couchcryptid/crop-phenology-service/internal/adapter/openmeteo"
	"github.com/couchcryptid/crop-phenology-service/internal/config"
	"github.com/couchcryptid/crop-phenology-service/internal/domain"
	"github.com/couchcryptid/crop-phenology-service/internal/forecast"
	"github.com/couchcryptid/crop-phenology-service/internal/observability"
	"github.com/couchcryptid/crop-phenology-service/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/joho/godotenv"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	profiles, err := loadProfiles(cfg.ProfilesPath)
	if err != nil {
		logger.Error("failed to load crop profiles", "error", err, "path", cfg.ProfilesPath)
		os.Exit(1)
	}
	regions := domain.DefaultRegions()
	logger.Info("crop profiles loaded", "crops", profiles.Keys(), "regions", len(regions.IDs()))

	weatherClient := openmeteo.NewClient(cfg.WeatherBaseURL, cfg.WeatherTimeout, regions, metrics, logger)
	weather, err := openmeteo.NewCachedWeatherSource(weatherClient, cfg.WeatherCacheSize, metrics)
	if err != nil {
		logger.Error("failed to create weather cache", "error", err)
		os.Exit(1)
	}

	// Feature-flagged via NPN_ENABLED; a nil network disables the crosscheck.
	var network domain.PhenologyNetwork
	if cfg.NPNEnabled {
		network = npn.NewClient(cfg.NPNBaseURL, cfg.NPNTimeout, cfg.NPNRequestInterval, metrics, logger)
		metrics.CrosscheckEnabled.Set(1)
		logger.Info("phenology network crosscheck enabled", "radius_km", cfg.NPNRadiusKm, "request_interval", cfg.NPNRequestInterval)
	} else {
		logger.Info("phenology network crosscheck disabled")
	}

	predictor := forecast.New(weather, network, regions, profiles, cfg.NPNRadiusKm, metrics, logger)

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	transformer := pipeline.NewTransformer(predictor, logger)

	p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize, cfg.PredictionWorkers)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, predictor, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start prediction pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}

// loadProfiles returns the built-in crop profiles, merged with the YAML
// overrides at path when one is configured.
func loadProfiles(path string) (*domain.ProfileRegistry, error) {
	profiles := domain.DefaultProfiles()
	if path == "" {
		return profiles, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open profile overrides: %w", err)
	}
	defer f.Close()

	return profiles.WithOverrides(f)
}
