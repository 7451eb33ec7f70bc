// main is the application composition root. It wires concrete adapters
// (MongoDB, Redis, OSRM/Nominatim, the boundary dataset) behind the core
// ports and starts the HTTP server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/anshfreight/ifta-miles/internal/api"
	"github.com/anshfreight/ifta-miles/internal/api/handler"
	"github.com/anshfreight/ifta-miles/internal/core/service"
	"github.com/anshfreight/ifta-miles/internal/infrastructure/config"
	"github.com/anshfreight/ifta-miles/internal/infrastructure/db/mongo"
	"github.com/anshfreight/ifta-miles/internal/infrastructure/db/redis"
	"github.com/anshfreight/ifta-miles/internal/infrastructure/geo"
	"github.com/anshfreight/ifta-miles/internal/infrastructure/queue"
	"github.com/anshfreight/ifta-miles/internal/infrastructure/routing"
	"github.com/anshfreight/ifta-miles/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	_ = godotenv.Load()

	log := logger.Init(logger.Options{
		Level:  os.Getenv("LOG_LEVEL"),
		Pretty: os.Getenv("ENV") == "development",
	})

	cfg := config.Load(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mongoClient, db, err := mongo.Connect(ctx, mongo.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()

	redisClient, err := redis.Connect(ctx, redis.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() { _ = redisClient.Close() }()

	reportRepo := mongo.NewReportRepository(db)
	authRepo := mongo.NewAuthRepository(db)
	if err := reportRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("report index creation failed")
	}
	if err := authRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("user index creation failed")
	}

	boundaries, err := geo.LoadStateBoundaries(cfg.Boundaries.Path)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Boundaries.Path).Msg("boundary dataset failed to load")
	}
	log.Info().Int("states", len(boundaries.Codes())).Msg("boundary dataset loaded")

	resolver := routing.NewOSRMRouteResolver(routing.Config{
		RouteBaseURL:   cfg.Routing.RouteBaseURL,
		GeocodeBaseURL: cfg.Routing.GeocodeBaseURL,
		UserAgent:      cfg.Routing.UserAgent,
		Timeout:        cfg.Routing.Timeout,
		MaxAttempts:    cfg.Routing.MaxAttempts,
	}, log)
	cachedResolver := redis.NewRouteCache(redisClient, resolver, cfg.Routing.CacheTTL, log)

	normalizer := service.NewNormalizer(service.NormalizerConfig{
		WindowFrom: parseWindow(log, "REPORT_WINDOW_FROM", cfg.Pipeline.WindowFrom),
		WindowTo:   parseWindow(log, "REPORT_WINDOW_TO", cfg.Pipeline.WindowTo),
	}, log)
	segmenter := service.NewSegmentationService(service.SegmentationConfig{
		HomeState:           cfg.Pipeline.HomeState,
		VirtualReturnStates: cfg.Pipeline.VirtualReturnStates,
		HubCity:             cfg.Pipeline.HubCity,
		GapThresholdDays:    cfg.Pipeline.GapThresholdDays,
		LookaheadWindow:     cfg.Pipeline.LookaheadWindow,
	}, log)
	attributor := service.NewAttributionService(cachedResolver, boundaries, service.AttributionConfig{
		MinMileageThreshold: cfg.Pipeline.MinMileage,
		MaxConcurrentLegs:   cfg.Pipeline.MaxConcurrentLegs,
	}, log)

	reportService := service.NewReportService(reportRepo, normalizer, segmenter, attributor, log)
	authService := service.NewAuthService(authRepo, cfg.JWTSecret, 24*time.Hour)

	dispatcher := queue.NewDispatcher(cfg.Workers, reportService, log)
	dispatcher.Start(ctx)

	e := api.NewRouter(api.RouterDeps{
		ReportHandler: handler.NewReportHandler(reportService, dispatcher, log),
		AuthHandler:   handler.NewAuthHandler(authService, log),
		HealthHandler: handler.NewHealthHandler(mongoClient, redisClient),
		JWTSecret:     cfg.JWTSecret,
		Logger:        log,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
}

// parseWindow converts an optional reporting-window bound; a bad value is
// fatal rather than silently unbounded.
func parseWindow(log zerolog.Logger, name, value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		log.Fatal().Err(err).Str("var", name).Msg("invalid reporting window bound")
	}
	return t.UTC()
}
