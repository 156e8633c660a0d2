package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	httpapi "github.com/i474232898/weather-prediction/internal/api/http"
	"github.com/i474232898/weather-prediction/internal/config"
	"github.com/i474232898/weather-prediction/internal/features"
	"github.com/i474232898/weather-prediction/internal/model"
	"github.com/i474232898/weather-prediction/internal/observability"
	"github.com/i474232898/weather-prediction/internal/scheduler"
	"github.com/i474232898/weather-prediction/internal/store"
	"github.com/i474232898/weather-prediction/internal/weather"
	"github.com/i474232898/weather-prediction/internal/weather/providers"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	// Shared HTTP client for the archive calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Archive provider with resilience (backoff + circuit breaker).
	archive := providers.NewOpenMeteoArchive(httpClient, cfg.ArchiveBaseURL)

	// In-memory history cache with configured retention.
	memStore := store.NewMemoryStore(cfg.StoreMaxAge, clockwork.NewRealClock())

	engine, err := features.NewEngine(features.DefaultCatalog(), cfg.Windows...)
	if err != nil {
		log.Fatalf("failed to build rollup engine: %v", err)
	}

	models := model.NewStore(map[model.Kind]string{
		model.KindRain:          cfg.RainModelPath,
		model.KindPrecipitation: cfg.PrecipModelPath,
	}, logger)

	// Missing artifacts are reported per request; the API still starts.
	loadCtx, cancelLoad := context.WithTimeout(context.Background(), 30*time.Second)
	if err := models.LoadAll(loadCtx); err != nil {
		logger.Warn("model preload failed", "error", err)
	}
	cancelLoad()

	// Core service orchestrating history, features and models.
	service := weather.NewService(memStore, archive, models, engine, weather.Options{
		Location:          cfg.Location,
		LookbackDays:      cfg.LookbackDays,
		RequiredVariables: cfg.RequiredVariables,
		Logger:            logger,
		Metrics:           metrics,
	})

	// Scheduler that keeps today's history window warm.
	sched := scheduler.New(service, cfg.CacheRefreshInterval, logger)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	app := httpapi.NewApp(service, logger)

	go func() {
		logger.Info("listening", "port", cfg.Port, "location", cfg.Location.Name)
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Error("fiber server stopped", "error", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("error during shutdown", "error", err)
	}
}
