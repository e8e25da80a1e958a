// botcast - autonomous persona posting worker
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/botcast-dev/botcast/internal/api"
	"github.com/botcast-dev/botcast/internal/config"
	"github.com/botcast-dev/botcast/internal/livedata"
	"github.com/botcast-dev/botcast/internal/middleware"
	"github.com/botcast-dev/botcast/internal/provider"
	"github.com/botcast-dev/botcast/internal/scheduler"
	"github.com/botcast-dev/botcast/internal/store"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting worker", "port", cfg.Port, "dev", cfg.IsDevelopment())

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	content, err := provider.NewOpenAIClient(provider.OpenAIClientConfig{
		BaseURL: cfg.ContentAPIBase,
		APIKey:  cfg.ContentAPIKey,
		Model:   cfg.ContentModel,
	})
	if err != nil {
		slog.Error("Failed to initialize content provider", "error", err)
		os.Exit(1)
	}

	publisher := provider.NewXClient(cfg.PublishAPIBase)

	// Keyless sources are always on; keyed ones only when configured.
	sources := livedata.Sources{
		Coin:  livedata.NewCoinGeckoClient(cfg.CoinAPIBase),
		Rates: livedata.NewRatesClient(cfg.RatesAPIBase),
	}
	if cfg.NewsAPIKey != "" {
		sources.News = livedata.NewNewsClient(cfg.NewsAPIBase, cfg.NewsAPIKey)
	} else {
		slog.Info("News source disabled (NEWS_API_KEY not set)")
	}
	if cfg.WeatherAPIKey != "" {
		sources.Weather = livedata.NewWeatherClient(cfg.WeatherAPIBase, cfg.WeatherAPIKey)
	} else {
		slog.Info("Weather source disabled (WEATHER_API_KEY not set)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := scheduler.NewRunner(ctx, repo, content, publisher, sources, scheduler.NewDelays(), scheduler.RunConfig{
		Timeout:       cfg.RunTimeout,
		HistoryLimit:  cfg.HistoryLimit,
		MaxPostLength: cfg.MaxPostLength,
	})
	defer runner.Scheduler().Stop()

	// Seed timers for every bot that was autonomous before this restart.
	if err := runner.Bootstrap(ctx); err != nil {
		slog.Error("Failed to bootstrap scheduler", "error", err)
		os.Exit(1)
	}

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	corsOrigins := []string{"*"}
	if cfg.FrontendURL != "" {
		corsOrigins = []string{cfg.FrontendURL}
	}
	r.Use(middleware.CORS(corsOrigins))

	api.NewHandler(runner).RegisterRoutes(r)

	// Create server.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
