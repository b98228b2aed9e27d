package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"ltv-dashboard/internal/config"
	"ltv-dashboard/internal/middleware"
	"ltv-dashboard/internal/observability"
	"ltv-dashboard/internal/server"
	"ltv-dashboard/internal/services"
)

const loadTimeout = 60 * time.Second

func newHandler(analytics *services.Analytics, cfg *config.Config, logger *slog.Logger) http.Handler {
	srv := server.NewServer(analytics, logger)

	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
	)

	return middlewareChain(srv)
}

func newAnalytics(cfg *config.Config, logger *slog.Logger) (*services.Analytics, error) {
	mode, err := services.ParseSpendAverage(cfg.Data.SpendAverage)
	if err != nil {
		return nil, err
	}

	return services.NewAnalytics(
		services.WithSpendAverage(mode),
		services.WithCacheDir(cfg.CacheDir()),
		services.WithLogger(logger),
	), nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", "1.0.0",
		"sales_files", cfg.Data.SalesFiles,
		"spend_average", cfg.Data.SpendAverage,
		"cache_dir", cfg.CacheDir(),
	)

	analytics, err := newAnalytics(cfg, logger)
	if err != nil {
		logger.Error("invalid analytics settings", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	start := time.Now()
	err = analytics.LoadFiles(ctx, cfg.Data.SalesFiles...)
	cancel()
	if err != nil {
		logger.Error("failed to load sales data", "error", err)
		os.Exit(1)
	}
	logger.Info("sales data loaded", "duration", time.Since(start), "records", analytics.Stats()["record_count"])

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      newHandler(analytics, cfg, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)

	gracefulServer.RegisterShutdownHook("analytics", func(ctx context.Context) error {
		logger.Info("shutting down analytics service", "stats", analytics.Stats())
		return nil
	})

	if err := gracefulServer.ListenAndServe(context.Background()); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
