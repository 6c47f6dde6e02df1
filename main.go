package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Kocoro-lab/travelian/internal/app"
	"github.com/Kocoro-lab/travelian/internal/circuitbreaker"
	"github.com/Kocoro-lab/travelian/internal/config"
	"github.com/Kocoro-lab/travelian/internal/health"
	"github.com/Kocoro-lab/travelian/internal/httpapi"
	"github.com/Kocoro-lab/travelian/internal/logging"
	"github.com/Kocoro-lab/travelian/internal/tracing"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	shutdownTracing, err := tracing.Initialize(cfg.Tracing, app.Version, logger)
	if err != nil {
		logger.Warn("Tracing disabled", zap.Error(err))
		shutdownTracing = func(context.Context) error { return nil }
	}

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize application", zap.Error(err))
	}
	defer a.Close()

	hm := health.NewManager(logger)
	if err := hm.RegisterChecker(health.NewModelCredentialChecker(a.Gateway)); err != nil {
		logger.Warn("Failed to register model credential checker", zap.Error(err))
	}
	if err := hm.RegisterChecker(health.NewCircuitBreakerChecker(circuitbreaker.GlobalMetricsCollector)); err != nil {
		logger.Warn("Failed to register circuit breaker checker", zap.Error(err))
	}
	if a.LedgerDB != nil {
		if err := hm.RegisterChecker(health.NewLedgerHealthChecker(a.LedgerDB)); err != nil {
			logger.Warn("Failed to register ledger checker", zap.Error(err))
		}
	}

	var limiter *httpapi.RateLimiter
	var rdb *redis.Client
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			logger.Fatal("Invalid Redis URL", zap.Error(err))
		}
		rdb = redis.NewClient(opts)
		defer rdb.Close()

		if err := hm.RegisterChecker(health.NewRedisHealthChecker(rdb)); err != nil {
			logger.Warn("Failed to register Redis checker", zap.Error(err))
		}
		if cfg.RateLimit.Enabled {
			limiter = httpapi.NewRateLimiter(rdb, cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.KeyPrefix, cfg.Redis.CircuitBreaker, logger)
			logger.Info("Rate limiting enabled", zap.Int("requests_per_minute", cfg.RateLimit.RequestsPerMinute))
		}
	}

	var runs httpapi.RunLister
	if a.Ledger != nil {
		runs = a.Ledger
	}
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}

	router := httpapi.NewRouter(httpapi.RouterConfig{
		Handler: httpapi.NewHandler(a.Orchestrator, runs, cfg.Service.PlanTimeout, logger),
		Health: health.NewHTTPHandler(hm, health.ServiceInfo{
			Version:       app.Version,
			Environment:   cfg.Environment,
			TravelModule:  true,
			ChatbotModule: true,
		}, logger),
		RateLimiter:    limiter,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		MetricsPath:    metricsPath,
		Logger:         logger,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Service.Port),
		Handler:      router,
		ReadTimeout:  cfg.Service.ReadTimeout,
		WriteTimeout: cfg.Service.WriteTimeout,
	}

	go func() {
		logger.Info("Travel planner API listening",
			zap.Int("port", cfg.Service.Port),
			zap.String("environment", cfg.Environment),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logger.Info("Shutting down travel planner API")

	shutdownCtx, cancel := context.WithTimeout(ctx, gracefulTimeout(cfg))
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("Tracing shutdown error", zap.Error(err))
	}
}

func gracefulTimeout(cfg *config.Config) time.Duration {
	if cfg.Service.GracefulTimeout > 0 {
		return cfg.Service.GracefulTimeout
	}
	return 30 * time.Second
}
