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

	"github.com/hibiken/asynq"

	"github.com/havenly/havenly-admin/internal/app"
	"github.com/havenly/havenly-admin/internal/finance"
	financehttp "github.com/havenly/havenly-admin/internal/finance/http"
	"github.com/havenly/havenly-admin/internal/finance/store"
	"github.com/havenly/havenly-admin/internal/observability"
	"github.com/havenly/havenly-admin/internal/platform/cache"
	"github.com/havenly/havenly-admin/internal/platform/db"
	"github.com/havenly/havenly-admin/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN, db.PoolOptions{MaxConns: cfg.PGMaxConns})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	financeStore := store.New(dbpool)
	overviewCache := finance.NewCache(redisClient, cfg.OverviewCacheTTL)
	if err := overviewCache.ListenForInvalidation(ctx, finance.BumpChannel); err != nil {
		logger.Warn("subscribe cache invalidation", slog.Any("error", err))
	}
	financeService := finance.NewService(financeStore, overviewCache, finance.SystemClock).WithRecorder(metrics)
	financeHandler := financehttp.NewHandler(logger, financeService, financeStore)
	financeHandler.WithTimeout(cfg.AppRequestTimeout)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	jobClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	financeHandler.WithWarmup(jobClient)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		FinanceHandler: financeHandler,
		JobHandler:     jobHandler,
		Metrics:        metrics,
		HealthChecks: map[string]app.HealthCheck{
			"postgres": dbpool.Ping,
			"redis": func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			},
		},
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
