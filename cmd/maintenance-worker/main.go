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

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/milosbg/mbg-admin-backend/internal/cron"
	"github.com/milosbg/mbg-admin-backend/internal/customers"
	"github.com/milosbg/mbg-admin-backend/pkg/clerk"
	"github.com/milosbg/mbg-admin-backend/pkg/config"
	"github.com/milosbg/mbg-admin-backend/pkg/db"
	"github.com/milosbg/mbg-admin-backend/pkg/instance"
	"github.com/milosbg/mbg-admin-backend/pkg/logger"
	"github.com/milosbg/mbg-admin-backend/pkg/metrics"
	"github.com/milosbg/mbg-admin-backend/pkg/migrate"
	"github.com/milosbg/mbg-admin-backend/pkg/outbox"
	"github.com/milosbg/mbg-admin-backend/pkg/redis"
)

const lockKeyFormat = "mbg:maintenance:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "maintenance-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "maintenance-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": "maintenance-worker",
		"instance":    instance.ID(),
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry, err := buildJobs(ctx, cfg, logg, dbClient)
	if err != nil {
		logg.Error(ctx, "failed to register jobs", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, fmt.Sprintf(lockKeyFormat, cfg.App.Env), cfg.Jobs.Interval)
	if err != nil {
		logg.Error(ctx, "failed to create maintenance lock", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewJobMetrics(reg),
		Interval: cfg.Jobs.Interval,
	})
	if err != nil {
		logg.Error(ctx, "failed to create maintenance service", err)
		os.Exit(1)
	}

	metricsSrv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "metrics server stopped", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}()

	logg.Info(ctx, "starting maintenance worker")
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "maintenance worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "maintenance worker shutting down gracefully")
}

func buildJobs(ctx context.Context, cfg *config.Config, logg *logger.Logger, dbClient *db.Client) (*cron.Registry, error) {
	registry := cron.NewRegistry()

	retention, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:        logg,
		DB:            dbClient,
		Repository:    outbox.NewRepository(dbClient.DB()),
		RetentionDays: cfg.Jobs.OutboxRetentionDays,
		DeadAttempts:  cfg.Outbox.MaxAttempts,
	})
	if err != nil {
		return nil, err
	}
	registry.Register(retention)

	if !cfg.Jobs.EnrichCustomers || cfg.Clerk.SecretKey == "" {
		logg.Info(ctx, "customer enrichment job disabled")
		return registry, nil
	}
	clerkClient, err := clerk.NewClient(cfg.Clerk.SecretKey,
		clerk.WithBaseURL(cfg.Clerk.BaseURL),
		clerk.WithTimeout(cfg.Clerk.Timeout),
	)
	if err != nil {
		return nil, err
	}
	resolver, err := customers.NewResolver(customers.NewRepository(dbClient.DB()), clerkClient, logg)
	if err != nil {
		return nil, err
	}
	enrich, err := cron.NewCustomerEnrichJob(logg, resolver)
	if err != nil {
		return nil, err
	}
	registry.Register(enrich)
	return registry, nil
}
