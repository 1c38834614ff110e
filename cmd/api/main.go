package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/milosbg/mbg-admin-backend/api/controllers"
	"github.com/milosbg/mbg-admin-backend/api/routes"
	"github.com/milosbg/mbg-admin-backend/internal/capture"
	"github.com/milosbg/mbg-admin-backend/internal/checkout"
	"github.com/milosbg/mbg-admin-backend/internal/customers"
	"github.com/milosbg/mbg-admin-backend/internal/events"
	"github.com/milosbg/mbg-admin-backend/internal/inventory"
	"github.com/milosbg/mbg-admin-backend/internal/orders"
	"github.com/milosbg/mbg-admin-backend/internal/webhooks"
	paypalwebhook "github.com/milosbg/mbg-admin-backend/internal/webhooks/paypal"
	stripewebhook "github.com/milosbg/mbg-admin-backend/internal/webhooks/stripe"
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

const shutdownTimeout = 10 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	pipeline := metrics.NewPipeline(reg)

	hub := events.NewHub(cfg.Events.BufferSize)
	hub.OnDrop(pipeline.StockEventDropped)
	var stockPublisher events.Publisher = hub
	if cfg.Features.RedisRelay {
		relay, err := events.NewRedisRelay(redisClient, cfg.Events.RedisChannel, hub, logg)
		if err != nil {
			logg.Error(ctx, "failed to create stock event relay", err)
			os.Exit(1)
		}
		stockPublisher = relay
		go func() {
			if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logg.Error(ctx, "stock event relay stopped", err)
			}
		}()
	}

	gormDB := dbClient.DB()
	outboxService := outbox.NewService(outbox.NewRepository(gormDB), logg)
	orderRepo := orders.NewRepository(gormDB)
	customerRepo := customers.NewRepository(gormDB)
	stockAdjuster := inventory.NewAdjuster(inventory.NewRepository(gormDB), stockPublisher, logg)

	var users customers.UserFetcher
	if cfg.Clerk.SecretKey != "" {
		clerkClient, err := clerk.NewClient(cfg.Clerk.SecretKey,
			clerk.WithBaseURL(cfg.Clerk.BaseURL),
			clerk.WithTimeout(cfg.Clerk.Timeout),
		)
		if err != nil {
			logg.Error(ctx, "failed to create clerk client", err)
			os.Exit(1)
		}
		users = clerkClient
	} else {
		logg.Warn(ctx, "clerk not configured, customer enrichment disabled")
	}

	resolver, err := customers.NewResolver(customerRepo, users, logg)
	if err != nil {
		logg.Error(ctx, "failed to create customer resolver", err)
		os.Exit(1)
	}

	orderService, err := orders.NewService(orders.ServiceParams{
		Repo:      orderRepo,
		Customers: customerRepo,
		Tx:        dbClient,
		Events:    outboxService,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create order service", err)
		os.Exit(1)
	}

	providers := buildProviders(ctx, cfg, logg)

	checkoutParams := checkout.ServiceParams{
		Orders:     orderRepo,
		Stock:      stockAdjuster,
		Customers:  resolver,
		Events:     outboxService,
		Storefront: cfg.Storefront,
		Metrics:    pipeline,
		Logger:     logg,
	}
	if providers.paypal != nil {
		checkoutParams.PayPal = providers.paypal
	}
	if providers.stripe != nil {
		checkoutParams.Stripe = providers.stripe
	}
	checkoutService, err := checkout.NewService(checkoutParams)
	if err != nil {
		logg.Error(ctx, "failed to create checkout service", err)
		os.Exit(1)
	}

	captureService, err := capture.NewService(capture.ServiceParams{
		Orders:       orderRepo,
		Stock:        stockAdjuster,
		Customers:    resolver,
		Events:       outboxService,
		Gateways:     providers.gateways(),
		FetchTimeout: cfg.PayPal.Timeout,
		Metrics:      pipeline,
		Logger:       logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create capture service", err)
		os.Exit(1)
	}

	deps := routes.Dependencies{
		Config: cfg,
		Logger: logg,
		Ready: map[string]controllers.Pinger{
			"db":    dbClient,
			"redis": redisClient,
		},
		Idempotency: redisClient,
		RateLimiter: redisClient,
		Gatherer:    reg,
		Metrics:     pipeline,
		Checkout:    checkoutService,
		Capture:     captureService,
		Orders:      orderService,
		Stock:       stockAdjuster,
		Events:      hub,
		Customers:   resolver,
	}

	if providers.paypal != nil {
		deps.PayPalWebhook, err = paypalwebhook.NewService(providers.paypal, captureService)
		if err != nil {
			logg.Error(ctx, "failed to create paypal webhook service", err)
			os.Exit(1)
		}
		deps.PayPalWebhookGuard, err = webhooks.NewIdempotencyGuard(redisClient, webhooks.DefaultGuardTTL, "paypal-webhook")
		if err != nil {
			logg.Error(ctx, "failed to create paypal webhook guard", err)
			os.Exit(1)
		}
	}
	if providers.stripe != nil {
		deps.StripeWebhook, err = stripewebhook.NewService(captureService)
		if err != nil {
			logg.Error(ctx, "failed to create stripe webhook service", err)
			os.Exit(1)
		}
		deps.StripeWebhookGuard, err = webhooks.NewIdempotencyGuard(redisClient, webhooks.DefaultGuardTTL, "stripe-webhook")
		if err != nil {
			logg.Error(ctx, "failed to create stripe webhook guard", err)
			os.Exit(1)
		}
		deps.StripeSigner = providers.stripe
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.ID(),
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "api server shutdown failed", err)
		}
	}()

	logg.Info(ctx, "starting api server")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	<-shutdownDone
	logg.Info(ctx, "api server shut down gracefully")
}
