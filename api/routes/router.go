package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/milosbg/mbg-admin-backend/api/controllers"
	ordercontrollers "github.com/milosbg/mbg-admin-backend/api/controllers/orders"
	webhookcontrollers "github.com/milosbg/mbg-admin-backend/api/controllers/webhooks"
	"github.com/milosbg/mbg-admin-backend/api/middleware"
	"github.com/milosbg/mbg-admin-backend/internal/webhooks"
	paypalwebhook "github.com/milosbg/mbg-admin-backend/internal/webhooks/paypal"
	stripewebhook "github.com/milosbg/mbg-admin-backend/internal/webhooks/stripe"
	pkgAuth "github.com/milosbg/mbg-admin-backend/pkg/auth"
	"github.com/milosbg/mbg-admin-backend/pkg/config"
	"github.com/milosbg/mbg-admin-backend/pkg/enums"
	"github.com/milosbg/mbg-admin-backend/pkg/logger"
	"github.com/milosbg/mbg-admin-backend/pkg/metrics"
	"github.com/milosbg/mbg-admin-backend/pkg/redis"
)

// Dependencies is everything the HTTP surface needs. Nil services are
// answered with a 500 by their controllers.
type Dependencies struct {
	Config *config.Config
	Logger *logger.Logger

	Ready map[string]controllers.Pinger

	Idempotency redis.IdempotencyStore
	RateLimiter middleware.WindowLimiter
	Gatherer    prometheus.Gatherer
	Metrics     *metrics.Pipeline

	Checkout  controllers.CheckoutService
	Capture   controllers.CaptureService
	Orders    ordercontrollers.Service
	Stock     controllers.StockSetter
	Events    controllers.EventSource
	Customers controllers.CustomerTools

	PayPalWebhook      *paypalwebhook.Service
	PayPalWebhookGuard *webhooks.IdempotencyGuard
	StripeWebhook      *stripewebhook.Service
	StripeWebhookGuard *webhooks.IdempotencyGuard
	StripeSigner       interface{ SigningSecret() string }
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App, cfg.Storefront),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Ready))
	})

	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/webhooks", func(r chi.Router) {
		r.Post("/paypal", webhookcontrollers.PayPalWebhook(optionalPayPalWebhook(deps.PayPalWebhook), optionalGuard(deps.PayPalWebhookGuard), deps.Metrics, logg))
		r.Post("/stripe", webhookcontrollers.StripeWebhook(optionalStripeWebhook(deps.StripeWebhook), deps.StripeSigner, optionalGuard(deps.StripeWebhookGuard), deps.Metrics, logg))
	})

	r.Route("/api/storefront", func(r chi.Router) {
		r.Use(middleware.ServiceToken(cfg.Storefront.ServiceToken, logg))
		r.Use(middleware.Idempotency(deps.Idempotency, logg))

		r.With(middleware.CheckoutRateLimit(deps.RateLimiter, logg)).
			Post("/checkout", controllers.ManualCheckout(deps.Checkout, logg))
		r.Post("/paypal/capture", controllers.Capture(deps.Capture, enums.PaymentProviderPayPal, logg))
		r.Get("/orders/{orderId}", ordercontrollers.StorefrontDetail(deps.Orders, logg))
		r.Get("/customers/{clerkId}/orders", ordercontrollers.CustomerOrders(deps.Orders, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.StaffAuth(cfg.JWT, pkgAuth.NewPolicy(cfg.Admin), logg))
		r.Use(middleware.Idempotency(deps.Idempotency, logg))

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/paypal", controllers.PayPalCheckout(deps.Checkout, logg))
			r.Post("/stripe", controllers.StripeCheckout(deps.Checkout, logg))
		})
		r.Post("/paypal/capture", controllers.Capture(deps.Capture, enums.PaymentProviderPayPal, logg))
		r.Post("/stripe/capture", controllers.Capture(deps.Capture, enums.PaymentProviderStripe, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordercontrollers.List(deps.Orders, logg))
			r.Get("/{orderId}", ordercontrollers.Get(deps.Orders, logg))
			r.Patch("/{orderId}/status", ordercontrollers.UpdateStatus(deps.Orders, logg))
			r.Patch("/{orderId}/payment", ordercontrollers.UpdatePayment(deps.Orders, logg))
			r.Patch("/{orderId}/shipping", ordercontrollers.UpdateShipping(deps.Orders, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/events", controllers.ProductEvents(deps.Events, cfg.Events.Heartbeat, logg))
			r.Put("/{productId}/stock", controllers.UpdateStock(deps.Stock, logg))
		})

		r.Route("/tools/customers", func(r chi.Router) {
			r.Post("/backfill", controllers.BackfillCustomers(deps.Customers, logg))
			r.Post("/enrich", controllers.EnrichCustomers(deps.Customers, logg))
			r.Post("/repair", controllers.RepairCustomers(deps.Customers, logg))
		})
	})

	return r
}

// The helpers below keep typed nil pointers from reaching the controllers
// as non-nil interfaces.

func optionalGuard(g *webhooks.IdempotencyGuard) webhookcontrollers.Guard {
	if g == nil {
		return nil
	}
	return g
}

func optionalPayPalWebhook(s *paypalwebhook.Service) webhookcontrollers.PayPalWebhookService {
	if s == nil {
		return nil
	}
	return s
}

func optionalStripeWebhook(s *stripewebhook.Service) webhookcontrollers.StripeWebhookService {
	if s == nil {
		return nil
	}
	return s
}
