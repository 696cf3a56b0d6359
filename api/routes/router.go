package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/shopconsole-backend/api/controllers"
	ordercontrollers "github.com/angelmondragon/shopconsole-backend/api/controllers/orders"
	paymentcontrollers "github.com/angelmondragon/shopconsole-backend/api/controllers/payments"
	promotioncontrollers "github.com/angelmondragon/shopconsole-backend/api/controllers/promotions"
	subscribercontrollers "github.com/angelmondragon/shopconsole-backend/api/controllers/subscribers"
	webhookcontrollers "github.com/angelmondragon/shopconsole-backend/api/controllers/webhooks"
	"github.com/angelmondragon/shopconsole-backend/api/middleware"
	"github.com/angelmondragon/shopconsole-backend/internal/orders"
	"github.com/angelmondragon/shopconsole-backend/internal/payments"
	"github.com/angelmondragon/shopconsole-backend/internal/promocodes"
	"github.com/angelmondragon/shopconsole-backend/internal/stores"
	"github.com/angelmondragon/shopconsole-backend/internal/subscribers"
	"github.com/angelmondragon/shopconsole-backend/pkg/config"
	"github.com/angelmondragon/shopconsole-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/shopconsole-backend/pkg/redis"
)

// redisStore is the slice of the Redis client the HTTP surface needs.
type redisStore interface {
	pkgredis.IdempotencyStore
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
	Ping(ctx context.Context) error
}

// Dependencies are the services the router mounts. Metrics falls back to the
// default Prometheus gatherer.
type Dependencies struct {
	DB          controllers.Pinger
	Redis       redisStore
	Metrics     prometheus.Gatherer
	Stores      stores.Service
	Orders      orders.Service
	Payments    payments.Service
	Promotions  promocodes.Service
	Subscribers subscribers.Service
	Webhooks    webhookcontrollers.RazorpayWebhookService
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	gatherer := deps.Metrics
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg.App.Env))
		r.Get("/ready", controllers.HealthReady(cfg.App.Env, map[string]controllers.Pinger{
			"database": deps.DB,
			"redis":    deps.Redis,
		}, logg))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	// Server to server: no CORS and no IP budget so gateway retries always land.
	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/razorpay", webhookcontrollers.RazorpayWebhook(deps.Webhooks, logg))
	})

	storefrontPolicy := middleware.RateLimitPolicy{
		Name:   "storefront",
		Window: cfg.RateLimit.Window,
		Limit:  cfg.RateLimit.IPLimit,
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.StorefrontCORS(cfg.Storefront.AllowedOrigins))
		r.Use(middleware.RateLimit(storefrontPolicy, deps.Redis, logg))

		r.With(middleware.Idempotency(deps.Redis, cfg.Idempotency.RequestTTL, logg)).
			Post("/orders", ordercontrollers.Create(deps.Orders, logg))
		r.Post("/payments/verify", paymentcontrollers.Verify(deps.Payments, logg))

		r.Route("/stores/{storeId}", func(r chi.Router) {
			r.Get("/promotions/active", promotioncontrollers.Active(deps.Promotions, logg))
			r.Post("/promotions/validate", promotioncontrollers.Validate(deps.Promotions, logg))
			r.Post("/subscribers", subscribercontrollers.Subscribe(deps.Subscribers, logg))
		})
	})

	r.Route("/api/admin/v1/stores/{storeId}", func(r chi.Router) {
		r.Use(middleware.AdminCORS(cfg.Storefront.AdminOrigins))
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.StoreOwner(deps.Stores, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordercontrollers.List(deps.Orders, logg))
			r.Route("/{orderId}", func(r chi.Router) {
				r.Get("/", ordercontrollers.Detail(deps.Orders, logg))
				r.Patch("/status", ordercontrollers.UpdateStatus(deps.Orders, logg))
				r.Patch("/payment", paymentcontrollers.ConfirmManual(deps.Payments, logg))
				r.Patch("/tracking", ordercontrollers.UpdateTracking(deps.Orders, logg))
				r.Post("/invoice", ordercontrollers.AttachInvoice(deps.Orders, logg))
			})
		})
	})

	return r
}
