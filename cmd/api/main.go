package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/shopconsole-backend/api/routes"
	"github.com/angelmondragon/shopconsole-backend/internal/catalog"
	"github.com/angelmondragon/shopconsole-backend/internal/orders"
	"github.com/angelmondragon/shopconsole-backend/internal/payments"
	"github.com/angelmondragon/shopconsole-backend/internal/promocodes"
	"github.com/angelmondragon/shopconsole-backend/internal/stores"
	"github.com/angelmondragon/shopconsole-backend/internal/subscribers"
	razorpaywebhook "github.com/angelmondragon/shopconsole-backend/internal/webhooks/razorpay"
	"github.com/angelmondragon/shopconsole-backend/pkg/config"
	"github.com/angelmondragon/shopconsole-backend/pkg/db"
	"github.com/angelmondragon/shopconsole-backend/pkg/enums"
	"github.com/angelmondragon/shopconsole-backend/pkg/instance"
	"github.com/angelmondragon/shopconsole-backend/pkg/logger"
	"github.com/angelmondragon/shopconsole-backend/pkg/mailer"
	"github.com/angelmondragon/shopconsole-backend/pkg/metrics"
	"github.com/angelmondragon/shopconsole-backend/pkg/migrate"
	"github.com/angelmondragon/shopconsole-backend/pkg/razorpay"
	"github.com/angelmondragon/shopconsole-backend/pkg/redis"
)

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

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	paymentMetrics := metrics.NewPaymentMetrics(registry)

	currency, err := enums.ParseCurrency(cfg.Razorpay.Currency)
	if err != nil {
		logg.Error(context.Background(), "invalid settlement currency", err)
		os.Exit(1)
	}

	// Left nil when credentials are absent; order creation then reports a
	// configuration error instead of failing boot.
	var gateway razorpay.Gateway
	if cfg.Razorpay.Enabled() {
		client, err := razorpay.New(cfg.Razorpay, paymentMetrics, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create razorpay client", err)
			os.Exit(1)
		}
		gateway = client
	} else {
		logg.Warn(context.Background(), "razorpay credentials missing; checkout disabled")
	}

	conn := dbClient.DB()

	storeService, err := stores.NewService(stores.NewRepository(conn))
	if err != nil {
		logg.Error(context.Background(), "failed to create store service", err)
		os.Exit(1)
	}

	promoService, err := promocodes.NewService(promocodes.NewRepository(conn), nil)
	if err != nil {
		logg.Error(context.Background(), "failed to create promo code service", err)
		os.Exit(1)
	}

	ordersRepo := orders.NewRepository(conn)
	orderService, err := orders.NewService(orders.ServiceParams{
		Repo:     ordersRepo,
		Catalog:  catalog.NewRepository(conn),
		Promos:   promoService,
		Tx:       dbClient,
		Gateway:  gateway,
		Currency: currency,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	paymentService, err := payments.NewService(payments.ServiceParams{
		Orders:       ordersRepo,
		Stores:       storeService,
		Gateway:      gateway,
		Mailer:       mailer.New(cfg.Sendgrid),
		Metrics:      paymentMetrics,
		Logger:       logg,
		ClientSecret: cfg.Razorpay.KeySecret,
		PublicURL:    cfg.App.PublicURL,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payment service", err)
		os.Exit(1)
	}

	guard, err := razorpaywebhook.NewIdempotencyGuard(redisClient, cfg.Idempotency.WebhookEventTTL, "razorpay")
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook idempotency guard", err)
		os.Exit(1)
	}
	webhookService, err := razorpaywebhook.NewService(razorpaywebhook.ServiceParams{
		Payments: paymentService,
		Guard:    guard,
		Secret:   cfg.Razorpay.WebhookSecret,
		Metrics:  paymentMetrics,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	subscriberService, err := subscribers.NewService(subscribers.NewRepository(conn), storeService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create subscriber service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, routes.Dependencies{
			DB:          dbClient,
			Redis:       redisClient,
			Metrics:     registry,
			Stores:      storeService,
			Orders:      orderService,
			Payments:    paymentService,
			Promotions:  promoService,
			Subscribers: subscriberService,
			Webhooks:    webhookService,
		}),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})
	logg.Info(ctx, "starting api server")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.App.ShutdownTimeout)
		defer cancel()
		logg.Info(shutdownCtx, "api server shutting down")
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server stopped")
}
