package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/shopconsole-backend/internal/cron"
	"github.com/angelmondragon/shopconsole-backend/internal/orders"
	"github.com/angelmondragon/shopconsole-backend/internal/promocodes"
	"github.com/angelmondragon/shopconsole-backend/pkg/config"
	"github.com/angelmondragon/shopconsole-backend/pkg/db"
	"github.com/angelmondragon/shopconsole-backend/pkg/instance"
	"github.com/angelmondragon/shopconsole-backend/pkg/logger"
	"github.com/angelmondragon/shopconsole-backend/pkg/metrics"
	"github.com/angelmondragon/shopconsole-backend/pkg/migrate"
	"github.com/angelmondragon/shopconsole-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("cron"), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	staleCheckout, err := cron.NewStaleCheckoutJob(cron.StaleCheckoutJobParams{
		Logger:    logg,
		Orders:    orders.NewRepository(dbClient.DB()),
		TTL:       cfg.Cron.StaleCheckoutTTL,
		BatchSize: cfg.Cron.BatchSize,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create stale checkout job", err)
		os.Exit(1)
	}
	promoExpiry, err := cron.NewPromoExpiryJob(cron.PromoExpiryJobParams{
		Logger:    logg,
		Promos:    promocodes.NewRepository(dbClient.DB()),
		BatchSize: cfg.Cron.BatchSize,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create promo expiry job", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry(staleCheckout, promoExpiry)
	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"interval": cfg.Cron.Interval.String(),
		"instance": instance.GetID(),
		"jobs":     registry.Names(),
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}
