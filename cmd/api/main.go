package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/printhaus/printhaus-backend/api/routes"
	"github.com/printhaus/printhaus-backend/internal/accounting"
	"github.com/printhaus/printhaus-backend/internal/cart"
	"github.com/printhaus/printhaus-backend/internal/loyalty"
	"github.com/printhaus/printhaus-backend/internal/orders"
	"github.com/printhaus/printhaus-backend/internal/promos"
	"github.com/printhaus/printhaus-backend/internal/recovery"
	stripewebhook "github.com/printhaus/printhaus-backend/internal/webhooks/stripe"
	"github.com/printhaus/printhaus-backend/pkg/config"
	"github.com/printhaus/printhaus-backend/pkg/db"
	"github.com/printhaus/printhaus-backend/pkg/logger"
	"github.com/printhaus/printhaus-backend/pkg/metrics"
	"github.com/printhaus/printhaus-backend/pkg/migrate"
	"github.com/printhaus/printhaus-backend/pkg/redis"
	"github.com/printhaus/printhaus-backend/pkg/stripe"
	"github.com/prometheus/client_golang/prometheus"
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

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
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

	stripeClient, err := stripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap stripe client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	paymentMetrics := metrics.NewPaymentMetrics(registry)

	promoService, err := promos.NewService(promos.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create promos service", err)
		os.Exit(1)
	}

	loyaltyService, err := loyalty.NewService(loyalty.NewRepository(dbClient.DB()), cfg.Loyalty)
	if err != nil {
		logg.Error(context.Background(), "failed to create loyalty service", err)
		os.Exit(1)
	}

	cartRepo, err := cart.NewRepository(redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart repository", err)
		os.Exit(1)
	}

	recoveryService, err := recovery.NewService(recovery.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create recovery service", err)
		os.Exit(1)
	}

	accountingService, err := accounting.NewService(accounting.NewRepository(dbClient.DB()), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create accounting service", err)
		os.Exit(1)
	}

	orderService, err := orders.NewService(orders.Deps{
		Runner:   dbClient,
		Repo:     orders.NewRepository(dbClient.DB()),
		Promos:   promoService,
		Loyalty:  loyaltyService,
		Cart:     cartRepo,
		Recovery: recoveryService,
		Metrics:  paymentMetrics,
		Logger:   logg,
		Config:   cfg.Orders,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	webhookService, err := stripewebhook.NewService(stripewebhook.Deps{
		Repo:       stripewebhook.NewRepository(dbClient.DB()),
		Orders:     orderService,
		Loyalty:    loyaltyService,
		Accounting: accountingService,
		Metrics:    paymentMetrics,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}
	webhookGuard := stripewebhook.NewIdempotencyGuard(redisClient, cfg.Webhooks.IdempotencyTTL)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":        cfg.App.Env,
		"addr":       addr,
		"stripe_env": stripeClient.Environment(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:       cfg,
			Logger:       logg,
			DB:           dbClient,
			Redis:        redisClient,
			Orders:       orderService,
			Loyalty:      loyaltyService,
			Cart:         cartRepo,
			StripeClient: stripeClient,
			Webhooks:     webhookService,
			WebhookGuard: webhookGuard,
			Metrics:      registry,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
