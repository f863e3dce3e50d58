package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/tripworks/booking-backend/api/routes"
	"github.com/tripworks/booking-backend/internal/addresses"
	"github.com/tripworks/booking-backend/internal/cart"
	"github.com/tripworks/booking-backend/internal/checkout"
	"github.com/tripworks/booking-backend/internal/currency"
	"github.com/tripworks/booking-backend/internal/payments"
	"github.com/tripworks/booking-backend/internal/promo"
	"github.com/tripworks/booking-backend/internal/purchase"
	"github.com/tripworks/booking-backend/internal/wallet"
	"github.com/tripworks/booking-backend/pkg/config"
	"github.com/tripworks/booking-backend/pkg/db"
	"github.com/tripworks/booking-backend/pkg/logger"
	"github.com/tripworks/booking-backend/pkg/metrics"
	"github.com/tripworks/booking-backend/pkg/migrate"
	"github.com/tripworks/booking-backend/pkg/redis"
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

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags, logg)
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
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	ratesFeed, err := currency.NewClient(cfg.Currency)
	if err != nil {
		logg.Error(context.Background(), "failed to create rates feed client", err)
		os.Exit(1)
	}
	currencyService, err := currency.NewService(ratesFeed, redisClient, cfg.Currency.CacheTTL, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create currency service", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(cart.NewRepository(dbClient.DB()), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	promoService, err := promo.NewService(promo.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create promo service", err)
		os.Exit(1)
	}

	walletService, err := wallet.NewService(dbClient.DB())
	if err != nil {
		logg.Error(context.Background(), "failed to create wallet service", err)
		os.Exit(1)
	}

	addressService, err := addresses.NewService(dbClient, addresses.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create address service", err)
		os.Exit(1)
	}

	purchaseService, err := purchase.NewService(dbClient, cartService, promoService, walletService, checkoutMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create purchase service", err)
		os.Exit(1)
	}

	gateway, err := payments.NewStripeGateway(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment gateway", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(
		checkout.NewSessionStore(redisClient, cfg.Checkout.SessionTTL),
		checkout.NewFinalizeLatch(redisClient, cfg.Checkout.FinalizeTTL),
		gateway,
		cartService,
		currencyService,
		promoService,
		addressService,
		purchaseService,
		cfg.JWT,
		cfg.Checkout,
		cfg.Stripe.ReturnBaseURL,
		checkoutMetrics,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			registry,
			currencyService,
			promoService,
			cartService,
			addressService,
			checkoutService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
