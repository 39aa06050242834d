package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/dedup"
	"storefront/internal/events"
	"storefront/internal/httpserver"
	"storefront/internal/observability"
	addressrepo "storefront/internal/repository/address"
	cartrepo "storefront/internal/repository/cart"
	categoryrepo "storefront/internal/repository/category"
	orderrepo "storefront/internal/repository/order"
	paymentrepo "storefront/internal/repository/payment"
	productrepo "storefront/internal/repository/product"
	tokenrepo "storefront/internal/repository/token"
	userrepo "storefront/internal/repository/user"
	cartsvc "storefront/internal/service/cart"
	categorysvc "storefront/internal/service/category"
	checkoutsvc "storefront/internal/service/checkout"
	ordersvc "storefront/internal/service/order"
	paymentsvc "storefront/internal/service/payment"
	productsvc "storefront/internal/service/product"
	usersvc "storefront/internal/service/user"

	"go.uber.org/zap"
)

func main() {
	cfg := config.FromEnv()
	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck
	logger = logger.With(zap.String("service", cfg.ServiceName))

	ctx := context.Background()
	shutdownTracing, err := observability.InitTracing(ctx, cfg.ServiceName, cfg.OTelEnabled, os.Stdout)
	if err != nil {
		logger.Fatal("init tracing", zap.Error(err))
	}

	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal("connect to db", zap.Error(err))
	}
	defer dbpool.Close()
	runner := db.NewRunner(dbpool)

	var publisher events.Publisher = events.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaOrderTopic, logger)
		defer kp.Close()
		publisher = kp
		logger.Info("publishing order events", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaOrderTopic))
	}

	var seen dedup.Store = dedup.Noop{}
	if cfg.RedisAddr != "" {
		rs := dedup.NewRedis(cfg.RedisAddr, 72*time.Hour)
		defer rs.Close()
		if err := rs.Ping(ctx); err != nil {
			logger.Warn("redis unavailable, webhook dedup fast path degraded", zap.Error(err))
		}
		seen = rs
	}

	userRepo := userrepo.NewPostgres(logger)
	productRepo := productrepo.NewPostgres(logger)
	categoryRepo := categoryrepo.NewPostgres(logger)
	cartRepo := cartrepo.NewPostgres(logger)
	details := ordersvc.Details{
		Orders:    orderrepo.NewPostgres(logger),
		Addresses: addressrepo.NewPostgres(logger),
		Payments:  paymentrepo.NewPostgres(logger),
	}

	userService := usersvc.New(runner, userRepo, tokenrepo.NewPostgres(logger), cartRepo, usersvc.Options{
		JWTSecret:  cfg.JWTSecret,
		AccessTTL:  cfg.AccessTTL,
		RefreshTTL: cfg.RefreshTTL,
	}, logger)
	productService := productsvc.New(runner, productRepo, categoryRepo, logger)
	categoryService := categorysvc.New(runner, categoryRepo, logger)
	cartService := cartsvc.New(runner, cartRepo, productRepo, logger)
	orderService := ordersvc.New(runner, details, cartRepo, publisher, logger)
	checkoutService := checkoutsvc.New(runner, details, logger)
	paymentService := paymentsvc.New(runner, details, productRepo, paymentsvc.Options{
		Secret:    cfg.StripeWebhookSecret,
		Dedup:     seen,
		Publisher: publisher,
	}, logger)
	if cfg.StripeWebhookSecret == "" {
		logger.Warn("STRIPE_WEBHOOK_SECRET not set, webhook signatures are not verified")
	}

	srv := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		Auth:       userService,
		Categories: categoryService,
		Products:   productService,
		Carts:      cartService,
		Orders:     orderService,
		Checkout:   checkoutService,
		Payments:   paymentService,
	}, httpserver.Options{
		ServiceName:    cfg.ServiceName,
		CORSOrigins:    cfg.CORSOrigins,
		AuthCookieName: cfg.AuthCookieName,
	})

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		logger.Error("server error", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	} else {
		logger.Info("server stopped")
	}
	if err := shutdownTracing(ctx); err != nil {
		logger.Warn("tracer shutdown", zap.Error(err))
	}
}
