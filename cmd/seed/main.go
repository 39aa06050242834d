package main

import (
	"context"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/observability"
	cartrepo "storefront/internal/repository/cart"
	categoryrepo "storefront/internal/repository/category"
	productrepo "storefront/internal/repository/product"
	userrepo "storefront/internal/repository/user"
	"storefront/internal/seed"

	"go.uber.org/zap"
)

func main() {
	cfg := config.FromEnv()
	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck
	logger = logger.Named("seed")

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	err = seed.Apply(ctx, db.NewRunner(pool), seed.Stores{
		Users:      userrepo.NewPostgres(logger),
		Carts:      cartrepo.NewPostgres(logger),
		Categories: categoryrepo.NewPostgres(logger),
		Products:   productrepo.NewPostgres(logger),
	}, logger)
	if err != nil {
		logger.Fatal("seed apply", zap.Error(err))
	}

	logger.Info("seed applied", zap.String("password", seed.DemoPassword))
}
