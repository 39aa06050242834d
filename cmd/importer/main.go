package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/domain"
	"storefront/internal/importer"
	"storefront/internal/observability"
	categoryrepo "storefront/internal/repository/category"
	productrepo "storefront/internal/repository/product"
	userrepo "storefront/internal/repository/user"

	"go.uber.org/zap"
)

func main() {
	var (
		filePath    string
		sellerEmail string
	)
	flag.StringVar(&filePath, "file", "", "Path to product CSV (name,description,category,price,quantity)")
	flag.StringVar(&sellerEmail, "seller", "", "Email of the seller that owns the imported products")
	flag.Parse()

	if filePath == "" || sellerEmail == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.FromEnv()
	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck
	logger = logger.Named("importer")

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	seller, err := userrepo.NewPostgres(logger).GetByEmail(ctx, pool, sellerEmail)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			logger.Fatal("seller not found", zap.String("email", sellerEmail))
		}
		logger.Fatal("look up seller", zap.Error(err))
	}

	f, err := os.Open(filePath)
	if err != nil {
		logger.Fatal("open file", zap.Error(err))
	}
	defer f.Close()

	imp := importer.NewCSVImporter(f, db.NewRunner(pool), productrepo.NewPostgres(logger), categoryrepo.NewPostgres(logger), seller.ID, logger)

	start := time.Now()
	count, err := imp.Run(ctx)
	if err != nil {
		logger.Fatal("import failed", zap.Error(err))
	}

	fmt.Printf("Imported %d products for %s in %s\n", count, sellerEmail, time.Since(start).Truncate(time.Millisecond))
}
