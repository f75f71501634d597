// Package main seeds a development database with demo data.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"comptoir/internal/core/clock"
	"comptoir/internal/core/types"
	"comptoir/internal/domain/alerts"
	"comptoir/internal/domain/catalogs/product"
	"comptoir/internal/domain/catalogs/warehouse"
	"comptoir/internal/domain/lots"
	"comptoir/internal/infrastructure/storage/postgres"
	"comptoir/pkg/logger"
	"comptoir/pkg/numerator"
)

func main() {
	_ = godotenv.Load()

	log, err := logger.New(logger.Config{Level: "info", Development: true})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dsn))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool)
	gen := numerator.New(pool)
	clk := clock.System()

	productRepo := postgres.NewProductRepo(txManager)
	warehouseRepo := postgres.NewWarehouseRepo(txManager)
	lotRepo := postgres.NewLotRepo(txManager)
	alertRepo := postgres.NewAlertRepo(txManager)

	alertService := alerts.NewService(alertRepo, clk)
	productService := product.NewService(productRepo, gen, clk)
	warehouseService := warehouse.NewService(warehouseRepo, gen, clk)
	store := lots.NewStore(lotRepo, warehouseRepo, productRepo, alertService, gen, clk, txManager)

	now := clk.Now()

	central := warehouse.New("", "Main warehouse", now)
	central.Capacity = 10000
	if err := warehouseService.Create(ctx, central); err != nil {
		log.Fatalw("create main warehouse", "error", err)
	}

	returns := warehouse.New("RETURNS", "Returns", now)
	returns.IsReturns = true
	if err := warehouseService.Create(ctx, returns); err != nil {
		log.Fatalw("create returns warehouse", "error", err)
	}

	type seedProduct struct {
		name       string
		purchase   string
		sale       string
		threshold  int64
		perishable bool
		qty        int64
		expiryDays int
	}
	seeds := []seedProduct{
		{"Rice 25kg", "12000", "15000", 20, false, 150, 0},
		{"Sunflower oil 5L", "4500", "6000", 30, false, 80, 0},
		{"Powdered milk 400g", "2200", "3000", 50, true, 200, 180},
		{"Tomato paste 800g", "900", "1300", 40, true, 60, 90},
		{"Sugar 1kg", "600", "850", 100, false, 500, 0},
	}

	for _, sp := range seeds {
		p := product.New("", sp.name, clk.Now())
		p.PurchasePrice = types.MustMoney(sp.purchase)
		p.SalePrice = types.MustMoney(sp.sale)
		p.ReorderThreshold = sp.threshold
		p.Perishable = sp.perishable
		if err := productService.Create(ctx, p); err != nil {
			log.Fatalw("create product", "name", sp.name, "error", err)
		}

		in := lots.CreateLotInput{
			ProductID:   p.ID,
			WarehouseID: central.ID,
			Quantity:    sp.qty,
			Location:    "A-01",
		}
		if sp.expiryDays > 0 {
			expiry := now.AddDate(0, 0, sp.expiryDays)
			in.ExpiryDate = &expiry
		}
		if _, err := store.CreateLot(ctx, in); err != nil {
			log.Fatalw("create lot", "product", sp.name, "error", err)
		}
	}

	log.Infow("seed complete",
		"products", len(seeds),
		"warehouses", 2,
		"elapsed", time.Since(now).String(),
	)
}
