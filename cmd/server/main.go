// Package main is the entry point for the comptoir API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"comptoir/internal/core/clock"
	"comptoir/internal/domain/alerts"
	"comptoir/internal/domain/allocation"
	"comptoir/internal/domain/billing"
	"comptoir/internal/domain/catalogs/product"
	"comptoir/internal/domain/catalogs/warehouse"
	"comptoir/internal/domain/documents/purchase"
	"comptoir/internal/domain/documents/sale"
	"comptoir/internal/domain/lots"
	"comptoir/internal/domain/reports"
	"comptoir/internal/domain/requests"
	v1 "comptoir/internal/infrastructure/http/v1"
	"comptoir/internal/infrastructure/storage/postgres"
	"comptoir/pkg/logger"
	"comptoir/pkg/numerator"
)

func main() {
	// Missing .env is fine; the environment may be set by the runtime.
	_ = godotenv.Load()

	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting comptoir server")

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(mustEnv("DATABASE_URL"))
	if maxConns := getEnvInt("DB_MAX_CONNS", 0); maxConns > 0 {
		poolCfg.MaxConns = int32(maxConns)
	}
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)
	numeratorService := numerator.New(pool)
	clk := clock.System()

	// --- Repositories ---
	productRepo := postgres.NewProductRepo(txManager)
	warehouseRepo := postgres.NewWarehouseRepo(txManager)
	lotRepo := postgres.NewLotRepo(txManager)
	saleRepo := postgres.NewSaleRepo(txManager)
	purchaseRepo := postgres.NewPurchaseRepo(txManager)
	invoiceRepo := postgres.NewInvoiceRepo(txManager)
	paymentRepo := postgres.NewPaymentRepo(txManager)
	alertRepo := postgres.NewAlertRepo(txManager)
	requestRepo := postgres.NewRequestRepo(txManager)

	// --- Services ---
	alertService := alerts.NewService(alertRepo, clk)
	productService := product.NewService(productRepo, numeratorService, clk)
	warehouseService := warehouse.NewService(warehouseRepo, numeratorService, clk)
	store := lots.NewStore(lotRepo, warehouseRepo, productRepo, alertService, numeratorService, clk, txManager)
	engine := allocation.NewEngine(store, lotRepo, txManager)
	ledger := billing.NewLedger(invoiceRepo, paymentRepo, numeratorService, clk, txManager)
	saleService := sale.NewService(saleRepo, productRepo, store, engine, ledger, numeratorService, clk, txManager)
	purchaseService := purchase.NewService(purchaseRepo, productRepo, store, ledger, numeratorService, clk, txManager)
	requestService := requests.NewService(requestRepo, productRepo, store, numeratorService, clk, txManager)
	reportService := reports.NewService(lotRepo, productRepo, invoiceRepo, paymentRepo, clk)

	// --- Router ---
	var allowedOrigins []string
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		allowedOrigins = strings.Split(origins, ",")
	}

	router := v1.NewRouter(v1.RouterConfig{
		Logger:         log,
		Clock:          clk,
		Pool:           pool.Pool,
		AllowedOrigins: allowedOrigins,
		Products:       productService,
		Warehouses:     warehouseService,
		Store:          store,
		Sales:          saleService,
		Purchases:      purchaseService,
		Requests:       requestService,
		Ledger:         ledger,
		Alerts:         alertService,
		Reports:        reportService,
	})

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}
