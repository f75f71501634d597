// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"comptoir/internal/core/clock"
	"comptoir/internal/domain/alerts"
	"comptoir/internal/domain/billing"
	"comptoir/internal/domain/catalogs/product"
	"comptoir/internal/domain/catalogs/warehouse"
	"comptoir/internal/domain/documents/purchase"
	"comptoir/internal/domain/documents/sale"
	"comptoir/internal/domain/lots"
	"comptoir/internal/domain/reports"
	"comptoir/internal/domain/requests"
	"comptoir/internal/infrastructure/http/v1/handlers"
	"comptoir/internal/infrastructure/http/v1/middleware"
	"comptoir/pkg/logger"
)

// RouterConfig holds everything the router wires together.
type RouterConfig struct {
	Logger *logger.Logger
	Clock  clock.Clock

	// Pool is used by readiness checks; nil with in-memory storage.
	Pool *pgxpool.Pool

	// AllowedOrigins enables CORS for the listed origins; empty
	// disables CORS.
	AllowedOrigins []string

	Products   *product.Service
	Warehouses *warehouse.Service
	Store      *lots.Store
	Sales      *sale.Service
	Purchases  *purchase.Service
	Requests   *requests.Service
	Ledger     *billing.Ledger
	Alerts     *alerts.Service
	Reports    *reports.Service
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Order matters: recovery outermost, then request id for the
	// logger, then the error renderer.
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	base := handlers.NewBaseHandler()

	productHandler := handlers.NewProductHandler(base, cfg.Products, cfg.Clock)
	warehouseHandler := handlers.NewWarehouseHandler(base, cfg.Warehouses, cfg.Clock)
	lotHandler := handlers.NewLotHandler(base, cfg.Store)
	saleHandler := handlers.NewSaleHandler(base, cfg.Sales)
	purchaseHandler := handlers.NewPurchaseHandler(base, cfg.Purchases)
	requestHandler := handlers.NewRequestHandler(base, cfg.Requests)
	billingHandler := handlers.NewBillingHandler(base, cfg.Ledger)
	alertHandler := handlers.NewAlertHandler(base, cfg.Alerts)
	reportHandler := handlers.NewReportHandler(base, cfg.Reports)

	api := router.Group("/api/v1")
	{
		catalogs := api.Group("/catalogs")
		{
			catalogs.POST("/products", productHandler.Create)
			catalogs.GET("/products", productHandler.List)
			catalogs.GET("/products/:id", productHandler.Get)
			catalogs.PUT("/products/:id", productHandler.Update)

			catalogs.POST("/warehouses", warehouseHandler.Create)
			catalogs.GET("/warehouses", warehouseHandler.List)
			catalogs.GET("/warehouses/:id", warehouseHandler.Get)
			catalogs.PUT("/warehouses/:id", warehouseHandler.Update)
		}

		stock := api.Group("/stock")
		{
			stock.POST("/lots", lotHandler.Create)
			stock.GET("/lots", lotHandler.List)
			stock.GET("/lots/:id", lotHandler.Get)
			stock.POST("/lots/:id/adjust", lotHandler.Adjust)
			stock.DELETE("/lots/:id", lotHandler.Delete)
			stock.GET("/availability/:productId", lotHandler.Availability)
			stock.POST("/expirations/check", lotHandler.CheckExpirations)
		}

		documents := api.Group("/documents")
		{
			documents.POST("/sales", saleHandler.Create)
			documents.GET("/sales", saleHandler.List)
			documents.GET("/sales/:id", saleHandler.Get)
			documents.POST("/sales/:id/validate", saleHandler.Validate)
			documents.POST("/sales/:id/deliver", saleHandler.Deliver)
			documents.POST("/sales/:id/cancel", saleHandler.Cancel)

			documents.POST("/purchase-orders", purchaseHandler.Create)
			documents.GET("/purchase-orders", purchaseHandler.List)
			documents.GET("/purchase-orders/:id", purchaseHandler.Get)
			documents.POST("/purchase-orders/:id/validate", purchaseHandler.Validate)
			documents.POST("/purchase-orders/:id/receive", purchaseHandler.Receive)
			documents.POST("/purchase-orders/:id/cancel", purchaseHandler.Cancel)

			documents.POST("/replenishment-requests", requestHandler.Create)
			documents.GET("/replenishment-requests", requestHandler.List)
			documents.GET("/replenishment-requests/:id", requestHandler.Get)
			documents.POST("/replenishment-requests/:id/submit", requestHandler.Submit)
			documents.POST("/replenishment-requests/:id/take", requestHandler.Take)
			documents.POST("/replenishment-requests/:id/process", requestHandler.Process)
			documents.POST("/replenishment-requests/:id/reject", requestHandler.Reject)
			documents.POST("/replenishment-requests/:id/cancel", requestHandler.Cancel)
		}

		billingGroup := api.Group("/billing")
		{
			billingGroup.GET("/invoices", billingHandler.List)
			billingGroup.GET("/invoices/:id", billingHandler.Get)
			billingGroup.POST("/invoices/:id/cancel", billingHandler.Cancel)
			billingGroup.GET("/invoices/:id/balance", billingHandler.RemainingBalance)
			billingGroup.GET("/invoices/:id/payments", billingHandler.Payments)
			billingGroup.POST("/invoices/:id/payments", billingHandler.RecordPayment)
		}

		alertsGroup := api.Group("/alerts")
		{
			alertsGroup.GET("", alertHandler.List)
			alertsGroup.POST("/:id/read", alertHandler.MarkRead)
		}

		reportsGroup := api.Group("/reports")
		{
			reportsGroup.GET("/stock-valuation", reportHandler.StockValuation)
			reportsGroup.GET("/invoice-aging", reportHandler.InvoiceAging)
			reportsGroup.GET("/cash-flow", reportHandler.CashFlow)
			reportsGroup.GET("/financial", reportHandler.Financial)
		}
	}

	return router
}
