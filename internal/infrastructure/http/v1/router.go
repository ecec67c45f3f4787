// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"farmstock/internal/domain/order"
	"farmstock/internal/domain/reconcile"
	"farmstock/internal/domain/stocklot"
	"farmstock/internal/domain/transaction"
	"farmstock/internal/infrastructure/http/v1/handlers"
	"farmstock/internal/infrastructure/http/v1/middleware"
	"farmstock/internal/infrastructure/storage/postgres"
	"farmstock/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Pool is the database connection pool (for health checks).
	Pool *postgres.Pool

	// Logger for request logging.
	Logger *logger.Logger

	// Coordinator runs the stock reconciliation sagas.
	Coordinator *reconcile.Coordinator

	// Resolver answers stock availability queries.
	Resolver *stocklot.Resolver

	// LotRepo reads individual lots.
	LotRepo stocklot.Repository

	// TransactionService reads transaction records.
	TransactionService *transaction.Service

	// OrderService creates and reads orders.
	OrderService *order.Service

	// IdempotencyStore enables replay of retried mutating requests.
	// Nil disables the idempotency middleware.
	IdempotencyStore *postgres.IdempotencyStore
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	baseHandler := handlers.NewBaseHandler()

	// API v1
	api := router.Group("/api/v1")
	if cfg.IdempotencyStore != nil {
		api.Use(middleware.Idempotency(cfg.IdempotencyStore))
	}

	// Stock lots (read surface)
	{
		handler := handlers.NewStockHandler(baseHandler, cfg.Resolver, cfg.LotRepo)
		stock := api.Group("/stock")
		stock.POST("/lots/query", handler.Query)
		stock.GET("/lots/:id", handler.Get)
	}

	// Transactions
	{
		handler := handlers.NewTransactionHandler(baseHandler, cfg.Coordinator, cfg.TransactionService)
		txs := api.Group("/transactions")
		txs.POST("", handler.Create)
		txs.GET("", handler.List)
		txs.GET("/:id", handler.Get)
	}

	// Orders and their items
	{
		handler := handlers.NewOrderHandler(baseHandler, cfg.Coordinator, cfg.OrderService)
		orders := api.Group("/orders")
		orders.POST("", handler.Create)
		orders.GET("/:id", handler.Get)
		orders.POST("/:id/items", handler.AddItem)
		orders.DELETE("/:id/items/:itemId", handler.DeleteItem)
	}

	// Inventory adjustments
	{
		handler := handlers.NewInventoryHandler(baseHandler, cfg.Coordinator)
		api.PUT("/inventory/:id", handler.Adjust)
	}

	return router
}
