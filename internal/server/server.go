// Package server assembles the HTTP application.
package server

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"pos-backend/internal/admin"
	"pos-backend/internal/audit"
	"pos-backend/internal/auth"
	"pos-backend/internal/config"
	"pos-backend/internal/dashboard"
	"pos-backend/internal/inventory"
	"pos-backend/internal/kvstore"
	"pos-backend/internal/logging"
	"pos-backend/internal/models"
	"pos-backend/internal/orders"
	"pos-backend/internal/purchase"
	"pos-backend/internal/reports"
	"pos-backend/internal/sales"
)

// New wires every service over store and returns the application with all routes mounted
// under /api.
func New(cfg *config.Config, store kvstore.Store) *fiber.App {
	locks := inventory.NewLocker()
	audits := audit.NewLogger(store)
	ledger := inventory.NewLedger(store, locks)
	catalog := inventory.NewCatalog(store, locks, audits)
	processor := sales.NewProcessor(store, ledger, cfg.Location)
	orderSvc := orders.NewService(store, ledger, locks, audits, cfg.Location)
	purchases := purchase.NewRecorder(store, audits)
	reportSvc := reports.NewService(processor, cfg.Location)
	chart := dashboard.NewChart(processor, cfg.Location)
	users := auth.NewUsers(store)
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)

	app := fiber.New(fiber.Config{
		AppName:      "pos-backend",
		ErrorHandler: errorHandler,
		JSONDecoder:  strictUnmarshal,
	})

	app.Use(recover.New())
	app.Use(logging.Middleware())

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/setup", auth.SetupHandler(users, tokens))
	api.Post("/auth/login", auth.LoginHandler(users, tokens))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(tokens, users))

	adminOnly := auth.RequireRole(models.RoleAdmin)
	managerOnly := auth.RequireRole(models.RoleManager)

	protected.Get("/auth/me", auth.MeHandler())
	protected.Post("/auth/signup", adminOnly, auth.SignupHandler(users))

	// Users and audit trail
	protected.Get("/users", managerOnly, admin.ListUsersHandler(users))
	protected.Put("/users/:id", managerOnly, admin.UpdateUserHandler(users, audits))
	protected.Get("/audit-logs", managerOnly, audit.ListAuditLogsHandler(audits))

	// Catalog
	protected.Get("/products", inventory.ListProductsHandler(catalog))
	protected.Get("/products/categories", inventory.ListProductCategoriesHandler(catalog))
	protected.Get("/products/:id", inventory.GetProductHandler(catalog))
	protected.Post("/products", adminOnly, inventory.CreateProductHandler(catalog))
	protected.Put("/products/:id", adminOnly, inventory.UpdateProductHandler(catalog))
	protected.Delete("/products/:id", adminOnly, inventory.DeleteProductHandler(catalog))

	// Stock ledger
	protected.Put("/stock/:productId", adminOnly, inventory.AdjustStockHandler(ledger))
	protected.Get("/stock/history", inventory.StockHistoryHandler(ledger))

	// Sales
	protected.Post("/transactions", sales.CreateTransactionHandler(processor))
	protected.Get("/transactions", sales.ListTransactionsHandler(processor))
	protected.Get("/transactions/summary", reports.DailySummaryHandler(reportSvc))
	protected.Get("/transactions/:id", sales.GetTransactionHandler(processor))

	// Reports
	protected.Get("/reports/sales", adminOnly, reports.SalesReportHandler(reportSvc))
	protected.Get("/reports/products", adminOnly, reports.ProductReportHandler(reportSvc))
	protected.Get("/dashboard/cash-chart", adminOnly, dashboard.CashChartHandler(chart))

	// Orders
	protected.Post("/orders", orders.CreateOrderHandler(orderSvc))
	protected.Get("/orders", orders.ListOrdersHandler(orderSvc))
	protected.Get("/orders/upcoming", orders.UpcomingOrdersHandler(orderSvc))
	protected.Get("/orders/:id", orders.GetOrderHandler(orderSvc))
	protected.Put("/orders/:id", orders.UpdateOrderHandler(orderSvc))
	protected.Delete("/orders/:id", adminOnly, orders.DeleteOrderHandler(orderSvc))

	// Purchases
	protected.Post("/purchases", adminOnly, purchase.CreatePurchaseHandler(purchases))
	protected.Get("/purchases", adminOnly, purchase.ListPurchasesHandler(purchases))
	protected.Get("/purchases/summary", adminOnly, purchase.PurchaseSummaryHandler(purchases))
	protected.Get("/purchases/:id", adminOnly, purchase.GetPurchaseHandler(purchases))
	protected.Delete("/purchases/:id", managerOnly, purchase.DeletePurchaseHandler(purchases))

	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}
	log.WithError(err).WithField("path", c.Path()).Error("unexpected error")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
}

// strictUnmarshal rejects request bodies carrying fields the target type does not declare,
// or anything after the first JSON value.
func strictUnmarshal(data []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return errors.New("unexpected data after JSON body")
	}
	return nil
}
