package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"frendo-pos/internal/cart"
	"frendo-pos/internal/event"
	"frendo-pos/internal/handler"
	"frendo-pos/internal/middleware"
	"frendo-pos/internal/model"
	"frendo-pos/internal/receipt"
	"frendo-pos/internal/repository"
	"frendo-pos/internal/service"
	"frendo-pos/internal/ws"
	"frendo-pos/pkg/config"
	"frendo-pos/pkg/database"
	"frendo-pos/pkg/jwt"
	applog "frendo-pos/pkg/logger"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	// 1. Load Env
	cfg := config.Load()
	zlog := applog.New(cfg.IsDevelopment())
	defer zlog.Sync()

	// 2. Setup Database
	db := database.ConnectDB(cfg.DatabaseURL, cfg.IsDevelopment())
	// Auto Migrate (Hati-hati di production, sebaiknya pakai tools migrasi terpisah)
	if err := db.AutoMigrate(
		&model.Category{}, &model.Discount{}, &model.Product{},
		&model.AuthIdentity{}, &model.User{},
		&model.Transaction{}, &model.TransactionItem{},
	); err != nil {
		log.Fatal("Failed to migrate database. \n", err)
	}

	// 3. Seed owner account
	seedOwner(db, cfg, zlog)

	// 4. Cart store, event bus and WebSocket hub
	carts := newCartStore(cfg, zlog)
	publisher := newPublisher(cfg, zlog)

	wsHub := ws.NewHub(zlog)
	go wsHub.Run()

	// 5. Dependency Injection (Wiring Layers)
	categoryRepo := repository.NewCategoryRepo(db)
	discountRepo := repository.NewDiscountRepo(db)
	productRepo := repository.NewProductRepo(db)
	txRepo := repository.NewTransactionRepo(db)
	userRepo := repository.NewUserRepo(db)
	identityRepo := repository.NewIdentityRepo(db)

	tokens := jwt.NewManager(cfg.JWTSecret, cfg.SessionTTL)
	store := receipt.Store{Name: cfg.StoreName, Address: cfg.StoreAddress, Phone: cfg.StorePhone}

	authService := service.NewAuthService(identityRepo, userRepo, tokens, zlog)
	catalogService := service.NewCatalogService(categoryRepo, discountRepo, productRepo, wsHub, publisher, zlog)
	userService := service.NewUserService(userRepo, identityRepo, zlog)
	cartService := service.NewCartService(carts, productRepo)
	checkoutService := service.NewCheckoutService(cfg.CheckoutMode, txRepo, productRepo, carts, wsHub, publisher, zlog)
	dashService := service.NewDashboardService(productRepo, txRepo, userRepo, cfg.LowStockThreshold)
	reportService := service.NewReportService(txRepo, zlog)
	txService := service.NewTransactionService(txRepo, store)

	authHandler := handler.NewAuthHandler(authService, !cfg.IsDevelopment(), zlog)
	catalogHandler := handler.NewCatalogHandler(catalogService, zlog)
	userHandler := handler.NewUserHandler(userService, zlog)
	cartHandler := handler.NewCartHandler(cartService, checkoutService, zlog)
	pageHandler := handler.NewPageHandler(dashService, catalogService, txService, checkoutService, reportService, userService, zlog)

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "Frendo POS v1.0",
	})

	// Middleware
	app.Use(logger.New())  // Logging request
	app.Use(recover.New()) // Panic recovery
	app.Use(cors.New())    // CORS

	// 7. Routes
	// ============ PUBLIC ROUTES ============
	app.Get("/login", authHandler.LoginPage)
	auth := app.Group("/auth")
	auth.Post("/login", authHandler.Login)
	auth.Post("/logout", middleware.RequireAuth(authService), authHandler.Logout)
	auth.Post("/change-password", authHandler.ChangePassword)
	auth.Get("/me", middleware.RequireAuth(authService), authHandler.Me)

	// ============ PAGES ============
	page := func(caps ...model.Capability) fiber.Handler {
		return middleware.RequirePage(authService, caps...)
	}
	dash := app.Group("/dashboard")
	dash.Get("/", page(), pageHandler.Dashboard)
	dash.Get("/products", page(model.CapViewProducts), pageHandler.Products)
	dash.Get("/categories", page(model.CapManageCategories), pageHandler.Categories)
	dash.Get("/discounts", page(model.CapViewDiscounts), pageHandler.Discounts)
	dash.Get("/transactions", page(model.CapViewTransactions), pageHandler.Transactions)
	dash.Get("/transactions/create", page(model.CapCheckout), pageHandler.CreateTransaction)
	dash.Get("/transactions/:id/receipt", page(model.CapViewTransactions), pageHandler.Receipt)
	dash.Get("/reports", page(model.CapViewReports), pageHandler.Reports)
	dash.Get("/reports/export", page(model.CapViewReports), pageHandler.ExportReport)
	dash.Get("/users", page(model.CapManageUsers), pageHandler.Users)

	// ============ API ============
	api := app.Group("/api/v1", middleware.RequireAuth(authService))

	categories := api.Group("/categories", middleware.RequireCapability(model.CapManageCategories))
	categories.Post("/", catalogHandler.CreateCategory)
	categories.Put("/:id", catalogHandler.UpdateCategory)
	categories.Delete("/:id", catalogHandler.DeleteCategory)

	discounts := api.Group("/discounts", middleware.RequireCapability(model.CapManageDiscounts))
	discounts.Post("/", catalogHandler.CreateDiscount)
	discounts.Put("/:id", catalogHandler.UpdateDiscount)
	discounts.Delete("/:id", catalogHandler.DeleteDiscount)

	products := api.Group("/products", middleware.RequireCapability(model.CapManageProducts))
	products.Post("/", catalogHandler.CreateProduct)
	products.Put("/:id", catalogHandler.UpdateProduct)
	products.Delete("/:id", catalogHandler.DeleteProduct)

	users := api.Group("/users", middleware.RequireCapability(model.CapManageUsers))
	users.Post("/", userHandler.CreateUser)
	users.Put("/:id", userHandler.UpdateUser)
	users.Delete("/:id", userHandler.DeleteUser)

	checkout := api.Group("", middleware.RequireCapability(model.CapCheckout))
	checkout.Get("/cart", cartHandler.GetCart)
	checkout.Delete("/cart", cartHandler.ClearCart)
	checkout.Post("/cart/items", cartHandler.AddItem)
	checkout.Patch("/cart/items/:product_id", cartHandler.AdjustItem)
	checkout.Delete("/cart/items/:product_id", cartHandler.RemoveItem)
	checkout.Put("/cart/payment", cartHandler.SetPayment)
	checkout.Post("/transactions", cartHandler.Checkout)

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(wsHub.Serve))

	// 8. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Panic(err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("shutting down server")
	if err := app.Shutdown(); err != nil {
		zlog.Error("server forced to shutdown", zap.Error(err))
	}
	wsHub.Stop()
	if err := publisher.Close(); err != nil {
		zlog.Warn("failed to close event publisher", zap.Error(err))
	}

	zlog.Info("server exited")
}

// newCartStore uses redis when REDIS_URL is set and falls back to process memory.
func newCartStore(cfg *config.Config, zlog *zap.Logger) cart.Store {
	if cfg.RedisURL == "" {
		zlog.Info("REDIS_URL not set, carts are kept in memory")
		return cart.NewMemoryStore()
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatal("Invalid REDIS_URL. \n", err)
	}
	zlog.Info("cart store: redis", zap.String("addr", opts.Addr))
	return cart.NewRedisStore(redis.NewClient(opts), cfg.CartTTL)
}

func newPublisher(cfg *config.Config, zlog *zap.Logger) event.Publisher {
	if len(cfg.KafkaBrokers) == 0 {
		return event.Noop()
	}
	publisher, err := event.NewKafkaPublisher(cfg.KafkaBrokers, zlog)
	if err != nil {
		zlog.Warn("kafka unavailable, events disabled", zap.Error(err))
		return event.Noop()
	}
	return publisher
}

// seedOwner creates the first owner account if its email is not registered yet.
func seedOwner(db *gorm.DB, cfg *config.Config, zlog *zap.Logger) {
	identityRepo := repository.NewIdentityRepo(db)
	userRepo := repository.NewUserRepo(db)

	if _, err := identityRepo.FindByEmail(cfg.OwnerEmail); err == nil {
		return
	}

	identity := &model.AuthIdentity{Email: cfg.OwnerEmail}
	if err := identity.SetPassword(cfg.OwnerPassword); err != nil {
		zlog.Warn("failed to hash owner password", zap.Error(err))
		return
	}
	if err := identityRepo.Create(identity); err != nil {
		zlog.Warn("failed to create owner identity", zap.Error(err))
		return
	}

	owner := &model.User{Name: "Owner", Role: model.RoleOwner, IsActive: true}
	owner.ID = identity.ID
	if err := userRepo.Create(owner); err != nil {
		zlog.Warn("failed to create owner profile", zap.Error(err))
		return
	}
	zlog.Info("owner account created", zap.String("email", cfg.OwnerEmail))
}
