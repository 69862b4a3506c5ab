package routes

import (
	"time"

	"tapledger/internal/adapters/http/handlers"
	"tapledger/internal/adapters/http/middleware"
	"tapledger/internal/adapters/persistence/repositories"
	"tapledger/internal/core/services"
	"tapledger/internal/pkg/cache"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"gorm.io/gorm"
)

// Setup configures all routes for the application
func Setup(app *fiber.App, db *gorm.DB, store cache.Store) {
	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	tokenRepo := repositories.NewAccessTokenRepository(db)
	txnRepo := repositories.NewTransactionRepository(db)

	// Initialize services
	authService := services.NewAuthService(userRepo, tokenRepo)
	txnService := services.NewTransactionService(db, txnRepo, store)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(store)
	authHandler := handlers.NewAuthHandler(authService)
	txnHandler := handlers.NewTransactionHandler(txnService)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	auth := middleware.AuthMiddleware(authService)

	// Auth routes
	setupAuthRoutes(app, authHandler, auth)

	// Transaction routes (authenticated); reads may be cached client-side
	// for as long as the server-side listing cache tolerates staleness
	txnRoutes := app.Group("/transactions")
	txnRoutes.Use(auth)
	txnRoutes.Use(middleware.PrivateCacheHeaders(5 * time.Minute))
	setupTransactionRoutes(txnRoutes, txnHandler)
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, auth fiber.Handler) {
	// Public routes, rate-limited against credential stuffing
	router.Post("/register", middleware.AuthRateLimiter(), middleware.NoCacheHeaders(), handler.Register)
	router.Post("/login", middleware.AuthRateLimiter(), middleware.NoCacheHeaders(), handler.Login)

	// Protected routes
	router.Post("/logout", auth, handler.Logout)
	router.Get("/user", auth, middleware.NoCacheHeaders(), handler.Me)
}

// setupTransactionRoutes configures transaction routes
func setupTransactionRoutes(router fiber.Router, handler *handlers.TransactionHandler) {
	router.Get("/", handler.Index)

	// Static segment must be registered ahead of the :id wildcard
	router.Get("/nfc", handler.NFCIndex)

	router.Get("/:id", handler.Show)
	router.Post("/", handler.Store)
	router.Put("/:id", handler.Update)
	router.Patch("/:id", handler.Update)
	router.Delete("/:id", handler.Destroy)
}
