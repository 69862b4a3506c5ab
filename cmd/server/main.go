package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"tapledger/internal/adapters/http/middleware"
	"tapledger/internal/adapters/http/routes"
	"tapledger/internal/adapters/persistence/models"
	"tapledger/internal/adapters/persistence/repositories"
	"tapledger/internal/config"
	"tapledger/internal/core/services"
	"tapledger/internal/pkg/cache"

	"github.com/gofiber/fiber/v2"

	_ "tapledger/docs" // Swagger docs
)

// @title TapLedger API
// @version 1.0
// @description NFC-aware transaction tracking API
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@tapledger.dev

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8000
// @BasePath /
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and your access token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer config.CloseDatabase()

	// Auto migrate (creates tables if not exist)
	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("❌ Failed to auto migrate: %v", err)
	}
	log.Println("✅ Database migration completed")

	// Seed roles, permissions and default users
	if err := config.SeedData(db, cfg); err != nil {
		log.Printf("⚠️ Warning: Failed to seed data: %v", err)
	}

	// Cache store (redis in production, in-process map otherwise)
	store := buildCacheStore(cfg)

	// Start Cron Service for stale token cleanup (03:00 daily)
	cronService := services.NewCronService(repositories.NewAccessTokenRepository(db), cfg.Auth.TokenStaleDays)
	cronService.Start()
	defer cronService.Stop()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "TapLedger API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	// Setup middlewares
	middleware.Setup(app, cfg)

	// Setup routes (pass db and cache store for dependency injection)
	routes.Setup(app, db, store)

	// Graceful shutdown
	go gracefulShutdown(app)

	// Start server
	log.Printf("🚀 Server starting on port %s [MODE: %s]", cfg.Port, cfg.AppMode)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

// buildCacheStore selects the cache backend from configuration, falling
// back to the in-process store when redis is unreachable
func buildCacheStore(cfg *config.Config) cache.Store {
	if cfg.Cache.Driver == "redis" {
		store, err := cache.NewRedisStore(cfg.Cache.Addr, cfg.Cache.Password, cfg.Cache.DB)
		if err != nil {
			log.Printf("⚠️ Warning: redis unavailable (%v), using in-process cache", err)
			return cache.NewMemoryStore()
		}
		log.Printf("✅ Redis cache connected: %s", cfg.Cache.Addr)
		return store
	}
	return cache.NewMemoryStore()
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("❌ Error during shutdown: %v", err)
	}
	log.Println("✅ Server stopped gracefully")
}
