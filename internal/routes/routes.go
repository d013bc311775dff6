package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/tierpay/backend/internal/config"
	"github.com/tierpay/backend/internal/handlers"
	"github.com/tierpay/backend/internal/middleware"
	"github.com/tierpay/backend/internal/services/sale"
	"gorm.io/gorm"
)

// RegisterRoutes configures all API routes
func RegisterRoutes(router *gin.Engine, db *gorm.DB, redisClient *redis.Client, cfg *config.Config) {
	rateLimiter := middleware.NewRateLimiter(60, 10)
	router.Use(rateLimiter.Middleware())

	intake := sale.NewIntake(db, redisClient, cfg.Commission)

	authHandler := handlers.NewAuthHandler(db, cfg)
	userHandler := handlers.NewUserHandler(db)
	networkHandler := handlers.NewNetworkHandler(db, intake.Ledger(), cfg.Commission.MaxDepth)
	walletHandler := handlers.NewWalletHandler(db, intake.Ledger())
	webhookHandler := handlers.NewWebhookHandler(intake, cfg.WebhookKey)

	authGroup := router.Group("/api/auth")
	{
		authGroup.POST("/signup", authHandler.Signup)
		authGroup.POST("/login", authHandler.Login)
	}

	accountGroup := router.Group("/api/account")
	accountGroup.Use(middleware.AuthMiddleware())
	{
		accountGroup.GET("/me", userHandler.GetMe)
		accountGroup.PUT("/tier", userHandler.UpgradeTier)
	}

	networkGroup := router.Group("/api/network")
	networkGroup.Use(middleware.AuthMiddleware())
	{
		networkGroup.GET("/", networkHandler.GetNetwork)
		networkGroup.GET("/upline", networkHandler.GetUpline)
	}

	walletGroup := router.Group("/api/wallet")
	walletGroup.Use(middleware.AuthMiddleware())
	{
		walletGroup.GET("/", walletHandler.GetWallet)
		walletGroup.GET("/commissions", walletHandler.GetCommissions)
		walletGroup.GET("/activity", walletHandler.GetActivity)
	}

	adminGroup := router.Group("/api/admin")
	adminGroup.Use(middleware.AuthMiddleware(), middleware.AdminMiddleware())
	{
		adminGroup.PUT("/participants/:id/status", userHandler.SetParticipantStatus)
	}

	// Webhook intake is authenticated by API key, not user tokens
	router.POST("/webhooks/payment", webhookHandler.PaymentWebhook)
}
