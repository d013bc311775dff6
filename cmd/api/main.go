package main

import (
	"fmt"
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/tierpay/backend/internal/config"
	"github.com/tierpay/backend/internal/database"
	"github.com/tierpay/backend/internal/database/migrations"
	"github.com/tierpay/backend/internal/routes"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	cfg := config.LoadConfig()

	db, err := database.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := migrations.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	// The in-flight guard degrades gracefully when Redis is unreachable,
	// so a failed connection here is not fatal.
	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	var redisClient *redis.Client
	if err != nil {
		log.Printf("Warning: invalid Redis URL, duplicate guard disabled: %v", err)
	} else {
		redisOpts.Password = cfg.Redis.Password
		redisOpts.DB = cfg.Redis.DB
		redisClient = redis.NewClient(redisOpts)
	}

	routes.RegisterRoutes(router, db, redisClient, cfg)

	fmt.Printf("TierPay API server running on port %s\n", cfg.Server.Port)
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
