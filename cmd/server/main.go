package main

import (
	"context"
	"log"
	"os"

	"leasewise-backend/config"
	"leasewise-backend/handlers"
	"leasewise-backend/repository"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file from project root (relative to cmd/server/)
	// Try current directory first, then project root
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../../.env"); err != nil {
			log.Printf("Warning: No .env file found, using environment variables")
		}
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Initialize database connection
	db, err := initPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to initialize Postgres:", err)
	}
	defer db.Close()

	// Initialize repositories
	recordRepo := repository.NewLegalRecordRepository(db)
	contentRepo := repository.NewContentRepository(db)

	// Initialize handlers
	legalUpdateHandler := handlers.NewLegalUpdateHandler(recordRepo, contentRepo)

	// Setup Gin router
	r := gin.Default()

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	// API routes
	api := r.Group("/api")
	{
		// Legal update endpoints
		api.GET("/legal-updates", legalUpdateHandler.ListLegalUpdates)
		api.GET("/legal-updates/:id", legalUpdateHandler.GetLegalUpdate)

		// Compliance content endpoints
		api.GET("/compliance-cards", legalUpdateHandler.ListComplianceCards)
	}

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

func initPostgres(connString string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(context.Background(), connString)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, err
	}

	log.Println("Postgres connection established")
	return pool, nil
}
