package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"sales-service/internal/config"
	"sales-service/internal/events"
	"sales-service/internal/handlers"
	"sales-service/internal/metrics"
	"sales-service/internal/middleware"
	"sales-service/internal/repository"
	"sales-service/internal/services"
)

// @title Sales Service API
// @version 1.0.0
// @description Bulk sales upload (CSV/XLSX) into a normalized store and customer analytics over a sale-date range

// @contact.name Sales API Support
// @contact.email support@example.com

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:5000
// @BasePath /

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := config.Load()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.IsProduction() {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	redisClient := connectRedis(cfg.RedisURL)

	var publisher *events.Publisher
	if cfg.NATSURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		publisher, err = events.NewPublisher(ctx, cfg.NATSURL, logger)
		cancel()
		if err != nil {
			log.Printf("WARNING: Failed to initialize events publisher: %v (continuing without event publishing)", err)
			publisher = nil
		} else {
			log.Println("✓ Events publisher initialized (NATS connected)")
		}
	} else {
		log.Println("NATS_URL not set, skipping event publishing initialization")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New("sales", "sales_service", registry)

	// Repositories
	salesRepo := repository.NewSalesRepository(db, cfg.UpsertChunkSize)
	jobRepo := repository.NewImportJobRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db, redisClient, cfg.AnalyticsCacheTTL)

	// Services
	var eventPublisher services.EventPublisher
	if publisher != nil {
		eventPublisher = publisher
	}
	importService := services.NewImportService(salesRepo, jobRepo, analyticsRepo, eventPublisher, m, services.ImportOptions{
		BatchSize:  cfg.BatchSize,
		MaxRetries: cfg.BatchMaxRetries,
	}, logger)
	analyticsService := services.NewAnalyticsService(analyticsRepo, logger)

	// Handlers
	importHandler := handlers.NewImportHandler(importService, cfg.MaxUploadBytes(), logger)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService, logger)
	healthHandler := handlers.NewHealthHandler(db, redisClient)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.MaxMultipartMemory = 8 << 20
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))
	router.Use(m.Middleware())
	router.Use(middleware.CORS(cfg.CORSOrigins))

	// Health check endpoints
	router.GET("/heartbeat", handlers.Heartbeat)
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/metrics", m.Handler())

	handlers.RegisterRoutes(router, importHandler, analyticsHandler)
	handlers.RegisterRoutes(router.Group("/api/v1"), importHandler, analyticsHandler)

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting sales-service on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down sales-service...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	publisher.Close()
	if redisClient != nil {
		redisClient.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	log.Println("Sales service stopped")
}

// connectRedis returns nil when REDIS_URL is unset or unreachable; analytics then reads straight from the database
func connectRedis(redisURL string) *redis.Client {
	if redisURL == "" {
		log.Println("REDIS_URL not set, analytics caching disabled")
		return nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Printf("WARNING: Failed to parse Redis URL: %v (caching will be disabled)", err)
		return nil
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("WARNING: Failed to connect to Redis: %v (caching will be disabled)", err)
		client.Close()
		return nil
	}
	log.Println("✓ Redis connected successfully")
	return client
}
