package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stockpilot-api/internal/ai"
	"stockpilot-api/internal/cache"
	"stockpilot-api/internal/config"
	"stockpilot-api/internal/handler"
	"stockpilot-api/internal/middleware"
	"stockpilot-api/internal/repository"
	"stockpilot-api/internal/router"
	"stockpilot-api/internal/service"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting StockPilot API...")

	// Load configuration
	cfg := config.MustLoad()
	log.Printf("Environment: %s", cfg.App.Environment)

	// Initialize business repository based on config
	var businessRepo repository.BusinessRepository
	switch cfg.BusinessDB.Type {
	case "postgres", "postgresql":
		pgRepo, err := repository.NewPostgresBusinessRepository(cfg.BusinessDB.PostgresDSN())
		if err != nil {
			log.Fatalf("Failed to initialize PostgreSQL: %v", err)
		}
		defer pgRepo.Close()
		businessRepo = pgRepo
		log.Println("PostgreSQL business repository initialized")
	default: // sqlite
		sqliteRepo, err := repository.NewSQLiteBusinessRepository(cfg.BusinessDB.Path)
		if err != nil {
			log.Fatalf("Failed to initialize SQLite: %v", err)
		}
		defer sqliteRepo.Close()
		businessRepo = sqliteRepo
		log.Println("SQLite business repository initialized")
	}

	// Initialize MySQL connection for API key accounts (optional)
	var mysqlDB *sql.DB
	var accountRepo repository.AccountRepository

	mysqlDB, err := sql.Open("mysql", cfg.AccountDB.DSN())
	if err != nil {
		log.Printf("Warning: MySQL connection failed: %v", err)
	} else {
		mysqlDB.SetMaxOpenConns(10)
		mysqlDB.SetMaxIdleConns(5)
		mysqlDB.SetConnMaxLifetime(5 * time.Minute)

		if err := mysqlDB.Ping(); err != nil {
			log.Printf("Warning: MySQL ping failed: %v", err)
			mysqlDB.Close()
			mysqlDB = nil
		} else {
			accountRepo = repository.NewMySQLAccountRepository(mysqlDB)
			log.Println("MySQL account repository initialized")
		}
	}
	if mysqlDB != nil {
		defer mysqlDB.Close()
	}

	// Initialize Redis client (optional)
	var redisClient *redis.Client
	if cfg.Cache.Type == "redis" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddress(),
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Printf("Warning: Redis connection failed: %v", err)
			redisClient = nil
		} else {
			log.Println("Redis client initialized")
		}
		cancel()
	}

	// Report cache: Redis when available, in-process otherwise
	var reportCache cache.Cache
	var memCache *cache.MemoryCache
	if redisClient != nil {
		reportCache = cache.NewRedisCache(redisClient, "stockpilot:cache:")
	} else {
		memCache = cache.NewMemoryCache()
		defer memCache.Close()
		reportCache = memCache
	}

	// Initialize services
	contextSvc := service.NewContextService(businessRepo, service.Limits{
		Inventory: cfg.Analytics.InventoryLimit,
		Sales:     cfg.Analytics.SalesLimit,
		Movements: cfg.Analytics.MovementLimit,
	})

	engine := service.NewAnalyticsEngine()
	if cfg.Analytics.TrendJitter {
		seed := cfg.Analytics.JitterSeed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		engine.Jitter = rand.New(rand.NewSource(seed))
	}

	analyticsService := service.NewAnalyticsService(contextSvc, engine, reportCache, cfg.Cache.TTL)
	insightService := service.NewInsightService(contextSvc, businessRepo)

	var analyzer service.Analyzer
	if cfg.AI.Enabled() {
		analyzer = ai.NewClient(ai.Config{
			APIKey:   cfg.AI.APIKey,
			Model:    cfg.AI.Model,
			Endpoint: cfg.AI.Endpoint,
			Timeout:  cfg.AI.Timeout,
		})
		log.Printf("AI client initialized (model: %s)", cfg.AI.Model)
	} else {
		log.Println("No AI credential configured, assistant uses rule-based answers only")
	}
	assistantService := service.NewAssistantService(contextSvc, analyzer)

	var tokenService *service.TokenService
	if redisClient != nil {
		tokenService = service.NewTokenService(redisClient)
	}

	// Background insight scheduler (optional)
	var scheduler *service.InsightScheduler
	if cfg.Analytics.ScheduleInterval > 0 {
		scheduler = service.NewInsightScheduler(insightService, businessRepo, service.SchedulerConfig{
			Interval: cfg.Analytics.ScheduleInterval,
		})
		scheduler.Start()
		defer scheduler.Stop()
	}

	// Initialize handlers
	healthHandler := handler.New(func() error {
		_, err := businessRepo.GetStats(context.Background())
		return err
	})
	analyticsHandler := handler.NewAnalyticsHandler(analyticsService)
	insightHandler := handler.NewInsightHandler(insightService, businessRepo)
	assistantHandler := handler.NewAssistantHandler(assistantService)
	salesHandler := handler.NewSalesHandler(businessRepo, analyticsService)
	adminHandler := handler.NewAdminHandler(businessRepo, scheduler, cfg.BusinessDB.Type)

	var authHandler *handler.AuthHandler
	if tokenService != nil && accountRepo != nil {
		authHandler = handler.NewAuthHandler(tokenService, accountRepo)
	}

	// Create auth middleware with injected dependencies
	authMiddleware := middleware.NewAuthMiddleware(middleware.AuthConfig{
		TokenService: tokenService,
		AccountRepo:  accountRepo,
	})

	// Create router
	r := router.New(router.Config{
		Handler:          healthHandler,
		AnalyticsHandler: analyticsHandler,
		InsightHandler:   insightHandler,
		AssistantHandler: assistantHandler,
		SalesHandler:     salesHandler,
		AuthHandler:      authHandler,
		AdminHandler:     adminHandler,
		AuthMiddleware:   authMiddleware,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on %s", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
	fmt.Println("Goodbye!")
}
