package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskmate/backend/internal/cache"
	"taskmate/backend/internal/config"
	"taskmate/backend/internal/handlers"
	"taskmate/backend/internal/middleware"
	"taskmate/backend/internal/models"
	"taskmate/backend/internal/monitoring"
	"taskmate/backend/internal/ordering"
	"taskmate/backend/internal/services"
	"taskmate/backend/internal/worker"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := openDatabase(cfg)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	policy, err := ordering.ForName(cfg.Ordering.Policy)
	if err != nil {
		log.Fatalf("invalid ordering policy: %v", err)
	}
	log.Printf("task ordering policy: %s", policy.Name())

	// Redis backs the L2 cache and the job queue. If it is unreachable the
	// server still runs: the cache degrades to memory-only and stats fall
	// back to direct recounts.
	redisClient := connectRedis(cfg)

	var redisCache *cache.RedisCache
	if redisClient != nil {
		redisCache = cache.NewRedisCacheFromClient(redisClient)
	}
	store := cache.NewMultiLevelCache(redisCache)

	taskSvc := services.NewTaskService(policy)
	cachedTasks := services.NewCachedTaskService(taskSvc, store)
	authSvc := services.NewAuthService(cfg.Auth.BCryptCost)
	tokenSvc := services.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	var events *worker.JobQueue
	var jobWorker *worker.Worker
	if redisClient != nil && cfg.Worker.Enabled {
		events = worker.NewJobQueue(redisClient)
		jobWorker = worker.NewWorker(worker.WorkerConfig{RedisClient: redisClient})
		// Stats recounts go through the uncached service so a stale cache
		// entry can never feed the refresh.
		jobWorker.RegisterHandler(worker.JobTypeTaskEvent, worker.NewTaskEventHandler(db, taskSvc, store))
		jobWorker.Start(cfg.Worker.Concurrency)
	}

	metrics := monitoring.NewMetrics()
	health := monitoring.NewHealthChecker()
	health.Register("database", func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})
	if redisClient != nil {
		health.Register("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), cors.Default(), metrics.Middleware())

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "TaskMate API running"})
	})
	router.GET("/health", health.HealthHandler(metrics))
	router.GET("/ready", health.ReadinessHandler())
	router.GET("/live", health.LivenessHandler(metrics))
	router.GET("/metrics", metrics.Handler())

	var apiLimiter, authLimiter *middleware.RateLimiter
	routerCfg := handlers.RouterConfig{
		Auth:     handlers.NewAuthHandler(db, authSvc, tokenSvc),
		Tasks:    handlers.NewTaskHandler(db, cachedTasks, events),
		AuthGate: middleware.AuthMiddleware(db, tokenSvc),
	}
	if cfg.RateLimit.Enabled {
		apiLimiter = middleware.NewRateLimiter(cfg.RateLimit.APIRequests, cfg.RateLimit.APIWindow, cfg.RateLimit.CleanupInterval)
		authLimiter = middleware.NewRateLimiter(cfg.RateLimit.AuthRequests, cfg.RateLimit.AuthWindow, cfg.RateLimit.CleanupInterval)
		routerCfg.APILimiter = apiLimiter.Middleware()
		routerCfg.AuthLimiter = authLimiter.Middleware()
	}
	handlers.RegisterRoutes(router, routerCfg)

	srv := &http.Server{
		Addr:         cfg.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Printf("TaskMate API listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")

	if jobWorker != nil {
		jobWorker.Stop()
	}
	if apiLimiter != nil {
		apiLimiter.Stop()
	}
	if authLimiter != nil {
		authLimiter.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("forced shutdown: %v", err)
	}

	store.Close()
	if redisClient != nil {
		redisClient.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	log.Println("Server stopped")
}

func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.GetDatabaseDSN()), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	if err := db.AutoMigrate(&models.User{}, &models.Task{}); err != nil {
		return nil, err
	}

	return db, nil
}

func connectRedis(cfg *config.Config) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.GetRedisAddr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		MaxRetries:   cfg.Redis.MaxRetries,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Redis.DialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("redis unavailable, running without L2 cache and background jobs: %v", err)
		client.Close()
		return nil
	}
	return client
}
