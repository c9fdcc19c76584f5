package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/ramzi-kassab/floorman-api/api/swagger"
	"github.com/ramzi-kassab/floorman-api/internal/handler"
	"github.com/ramzi-kassab/floorman-api/internal/middleware"
	"github.com/ramzi-kassab/floorman-api/internal/models"
	"github.com/ramzi-kassab/floorman-api/internal/repository"
	"github.com/ramzi-kassab/floorman-api/internal/service"
	"github.com/ramzi-kassab/floorman-api/pkg/cache"
	"github.com/ramzi-kassab/floorman-api/pkg/config"
	"github.com/ramzi-kassab/floorman-api/pkg/database"
	"github.com/ramzi-kassab/floorman-api/pkg/jobs"
	"github.com/ramzi-kassab/floorman-api/pkg/logger"
	corsmiddleware "github.com/ramzi-kassab/floorman-api/pkg/middleware/cors"
	reqidmiddleware "github.com/ramzi-kassab/floorman-api/pkg/middleware/requestid"
)

// @title Floorman API
// @version 1.0.0
// @description Repair floor management API: retrieval/undo workflow and work accuracy metrics
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
	} else {
		defer redisClient.Close()
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Accuracy.CacheTTL, logr, true)
	}

	userRepo := repository.NewUserRepository(db)
	retrievalRepo := repository.NewRetrievalRepository(db)
	metricRepo := repository.NewRetrievalMetricRepository(db)
	jobCardRepo := repository.NewJobCardRepository(db)
	stockEntryRepo := repository.NewStockEntryRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	registry := service.NewRetrievableRegistry(cfg.Retrieval.AutoApproveWindow)
	if err := registry.Register(service.NewJobCardTarget(jobCardRepo), service.RetrievableConfig{}); err != nil {
		logr.Sugar().Fatalw("failed to register job card target", "error", err)
	}
	if err := registry.Register(service.NewStockEntryTarget(stockEntryRepo), service.RetrievableConfig{
		ManualActions: []models.RetrievalAction{models.RetrievalActionRestore},
	}); err != nil {
		logr.Sugar().Fatalw("failed to register stock entry target", "error", err)
	}

	notificationSvc := service.NewNotificationService(notificationRepo, logr, jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		BufferSize: cfg.Notifications.BufferSize,
		MaxRetries: cfg.Notifications.MaxRetries,
		RetryDelay: cfg.Notifications.RetryDelay,
		Logger:     logr,
	}, service.WithNotificationObserver(metricsSvc))
	notificationSvc.Start(ctx)
	defer notificationSvc.Stop()

	authSvc := service.NewAuthService(userRepo, validator.New(), logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "floorman-api",
		SingleSession:      false,
	})

	retrievalSvc := service.NewRetrievalService(retrievalRepo, registry, userRepo, userRepo, logr,
		service.WithFallbackApprover(cfg.Retrieval.FallbackApproverID),
		service.WithRetrievalNotifier(notificationSvc),
		service.WithRetrievalObserver(metricsSvc),
	)

	accuracyOpts := []service.AccuracyServiceOption{}
	if cacheSvc != nil {
		accuracyOpts = append(accuracyOpts, service.WithAccuracyCache(cacheSvc, cfg.Accuracy.CacheTTL))
	}
	accuracySvc := service.NewAccuracyService(metricRepo, retrievalRepo, logr, accuracyOpts...)

	scheduler := service.NewScheduler(retrievalSvc, accuracySvc, userRepo,
		cfg.Retrieval.SweepInterval, cfg.Accuracy.RecomputeInterval, logr)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	authHandler := handler.NewAuthHandler(authSvc)
	retrievalHandler := handler.NewRetrievalHandler(retrievalSvc)
	accuracyHandler := handler.NewAccuracyHandler(accuracySvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))

	authed.POST("/auth/logout", authHandler.Logout)
	authed.GET("/auth/me", authHandler.Me)

	retrievals := authed.Group("/retrievals")
	retrievals.GET("", retrievalHandler.List)
	retrievals.POST("", retrievalHandler.Create)
	retrievals.GET("/eligibility", retrievalHandler.Eligibility)
	retrievals.POST("/sweep",
		middleware.RequireRoles(models.RoleAdmin),
		retrievalHandler.Sweep)
	retrievals.GET("/:id", retrievalHandler.Get)
	retrievals.POST("/:id/approve",
		middleware.RequireRoles(models.RoleSupervisor, models.RoleAdmin),
		retrievalHandler.Approve)
	retrievals.POST("/:id/reject",
		middleware.RequireRoles(models.RoleSupervisor, models.RoleAdmin),
		retrievalHandler.Reject)
	retrievals.POST("/:id/cancel", retrievalHandler.Cancel)
	retrievals.POST("/:id/perform", retrievalHandler.Perform)

	accuracy := authed.Group("/accuracy")
	accuracy.GET("/:employeeId", accuracyHandler.Get)
	accuracy.GET("/:employeeId/history", accuracyHandler.History)
	accuracy.GET("/:employeeId/export", accuracyHandler.Export)
	accuracy.POST("/:employeeId/recompute",
		middleware.RequireRoles(models.RoleSupervisor, models.RoleAdmin),
		accuracyHandler.Recompute)

	notifications := authed.Group("/notifications")
	notifications.GET("", notificationHandler.Unread)
	notifications.POST("/:id/read", notificationHandler.MarkRead)

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
