package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/lanting-project/lanting-api/api/swagger"
	"github.com/lanting-project/lanting-api/internal/handler"
	"github.com/lanting-project/lanting-api/internal/middleware"
	"github.com/lanting-project/lanting-api/internal/repository"
	"github.com/lanting-project/lanting-api/internal/service"
	"github.com/lanting-project/lanting-api/pkg/cache"
	"github.com/lanting-project/lanting-api/pkg/config"
	"github.com/lanting-project/lanting-api/pkg/database"
	"github.com/lanting-project/lanting-api/pkg/logger"
	corsmiddleware "github.com/lanting-project/lanting-api/pkg/middleware/cors"
	reqidmiddleware "github.com/lanting-project/lanting-api/pkg/middleware/requestid"
	"github.com/lanting-project/lanting-api/pkg/snapshot"
	"github.com/lanting-project/lanting-api/pkg/storage"
)

// @title Lanting Archive API
// @version 1.0.0
// @description Reference-material archive with content acquisition and reconciliation
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
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close() //nolint:errcheck

	store, err := storage.NewS3Store(context.Background(), cfg.S3, logr)
	if err != nil {
		logr.Sugar().Fatalw("failed to init object store", "error", err)
	}

	fetcher := snapshot.NewCLIFetcher(cfg.Snapshot, logr)
	validate := validator.New()

	archiveRepo := repository.NewArchiveRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	pendingRepo := repository.NewPendingRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Archives.CacheTTL, logr, true)
	tokenSvc := service.NewTokenService(cfg.JWT)
	resolver := service.NewAcquisitionResolver(store, fetcher, pendingRepo, cfg.Archives.StorageDir, metricsSvc, logr)
	archiveSvc := service.NewArchiveService(archiveRepo, commentRepo, resolver, cacheSvc, store, cfg.Archives.StorageDir, cfg.Archives.CacheTTL, validate, logr)
	commentSvc := service.NewCommentService(commentRepo, archiveRepo, cacheSvc, validate, logr)
	pendingSvc := service.NewPendingService(pendingRepo, logr)

	archiveHandler := handler.NewArchiveHandler(archiveSvc, cfg.Archives.MaxFileSizeBytes)
	commentHandler := handler.NewCommentHandler(commentSvc)
	pendingHandler := handler.NewPendingHandler(pendingSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	api := r.Group(cfg.APIPrefix)
	{
		archives := api.Group("/archives")
		{
			archives.GET("", archiveHandler.List)
			archives.GET("/chapters", archiveHandler.Chapters)
			archives.GET("/content/:filename", archiveHandler.Content)
			archives.GET("/:id", archiveHandler.Get)
			archives.GET("/:id/comments", commentHandler.List)
			archives.POST("/:id/like", archiveHandler.Like)
			archives.POST("/:id/comments", commentHandler.Create)
			archives.PUT("/comments/:commentId", commentHandler.Update)
			archives.DELETE("/comments/:commentId", commentHandler.Delete)

			authed := archives.Group("", middleware.JWT(tokenSvc))
			{
				authed.POST("", archiveHandler.Create)
				authed.POST("/:id", archiveHandler.Update)
				authed.DELETE("/:id", archiveHandler.Delete)
			}
		}

		tribute := api.Group("/tribute", middleware.JWT(tokenSvc))
		{
			tribute.GET("/pending-origs", pendingHandler.List)
		}
	}

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
