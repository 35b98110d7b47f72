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

	_ "github.com/tikrar-dev/tikrar-api/api/swagger"
	"github.com/tikrar-dev/tikrar-api/internal/handler"
	"github.com/tikrar-dev/tikrar-api/internal/middleware"
	"github.com/tikrar-dev/tikrar-api/internal/models"
	"github.com/tikrar-dev/tikrar-api/internal/repository"
	"github.com/tikrar-dev/tikrar-api/internal/service"
	"github.com/tikrar-dev/tikrar-api/pkg/cache"
	"github.com/tikrar-dev/tikrar-api/pkg/config"
	"github.com/tikrar-dev/tikrar-api/pkg/database"
	"github.com/tikrar-dev/tikrar-api/pkg/jobs"
	"github.com/tikrar-dev/tikrar-api/pkg/logger"
	corsmiddleware "github.com/tikrar-dev/tikrar-api/pkg/middleware/cors"
	reqidmiddleware "github.com/tikrar-dev/tikrar-api/pkg/middleware/requestid"
	"github.com/tikrar-dev/tikrar-api/pkg/storage"
)

// @title Tikrar API
// @version 1.0.0
// @description Partner matching and pairing engine for the Tikrar memorization program
// @BasePath /
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

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	pairingRepo := repository.NewPairingRepository(db)
	batchRepo := repository.NewBatchRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Pairing.StatsCacheTTL, logr, true)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "tikrar-api",
		Audience:           []string{"tikrar"},
	})
	statsSvc := service.NewStatisticsService(submissionRepo, cacheSvc, cfg.Pairing.StatsCacheTTL, logr)
	matchSvc := service.NewMatchService(submissionRepo, pairingRepo, logr)
	pairingSvc := service.NewPairingService(
		submissionRepo,
		pairingRepo,
		userRepo,
		statsSvc,
		metricsSvc,
		validate,
		logr,
		service.PairingServiceConfig{BulkMaxPairs: cfg.Pairing.BulkMaxPairs},
	)
	batchSvc := service.NewBatchService(batchRepo, logr)

	exportStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare export storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exportSvc := service.NewExportService(pairingSvc, exportStore, signer, service.ExportServiceConfig{
		APIPrefix:       cfg.APIPrefix,
		ResultTTL:       cfg.Exports.SignedURLTTL,
		CleanupInterval: cfg.Exports.CleanupInterval,
	}, logr)

	auditLogs := jobs.New("audit", func(ctx context.Context, job jobs.Job) error {
		entry, ok := job.Payload.(*models.AuditLog)
		if !ok {
			return nil
		}
		return userRepo.CreateAuditLog(ctx, entry)
	}, jobs.Config{
		Workers:     cfg.Audit.Workers,
		BufferSize:  cfg.Audit.BufferSize,
		MaxAttempts: cfg.Audit.MaxRetries,
		Logger:      logr,
	})

	authHandler := handler.NewAuthHandler(authSvc)
	pairingHandler := handler.NewPairingHandler(pairingSvc, exportSvc)
	matchHandler := handler.NewMatchHandler(matchSvc)
	statsHandler := handler.NewStatisticsHandler(statsSvc)
	batchHandler := handler.NewBatchHandler(batchSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db, redisClient)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
	auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)

	authed := api.Group("", middleware.JWT(authSvc))
	authed.GET("/batches", batchHandler.List)
	authed.GET("/batches/:id", batchHandler.Get)

	if cfg.Pairing.Enabled {
		authed.GET("/pairing/me", pairingHandler.MyPairing)

		admin := api.Group("/admin/pairing", middleware.JWT(authSvc), middleware.AdminOnly())
		admin.GET("/requests", pairingHandler.ListRequests)
		admin.GET("/candidates/:userId", matchHandler.Candidates)
		admin.GET("/statistics", statsHandler.GetStatistics)
		admin.GET("/roster", pairingHandler.ExportRoster)
		admin.GET("/roster/download", pairingHandler.DownloadRoster)
		admin.POST("/approve",
			middleware.Audit(auditLogs, models.AuditActionPairingApprove, "pairing"), pairingHandler.Approve)
		admin.POST("/approve-tarteel",
			middleware.Audit(auditLogs, models.AuditActionPairingApprove, "pairing"), pairingHandler.ApproveCompanion)
		admin.POST("/approve-family",
			middleware.Audit(auditLogs, models.AuditActionPairingApprove, "pairing"), pairingHandler.ApproveCompanion)
		admin.POST("/reject",
			middleware.Audit(auditLogs, models.AuditActionPairingReject, "pairing"), pairingHandler.Reject)
		admin.POST("/create",
			middleware.Audit(auditLogs, models.AuditActionPairingCreate, "pairing"), pairingHandler.Create)
		admin.POST("/change-partner-mode",
			middleware.Audit(auditLogs, models.AuditActionPartnerModeChange, "pairing"), pairingHandler.ChangePartnerMode)
		admin.POST("/bulk",
			middleware.Audit(auditLogs, models.AuditActionPairingBulk, "pairing"), pairingHandler.BulkPair)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	auditLogs.Start(ctx)
	defer auditLogs.Stop()
	go exportSvc.StartCleanup(ctx)

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
	logr.Sugar().Infow("server stopped")
}
