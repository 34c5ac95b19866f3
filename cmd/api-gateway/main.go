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

	_ "github.com/tanroads/rrs-api/api/swagger"
	"github.com/tanroads/rrs-api/internal/handler"
	"github.com/tanroads/rrs-api/internal/middleware"
	"github.com/tanroads/rrs-api/internal/models"
	"github.com/tanroads/rrs-api/internal/repository"
	"github.com/tanroads/rrs-api/internal/service"
	"github.com/tanroads/rrs-api/pkg/cache"
	"github.com/tanroads/rrs-api/pkg/config"
	"github.com/tanroads/rrs-api/pkg/database"
	"github.com/tanroads/rrs-api/pkg/logger"
	corsmiddleware "github.com/tanroads/rrs-api/pkg/middleware/cors"
	reqidmiddleware "github.com/tanroads/rrs-api/pkg/middleware/requestid"
	"github.com/tanroads/rrs-api/pkg/storage"
)

// @title Road Reclassification System API
// @version 1.0.0
// @description Workflow service for road reclassification applications
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

	metricsService := service.NewMetricsService()

	// Redis is optional: reference-data reads fall through to postgres
	// when the cache is unavailable.
	var cacheRepo service.CacheRepository
	cacheEnabled := false
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
	} else {
		defer redisClient.Close()
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
		cacheEnabled = true
	}
	cacheService := service.NewCacheService(cacheRepo, metricsService, cfg.Reference.CacheTTL, logr, cacheEnabled)

	appRepo := repository.NewApplicationRepository(db)
	userRepo := repository.NewUserRepository(db)
	refRepo := repository.NewReferenceRepository(db)

	validate := validator.New()

	authService := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "rrs-api",
		Audience:           []string{"rrs"},
	})
	userService := service.NewUserService(userRepo, validate, logr)
	applicationService := service.NewApplicationService(appRepo, userRepo, validate, cfg.Workflow, logr)
	applicationService.SetMetrics(metricsService)
	referenceService := service.NewReferenceService(refRepo, cacheService, cfg.Reference, logr)
	exportService := service.NewExportService(applicationService, cfg.Exports, logr)

	if cfg.Exports.Enabled && cfg.Exports.ArchiveDir != "" {
		archive, err := storage.NewArchive(cfg.Exports.ArchiveDir)
		if err != nil {
			logr.Sugar().Warnw("export archive unavailable", "error", err)
		} else {
			exportService.SetArchive(archive, storage.NewDownloadSigner(cfg.JWT.Secret, cfg.Exports.ArchiveTTL))
			go func() {
				if deleted, err := archive.Sweep(cfg.Exports.ArchiveTTL); err != nil {
					logr.Sugar().Warnw("export archive sweep failed", "error", err)
				} else if deleted > 0 {
					logr.Sugar().Infow("export archive swept", "deleted", deleted)
				}
			}()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var notificationService *service.NotificationService
	if cfg.Notifications.Enabled {
		notificationService = service.NewNotificationService(cfg.Notifications, logr)
		notificationService.Start(ctx)
		defer notificationService.Stop()
		applicationService.SetNotifier(notificationService)
	}

	authHandler := handler.NewAuthHandler(authService)
	applicationHandler := handler.NewApplicationHandler(applicationService)
	userHandler := handler.NewUserHandler(userService)
	referenceHandler := handler.NewReferenceHandler(referenceService)
	metricsHandler := handler.NewMetricsHandler(metricsService)
	exportHandler := handler.NewExportHandler(exportService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	registerRoutes(r, cfg, authHandler, applicationHandler, userHandler, referenceHandler, metricsHandler, exportHandler, authService, userRepo)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown error", "error", err)
	}
}

func registerRoutes(
	r *gin.Engine,
	cfg *config.Config,
	auth *handler.AuthHandler,
	apps *handler.ApplicationHandler,
	users *handler.UserHandler,
	refs *handler.ReferenceHandler,
	metrics *handler.MetricsHandler,
	exports *handler.ExportHandler,
	authService *service.AuthService,
	userRepo *repository.UserRepository,
) {
	api := r.Group(cfg.APIPrefix)
	authed := middleware.JWT(authService)

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", auth.Login)
		authGroup.POST("/refresh", auth.Refresh)
		authGroup.POST("/logout", authed, auth.Logout)
		authGroup.POST("/change-password", authed, auth.ChangePassword)
		authGroup.GET("/me", authed, auth.Me)
	}

	appGroup := api.Group("/applications", authed)
	{
		appGroup.GET("", apps.List)
		appGroup.POST("", middleware.RequireApplicant(), apps.Create)
		appGroup.GET("/:id", apps.Get)
		appGroup.PUT("/:id", middleware.RequireApplicant(), apps.Update)
		appGroup.DELETE("/:id", middleware.RequireApplicant(), apps.Delete)
		appGroup.GET("/:id/detail", apps.Detail)
		appGroup.GET("/:id/history", apps.History)

		// Role checks here mirror the transition table; the engine
		// re-validates every action against it.
		appGroup.POST("/:id/submit", middleware.RequireApplicant(), apps.Submit)
		appGroup.POST("/:id/forward-to-minister", middleware.RequireRoles(models.RoleNRCCSecretariat), apps.ForwardToMinister)
		appGroup.POST("/:id/ras-approve", middleware.RequireRoles(models.RoleRAS), apps.RASApprove)
		appGroup.POST("/:id/rc-approve", middleware.RequireRoles(models.RoleRC), apps.RCApprove)
		appGroup.POST("/:id/forward-to-nrcc-chair", middleware.RequireRoles(models.RoleMinister), apps.ForwardToNRCCChair)
		appGroup.POST("/:id/return", middleware.RequireRoles(models.RoleRAS, models.RoleRC, models.RoleMinister, models.RoleNRCCChairperson), apps.ReturnForCorrection)

		appGroup.POST("/:id/verification/assign", middleware.RequireRoles(models.RoleNRCCChairperson), apps.AssignVerification)
		appGroup.POST("/:id/verification/start", middleware.RequireRoles(models.RoleNRCCMember), apps.StartVerification)
		appGroup.POST("/:id/verification/report", middleware.RequireRoles(models.RoleNRCCMember), apps.SubmitVerificationReport)
		appGroup.POST("/:id/recommendation", middleware.RequireRoles(models.RoleNRCCChairperson), apps.SubmitRecommendation)
		appGroup.POST("/:id/decision", middleware.RequireRoles(models.RoleMinister), apps.RecordDecision)

		appGroup.POST("/:id/gazettement/start", middleware.RequireRoles(models.RoleMinistryLawyer), apps.StartGazettement)
		appGroup.POST("/:id/gazettement", middleware.RequireRoles(models.RoleMinistryLawyer), apps.UpdateGazettement)

		appGroup.POST("/:id/appeal", middleware.RequireApplicant(), apps.SubmitAppeal)
		appGroup.POST("/:id/appeal/review", middleware.RequireRoles(models.RoleNRCCSecretariat), apps.ReviewAppeal)
		appGroup.POST("/:id/appeal/decide", middleware.RequireRoles(models.RoleMinister), apps.DecideAppeal)

		if cfg.Exports.Enabled {
			appGroup.GET("/:id/export.pdf", exports.ApplicationPDF)
		}
	}

	if cfg.Reference.Enabled {
		refGroup := api.Group("/references", authed)
		{
			refGroup.GET("/regions", refs.Regions)
			refGroup.GET("/districts", refs.Districts)
			refGroup.GET("/organizations", refs.Organizations)
		}
	}

	if cfg.Exports.Enabled {
		api.GET("/exports/applications.csv", authed, exports.ApplicationsCSV)
		api.GET("/exports/archive/:token", exports.ArchivedDownload)
	}

	adminOnly := middleware.RequireRoles(models.RoleSystemAdministrator)

	userGroup := api.Group("/users", authed, adminOnly)
	{
		userGroup.GET("", users.List)
		userGroup.GET("/:id", users.Get)
		userGroup.POST("", middleware.Audit(userRepo, "USER_CREATE", "users"), users.Create)
		userGroup.PUT("/:id", middleware.Audit(userRepo, "USER_UPDATE", "users"), users.Update)
		userGroup.DELETE("/:id", middleware.Audit(userRepo, "USER_DELETE", "users"), users.Delete)
	}

	adminGroup := api.Group("/admin", authed, adminOnly)
	{
		adminGroup.GET("/metrics", metrics.Snapshot)
		if cfg.Workflow.LegacyImportEnabled {
			adminGroup.POST("/import-legacy", apps.ImportLegacy)
		}
	}
}
