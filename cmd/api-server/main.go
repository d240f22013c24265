package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/ssp-workflow-api/api/swagger"
	"github.com/noah-isme/ssp-workflow-api/internal/gateway"
	"github.com/noah-isme/ssp-workflow-api/internal/handler"
	"github.com/noah-isme/ssp-workflow-api/internal/middleware"
	"github.com/noah-isme/ssp-workflow-api/internal/models"
	"github.com/noah-isme/ssp-workflow-api/internal/notifier"
	"github.com/noah-isme/ssp-workflow-api/internal/repository"
	"github.com/noah-isme/ssp-workflow-api/internal/service"
	"github.com/noah-isme/ssp-workflow-api/pkg/cache"
	"github.com/noah-isme/ssp-workflow-api/pkg/config"
	"github.com/noah-isme/ssp-workflow-api/pkg/database"
	"github.com/noah-isme/ssp-workflow-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/ssp-workflow-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/ssp-workflow-api/pkg/middleware/requestid"
)

// @title SSP Workflow API
// @version 1.0.0
// @description Scholarship application lifecycle and disbursement engine
// @BasePath /api/v1
// @schemes http https

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
	defer db.Close()

	cacheRepo := repository.NewCacheRepository(nil, logr)
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
			cfg.Cache.Enabled = false
		} else {
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
		}
	}
	defer cacheRepo.Close() //nolint:errcheck

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TTL, logr, cfg.Cache.Enabled)
	tokenSvc := service.NewTokenService(cfg.JWT)
	events := notifier.NewLogNotifier(logr)
	dbtGateway := gateway.NewHTTPGateway(cfg.Gateway)

	appRepo := repository.NewApplicationRepository(db)
	decisionRepo := repository.NewDecisionLogRepository(db)
	disbRepo := repository.NewDisbursementRepository(db)

	applicationSvc := service.NewApplicationService(appRepo, decisionRepo, cacheSvc, logr, cfg.Workflow)
	instituteSvc := service.NewInstituteService(appRepo, cacheSvc, metricsSvc, events, logr, cfg.Workflow)
	departmentSvc := service.NewDepartmentService(appRepo, cacheSvc, metricsSvc, events, logr, cfg.Workflow)
	financeSvc := service.NewFinanceService(appRepo, logr)
	disbursementSvc := service.NewDisbursementService(appRepo, disbRepo, dbtGateway, validator.New(), cacheSvc, metricsSvc, events, logr)

	applicationHandler := handler.NewApplicationHandler(applicationSvc, instituteSvc)
	departmentHandler := handler.NewDepartmentHandler(departmentSvc)
	financeHandler := handler.NewFinanceHandler(financeSvc, disbursementSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

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
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(tokenSvc))

	reviewers := middleware.RequireRoles(models.RoleInstituteAdmin, models.RoleDepartmentAdmin, models.RoleFinanceAdmin)
	instituteOnly := middleware.RequireRoles(models.RoleInstituteAdmin)
	departmentOnly := middleware.RequireRoles(models.RoleDepartmentAdmin)
	financeOnly := middleware.RequireRoles(models.RoleFinanceAdmin)

	apps := api.Group("/applications")
	{
		apps.GET("/:id", reviewers, applicationHandler.Get)
		apps.GET("/:id/decisions", reviewers, applicationHandler.ListDecisions)
		apps.POST("/:id/review", instituteOnly, applicationHandler.Review)
		apps.PATCH("/bulk-review", instituteOnly, applicationHandler.BulkReview)
		apps.POST("/:id/department-review", departmentOnly, departmentHandler.Review)
		apps.POST("/forward-to-finance", departmentOnly, departmentHandler.Forward)
		apps.POST("/:id/calculate", financeOnly, financeHandler.Calculate)
		apps.POST("/:id/disbursements", financeOnly, financeHandler.CreateDisbursement)
		apps.GET("/:id/disbursements", financeOnly, financeHandler.GetDisbursement)
	}

	disbursements := api.Group("/disbursements")
	{
		disbursements.POST("/:id/transfer", financeOnly, financeHandler.ExecuteTransfer)
		disbursements.POST("/bulk", financeOnly, financeHandler.BulkDisburse)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
