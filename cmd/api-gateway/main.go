package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/oncall-roster-api/api/swagger"
	"github.com/noah-isme/oncall-roster-api/internal/handler"
	"github.com/noah-isme/oncall-roster-api/internal/middleware"
	"github.com/noah-isme/oncall-roster-api/internal/repository"
	"github.com/noah-isme/oncall-roster-api/internal/service"
	"github.com/noah-isme/oncall-roster-api/pkg/cache"
	"github.com/noah-isme/oncall-roster-api/pkg/config"
	"github.com/noah-isme/oncall-roster-api/pkg/database"
	"github.com/noah-isme/oncall-roster-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/oncall-roster-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/oncall-roster-api/pkg/middleware/requestid"
)

// @title On-Call Roster API
// @version 1.0.0
// @description Monthly on-call duty roster solver for hospital departments
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	metricsSvc := service.NewMetricsService()
	validate := validator.New()

	// The solve cache is an optimization; a missing Redis never blocks
	// startup.
	var solveCache service.SolveCacheRepository
	if cfg.Solver.CacheEnabled {
		redisClient, redisErr := cache.NewRedis(cfg.Redis)
		if redisErr != nil {
			logr.Warn("redis unavailable, solve cache disabled", zap.Error(redisErr))
		} else {
			solveCache = repository.NewCacheRepository(redisClient, logr)
		}
	}

	optimizeSvc := service.NewOptimizeService(solveCache, metricsSvc, validate, logr, service.OptimizeServiceConfig{
		TimeBudget:   cfg.Solver.TimeBudget,
		Workers:      cfg.Solver.Workers,
		NodeLimit:    cfg.Solver.NodeLimit,
		CacheEnabled: cfg.Solver.CacheEnabled && solveCache != nil,
		CacheTTL:     cfg.Solver.CacheTTL,
	})

	optimizeHandler := handler.NewOptimizeHandler(optimizeSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	api := r.Group(cfg.APIPrefix)
	api.POST("/optimize/", optimizeHandler.Optimize)

	if cfg.Rosters.PersistenceEnabled {
		db, dbErr := database.NewPostgres(cfg.Database)
		if dbErr != nil {
			logr.Sugar().Fatalw("failed to connect to postgres", "error", dbErr)
		}
		rosterSvc := service.NewRosterService(repository.NewRosterRepository(db), validate, logr)
		rosterHandler := handler.NewRosterHandler(rosterSvc)
		api.POST("/schedule/save/", rosterHandler.Save)
		api.GET("/schedule/:year/:month", rosterHandler.Get)
	}

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env,
		"persistence", cfg.Rosters.PersistenceEnabled, "solve_cache", solveCache != nil)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
