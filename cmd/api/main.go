package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/tutorlink/tutorlink-api/api/swagger"
	"github.com/tutorlink/tutorlink-api/internal/handler"
	"github.com/tutorlink/tutorlink-api/internal/middleware"
	"github.com/tutorlink/tutorlink-api/internal/models"
	"github.com/tutorlink/tutorlink-api/internal/repository"
	"github.com/tutorlink/tutorlink-api/internal/service"
	"github.com/tutorlink/tutorlink-api/pkg/cache"
	"github.com/tutorlink/tutorlink-api/pkg/config"
	"github.com/tutorlink/tutorlink-api/pkg/database"
	"github.com/tutorlink/tutorlink-api/pkg/logger"
	"github.com/tutorlink/tutorlink-api/pkg/migrate"
	corsmiddleware "github.com/tutorlink/tutorlink-api/pkg/middleware/cors"
	reqidmiddleware "github.com/tutorlink/tutorlink-api/pkg/middleware/requestid"
)

// @title Tutorlink API
// @version 0.1.0
// @description Tutoring marketplace booking backend
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
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := migrate.Up(context.Background(), db, cfg.Database.MigrationsDir, logr); err != nil {
			logr.Sugar().Fatalw("failed to run migrations", "error", err)
		}
	}

	metrics := service.NewMetricsService()

	var (
		cacheSvc    *service.CacheService
		redisClient *redis.Client
	)
	if cfg.Slots.CacheEnabled {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, slot caching disabled", "error", err)
		} else {
			defer client.Close()
			redisClient = client
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheSvc = service.NewCacheService(cacheRepo, metrics, cfg.Slots.CacheTTL, logr, true)
		}
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)
	bookingRepo := repository.NewBookingRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	teacherSvc := service.NewTeacherService(teacherRepo, validate, logr)
	availabilitySvc := service.NewAvailabilityService(availabilityRepo, cacheSvc, validate, logr)
	slotSvc := service.NewSlotService(availabilityRepo, bookingRepo, cacheSvc, metrics, logr, cfg.Slots)
	bookingSvc := service.NewBookingService(bookingRepo, availabilityRepo, cacheSvc, validate, logr, cfg.Bookings)

	authHandler := handler.NewAuthHandler(authSvc)
	teacherHandler := handler.NewTeacherHandler(teacherSvc)
	availabilityHandler := handler.NewAvailabilityHandler(availabilitySvc)
	slotHandler := handler.NewSlotHandler(slotSvc, cfg.Slots.DefaultDurationMin, cfg.Slots.DefaultBufferMin)
	bookingHandler := handler.NewBookingHandler(bookingSvc)
	metricsHandler := handler.NewMetricsHandler(metrics)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(middleware.Metrics(metrics))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db unavailable"})
			return
		}
		if redisClient != nil {
			if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "redis unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	api.GET("/teachers", teacherHandler.List)
	api.GET("/teachers/:id", teacherHandler.Get)
	api.GET("/teachers/:id/slots", slotHandler.GetAvailableSlots)
	api.GET("/teachers/:id/availability/weekly", availabilityHandler.GetWeekly)
	api.GET("/teachers/:id/availability/overrides", availabilityHandler.ListOverrides)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))

	adminOnly := string(models.RoleAdmin)
	adminOrSelf := []string{adminOnly, middleware.SelfRole}

	authed.POST("/teachers", middleware.RequireRoles(adminOnly), teacherHandler.Create)
	authed.PUT("/teachers/:id", middleware.RequireRoles(adminOrSelf...), teacherHandler.Update)
	authed.DELETE("/teachers/:id", middleware.RequireRoles(adminOnly), teacherHandler.Deactivate)

	authed.PUT("/teachers/:id/availability/weekly", middleware.RequireRoles(adminOrSelf...), availabilityHandler.SaveWeekly)
	authed.POST("/teachers/:id/availability/overrides", middleware.RequireRoles(adminOrSelf...), availabilityHandler.UpsertOverride)
	authed.DELETE("/teachers/:id/availability/overrides/:date", middleware.RequireRoles(adminOrSelf...), availabilityHandler.DeleteOverride)

	authed.GET("/bookings", bookingHandler.List)
	authed.GET("/bookings/:id", bookingHandler.Get)
	authed.POST("/bookings", middleware.RequireRoles(string(models.RoleStudent), adminOnly), bookingHandler.Create)
	authed.POST("/bookings/:id/confirm", bookingHandler.Confirm)
	authed.POST("/bookings/:id/cancel", bookingHandler.Cancel)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
