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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/YousefElmenshawy/University-Course-Registration-Website/api/swagger"
	"github.com/YousefElmenshawy/University-Course-Registration-Website/internal/handler"
	"github.com/YousefElmenshawy/University-Course-Registration-Website/internal/middleware"
	"github.com/YousefElmenshawy/University-Course-Registration-Website/internal/models"
	"github.com/YousefElmenshawy/University-Course-Registration-Website/internal/repository"
	"github.com/YousefElmenshawy/University-Course-Registration-Website/internal/service"
	"github.com/YousefElmenshawy/University-Course-Registration-Website/pkg/cache"
	"github.com/YousefElmenshawy/University-Course-Registration-Website/pkg/config"
	"github.com/YousefElmenshawy/University-Course-Registration-Website/pkg/database"
	"github.com/YousefElmenshawy/University-Course-Registration-Website/pkg/logger"
	corsmiddleware "github.com/YousefElmenshawy/University-Course-Registration-Website/pkg/middleware/cors"
	reqidmiddleware "github.com/YousefElmenshawy/University-Course-Registration-Website/pkg/middleware/requestid"
	"github.com/YousefElmenshawy/University-Course-Registration-Website/pkg/response"
)

// @title University Course Registration API
// @version 1.0.0
// @description Course catalog, enrollment and waitlist management for the registrar.
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, catalog cache disabled", "error", err)
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Repositories.
	studentRepo := repository.NewStudentRepository(db)
	sectionRepo := repository.NewSectionRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(cfg.JWT)

	var reconcileSvc *service.ReconcileService
	if cfg.Reconcile.Enabled {
		reconcileSvc = service.NewReconcileService(studentRepo, sectionRepo, cacheRepo, service.ReconcileConfig{
			Workers:    cfg.Reconcile.Workers,
			MaxRetries: cfg.Reconcile.MaxRetries,
			RetryDelay: cfg.Reconcile.RetryDelay,
		}, logr)
		reconcileSvc.Start(ctx)
		defer reconcileSvc.Stop()
	}

	var reconciler interface {
		EnqueueSection(sectionID, reason string)
	}
	if reconcileSvc != nil {
		reconciler = reconcileSvc
	}

	registrationSvc := service.NewRegistrationService(studentRepo, sectionRepo, cacheRepo, reconciler, metricsSvc, nil, logr)
	admissionSvc := service.NewAdmissionService(studentRepo, sectionRepo, cacheRepo, reconciler, metricsSvc, logr)
	catalogSvc := service.NewCatalogService(sectionRepo, cacheRepo, metricsSvc, nil, logr, cfg.Catalog.CacheTTL)
	scheduleSvc := service.NewScheduleService(studentRepo, sectionRepo, logr)
	studentSvc := service.NewStudentService(studentRepo, sectionRepo, logr)

	// Handlers.
	registrationHandler := handler.NewRegistrationHandler(registrationSvc)
	admissionHandler := handler.NewAdmissionHandler(admissionSvc)
	catalogHandler := handler.NewCatalogHandler(catalogSvc)
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)

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
		if err := db.PingContext(c.Request.Context()); err != nil {
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

	// Public catalog.
	api.GET("/sections", catalogHandler.List)
	api.GET("/sections/:id", catalogHandler.Get)

	// Student-facing routes.
	authed := api.Group("", middleware.JWT(authSvc))
	authed.POST("/registrations", registrationHandler.Register)
	authed.DELETE("/registrations/:id", registrationHandler.Drop)
	authed.POST("/waitlists", registrationHandler.Waitlist)
	authed.DELETE("/waitlists/:id", registrationHandler.RemoveFromWaitlist)
	authed.GET("/students/me", studentHandler.Me)
	authed.GET("/students/:id", middleware.RBAC("SELF", string(models.RoleAdmin), string(models.RoleProfessor)), studentHandler.Get)
	authed.GET("/schedule", scheduleHandler.Week)
	if cfg.Exports.Enabled {
		authed.GET("/schedule/export", scheduleHandler.Export)
	}

	// Administrative surface.
	admin := api.Group("/admin", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin))
	admin.GET("/students", studentHandler.List)
	admin.POST("/sections", catalogHandler.Create)
	admin.PUT("/sections/:id", catalogHandler.Update)
	admin.DELETE("/sections/:id", catalogHandler.Delete)
	admin.GET("/sections/:id/waitlist", admissionHandler.ListWaitlist)
	admin.POST("/sections/:id/admissions", admissionHandler.Admit)
	if reconcileSvc != nil {
		admin.POST("/sections/:id/reconcile", func(c *gin.Context) {
			if err := reconcileSvc.Reconcile(c.Request.Context(), c.Param("id")); err != nil {
				response.Error(c, err)
				return
			}
			response.JSON(c, http.StatusOK, gin.H{"message": "reconciled", "section_id": c.Param("id")}, nil)
		})
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
