package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/HieuTrannn/fibo-academic-api/api/swagger"
	"github.com/HieuTrannn/fibo-academic-api/internal/handler"
	internalmiddleware "github.com/HieuTrannn/fibo-academic-api/internal/middleware"
	"github.com/HieuTrannn/fibo-academic-api/internal/models"
	"github.com/HieuTrannn/fibo-academic-api/internal/repository"
	"github.com/HieuTrannn/fibo-academic-api/internal/service"
	"github.com/HieuTrannn/fibo-academic-api/pkg/cache"
	"github.com/HieuTrannn/fibo-academic-api/pkg/config"
	"github.com/HieuTrannn/fibo-academic-api/pkg/database"
	"github.com/HieuTrannn/fibo-academic-api/pkg/logger"
	corsmiddleware "github.com/HieuTrannn/fibo-academic-api/pkg/middleware/cors"
	reqidmiddleware "github.com/HieuTrannn/fibo-academic-api/pkg/middleware/requestid"
	"github.com/HieuTrannn/fibo-academic-api/pkg/storage"
)

// @title Fibo Academic API
// @version 1.0.0
// @description Membership and lifecycle engine for semesters, classes, groups and enrollments
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	var memberCache service.MemberCache
	if cfg.Membership.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, membership cache disabled", "error", err)
		} else {
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			defer cacheRepo.Close() //nolint:errcheck
			memberCache = cacheRepo
		}
	}

	exportStore, err := storage.NewLocalStorage(cfg.Export.Dir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare export storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.JWT.Secret, cfg.Export.DownloadTTL)

	factory := repository.NewFactory(db)
	accounts := repository.NewAccountRepository(db)
	metrics := service.NewMetricsService()

	membershipSvc := service.NewMembershipService(factory, accounts, memberCache, cfg.Membership.CacheTTL, metrics, nil, logr)
	semesterSvc := service.NewSemesterService(factory, nil, logr)
	classSvc := service.NewClassService(factory, accounts, nil, logr)
	groupSvc := service.NewGroupService(factory, nil, logr)
	documentSvc := service.NewDocumentService(factory, nil, logr)
	exportSvc := service.NewExportService(factory, accounts, logr)
	exportJobs := service.NewExportJobService(exportSvc, exportStore, signer, cfg.APIPrefix, logr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	exportJobs.Start(ctx)
	defer exportJobs.Stop()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))
	r.Use(internalmiddleware.WithResponseMeta())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", readyHandler(db))
	r.GET("/metrics", handler.NewMetricsHandler(metrics).Scrape)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	registerRoutes(r, cfg, logr, routeDeps{
		semesters:   handler.NewSemesterHandler(semesterSvc),
		classes:     handler.NewClassHandler(classSvc, membershipSvc),
		groups:      handler.NewGroupHandler(groupSvc, membershipSvc),
		enrollments: handler.NewEnrollmentHandler(membershipSvc),
		documents:   handler.NewDocumentHandler(documentSvc),
		exports:     handler.NewExportHandler(exportSvc, exportJobs),
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)

	srv := &http.Server{Addr: addr, Handler: r}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")
	if err := srv.Shutdown(context.Background()); err != nil {
		logr.Sugar().Errorw("shutdown failed", "error", err)
	}
}

type routeDeps struct {
	semesters   *handler.SemesterHandler
	classes     *handler.ClassHandler
	groups      *handler.GroupHandler
	enrollments *handler.EnrollmentHandler
	documents   *handler.DocumentHandler
	exports     *handler.ExportHandler
}

func registerRoutes(r *gin.Engine, cfg *config.Config, logr *zap.Logger, deps routeDeps) {
	api := r.Group(cfg.APIPrefix)
	api.Use(internalmiddleware.JWT(cfg.JWT))
	api.Use(internalmiddleware.Audit(logr))

	staff := internalmiddleware.RequireRoles(models.RoleAdmin, models.RoleLecturer)
	admin := internalmiddleware.RequireRoles(models.RoleAdmin)

	api.GET("/semesters", deps.semesters.List)
	api.GET("/semesters/:id", deps.semesters.Get)
	api.POST("/semesters", admin, deps.semesters.Create)
	api.PATCH("/semesters/:id/toggle", admin, deps.semesters.ToggleStatus)
	api.DELETE("/semesters/:id", admin, deps.semesters.Delete)

	api.GET("/classes", deps.classes.List)
	api.GET("/classes/:id", deps.classes.Get)
	api.POST("/classes", staff, deps.classes.Create)
	api.PATCH("/classes/:id/toggle", staff, deps.classes.ToggleStatus)
	api.DELETE("/classes/:id", staff, deps.classes.Delete)
	api.PUT("/classes/:id/lecturer", admin, deps.classes.AssignLecturer)
	api.DELETE("/classes/:id/lecturer", admin, deps.classes.UnassignLecturer)
	api.GET("/classes/:id/groups", deps.groups.ListByClass)
	api.GET("/classes/:id/roster", staff, deps.exports.ClassRoster)
	api.POST("/classes/:id/export", staff, deps.exports.RequestClassExport)

	api.GET("/groups/:id", deps.groups.Get)
	api.POST("/groups", staff, deps.groups.Create)
	api.DELETE("/groups/:id", staff, deps.groups.Delete)
	api.GET("/groups/:id/members", deps.groups.Members)
	api.POST("/groups/:id/members", staff, deps.groups.AddMembers)
	api.DELETE("/groups/:id/members", staff, deps.groups.RemoveMembers)
	api.GET("/groups/:id/roster", staff, deps.exports.GroupRoster)
	api.POST("/groups/:id/export", staff, deps.exports.RequestGroupExport)

	api.POST("/enrollments", deps.enrollments.Enroll)

	api.GET("/documents", deps.documents.List)
	api.GET("/documents/:id", deps.documents.Get)
	api.POST("/documents", staff, deps.documents.Create)
	api.PUT("/documents/:id", staff, deps.documents.Update)
	api.DELETE("/documents/:id", staff, deps.documents.Delete)

	api.GET("/exports/:id", staff, deps.exports.GetExport)

	// Download links carry their own signed token, no session required.
	r.GET(cfg.APIPrefix+"/exports/download", deps.exports.Download)
}

func readyHandler(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}
