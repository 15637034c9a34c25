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

	_ "github.com/acadsuite/campus-core/api/swagger"
	"github.com/acadsuite/campus-core/internal/handler"
	"github.com/acadsuite/campus-core/internal/middleware"
	"github.com/acadsuite/campus-core/internal/repository"
	"github.com/acadsuite/campus-core/internal/service"
	"github.com/acadsuite/campus-core/pkg/cache"
	"github.com/acadsuite/campus-core/pkg/config"
	"github.com/acadsuite/campus-core/pkg/database"
	"github.com/acadsuite/campus-core/pkg/logger"
	corsmiddleware "github.com/acadsuite/campus-core/pkg/middleware/cors"
	reqidmiddleware "github.com/acadsuite/campus-core/pkg/middleware/requestid"
)

// @title Campus Core API
// @version 0.1.0
// @description Academic records service: enrollment, fees and scheduling
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			// The cache is an optimization; availability falls back to the DB.
			logr.Sugar().Warnw("redis unavailable, availability cache disabled", "error", err)
		} else {
			defer redisClient.Close()
		}
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	sequenceRepo := repository.NewSequenceRepository(db)
	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	facultyRepo := repository.NewFacultyRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	sectionRepo := repository.NewSectionRepository(db, cfg.Sections.MaxActivePerFaculty)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	feeRepo := repository.NewFeeRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient)

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, cfg.Cache.Enabled && redisClient != nil)
	reconcileSvc := service.NewReconcileService(feeRepo, facultyRepo, enrollmentRepo, cfg.Reconcile, metrics, logr)
	codeSvc := service.NewCodeService(sequenceRepo, metrics, logr)
	feeSvc := service.NewFeeService(feeRepo, reconcileSvc, metrics, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, feeSvc, cacheSvc, metrics, validate, logr)
	studentSvc := service.NewStudentService(db, userRepo, studentRepo, codeSvc, validate, logr)
	facultySvc := service.NewFacultyService(db, userRepo, facultyRepo, codeSvc, reconcileSvc, metrics, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, validate, logr)
	sectionSvc := service.NewSectionService(sectionRepo, courseRepo, facultySvc, cacheSvc, metrics, validate, logr, cfg.Sections.DefaultCapacity)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reconcileSvc.Start(ctx)
	defer reconcileSvc.Stop()

	studentHandler := handler.NewStudentHandler(studentSvc)
	facultyHandler := handler.NewFacultyHandler(facultySvc)
	courseHandler := handler.NewCourseHandler(courseSvc)
	sectionHandler := handler.NewSectionHandler(sectionSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc)
	feeHandler := handler.NewFeeHandler(feeSvc)
	metricsHandler := handler.NewMetricsHandler(metrics)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.GET("/students", studentHandler.List)
		api.POST("/students", studentHandler.Create)
		api.GET("/students/code/:code", studentHandler.GetByCode)
		api.GET("/students/:id", studentHandler.Get)
		api.GET("/students/:id/enrollments", enrollmentHandler.ListByStudent)
		api.GET("/students/:id/fees", feeHandler.ListByStudent)

		api.POST("/faculty", facultyHandler.Create)
		api.GET("/faculty/:id", facultyHandler.Get)
		api.POST("/faculty/:id/salary/recompute", facultyHandler.RecomputeSalary)

		api.GET("/courses", courseHandler.List)
		api.POST("/courses", courseHandler.Create)
		api.GET("/courses/:id", courseHandler.Get)

		api.POST("/sections", sectionHandler.Create)
		api.GET("/sections/availability", sectionHandler.Availability)
		api.GET("/sections/:id", sectionHandler.Get)
		api.PATCH("/sections/:id", sectionHandler.Update)

		api.POST("/enrollments", enrollmentHandler.Enroll)
		api.POST("/enrollments/drop", enrollmentHandler.Drop)

		api.POST("/fees/recompute", feeHandler.Recompute)
		api.POST("/fees/:id/pay", feeHandler.MarkPaid)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
