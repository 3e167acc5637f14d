package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/edulearn-id/lms-api/api/swagger"
	"github.com/edulearn-id/lms-api/internal/handler"
	"github.com/edulearn-id/lms-api/internal/middleware"
	"github.com/edulearn-id/lms-api/internal/repository"
	"github.com/edulearn-id/lms-api/internal/service"
	"github.com/edulearn-id/lms-api/pkg/cache"
	"github.com/edulearn-id/lms-api/pkg/config"
	"github.com/edulearn-id/lms-api/pkg/database"
	"github.com/edulearn-id/lms-api/pkg/jobs"
	"github.com/edulearn-id/lms-api/pkg/logger"
	corsmiddleware "github.com/edulearn-id/lms-api/pkg/middleware/cors"
	reqidmiddleware "github.com/edulearn-id/lms-api/pkg/middleware/requestid"
)

// @title EduLearn LMS API
// @version 0.1.0
// @description Grade and progress computation engine
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

	// Redis backs the summary store and report cache. The API still serves
	// with it down: recalculation falls back to the enrollment cache column
	// and reports recompute on every read.
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, summary store degraded", "error", err)
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	validate := validator.New()

	courseRepo := repository.NewCourseRepository(db)
	gradeItemRepo := repository.NewGradeItemRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	studentGradeRepo := repository.NewStudentGradeRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	summaryRepo := repository.NewGradeSummaryRepository(redisClient, cfg.Grading.SummaryTTL)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Grading.ReportCacheTTL, logr, redisClient != nil)
	authSvc := service.NewAuthService(cfg.JWT.Secret, logr)

	catalogSvc := service.NewCatalogService(gradeItemRepo, logr)
	courseSvc := service.NewCourseService(courseRepo, catalogSvc, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, courseRepo, gradeItemRepo, studentGradeRepo, validate, logr)
	recalcSvc := service.NewRecalcService(courseRepo, enrollmentRepo, studentGradeRepo, attendanceRepo, summaryRepo, cacheSvc, metricsSvc, logr)
	submissionSvc := service.NewSubmissionService(gradeItemRepo, enrollmentRepo, studentGradeRepo, recalcSvc, validate, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, enrollmentRepo, recalcSvc, validate, logr)
	transcriptSvc := service.NewTranscriptService(enrollmentRepo, courseRepo, studentGradeRepo, attendanceRepo, cacheSvc, cfg.Grading.ReportCacheTTL, cfg.Exports, logr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	recalcSvc.StartQueue(ctx, jobs.QueueConfig{
		Workers:    cfg.Grading.RecalcConcurrency,
		MaxRetries: cfg.Grading.RecalcRetries,
		RetryDelay: cfg.Grading.RecalcRetryDelay,
		Logger:     logr,
	})
	defer recalcSvc.StopQueue()

	courseHandler := handler.NewCourseHandler(courseSvc, catalogSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc)
	submissionHandler := handler.NewSubmissionHandler(submissionSvc)
	gradeHandler := handler.NewGradeHandler(recalcSvc)
	transcriptHandler := handler.NewTranscriptHandler(transcriptSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, map[string]handler.Pinger{
		"database": func() error { return db.Ping() },
		"redis": func() error {
			if redisClient == nil {
				return fmt.Errorf("not configured")
			}
			pingCtx, pingCancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer pingCancel()
			return redisClient.Ping(pingCtx).Err()
		},
	})

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
	r.GET("/metrics/snapshot", metricsHandler.Snapshot)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	authed := api.Group("", middleware.JWT(authSvc))

	authed.POST("/courses", courseHandler.Create)
	api.GET("/courses", courseHandler.List)
	api.GET("/courses/:id", courseHandler.Get)
	api.GET("/courses/:id/items", courseHandler.Catalog)

	authed.POST("/enrollments", enrollmentHandler.Initialize)
	api.GET("/enrollments/:id/grades", enrollmentHandler.Grades)
	authed.DELETE("/enrollments/:id", enrollmentHandler.Drop)

	authed.POST("/submissions", submissionHandler.Submit)
	authed.POST("/submissions/grade", submissionHandler.Grade)

	api.GET("/grades/summary", gradeHandler.Summary)
	authed.POST("/grades/recalculate", gradeHandler.Recalculate)
	authed.POST("/grades/recalculate/enrollment", gradeHandler.RecalculateEnrollment)

	authed.POST("/attendance", attendanceHandler.Record)
	api.GET("/attendance", attendanceHandler.List)
	api.GET("/attendance/summary", attendanceHandler.Summary)

	authed.GET("/students/:id/courses/:courseId/report", transcriptHandler.CourseReport)
	authed.GET("/students/:id/transcript", transcriptHandler.Transcript)
	authed.GET("/students/:id/transcript/export", transcriptHandler.Export)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
