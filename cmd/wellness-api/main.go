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
	"go.uber.org/zap"

	"github.com/campuswell/wellness-api/internal/handler"
	"github.com/campuswell/wellness-api/internal/middleware"
	"github.com/campuswell/wellness-api/internal/models"
	"github.com/campuswell/wellness-api/internal/repository"
	"github.com/campuswell/wellness-api/internal/service"
	"github.com/campuswell/wellness-api/pkg/cache"
	"github.com/campuswell/wellness-api/pkg/config"
	"github.com/campuswell/wellness-api/pkg/database"
	"github.com/campuswell/wellness-api/pkg/logger"
	corsmiddleware "github.com/campuswell/wellness-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campuswell/wellness-api/pkg/middleware/requestid"
)

// @title Campus Wellness API
// @version 1.0.0
// @description Role-based student wellness management: mood tracking, counseling recommendations and appointment booking
// @BasePath /api
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
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// The dashboard cache degrades to direct queries without Redis.
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		redisClient = nil
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	moodRepo := repository.NewMoodRepository(db)
	recommendationRepo := repository.NewRecommendationRepository(db)
	appointmentRepo := repository.NewAppointmentRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, cfg.JWT, validate, logr)
	userSvc := service.NewUserService(userRepo, courseRepo, moodRepo, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, validate, logr)
	moodSvc := service.NewMoodService(moodRepo, cfg.Wellness, validate, logr)
	recommendationSvc := service.NewRecommendationService(recommendationRepo, courseRepo, userRepo, validate, logr)
	appointmentSvc := service.NewAppointmentService(appointmentRepo, userRepo, cfg.Wellness, validate, logr)
	statsSvc := service.NewStatsService(userRepo, moodRepo, appointmentRepo, cacheRepo, cfg.Stats.CacheTTL, logr)
	reportSvc := service.NewReportService(moodRepo, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	courseHandler := handler.NewCourseHandler(courseSvc)
	moodHandler := handler.NewMoodHandler(moodSvc, metricsSvc)
	recommendationHandler := handler.NewRecommendationHandler(recommendationSvc)
	appointmentHandler := handler.NewAppointmentHandler(appointmentSvc, metricsSvc)
	statsHandler := handler.NewStatsHandler(statsSvc, reportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

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
	r.GET("/metrics", metricsHandler.Prometheus)

	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/register", authHandler.Register)

	authed := api.Group("", middleware.JWT(authSvc))
	{
		authed.GET("/auth/me", authHandler.Me)
		authed.PUT("/auth/me", authHandler.UpdateProfile)
		authed.POST("/auth/change-password", authHandler.ChangePassword)
	}

	student := api.Group("/student", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleStudent))
	{
		student.POST("/mood", moodHandler.Create)
		student.GET("/mood", moodHandler.List)
		student.GET("/mood/today", moodHandler.Today)
		student.PUT("/mood/:id", moodHandler.Update)
		student.DELETE("/mood/:id", moodHandler.Delete)

		student.GET("/recommendations", recommendationHandler.ListForStudent)
		student.GET("/recommendations/:id", recommendationHandler.Detail)

		student.POST("/appointments", appointmentHandler.Create)
		student.GET("/appointments", appointmentHandler.ListForStudent)
		student.PUT("/appointments/:id/respond", appointmentHandler.Respond)

		student.GET("/available-slots", appointmentHandler.AvailableSlots)
	}

	faculty := api.Group("/faculty", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleFaculty))
	{
		faculty.GET("/courses", courseHandler.FacultyCourses)
		faculty.GET("/students", courseHandler.FacultyStudents)
		faculty.GET("/mood-analytics", moodHandler.CourseAnalytics)
		faculty.GET("/vulnerable-students", moodHandler.VulnerableStudents)
		faculty.POST("/recommendations", recommendationHandler.Create)
		faculty.GET("/recommendations", recommendationHandler.ListForFaculty)
		faculty.GET("/recommendations/:id", recommendationHandler.Detail)
	}

	consultant := api.Group("/consultant", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleConsultant))
	{
		consultant.GET("/recommendations", recommendationHandler.ListForConsultant)
		consultant.GET("/recommendations/:id", recommendationHandler.Detail)
		consultant.PUT("/recommendations/:id/status", recommendationHandler.UpdateStatus)

		consultant.POST("/schedule-appointment", appointmentHandler.Schedule)
		consultant.GET("/appointments", appointmentHandler.ListForConsultant)
		consultant.PUT("/appointments/:id", appointmentHandler.Update)

		consultant.GET("/available-slots", appointmentHandler.AvailableSlots)
	}

	admin := api.Group("/admin", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin))
	{
		admin.POST("/faculty", userHandler.AddFaculty)
		admin.POST("/consultants", userHandler.AddConsultant)
		admin.GET("/users", userHandler.List)
		admin.GET("/users/:id", userHandler.Detail)
		admin.PUT("/users/:id/status", userHandler.UpdateStatus)
		admin.DELETE("/users/:id", userHandler.Delete)

		admin.GET("/courses", courseHandler.List)
		admin.POST("/courses", courseHandler.Create)
		admin.PUT("/courses/:id", courseHandler.Update)
		admin.DELETE("/courses/:id", courseHandler.Delete)
		admin.GET("/courses/:id/students", courseHandler.Students)

		admin.GET("/appointments", appointmentHandler.ListAll)
		admin.POST("/appointments", appointmentHandler.AdminCreate)
		admin.PUT("/appointments/:id/status", appointmentHandler.AdminUpdateStatus)
		admin.DELETE("/appointments/:id", appointmentHandler.Delete)
		admin.GET("/available-slots", appointmentHandler.AvailableSlots)
		admin.PUT("/recommendations/:id/status", recommendationHandler.UpdateStatus)

		admin.GET("/stats/dashboard", statsHandler.Dashboard)
		admin.GET("/stats/appointments", statsHandler.AppointmentStats)
		admin.GET("/reports/mood", statsHandler.MoodReport)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
