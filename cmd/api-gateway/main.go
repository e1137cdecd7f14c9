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

	_ "github.com/mahfuz-dev/edupanel-api/api/swagger"
	"github.com/mahfuz-dev/edupanel-api/internal/handler"
	"github.com/mahfuz-dev/edupanel-api/internal/identity"
	"github.com/mahfuz-dev/edupanel-api/internal/middleware"
	"github.com/mahfuz-dev/edupanel-api/internal/models"
	"github.com/mahfuz-dev/edupanel-api/internal/repository"
	"github.com/mahfuz-dev/edupanel-api/internal/service"
	"github.com/mahfuz-dev/edupanel-api/pkg/cache"
	"github.com/mahfuz-dev/edupanel-api/pkg/config"
	"github.com/mahfuz-dev/edupanel-api/pkg/database"
	"github.com/mahfuz-dev/edupanel-api/pkg/logger"
	corsmiddleware "github.com/mahfuz-dev/edupanel-api/pkg/middleware/cors"
	reqidmiddleware "github.com/mahfuz-dev/edupanel-api/pkg/middleware/requestid"
)

// @title EduPanel API
// @version 1.0.0
// @description School administration backend with registration approval workflow
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
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db, cfg.Database.Name); err != nil {
			logr.Sugar().Fatalw("migration failed", "error", err)
		}
	}

	// Redis is optional; without it the dashboard cache and realtime stream
	// degrade to pass-through mode.
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, continuing without cache", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	registrationRepo := repository.NewRegistrationRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	classRepo := repository.NewClassRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	idp := identity.NewLocalProvider(userRepo, logr)

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, redisClient != nil)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})

	registrationSvc := service.NewRegistrationService(registrationRepo, profileRepo, idp, validate, logr, metricsSvc, service.RegistrationConfig{
		PasswordLength: cfg.Registration.PasswordLength,
	})

	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Students:   studentRepo,
		Teachers:   teacherRepo,
		Classes:    classRepo,
		Pending:    registrationRepo,
		Attendance: attendanceRepo,
		Cache:      cacheSvc,
		Logger:     logr,
		Config:     service.DashboardServiceConfig{CacheTTL: cfg.Dashboard.CacheTTL},
	})

	studentSvc := service.NewStudentService(studentRepo, validate, logr)
	teacherSvc := service.NewTeacherService(teacherRepo, validate, logr)
	classSvc := service.NewClassService(classRepo, validate, logr)
	profileSvc := service.NewProfileService(profileRepo, userRepo, validate, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, dashboardSvc, validate, logr)
	reportSvc := service.NewReportService(attendanceRepo, logr, service.ReportServiceConfig{
		MaxRangeDays: cfg.Reports.MaxRangeDays,
	})

	notificationSvc := service.NewNotificationService(notificationRepo, profileRepo, cacheRepo, validate, logr, service.NotificationServiceConfig{
		WorkerConcurrency: cfg.Notifications.WorkerConcurrency,
		WorkerRetries:     cfg.Notifications.WorkerRetries,
		QueueBuffer:       cfg.Notifications.QueueBuffer,
		RealtimeEnabled:   cfg.Notifications.RealtimeEnabled && redisClient != nil,
		ChannelPrefix:     cfg.Notifications.ChannelPrefix,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	notificationSvc.Start(ctx)
	defer notificationSvc.Stop()

	authHandler := handler.NewAuthHandler(authSvc)
	registrationHandler := handler.NewRegistrationHandler(registrationSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	teacherHandler := handler.NewTeacherHandler(teacherSvc)
	classHandler := handler.NewClassHandler(classSvc)
	profileHandler := handler.NewProfileHandler(profileSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc, cacheRepo, logr)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

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

	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)

	if cfg.Registration.Enabled {
		api.POST("/registrations", registrationHandler.Submit)
	}

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))
	{
		authed.GET("/auth/me", authHandler.Me)
		authed.POST("/auth/logout", authHandler.Logout)
		authed.POST("/auth/change-password", authHandler.ChangePassword)

		authed.GET("/profiles/:id", middleware.RBAC(string(models.RoleAdmin), "SELF"), profileHandler.Get)

		authed.GET("/notifications", notificationHandler.List)
		authed.PUT("/notifications/:id/read", notificationHandler.MarkRead)
		authed.PUT("/notifications/read-all", notificationHandler.MarkAllRead)
		if cfg.Notifications.RealtimeEnabled && redisClient != nil {
			authed.GET("/notifications/stream", notificationHandler.Stream)
		}

		staff := authed.Group("")
		staff.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher))
		{
			staff.GET("/students", studentHandler.List)
			staff.GET("/students/:id", studentHandler.Get)
			staff.GET("/attendance", attendanceHandler.List)
			staff.GET("/attendance/students/:id/summary", attendanceHandler.Summary)
			staff.POST("/attendance", attendanceHandler.Mark)
			staff.POST("/attendance/bulk", attendanceHandler.MarkBulk)
			staff.GET("/classes", classHandler.ListClasses)
			staff.GET("/subjects", classHandler.ListSubjects)
		}

		admin := authed.Group("")
		admin.Use(middleware.RequireRoles(models.RoleAdmin))
		{
			admin.GET("/registrations", registrationHandler.List)
			admin.POST("/registrations/:id/approve", registrationHandler.Approve)
			admin.POST("/registrations/:id/reject", registrationHandler.Reject)

			admin.POST("/students", studentHandler.Create)
			admin.PUT("/students/:id", studentHandler.Update)
			admin.DELETE("/students/:id", studentHandler.Delete)

			admin.GET("/teachers", teacherHandler.List)
			admin.GET("/teachers/:id", teacherHandler.Get)
			admin.POST("/teachers", teacherHandler.Create)
			admin.PUT("/teachers/:id", teacherHandler.Update)
			admin.DELETE("/teachers/:id", teacherHandler.Delete)

			admin.POST("/classes", classHandler.CreateClass)
			admin.DELETE("/classes/:id", classHandler.DeleteClass)
			admin.POST("/subjects", classHandler.CreateSubject)
			admin.DELETE("/subjects/:id", classHandler.DeleteSubject)

			admin.GET("/profiles", profileHandler.List)
			admin.PUT("/profiles/:id", profileHandler.Update)
			admin.DELETE("/profiles/:id", profileHandler.Delete)

			if cfg.Notifications.Enabled {
				admin.POST("/notifications", notificationHandler.Send)
			}
			if cfg.Dashboard.Enabled {
				admin.GET("/dashboard/stats", dashboardHandler.Stats)
			}
			if cfg.Reports.Enabled {
				admin.GET("/reports/attendance", reportHandler.Attendance)
			}
			admin.GET("/metrics/snapshot", metricsHandler.Snapshot)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}

	if redisClient != nil {
		_ = redisClient.Close()
	}
}
