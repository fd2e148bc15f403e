package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/roster-booking-api/api/swagger"
	"github.com/noah-isme/roster-booking-api/internal/handler"
	"github.com/noah-isme/roster-booking-api/internal/middleware"
	"github.com/noah-isme/roster-booking-api/internal/models"
	"github.com/noah-isme/roster-booking-api/internal/repository"
	"github.com/noah-isme/roster-booking-api/internal/service"
	"github.com/noah-isme/roster-booking-api/pkg/cache"
	"github.com/noah-isme/roster-booking-api/pkg/config"
	"github.com/noah-isme/roster-booking-api/pkg/database"
	"github.com/noah-isme/roster-booking-api/pkg/export"
	"github.com/noah-isme/roster-booking-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/roster-booking-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/roster-booking-api/pkg/middleware/requestid"
)

// @title Roster Booking API
// @version 1.0.0
// @description Lesson scheduling, attendance and activity booking service
// @BasePath /api/v1
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, schedule cache disabled", zap.Error(err))
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var metricsSvc *service.MetricsService
	if cfg.Metrics.Enabled {
		metricsSvc = service.NewMetricsService()
	}
	validate := validator.New()
	loc := cfg.Location()

	lessonRepo := repository.NewLessonRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	bookingRepo := repository.NewBookingRepository(db, cfg.Booking.LockTimeout)
	participantRepo := repository.NewParticipantRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Schedule.CacheTTL, logr, cfg.Schedule.CacheEnabled && redisClient != nil)
	lessonSvc := service.NewLessonService(lessonRepo, cacheSvc, metricsSvc, cfg.Lessons.MaxOccurrences, loc, validate, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, lessonRepo, cacheSvc, metricsSvc, validate, logr)
	scheduleSvc := service.NewScheduleService(scheduleRepo, cacheSvc, cfg.Schedule.CacheTTL, export.NewExporter(), loc, logr)
	activitySvc := service.NewActivityService(activityRepo, validate, logr)
	bookingSvc := service.NewBookingService(bookingRepo, activityRepo, participantRepo, service.BookingRules{
		MaxParticipantAge: cfg.Booking.MaxParticipantAge,
		EnforceCapacity:   cfg.Booking.EnforceCapacity,
		Location:          loc,
	}, metricsSvc, validate, logr)
	participantSvc := service.NewParticipantService(participantRepo, cacheSvc, logr)
	tokenSvc := service.NewTokenService(cfg.JWT.Secret)

	lessonHandler := handler.NewLessonHandler(lessonSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc)
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc, participantSvc)
	activityHandler := handler.NewActivityHandler(activitySvc, bookingSvc)
	participantHandler := handler.NewParticipantHandler(participantSvc)
	var scrape http.Handler
	if metricsSvc != nil {
		scrape = metricsSvc.Handler()
	}
	metricsHandler := handler.NewMetricsHandler(scrape, db)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc, cfg.Metrics.Path))

	r.GET("/health", metricsHandler.Health)
	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, metricsHandler.Prometheus)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(tokenSvc))

	api.POST("/lessons", staff, lessonHandler.Create)
	api.GET("/lessons/:id", staff, lessonHandler.Get)
	api.DELETE("/lessons/:id", staff, lessonHandler.Delete)
	api.PUT("/lessons/:id/attendance", staff, attendanceHandler.Mark)
	api.GET("/lessons/:id/attendance", staff, attendanceHandler.List)
	api.GET("/lesson-series/:groupId", staff, lessonHandler.ListSeries)
	api.DELETE("/lesson-series/:groupId", staff, lessonHandler.DeleteSeries)

	api.GET("/owners/:id/schedule", staff, scheduleHandler.Owner)
	api.GET("/owners/:id/schedule/export", staff, scheduleHandler.Export)
	api.GET("/participants/:id/schedule",
		middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher, models.RoleManager, models.RoleStudent),
		scheduleHandler.Participant)
	api.DELETE("/participants/:id", adminOnly, participantHandler.Remove)

	api.POST("/activities", adminOnly, activityHandler.Create)
	api.DELETE("/activities/:id", adminOnly, activityHandler.Delete)
	api.GET("/activities/:id/eligible", adminOnly, activityHandler.Eligible)
	api.GET("/activities/:id/bookings", adminOnly, activityHandler.Booked)
	api.POST("/activities/:id/bookings", adminOnly, activityHandler.Book)
	api.DELETE("/bookings/:id", adminOnly, activityHandler.Cancel)
	api.GET("/me/activities", middleware.RequireRoles(models.RoleManager, models.RoleTeacher), activityHandler.Mine)

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
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
