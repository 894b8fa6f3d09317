package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/shiftwise/volunteer-api/api/swagger"
	"github.com/shiftwise/volunteer-api/internal/handler"
	internalmiddleware "github.com/shiftwise/volunteer-api/internal/middleware"
	"github.com/shiftwise/volunteer-api/internal/models"
	"github.com/shiftwise/volunteer-api/internal/notify"
	"github.com/shiftwise/volunteer-api/internal/repository"
	"github.com/shiftwise/volunteer-api/internal/service"
	"github.com/shiftwise/volunteer-api/pkg/cache"
	"github.com/shiftwise/volunteer-api/pkg/config"
	"github.com/shiftwise/volunteer-api/pkg/database"
	"github.com/shiftwise/volunteer-api/pkg/export"
	"github.com/shiftwise/volunteer-api/pkg/logger"
	"github.com/shiftwise/volunteer-api/pkg/mailer"
	corsmiddleware "github.com/shiftwise/volunteer-api/pkg/middleware/cors"
	reqidmiddleware "github.com/shiftwise/volunteer-api/pkg/middleware/requestid"
)

// @title ShiftWise Volunteer API
// @version 1.0.0
// @description Volunteer scheduling, matching and shift coverage service
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, coverage board cache disabled", "error", err)
		redisClient = nil
	}

	var notifier notify.Notifier = notify.Nop{}
	if cfg.Notifications.Enabled {
		queueNotifier := notify.NewQueueNotifier(mailer.NewSMTP(cfg.SMTP), cfg.Notifications, logr)
		queueNotifier.Start(context.Background())
		defer queueNotifier.Stop()
		notifier = queueNotifier
	}

	validate := validator.New()

	volunteerRepo := repository.NewVolunteerRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)
	classRepo := repository.NewClassRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	preferenceRepo := repository.NewClassPreferenceRepository(db)
	shiftRepo := repository.NewShiftRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	absenceRepo := repository.NewAbsenceRequestRepository(db)
	coverageRepo := repository.NewCoverageRequestRepository(db)
	userRepo := repository.NewUserRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret: cfg.JWT.Secret,
		Expiry: cfg.JWT.Expiration,
		Issuer: "volunteer-api",
	})
	volunteerSvc := service.NewVolunteerService(volunteerRepo, availabilityRepo, preferenceRepo, classRepo, validate, logr)
	scheduleSvc := service.NewScheduleService(classRepo, scheduleRepo, shiftRepo, cfg.Matching.DefaultSlots, validate, logr)
	matchingSvc := service.NewMatchingService(volunteerRepo, availabilityRepo, preferenceRepo, scheduleRepo,
		assignmentRepo, shiftRepo, db, notifier, metricsSvc, validate, logr)
	coverageSvc := service.NewCoverageService(absenceRepo, coverageRepo, shiftRepo, volunteerRepo, scheduleRepo,
		classRepo, userRepo, cacheRepo, db, notifier, metricsSvc, validate, logr, cfg.Board.CacheTTL)
	exportSvc := service.NewExportService(shiftRepo, export.NewCSVExporter(), export.NewPDFExporter(), logr)

	authHandler := handler.NewAuthHandler(authSvc)
	volunteerHandler := handler.NewVolunteerHandler(volunteerSvc)
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc)
	matchingHandler := handler.NewMatchingHandler(matchingSvc)
	absenceHandler := handler.NewAbsenceHandler(coverageSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	admin := internalmiddleware.RequireRoles(models.RoleAdmin)
	adminOrSelf := internalmiddleware.RBAC(string(models.RoleAdmin), "SELF")

	secured := api.Group("", internalmiddleware.JWT(authSvc))
	secured.GET("/auth/me", authHandler.Me)
	secured.POST("/auth/register", admin, authHandler.Register)

	secured.GET("/volunteers", admin, volunteerHandler.List)
	secured.POST("/volunteers", admin, volunteerHandler.Create)
	secured.GET("/volunteers/:id", adminOrSelf, volunteerHandler.Get)
	secured.PUT("/volunteers/:id", admin, volunteerHandler.Update)
	secured.GET("/volunteers/:id/availability", adminOrSelf, volunteerHandler.Availability)
	secured.PUT("/volunteers/:id/availability", adminOrSelf, volunteerHandler.ReplaceAvailability)
	secured.GET("/volunteers/:id/preferences", adminOrSelf, volunteerHandler.Preferences)
	secured.PUT("/volunteers/:id/preferences", adminOrSelf, volunteerHandler.UpsertPreference)
	secured.DELETE("/volunteers/:id/preferences/:classId", adminOrSelf, volunteerHandler.DeletePreference)

	secured.GET("/classes", scheduleHandler.ListClasses)
	secured.POST("/classes", admin, scheduleHandler.CreateClass)
	secured.GET("/classes/:id", scheduleHandler.GetClass)
	secured.GET("/schedules", scheduleHandler.ListSchedules)
	secured.POST("/schedules", admin, scheduleHandler.CreateSchedule)
	secured.GET("/schedules/:id", scheduleHandler.GetSchedule)
	secured.DELETE("/schedules/:id", admin, scheduleHandler.DeleteSchedule)
	secured.GET("/shifts", scheduleHandler.ListShifts)
	secured.POST("/shifts/:id/checkin", admin, absenceHandler.CheckIn)

	if cfg.Matching.Enabled {
		secured.POST("/matching/run", admin, matchingHandler.Run)
		secured.GET("/matching/runs/:runId/assignments", admin, matchingHandler.Assignments)
	}

	secured.POST("/absences", absenceHandler.RequestAbsence)
	secured.GET("/absences/:id", absenceHandler.Get)
	secured.DELETE("/absences/:id", absenceHandler.Withdraw)
	secured.POST("/absences/:id/approve", admin, absenceHandler.Approve)
	secured.POST("/absences/:id/reject", admin, absenceHandler.Reject)
	secured.POST("/absences/:id/cover", absenceHandler.RequestCover)
	secured.POST("/absences/:id/cover/approve", admin, absenceHandler.ApproveCover)
	secured.POST("/absences/:id/cover/reject", admin, absenceHandler.RejectCover)
	secured.DELETE("/coverage/:id", absenceHandler.WithdrawCover)
	secured.GET("/coverage/board", absenceHandler.Board)

	if cfg.Exports.Enabled {
		secured.GET("/exports/rota.csv", admin, exportHandler.RotaCSV)
		secured.GET("/exports/rota.pdf", admin, exportHandler.RotaPDF)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
