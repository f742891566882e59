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
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/faculty-timetable-api/api/swagger"
	"github.com/noah-isme/faculty-timetable-api/internal/handler"
	internalmiddleware "github.com/noah-isme/faculty-timetable-api/internal/middleware"
	"github.com/noah-isme/faculty-timetable-api/internal/repository"
	"github.com/noah-isme/faculty-timetable-api/internal/scheduler"
	"github.com/noah-isme/faculty-timetable-api/internal/service"
	"github.com/noah-isme/faculty-timetable-api/pkg/cache"
	"github.com/noah-isme/faculty-timetable-api/pkg/config"
	"github.com/noah-isme/faculty-timetable-api/pkg/database"
	"github.com/noah-isme/faculty-timetable-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/faculty-timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/faculty-timetable-api/pkg/middleware/requestid"
)

// @title Faculty Timetable API
// @version 1.0.0
// @description Generates conflict-free weekly timetables for faculty members and serves faculty and batch views.
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

	if err := run(cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable; read cache, job status and distributed locks are disabled", zap.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	metrics := service.NewMetricsService()
	validate := validator.New()

	facultyRepo := repository.NewFacultyRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	slotRepo := repository.NewTimeSlotRepository(db)
	entryRepo := repository.NewTimetableEntryRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, cfg.Cache.Enabled && redisClient != nil)
	slotSvc := service.NewTimeSlotService(slotRepo, service.SlotGridConfig{
		Enabled:       cfg.Scheduler.SeedDefaultSlots,
		PeriodsPerDay: cfg.Scheduler.PeriodsPerDay,
		DayStart:      cfg.Scheduler.DayStart,
		PeriodLength:  cfg.Scheduler.PeriodLength,
		BreakAfter:    cfg.Scheduler.BreakAfter,
		BreakLengths:  cfg.Scheduler.BreakLengths,
	}, logr)
	if seeded, err := slotSvc.EnsureCatalog(ctx); err != nil {
		logr.Warn("time slot catalog not seeded", zap.Error(err))
	} else if seeded > 0 {
		logr.Info("time slot catalog initialised", zap.Int("slots", seeded))
	}

	rounding, err := scheduler.ParseLabRounding(cfg.Scheduler.LabRounding)
	if err != nil {
		return err
	}
	timetableSvc := service.NewTimetableService(
		facultyRepo,
		assignmentRepo,
		slotSvc,
		entryRepo,
		db,
		newBatchLocker(cfg.Scheduler, redisClient, logr),
		cacheSvc,
		metrics,
		validate,
		logr,
		service.TimetableConfig{
			MaxLabsPerDay: cfg.Scheduler.MaxLabsPerDay,
			LabRounding:   rounding,
			CacheTTL:      cfg.Cache.TTL,
		},
	)

	var regenerationSvc *service.RegenerationService
	if cfg.Scheduler.Enabled && redisClient != nil {
		regenerationSvc = service.NewRegenerationService(timetableSvc, cacheRepo, metrics, validate, logr, service.RegenerationConfig{
			BufferSize: cfg.Jobs.BufferSize,
			MaxRetries: cfg.Jobs.MaxRetries,
			RetryDelay: cfg.Jobs.RetryDelay,
			StatusTTL:  cfg.Jobs.StatusTTL,
		})
		regenerationSvc.Start(ctx)
		defer regenerationSvc.Stop()
	}

	tokenSvc := service.NewTokenService(service.TokenConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer})
	metricsHandler := handler.NewMetricsHandler(metrics, readinessChecks(db, redisClient)...)
	timetableHandler := handler.NewTimetableHandler(timetableSvc, regenerationSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))
	r.Use(internalmiddleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	handler.RegisterTimetableRoutes(api, timetableHandler, internalmiddleware.JWT(tokenSvc))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newBatchLocker(cfg config.SchedulerConfig, client *redis.Client, logr *zap.Logger) service.BatchLocker {
	if cfg.LockBackend == config.LockBackendRedis {
		if client != nil {
			return service.NewRedisBatchLocker(repository.NewLockRepository(client, "timetable:lock:"), service.RedisBatchLockerConfig{
				TTL:  cfg.LockTTL,
				Wait: cfg.LockWait,
			}, logr)
		}
		logr.Warn("redis lock backend requested without redis; falling back to in-process locks")
	}
	return service.NewMemoryBatchLocker(cfg.LockWait)
}

func readinessChecks(db *sqlx.DB, client *redis.Client) []handler.ReadinessCheck {
	checks := []handler.ReadinessCheck{{Name: "postgres", Check: db.PingContext}}
	if client != nil {
		checks = append(checks, handler.ReadinessCheck{Name: "redis", Check: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}})
	}
	return checks
}
