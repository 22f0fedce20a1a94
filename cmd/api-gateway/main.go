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

	_ "github.com/noah-isme/subkeeper-api/api/swagger"
	"github.com/noah-isme/subkeeper-api/internal/handler"
	internalmiddleware "github.com/noah-isme/subkeeper-api/internal/middleware"
	"github.com/noah-isme/subkeeper-api/internal/repository"
	"github.com/noah-isme/subkeeper-api/internal/service"
	"github.com/noah-isme/subkeeper-api/pkg/config"
	"github.com/noah-isme/subkeeper-api/pkg/database"
	"github.com/noah-isme/subkeeper-api/pkg/jobs"
	"github.com/noah-isme/subkeeper-api/pkg/lock"
	"github.com/noah-isme/subkeeper-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/subkeeper-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/subkeeper-api/pkg/middleware/requestid"
)

// @title Subkeeper API
// @version 1.0.0
// @description Semester, subject and assignment tracker with due-soon tracking
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

	if err := run(cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.DueSoon.Location()
	if err != nil {
		return fmt.Errorf("due-soon timezone: %w", err)
	}
	policy, err := service.NewDuePolicy(cfg.DueSoon.Policy, loc)
	if err != nil {
		return fmt.Errorf("due-soon policy: %w", err)
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db.DB); err != nil {
			return err
		}
		logr.Info("database migrations applied")
	}

	var locker *lock.RedisLocker
	if cfg.Sweeper.LockEnabled {
		client, err := lock.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("sweep lock: %w", err)
		}
		defer client.Close()
		locker = lock.NewRedisLocker(client, "subkeeper:lock")
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	semesterRepo := repository.NewSemesterRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)

	userSvc := service.NewUserService(userRepo, semesterRepo, validate, logr)
	authSvc := service.NewAuthService(userSvc, service.NewJWTIdentityVerifier(service.IdentityConfig{
		Secret:   cfg.Identity.Secret,
		Audience: cfg.Identity.Audience,
		Issuer:   cfg.Identity.Issuer,
	}), validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	semesterSvc := service.NewSemesterService(semesterRepo, validate, logr)
	subjectSvc := service.NewSubjectService(subjectRepo, semesterRepo, validate, logr)
	assignmentSvc := service.NewAssignmentService(service.AssignmentServiceParams{
		Repo:      assignmentRepo,
		Subjects:  subjectRepo,
		Policy:    policy,
		Metrics:   metrics,
		Validator: validate,
		Logger:    logr,
	})
	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Users:       userRepo,
		Semesters:   semesterRepo,
		Subjects:    subjectRepo,
		Assignments: assignmentRepo,
		Policy:      policy,
		Logger:      logr,
	})

	sweepParams := service.SweepServiceParams{
		Repo:    assignmentRepo,
		Policy:  policy,
		LockTTL: cfg.Sweeper.LockTTL,
		Metrics: metrics,
		Logger:  logr,
	}
	if locker != nil {
		sweepParams.Locker = locker
	}
	sweepSvc := service.NewSweepService(sweepParams)

	queue := jobs.NewQueue("due-soon-sweeps", sweepSvc.HandleJob, jobs.QueueConfig{
		Workers:    1,
		BufferSize: 1,
		MaxRetries: 0,
		Timeout:    cfg.Sweeper.Timeout,
		Logger:     logr,
	})
	queue.Start(ctx)
	defer queue.Stop()
	dispatcher := service.NewSweepDispatcher(queue, logr)

	if cfg.Sweeper.Enabled {
		scheduler := service.NewSchedulerService(loc, logr)
		if _, err := scheduler.ScheduleDaily(cfg.Sweeper.Schedule, func() {
			if _, err := dispatcher.Dispatch("cron"); err != nil {
				logr.Warn("scheduled due-soon sweep not enqueued", zap.Error(err))
			}
		}); err != nil {
			return err
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	dashboardHandler := handler.NewDashboardHandler(dashboardSvc, nil)
	if cfg.Export.Enabled {
		dashboardHandler = handler.NewDashboardHandler(dashboardSvc, service.NewExportService(dashboardSvc, loc, logr))
	}
	metricsHandler := handler.NewMetricsHandler(metrics.Handler(), db)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(corsmiddleware.DefaultOptions(cfg.CORS.AllowedOrigins)))
	r.Use(internalmiddleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r.Group(cfg.APIPrefix), handler.Handlers{
		Auth:        handler.NewAuthHandler(authSvc),
		Users:       handler.NewUserHandler(userSvc),
		Semesters:   handler.NewSemesterHandler(semesterSvc),
		Subjects:    handler.NewSubjectHandler(subjectSvc),
		Assignments: handler.NewAssignmentHandler(assignmentSvc),
		Dashboard:   dashboardHandler,
		Sweeps:      handler.NewSweepHandler(dispatcher, cfg.Sweeper.OperatorIDs),
	}, internalmiddleware.JWT(authSvc))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env),
			zap.String("due_policy", policy.Name()), zap.Bool("sweeper", cfg.Sweeper.Enabled))
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
