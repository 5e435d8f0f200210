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
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/gradebook-api/api/swagger"
	"github.com/noah-isme/gradebook-api/internal/handler"
	"github.com/noah-isme/gradebook-api/internal/ranking"
	"github.com/noah-isme/gradebook-api/internal/repository"
	"github.com/noah-isme/gradebook-api/internal/service"
	"github.com/noah-isme/gradebook-api/pkg/cache"
	"github.com/noah-isme/gradebook-api/pkg/config"
	"github.com/noah-isme/gradebook-api/pkg/database"
	"github.com/noah-isme/gradebook-api/pkg/jobs"
	"github.com/noah-isme/gradebook-api/pkg/logger"
)

// @title Gradebook API
// @version 1.0.0
// @description Subjects, marks, syllabus progress and ranked standings for teachers
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
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close() //nolint:errcheck

	if err := database.Migrate(ctx, db, logr); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	var redisClient *redis.Client
	if cfg.Standings.CacheEnabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("standings cache disabled, redis unavailable", zap.Error(err))
			redisClient = nil
		}
	}

	deps := wire(cfg, logr, db, redisClient)
	defer deps.cacheRepo.Close() //nolint:errcheck

	deps.refresher.Start(ctx)
	defer deps.refresher.Stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	router := newRouter(cfg, logr, deps.routes)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.Env),
			zap.String("ranking_mode", cfg.Standings.Mode),
			zap.Bool("standings_cache", redisClient != nil))
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
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type dependencies struct {
	cacheRepo *repository.CacheRepository
	refresher *service.StandingsRefresher
	routes    routeHandlers
}

func wire(cfg *config.Config, logr *zap.Logger, db *sqlx.DB, redisClient *redis.Client) dependencies {
	validate := validator.New()
	metrics := service.NewMetricsService()
	mode := ranking.ParseMode(cfg.Standings.Mode)

	teacherRepo := repository.NewTeacherRepository(db)
	classRepo := repository.NewClassRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	entryRepo := repository.NewExamEntryRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Standings.CacheTTL, logr, redisClient != nil)
	authSvc := service.NewAuthService(teacherRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	classSvc := service.NewClassService(classRepo, logr)
	standingsSvc := service.NewStandingsService(subjectRepo, classRepo, studentRepo, progressRepo, cacheSvc, metrics, logr, service.StandingsConfig{
		Mode:     mode,
		CacheTTL: cfg.Standings.CacheTTL,
	})
	refresher := service.NewStandingsRefresher(standingsSvc, metrics, jobs.QueueConfig{
		Workers:    cfg.Standings.RefreshWorkers,
		MaxRetries: cfg.Standings.RefreshRetries,
		Logger:     logr,
	})

	subjectSvc := service.NewSubjectService(subjectRepo, classSvc, refresher, validate, logr)
	studentSvc := service.NewStudentService(subjectRepo, studentRepo, classSvc, refresher, validate, logr)
	markSvc := service.NewMarkService(subjectRepo, studentRepo, entryRepo, refresher, validate, logr)
	progressSvc := service.NewProgressService(subjectRepo, studentRepo, progressRepo, mode, refresher, validate, logr)
	exportSvc := service.NewExportService(standingsSvc, teacherRepo, service.ExportConfig{Title: cfg.Export.Title, Mode: mode}, logr)

	checks := map[string]handler.Pinger{"postgres": db}
	if redisClient != nil {
		checks["redis"] = handler.PingFunc(cacheRepo.Ping)
	}

	return dependencies{
		cacheRepo: cacheRepo,
		refresher: refresher,
		routes: routeHandlers{
			auth:      handler.NewAuthHandler(authSvc),
			classes:   handler.NewClassHandler(classSvc),
			subjects:  handler.NewSubjectHandler(subjectSvc),
			standings: handler.NewStandingsHandler(standingsSvc, exportSvc),
			students:  handler.NewStudentHandler(studentSvc, cfg.Export.MaxImportSize),
			gradebook: handler.NewGradebookHandler(markSvc, progressSvc),
			health:    handler.NewHealthHandler(checks, metrics, logr),
			validator: authSvc,
			metrics:   metrics,
		},
	}
}
