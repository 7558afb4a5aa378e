package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"athlos/fitness-tracker/internal/api"
	"athlos/fitness-tracker/internal/bootstrap"
	"athlos/fitness-tracker/internal/config"
	"athlos/fitness-tracker/internal/logging"
	"athlos/fitness-tracker/internal/metrics"
	"athlos/fitness-tracker/internal/seed"
	"athlos/fitness-tracker/internal/service"
	"athlos/fitness-tracker/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis_rate/v9"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

// @title Athlos Fitness Tracker API
// @version 1.0
// @description Workout plans with ordered items, workout mode and progress tracking.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "."
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}

	logging.Setup(logging.LoggerSetupParams{
		LogFileName:   cfg.Log.File,
		LogToStdout:   cfg.Log.Stdout,
		LogLevel:      cfg.Log.Level,
		LogFormatJSON: cfg.Log.JSON,
	})
	log.Info("starting athlos server ...")

	if cfg.JWT.Secret == "" {
		log.Fatal("jwt.secret is not set (JWT_SECRET)")
	}

	ctx := context.Background()

	// --- Database ---
	backend, err := bootstrap.OpenBackend(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}

	migrateCtx, cancelMigrate := context.WithTimeout(ctx, time.Minute)
	err = backend.Migrate(migrateCtx)
	cancelMigrate()
	if err != nil {
		log.Fatalf("migrate %s: %v", backend.Driver, err)
	}

	if cfg.Exercises.SeedOnStart {
		added, err := seed.SeedExercises(ctx, backend.Repos.Exercises)
		if err != nil {
			log.Fatalf("seed exercises: %v", err)
		}
		log.Infof("exercise library seeded, %d added", added)
	}

	// --- Metrics ---
	reg := metrics.NewRegistry()
	metricsManager := metrics.NewManager("athlos", "server", reg)

	// --- Redis, cache and rate limiting ---
	rdb, err := bootstrap.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	exerciseCache := bootstrap.NewExerciseCache(cfg.Cache, rdb, metricsManager)

	routerOpts := api.RouterOptions{Metrics: metricsManager}
	if cfg.Metrics.Enabled {
		routerOpts.MetricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}
	if rdb != nil && cfg.Redis.LoginRatePerMinute > 0 {
		routerOpts.RateLimiter = redis_rate.NewLimiter(rdb)
		routerOpts.LoginRatePerMinute = cfg.Redis.LoginRatePerMinute
	}

	// --- Export storage ---
	var fileStorage storage.FileStorage
	if cfg.S3.BucketName != "" {
		fileStorage, err = storage.NewS3Storage(ctx, cfg.S3)
		if err != nil {
			log.Fatalf("init s3 storage: %v", err)
		}
	} else {
		log.Warn("s3.bucket_name is empty, exports are disabled")
	}

	// --- Services ---
	repos := backend.Repos
	exerciseService := service.NewExerciseService(repos, exerciseCache, cfg.Exercises.DeletePolicy, metricsManager)
	services := api.Services{
		Auth:        service.NewAuthService(repos.Users, cfg.JWT.Secret, cfg.JWT.Expiration),
		Exercises:   exerciseService,
		Plans:       service.NewPlanService(repos.Plans, repos.PlanItems, exerciseService, metricsManager),
		Tracking:    service.NewTrackingService(repos, exerciseService),
		WorkoutMode: service.NewWorkoutModeService(repos, exerciseService),
		Export:      service.NewExportService(repos, fileStorage, cfg.S3.PresignExpiry),
	}

	gin.SetMode(cfg.Server.GinMode)
	router := api.NewRouter(services, routerOpts)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Infof("listening on %s", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen and serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server ...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	err = server.Shutdown(shutdownCtx)
	if rdb != nil {
		err = multierr.Append(err, rdb.Close())
	}
	err = multierr.Append(err, backend.Close())
	if err != nil {
		log.Errorf("shutdown: %v", err)
		return
	}
	log.Info("server exited")
}
