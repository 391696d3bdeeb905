package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/makkenzo/cnc-license-admin/internal/clock"
	"github.com/makkenzo/cnc-license-admin/internal/config"
	"github.com/makkenzo/cnc-license-admin/internal/domain/apikey"
	"github.com/makkenzo/cnc-license-admin/internal/domain/license"
	"github.com/makkenzo/cnc-license-admin/internal/domain/request"
	"github.com/makkenzo/cnc-license-admin/internal/handler"
	"github.com/makkenzo/cnc-license-admin/internal/handler/middleware"
	"github.com/makkenzo/cnc-license-admin/internal/metrics"
	"github.com/makkenzo/cnc-license-admin/internal/service"
	"github.com/makkenzo/cnc-license-admin/internal/storage/memstorage"
	"github.com/makkenzo/cnc-license-admin/internal/storage/postgres"
	"github.com/makkenzo/cnc-license-admin/internal/storage/redis"
	"github.com/makkenzo/cnc-license-admin/internal/tasks"
	"github.com/makkenzo/cnc-license-admin/internal/worker"
	"github.com/makkenzo/cnc-license-admin/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type repositories struct {
	requests request.Repository
	licenses license.Repository
	apiKeys  apikey.Repository
}

func main() {
	configPath := flag.String("config", "./configs/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.NewZapLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	sugarLogger := appLogger.Sugar()

	sugarLogger.Info("Starting application...")
	sugarLogger.Infof("Log level set to: %s, storage driver: %s", cfg.Log.Level, cfg.Storage.Driver)

	appCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	location, err := cfg.License.Location()
	if err != nil {
		sugarLogger.Fatalf("Invalid license timezone: %v", err)
	}
	clk := clock.System()

	var (
		dbPool *pgxpool.Pool
		repos  repositories
	)
	switch cfg.Storage.Driver {
	case config.StorageDriverPostgres:
		dbPool, err = postgres.NewPgxPool(appCtx, &cfg.Database, appLogger)
		if err != nil {
			sugarLogger.Fatalf("Failed to connect to PostgreSQL: %v", err)
		}
		defer dbPool.Close()

		if cfg.Database.AutoMigrate {
			if err := postgres.Migrate(appCtx, dbPool, "up", appLogger); err != nil {
				sugarLogger.Fatalf("Failed to apply migrations: %v", err)
			}
		}

		repos = repositories{
			requests: postgres.NewRequestRepository(dbPool, appLogger),
			licenses: postgres.NewLicenseRepository(dbPool, appLogger),
			apiKeys:  postgres.NewAPIKeyRepository(dbPool, appLogger),
		}
	case config.StorageDriverMemory:
		sugarLogger.Warn("Using in-memory storage, data is lost on restart")
		repos = repositories{
			requests: memstorage.NewRequestRepository(),
			licenses: memstorage.NewLicenseRepository(),
			apiKeys:  memstorage.NewAPIKeyRepository(),
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	licenseMetrics := metrics.NewLicenseMetrics(registry)
	jobMetrics := metrics.NewJobMetrics(registry)

	licenseService := service.NewLicenseService(repos.requests, repos.licenses, clk, location, licenseMetrics, appLogger)
	authService := service.NewAuthService(&cfg.Auth, clk, appLogger)
	apiKeyService := service.NewAPIKeyService(repos.apiKeys, clk, appLogger)

	if cfg.Storage.Driver == config.StorageDriverMemory {
		bootstrap, err := apiKeyService.CreateAPIKey(appCtx, "bootstrap key for in-memory storage")
		if err != nil {
			sugarLogger.Fatalf("Failed to create bootstrap API key: %v", err)
		}
		appLogger.Warn("Generated bootstrap API key", zap.String("api_key", bootstrap.FullKey))
	}

	var healthDB, healthRedis handler.Pinger
	if dbPool != nil {
		healthDB = dbPool
	}

	g, groupCtx := errgroup.WithContext(appCtx)

	if cfg.Worker.Enabled {
		redisClient, err := redis.NewRedisClient(appCtx, &cfg.Redis, appLogger)
		if err != nil {
			sugarLogger.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		healthRedis = handler.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})

		statsHandler := tasks.NewStatsSnapshotHandler(licenseService, licenseMetrics, jobMetrics, clk, appLogger)
		workerErrs, shutdownWorkers := worker.RunWorkers(cfg, statsHandler, appLogger)

		g.Go(func() error {
			select {
			case err := <-workerErrs:
				return fmt.Errorf("asynq worker error: %w", err)
			case <-groupCtx.Done():
				shutdownWorkers(context.Background())
				return nil
			}
		})
	}

	router := handler.NewRouter(handler.Handlers{
		Health:       handler.NewHealthHandler(healthDB, healthRedis, appLogger),
		Requests:     handler.NewRequestHandler(licenseService, appLogger),
		Licenses:     handler.NewLicenseHandler(licenseService, appLogger),
		Dashboard:    handler.NewDashboardHandler(licenseService, appLogger),
		Auth:         handler.NewAuthHandler(authService, appLogger),
		APIKeys:      handler.NewAPIKeyHandler(apiKeyService, appLogger),
		Metrics:      promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		AdminAuth:    middleware.AuthMiddleware(authService, appLogger),
		APIKeyAuth:   middleware.APIKeyAuthMiddleware(repos.apiKeys, clk, appLogger),
		ErrorHandler: middleware.ErrorHandlerMiddleware(appLogger),
	}, cfg.CORS.AllowOrigins, appLogger)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g.Go(func() error {
		sugarLogger.Infof("HTTP server listening on port %s", cfg.Server.Port)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugarLogger.Errorf("HTTP server ListenAndServe error: %v", err)
			return fmt.Errorf("http server failed: %w", err)
		}
		sugarLogger.Info("HTTP server stopped listening.")
		return nil
	})

	g.Go(func() error {
		<-groupCtx.Done()
		sugarLogger.Info("Shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownPeriod)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			sugarLogger.Errorf("HTTP server graceful shutdown failed: %v", err)
			return fmt.Errorf("http server shutdown error: %w", err)
		}
		sugarLogger.Info("HTTP server shutdown complete.")
		return nil
	})

	sugarLogger.Info("Application started. Waiting for interrupt signal (Ctrl+C) or component error...")

	if waitErr := g.Wait(); waitErr != nil && !errors.Is(waitErr, context.Canceled) {
		sugarLogger.Errorf("Application shutdown finished with unexpected error: %v", waitErr)
	} else {
		sugarLogger.Info("Application shutdown successfully.")
	}
}
