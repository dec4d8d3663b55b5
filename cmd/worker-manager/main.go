// cmd/worker-manager/main.go
package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"ecycle-workers/internal/api"
	"ecycle-workers/internal/common/camunda"
	"ecycle-workers/internal/common/config"
	"ecycle-workers/internal/common/database"
	"ecycle-workers/internal/common/logger"
	"ecycle-workers/internal/common/observability"
	"ecycle-workers/internal/facility"
	"ecycle-workers/internal/pickup"
	"ecycle-workers/internal/session"
	"ecycle-workers/internal/vision"
	"ecycle-workers/pkg/registry"

	ci "ecycle-workers/internal/workers/ewaste/classify-item"
	ev "ecycle-workers/internal/workers/ewaste/estimate-value"
	lf "ecycle-workers/internal/workers/ewaste/locate-facilities"
	sp "ecycle-workers/internal/workers/ewaste/schedule-pickup"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func workerTimeout(cfg *config.Config, taskType string, fallback time.Duration) time.Duration {
	if wcfg, ok := cfg.Workers[taskType]; ok && wcfg.Timeout > 0 {
		return config.GetDuration(wcfg.Timeout)
	}
	return fallback
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog, err := logger.New(logger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)
	zapLog.Info("Starting worker manager...",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	if err := validateRegistry(cfg.Registry.Path); err != nil {
		zapLog.Warn("activity registry check failed", zap.Error(err))
	}

	obs, err := observability.New("worker-manager", prometheus.DefaultRegisterer)
	if err != nil {
		zapLog.Fatal("observability init failed", zap.Error(err))
	}

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	facilities := facility.NewStore(pg)
	if err := facilities.EnsureSchema(ctx); err != nil {
		zapLog.Fatal("facility schema init failed", zap.Error(err))
	}
	if err := seedFacilities(ctx, facilities, cfg.Facilities.SeedPath, zapLog); err != nil {
		zapLog.Error("facility seed failed", zap.Error(err))
	}

	bookings := pickup.NewStore(pg)
	if err := bookings.EnsureSchema(ctx); err != nil {
		zapLog.Fatal("pickup schema init failed", zap.Error(err))
	}

	// --- Init Redis with retry ---
	redis := database.NewRedis(cfg.Database.Redis)
	err = retryWithBackoff(func() error {
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	sessions := session.NewStore(redis.Client, cfg.Session.TTLDuration())

	var visionClient vision.Classifier
	if cfg.Vision.BaseURL != "" {
		visionClient = vision.NewClient(cfg.Vision)
		zapLog.Info("Vision client configured", zap.String("baseURL", cfg.Vision.BaseURL))
	} else {
		zapLog.Warn("vision.base_url not set, image classification disabled")
	}

	// --- Handlers ---
	classifyHandler := ci.NewHandler(
		&ci.Config{Timeout: workerTimeout(cfg, ci.TaskType, ci.LoadConfig().Timeout)},
		visionClient, sessions, obs, log,
	)
	estimateHandler := ev.NewHandler(
		&ev.Config{Timeout: workerTimeout(cfg, ev.TaskType, ev.LoadConfig().Timeout)},
		sessions, obs, log,
	)
	locateHandler := lf.NewHandler(
		&lf.Config{
			CacheTTL:     cfg.Facilities.CacheTTLDuration(),
			DefaultLimit: cfg.Facilities.DefaultLimit,
			Timeout:      workerTimeout(cfg, lf.TaskType, lf.LoadConfig().Timeout),
		},
		facilities, redis.Client, obs, log,
	)
	scheduleHandler := sp.NewHandler(
		&sp.Config{Timeout: workerTimeout(cfg, sp.TaskType, sp.LoadConfig().Timeout)},
		bookings, obs, log,
	)

	checks := []api.Check{
		{Name: "postgres", Ping: pg.Ping},
		{Name: "redis", Ping: redis.Ping},
	}

	// --- Zeebe workers ---
	var workers *camunda.Workers
	var zeebe *camunda.Client
	if cfg.Camunda.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			zeebe, err = camunda.NewClientWithConfig(camunda.ConfigFrom(cfg.Camunda))
			return err
		}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		zapLog.Info("Zeebe client connected successfully")
		checks = append(checks, api.Check{Name: "zeebe", Ping: zeebe.HealthCheck})

		workers = camunda.NewWorkers(zeebe.Zeebe(), log)
		workers.Start(ci.TaskType, config.GetWorkerConfig(cfg, ci.TaskType), classifyHandler.Handle)
		workers.Start(ev.TaskType, config.GetWorkerConfig(cfg, ev.TaskType), estimateHandler.Handle)
		workers.Start(lf.TaskType, config.GetWorkerConfig(cfg, lf.TaskType), locateHandler.Handle)
		workers.Start(sp.TaskType, config.GetWorkerConfig(cfg, sp.TaskType), scheduleHandler.Handle)
		zapLog.Info("Workers registered", zap.Strings("taskTypes", workers.Running()))
	} else {
		zapLog.Info("camunda disabled, serving HTTP API only")
	}

	// --- HTTP API ---
	server := &http.Server{
		Addr: cfg.HTTP.Address,
		Handler: api.NewServer(api.Deps{
			Classify: classifyHandler,
			Estimate: estimateHandler,
			Locate:   locateHandler,
			Schedule: scheduleHandler,
			Bookings: bookings,
			Sessions: sessions,
			Checks:   checks,
			Obs:      obs,
			Logger:   log,
		}).Routes(),
		ReadTimeout:  config.GetDuration(cfg.HTTP.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.HTTP.WriteTimeout),
	}
	serverErr := serve(server, zapLog)

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	exitCode := waitForStop(sigCh, serverErr, zapLog)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}
	if workers != nil {
		workers.Stop()
	}
	if zeebe != nil {
		if err := zeebe.Close(); err != nil {
			zapLog.Error("Error closing Zeebe client", zap.Error(err))
		}
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down observability", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
	if exitCode != 0 {
		zapLog.Sync()
		os.Exit(exitCode)
	}
}

// serve runs the HTTP server in the background. A listen failure is sent on
// the returned channel; a normal Shutdown sends nothing.
func serve(server *http.Server, log *zap.Logger) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	return errCh
}

// waitForStop blocks until a signal arrives or the server fails and returns
// the process exit code.
func waitForStop(sigCh <-chan os.Signal, serverErr <-chan error, log *zap.Logger) int {
	select {
	case <-sigCh:
		log.Info("Shutdown signal received, stopping workers...")
		return 0
	case err := <-serverErr:
		log.Error("HTTP server failed, stopping workers...", zap.Error(err))
		return 1
	}
}

// validateRegistry checks that every task type served here is registered.
func validateRegistry(path string) error {
	if path == "" {
		return nil
	}
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return err
	}
	return reg.Validate(ci.TaskType, ev.TaskType, lf.TaskType, sp.TaskType)
}

// seedFacilities loads the bundled facility list when the table is empty.
func seedFacilities(ctx context.Context, store *facility.Store, path string, log *zap.Logger) error {
	if path == "" {
		return nil
	}
	existing, err := store.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	seed, err := facility.LoadSeed(path)
	if err != nil {
		return err
	}
	n, err := store.Upsert(ctx, seed)
	if err != nil {
		return err
	}
	log.Info("facilities seeded", zap.Int("count", n), zap.String("path", path))
	return nil
}
