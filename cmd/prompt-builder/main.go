// cmd/prompt-builder/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"prompt-builder/internal/common/config"
	"prompt-builder/internal/common/database"
	apphttp "prompt-builder/internal/common/http"
	"prompt-builder/internal/common/logger"
	"prompt-builder/internal/common/observability"
	"prompt-builder/internal/common/webhook"
	"prompt-builder/internal/promptbuilder"
	"prompt-builder/internal/server"
	"prompt-builder/pkg/registry"
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

func main() {
	bootLog := logger.New("info", "console", "")

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog).With(map[string]interface{}{
		"app":     cfg.App.Name,
		"version": cfg.App.Version,
	})

	zapLog.Info("Starting prompt-builder...",
		zap.String("environment", cfg.App.Environment),
		zap.String("webhook", cfg.Webhook.URL),
		zap.String("sessionBackend", cfg.Session.Backend),
	)

	obs := observability.New(cfg.App.Name, log)
	defer obs.Shutdown()

	if err := obs.EnableTracing(cfg.App.Name, observability.TracingConfig{
		Enabled:        cfg.Tracing.Enabled,
		JaegerEndpoint: cfg.Tracing.JaegerEndpoint,
		SampleRatio:    cfg.Tracing.SampleRatio,
	}); err != nil {
		zapLog.Fatal("tracing init failed", zap.Error(err))
	}

	fields, err := registry.LoadOrDefault(cfg.Registry.Path)
	if err != nil {
		zapLog.Fatal("field registry load failed", zap.Error(err))
	}

	ttl := cfg.Session.TTLDuration()
	checks := map[string]server.Pinger{}

	// --- Session store ---
	var store promptbuilder.Store
	var rdb *database.RedisClient
	if cfg.UsesRedis() {
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			zapLog.Fatal("redis client init failed", zap.Error(err))
		}
		err = retryWithBackoff(func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return rdb.Ping(ctx)
		}, 5, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis unavailable after retries", zap.Error(err))
		}
		zapLog.Info("Redis connected successfully", zap.String("address", cfg.Database.Redis.Address))

		store = promptbuilder.NewRedisStore(rdb.GetClient(), ttl)
		checks["redis"] = rdb
	} else {
		store = promptbuilder.NewMemoryStore(ttl, cfg.Session.CleanupIntervalDuration())
	}

	// --- Form service ---
	sender := webhook.NewClient(
		&webhook.Config{URL: cfg.Webhook.URL, Timeout: cfg.Webhook.TimeoutDuration()},
		apphttp.NewClient(cfg.Webhook.TimeoutDuration()),
		log,
	)

	svc := promptbuilder.NewService(promptbuilder.ServiceDependencies{
		Store:       store,
		Sender:      sender,
		Logger:      log,
		Recorder:    obs,
		SubmitLease: cfg.Session.SubmitLeaseDuration(),
	})

	handler, err := promptbuilder.NewHandler(promptbuilder.HandlerOptions{
		Service:  svc,
		Registry: fields,
		Config: &promptbuilder.Config{
			SessionTTL:      ttl,
			CleanupInterval: cfg.Session.CleanupIntervalDuration(),
			CookieName:      cfg.Session.CookieName,
			CookieSecure:    cfg.Session.CookieSecure,
		},
		Logger: log,
	})
	if err != nil {
		zapLog.Fatal("handler init failed", zap.Error(err))
	}

	// --- HTTP server ---
	srv := server.New(server.Options{
		Config: cfg.Server,
		Logger: log,
		Mount:  handler.Routes,
		Checks: checks,
	})

	var wg sync.WaitGroup
	errCh := make(chan error, 1)
	srv.Start(&wg, errCh)

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		zapLog.Info("Shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		zapLog.Error("HTTP server failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeoutDuration())
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}
	wg.Wait()

	if err := store.Close(); err != nil {
		zapLog.Error("Error closing session store", zap.Error(err))
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			zapLog.Error("Error closing Redis client", zap.Error(err))
		}
	}

	zapLog.Info("prompt-builder stopped gracefully")
}
