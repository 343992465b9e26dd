// cmd/notifier/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.uber.org/zap"

	"foodbank-notifier/internal/api"
	"foodbank-notifier/internal/common/camunda"
	"foodbank-notifier/internal/common/config"
	"foodbank-notifier/internal/common/database"
	"foodbank-notifier/internal/common/logger"
	"foodbank-notifier/internal/common/observability"
	"foodbank-notifier/internal/notifications/dispatch"
	"foodbank-notifier/internal/notifications/gateway"
	"foodbank-notifier/internal/notifications/notifier"
	"foodbank-notifier/internal/notifications/recipients"
	"foodbank-notifier/internal/notifications/scan"
	"foodbank-notifier/internal/notifications/tokens"
	"foodbank-notifier/internal/store"

	cpt "foodbank-notifier/internal/workers/notifications/cleanup-push-tokens"
	sei "foodbank-notifier/internal/workers/notifications/scan-expiring-items"
	spr "foodbank-notifier/internal/workers/notifications/scan-pickup-reminders"
	spn "foodbank-notifier/internal/workers/notifications/send-push-notification"
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
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting notifier...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.Observability.ServiceName, cfg.Observability.JaegerEndpoint)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Document store ---
	var st store.Store
	err = retryWithBackoff(func() error {
		var err error
		st, err = store.Open(ctx, cfg.Database)
		if err != nil {
			return err
		}
		return st.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "Document store connection")
	if err != nil {
		zapLog.Fatal("document store failed after retries", zap.Error(err))
	}
	defer st.Close()
	zapLog.Info("Document store connected", zap.String("driver", cfg.Database.Driver))

	// --- Redis (token cache and invalid-token ledger) ---
	var redisClient *database.RedisClient
	if cfg.Database.Redis.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			redisClient, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return redisClient.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redisClient.Close()
		zapLog.Info("Redis connected successfully")
	}

	// --- Push gateway ---
	gw, err := gateway.New(ctx, cfg.Push)
	if err != nil {
		zapLog.Fatal("push gateway init failed", zap.Error(err))
	}
	sender := dispatch.New(gw, dispatch.Config{
		MaxConcurrency: cfg.Push.MaxConcurrency,
		SendTimeout:    config.GetDuration(cfg.Push.SendTimeout),
	}, log)

	// --- Notification pipeline ---
	var resolverOpts []recipients.Option
	if redisClient != nil && cfg.Database.Redis.TokenTTL > 0 {
		resolverOpts = append(resolverOpts, recipients.WithTokenCache(redisClient.Client, time.Duration(cfg.Database.Redis.TokenTTL)*time.Second))
	}
	resolver := recipients.NewResolver(st, log, resolverOpts...)

	readiness := map[string]api.Pinger{"store": st}
	var (
		recorder   notifier.TokenRecorder
		scanOpts   []scan.Option
		cleanup    *tokens.Cleanup
		apiCleaner api.TokenCleaner
	)
	if redisClient != nil {
		ledger := tokens.NewLedger(redisClient.Client, log)
		recorder = ledger
		scanOpts = append(scanOpts, scan.WithTokenRecorder(ledger))
		cleanup = tokens.NewCleanup(ledger, st, resolver, log)
		apiCleaner = cleanup
		readiness["redis"] = redisClient
	}

	notify := notifier.New(resolver, sender, recorder, log, notifier.WithFanOutRecorder(obs))
	expirationScanner := scan.NewExpirationScanner(st, resolver, sender, cfg.Scan.ExpiryThresholdDays, log, scanOpts...)
	pickupScanner := scan.NewPickupScanner(st, resolver, sender, cfg.Scan.Location(), log, scanOpts...)

	// --- Zeebe workers ---
	var (
		zeebe   *camunda.Client
		workers []worker.JobWorker
	)
	if cfg.Camunda.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
				GatewayAddress:         cfg.Camunda.BrokerAddress,
				UsePlaintextConnection: cfg.Camunda.Plaintext,
				RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
			})
			return err
		}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		readiness["camunda"] = api.PingFunc(zeebe.HealthCheck)

		start := func(taskType string, handler camunda.JobHandler) {
			if !config.IsWorkerEnabled(cfg, taskType) {
				zapLog.Info("worker disabled", zap.String("taskType", taskType))
				return
			}
			if jw := camunda.StartWorker(zeebe.GetClient(), taskType, config.GetWorkerConfig(cfg, taskType), handler, obs, log); jw != nil {
				workers = append(workers, jw)
			}
		}
		timeout := func(taskType string) time.Duration {
			return config.GetDuration(config.GetWorkerConfig(cfg, taskType).Timeout)
		}

		start(sei.TaskType, sei.NewHandler(&sei.Config{Timeout: timeout(sei.TaskType)}, expirationScanner, log))
		start(spr.TaskType, spr.NewHandler(&spr.Config{Timeout: timeout(spr.TaskType)}, pickupScanner, log))
		start(spn.TaskType, spn.NewHandler(&spn.Config{Timeout: timeout(spn.TaskType)}, notify, log))
		if cleanup != nil {
			start(cpt.TaskType, cpt.NewHandler(&cpt.Config{Timeout: timeout(cpt.TaskType)}, cleanup, log))
		} else {
			zapLog.Info("token cleanup worker not started, redis is disabled")
		}
		zapLog.Info("Workers registered", zap.Int("count", len(workers)))
	}

	// --- HTTP trigger, health and metrics ---
	e := api.New(api.Config{TriggerToken: cfg.HTTP.TriggerToken}, api.Dependencies{
		Expiration: expirationScanner,
		Pickup:     pickupScanner,
		Notifier:   notify,
		Cleanup:    apiCleaner,
		Readiness:  readiness,
	}, log)

	errCh := make(chan error, 1)
	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.HTTP.Address))
		errCh <- e.Start(cfg.HTTP.Address)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		zapLog.Info("Shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			zapLog.Error("HTTP server failed", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.HTTP.ShutdownTimeout))
	defer cancel()

	for _, jw := range workers {
		jw.Close()
		jw.AwaitClose()
	}
	if zeebe != nil {
		if err := zeebe.Close(); err != nil {
			zapLog.Error("Error closing Zeebe client", zap.Error(err))
		}
	}

	if err := e.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("HTTP server shutdown failed", zap.Error(err))
	}

	zapLog.Info("Notifier stopped gracefully")
}
