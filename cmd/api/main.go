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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/hamed0406/alertapi/internal/config"
	"github.com/hamed0406/alertapi/internal/httpapi"
	"github.com/hamed0406/alertapi/internal/ingest"
	"github.com/hamed0406/alertapi/internal/logging"
	"github.com/hamed0406/alertapi/internal/metrics"
)

func main() {
	cfg := config.FromEnv()
	logger, err := logging.NewLogger(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, cfg, logger)
	stop()
	if err != nil {
		logger.Error("startup_failed", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

// run connects to the database, initializes the schema and serves until ctx
// is cancelled. Any startup failure is returned before the listener opens.
func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	store, err := openStore(ctx, cfg.DB, logger, m)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("store_close_failed", zap.Error(err))
		}
	}()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	err = store.Ping(pingCtx)
	cancel()
	if err != nil {
		logger.Error("db_connect_failed", zap.String("driver", cfg.DB.Driver), zap.Error(err))
		return fmt.Errorf("database connection failed: %w", err)
	}
	logger.Info("db_connected", zap.String("driver", cfg.DB.Driver), zap.Int("pool_size", cfg.DB.PoolSize))

	if err := store.InitSchema(ctx); err != nil {
		return fmt.Errorf("database initialization failed: %w", err)
	}

	api := httpapi.NewServer(logger, store, ingest.NewIngester(store, logger, m), reg, httpapi.Options{
		MaxBodyBytes:   cfg.MaxBodyBytes,
		WebhookRPM:     cfg.WebhookRPM,
		WebhookBurst:   cfg.WebhookBurst,
		AllowedOrigins: cfg.AllowedOrigins,
	})
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api_listen",
			zap.String("addr", cfg.Addr),
			zap.String("health", "GET /health"),
			zap.String("webhook", "POST /alerts"),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("api_shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
