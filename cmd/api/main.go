package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookmirror/internal/api"
	"bookmirror/internal/config"
	"bookmirror/internal/coordinator"
	"bookmirror/internal/database"
	"bookmirror/internal/document"
	"bookmirror/internal/events"
	"bookmirror/internal/export"
	"bookmirror/internal/logging"
	"bookmirror/internal/metrics"
	"bookmirror/internal/service"
	"bookmirror/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	redisClient := document.NewRedisClient(cfg.Redis)
	defer func() { _ = document.Close(redisClient) }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Зеркало может быть недоступно на старте: реляционная база
	// остаётся авторитетной, воркер доставит документы позже.
	if err := document.Ping(ctx, redisClient); err != nil {
		logger.Warn().Err(err).Msg("document store unreachable, mirror writes will queue")
	}
	docs := document.NewStore(redisClient)

	mirrorWorker := worker.NewMirrorWorker(db, docs, worker.RetryPolicy{
		MaxRetries:    cfg.Mirror.WorkerMaxAttempts,
		InitialDelay:  2 * time.Second,
		MaxDelay:      time.Minute,
		BackoffFactor: 2,
	}, logger)
	mirrorWorker.SetPollInterval(time.Duration(cfg.Mirror.WorkerIntervalSec) * time.Second)
	mirrorWorker.SetBatchSize(cfg.Mirror.WorkerBatchSize)
	go mirrorWorker.Start(ctx)

	coord := coordinator.New(mirrorWorker, worker.RetryPolicy{
		MaxRetries:    cfg.Mirror.MaxRetries,
		InitialDelay:  200 * time.Millisecond,
		MaxDelay:      2 * time.Second,
		BackoffFactor: 2,
	}, time.Duration(cfg.Mirror.StoreTimeoutSec)*time.Second, logger)

	eventBus := events.NewEventBus()
	subscribeBookingEvents(eventBus, &logger)

	bookingService := service.NewBookingService(db, docs, coord, eventBus, &logger)
	predictionService := service.NewPredictionService(db, docs, coord, eventBus, &logger)
	exporter := export.NewExporter(cfg.Exports.Path, &logger)

	startMetrics(ctx, cfg, &logger)

	httpServer := api.NewHTTPServer(cfg.API, bookingService, predictionService, exporter, logger)
	return serve(ctx, httpServer, cfg, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

// subscribeBookingEvents пишет доменные события в структурный лог.
func subscribeBookingEvents(bus *events.EventBus, logger *zerolog.Logger) {
	logEvent := func(event *events.Event) error {
		logger.Info().
			Str("event_type", event.Type).
			RawJSON("payload", event.Payload).
			Msg("domain event")
		return nil
	}
	for _, eventType := range []string{
		events.EventBookingCreated,
		events.EventBookingStatusChanged,
		events.EventBookingDeleted,
		events.EventPredictionPersisted,
	} {
		bus.Subscribe(eventType, logEvent)
	}
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func serve(ctx context.Context, httpServer *api.HTTPServer, cfg *config.Config, logger *zerolog.Logger) error {
	go func() {
		if !cfg.API.HTTP.Enabled {
			return
		}
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	logger.Info().Int("http_port", cfg.API.HTTP.Port).Msg("API server started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
