package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benvon/daily-journal/internal/app"
	"github.com/benvon/daily-journal/internal/config"
	"github.com/benvon/daily-journal/internal/logger"
	"github.com/benvon/daily-journal/internal/queue"
	"github.com/benvon/daily-journal/internal/telegram"
	"github.com/benvon/daily-journal/internal/telemetry"
	"github.com/benvon/daily-journal/internal/workers"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const (
	dlqInterval  = time.Hour
	dlqRetention = 24 * time.Hour
)

func main() {
	os.Exit(run())
}

func run() int {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg.ApplyLocation()
	if err := errors.Join(cfg.RequireTelegram(), cfg.RequireRabbitMQ()); err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.WorkerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync(zapLogger) }()

	zapLogger.Info("starting_worker",
		zap.Bool("debug_mode", debugMode),
		zap.Int("prefetch", cfg.RabbitMQPrefetch),
		zap.Int("broadcast_concurrency", cfg.BroadcastConcurrency),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp := telemetry.Setup(ctx, cfg.OTELEnabled, cfg.OTELEndpoint, "worker", zapLogger)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
			zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
		}
	}()

	deps, err := app.New(ctx, cfg, zapLogger, app.QueueRabbitMQ)
	if err != nil {
		zapLogger.Fatal("failed_to_initialize_dependencies", zap.Error(err))
	}
	defer func() {
		if err := deps.Close(); err != nil {
			zapLogger.Warn("failed_to_close_dependencies", zap.Error(err))
		}
	}()

	// The worker only sends; updates are polled by the bot process.
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_telegram", zap.Error(err))
	}
	broadcaster := deps.Broadcaster(telegram.NewMessenger(bot))
	dispatcher := workers.NewDispatcher(broadcaster, deps.Queue, zapLogger.Named("dispatcher"))

	if purger, ok := deps.Queue.(queue.DLQPurger); ok {
		collector := queue.NewDeadLetterCollector(purger, dlqInterval, dlqRetention, zapLogger)
		go func() {
			if err := collector.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				zapLogger.Error("dead_letter_collector_stopped_with_error", zap.Error(err))
			}
		}()
		zapLogger.Info("started_dead_letter_collector",
			zap.Duration("interval", dlqInterval),
			zap.Duration("retention", dlqRetention),
		)
	}

	zapLogger.Info("worker_started_consuming")
	err = dispatcher.Consume(ctx, deps.Queue, cfg.RabbitMQPrefetch)
	if err != nil && !errors.Is(err, context.Canceled) {
		zapLogger.Error("worker_stopped_with_error", zap.Error(err))
		return 1
	}
	zapLogger.Info("worker_stopped")
	return 0
}
