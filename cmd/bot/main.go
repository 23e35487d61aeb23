package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benvon/daily-journal/internal/app"
	"github.com/benvon/daily-journal/internal/config"
	"github.com/benvon/daily-journal/internal/handlers"
	"github.com/benvon/daily-journal/internal/logger"
	"github.com/benvon/daily-journal/internal/middleware"
	"github.com/benvon/daily-journal/internal/queue"
	"github.com/benvon/daily-journal/internal/telegram"
	"github.com/benvon/daily-journal/internal/telemetry"
	"github.com/benvon/daily-journal/internal/workers"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Set with -ldflags "-X main.version=..."
var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	debugFlag := flag.Bool("debug", false, "Enable debug logging and Telegram API tracing")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg.ApplyLocation()
	if err := cfg.RequireTelegram(); err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.BotDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync(zapLogger) }()

	zapLogger.Info("starting_bot",
		zap.String("version", version),
		zap.Bool("debug_mode", debugMode),
		zap.String("store_driver", cfg.StoreDriver),
		zap.String("admin_port", cfg.AdminPort),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp := telemetry.Setup(ctx, cfg.OTELEnabled, cfg.OTELEndpoint, "bot", zapLogger)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
			zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
		}
	}()

	deps, err := app.New(ctx, cfg, zapLogger, app.QueueRabbitMQOrMemory)
	if err != nil {
		zapLogger.Fatal("failed_to_initialize_dependencies", zap.Error(err))
	}
	defer func() {
		if err := deps.Close(); err != nil {
			zapLogger.Warn("failed_to_close_dependencies", zap.Error(err))
		}
	}()

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_telegram", zap.Error(err))
	}
	bot.Debug = debugMode
	zapLogger.Info("connected_to_telegram", zap.String("bot_username", bot.Self.UserName))

	messenger := telegram.NewMessenger(bot)
	flood, err := telegram.NewFloodGuard(deps.Redis, cfg.ChatRateLimit)
	if err != nil {
		zapLogger.Fatal("failed_to_create_flood_guard", zap.Error(err))
	}
	poller := telegram.NewPoller(bot, deps.Engine(messenger), flood, zapLogger.Named("telegram"))

	slots, err := deps.Slots()
	if err != nil {
		zapLogger.Fatal("invalid_broadcast_slots", zap.Error(err))
	}
	scheduler := workers.NewScheduler(deps.Queue, slots, cfg.Location, zapLogger.Named("scheduler"))

	rateLimit, err := middleware.RateLimit(deps.Redis, "")
	if err != nil {
		zapLogger.Fatal("failed_to_create_rate_limiter", zap.Error(err))
	}
	router := handlers.NewRouter(handlers.RouterConfig{
		Admin:          handlers.NewAdminHandler(deps.Repos, deps.Reports, deps.Queue, zapLogger, handlers.WithLocation(cfg.Location)),
		Health:         handlers.NewHealthChecker(deps.HealthChecks()),
		Version:        handlers.VersionInfo{Version: version, Commit: commit, BuildTime: buildTime},
		JWTSecret:      []byte(cfg.AdminJWTSecret),
		AllowedOrigins: cfg.AdminAllowedOrigins,
		RateLimit:      rateLimit,
		Tracing:        tp != nil,
		Logger:         zapLogger.Named("admin"),
	})
	if cfg.AdminJWTSecret == "" {
		zapLogger.Warn("admin_api_disabled_no_jwt_secret")
	}
	srv := handlers.NewServer(cfg.AdminPort, router)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return ignoreCanceled(poller.Run(gctx)) })
	g.Go(func() error { return ignoreCanceled(scheduler.Run(gctx)) })

	// Without a broker the scheduled jobs live in this process and are
	// delivered through the bot's own connection.
	if memQueue, ok := deps.Queue.(*queue.MemoryQueue); ok {
		zapLogger.Warn("using_in_process_job_queue")
		dispatcher := workers.NewDispatcher(deps.Broadcaster(messenger), memQueue, zapLogger.Named("dispatcher"))
		g.Go(func() error { return ignoreCanceled(dispatcher.Consume(gctx, memQueue, cfg.RabbitMQPrefetch)) })
	}

	g.Go(func() error {
		zapLogger.Info("admin_server_starting", zap.String("port", cfg.AdminPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		zapLogger.Info("bot_shutting_down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		zapLogger.Error("bot_stopped_with_error", zap.Error(err))
		return 1
	}
	zapLogger.Info("bot_stopped")
	return 0
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
