package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/enp09/duende/internal/config"
	"github.com/enp09/duende/internal/database"
	"github.com/enp09/duende/internal/logger"
	"github.com/enp09/duende/internal/queue"
	"github.com/enp09/duende/internal/services/analysis"
	"github.com/enp09/duende/internal/services/calendar"
	"github.com/enp09/duende/internal/telemetry"
	"github.com/enp09/duende/internal/workers"
)

const serviceName = "duende-worker"

var version = "dev"

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	runOnce := flag.Bool("run-once", false, "Enqueue sync jobs for every connected user, then keep consuming")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.RabbitMQURL == "" {
		log.Fatalf("RABBITMQ_URL is required for the worker")
	}
	debugMode := cfg.WorkerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(serviceName, debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync(zapLogger) }()

	zapLogger.Info("starting_worker",
		zap.String("version", version),
		zap.Bool("debug_mode", debugMode),
		zap.String("schedule", cfg.Analysis.Cron),
		zap.String("schedule_timezone", cfg.Analysis.DefaultTimezone),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.OTELEnabled && cfg.OTELEndpoint != "" {
		tp, err := telemetry.InitTracer(ctx, telemetry.Options{
			ServiceName:    serviceName,
			ServiceVersion: version,
			Endpoint:       cfg.OTELEndpoint,
			Insecure:       true,
		})
		if err != nil {
			zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = telemetry.Shutdown(shutdownCtx, tp)
			}()
		}
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	redisClient, err := database.ConnectRedis(ctx, cfg.RedisURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
	}
	defer func() { _ = redisClient.Close() }()

	jobQueue, err := queue.ConnectWithRetry(ctx, cfg.RabbitMQURL, 10, 2*time.Second, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_rabbitmq", zap.Error(err))
	}
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_rabbitmq", zap.Int("prefetch", cfg.RabbitMQPrefetch))

	users := database.NewUserRepository(db)
	events := database.NewCalendarEventRepository(db)

	analysisService := analysis.NewService(users,
		database.NewSettingsRepository(db),
		events,
		database.NewSuggestionRepository(db),
		analysis.NewRedisLocker(redisClient, "duende:analysis:"),
		zapLogger,
		analysis.Options{
			Window:          cfg.AnalysisWindow(),
			DedupWindow:     cfg.Analysis.DedupWindow,
			SuggestionTTL:   cfg.Analysis.SuggestionTTL,
			LockTTL:         cfg.Analysis.LockTTL,
			DefaultLocation: cfg.DefaultLocation(),
		},
	)
	googleProvider := calendar.NewGoogleProvider(calendar.GoogleOptions{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		RedirectURL:  cfg.Google.RedirectURL,
	}, users, zapLogger)
	syncService := calendar.NewSyncService(users, events, googleProvider, calendar.DefaultSyncWindow, nil, zapLogger)

	processor := workers.NewCalendarProcessor(syncService, analysisService, jobQueue, zapLogger)

	scheduler, err := workers.NewScheduler(cfg.Analysis.Cron, cfg.DefaultLocation(), users, jobQueue, zapLogger)
	if err != nil {
		zapLogger.Fatal("invalid_schedule", zap.Error(err))
	}
	if err := scheduler.Start(ctx); err != nil {
		zapLogger.Fatal("failed_to_start_scheduler", zap.Error(err))
	}
	defer scheduler.Stop()

	if *runOnce {
		n, err := scheduler.ScheduleSyncJobs(ctx)
		if err != nil {
			zapLogger.Error("initial_schedule_failed", zap.Error(err))
		} else {
			zapLogger.Info("initial_sync_jobs_enqueued", zap.Int("jobs", n))
		}
	}

	messages, errs, err := jobQueue.Consume(ctx, cfg.RabbitMQPrefetch)
	if err != nil {
		zapLogger.Fatal("failed_to_start_consuming", zap.Error(err))
	}
	zapLogger.Info("worker_started")

	processor.Run(ctx, messages, errs)

	if errors.Is(ctx.Err(), context.Canceled) {
		zapLogger.Info("worker_stopping")
	}
	zapLogger.Info("worker_stopped")
}
