package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/enp09/duende/internal/config"
	"github.com/enp09/duende/internal/database"
	"github.com/enp09/duende/internal/handlers"
	"github.com/enp09/duende/internal/logger"
	"github.com/enp09/duende/internal/middleware"
	"github.com/enp09/duende/internal/queue"
	"github.com/enp09/duende/internal/services/ai"
	"github.com/enp09/duende/internal/services/analysis"
	"github.com/enp09/duende/internal/services/calendar"
	"github.com/enp09/duende/internal/services/planning"
	"github.com/enp09/duende/internal/telemetry"
)

const serviceName = "duende-server"

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const (
	configReloadInterval = time.Minute
	// Message generation waits on the model provider.
	requestTimeout = 60 * time.Second
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging, including model prompts and responses")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(serviceName, debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync(zapLogger) }()

	zapLogger.Info("starting_server",
		zap.String("version", version),
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("ai_model", cfg.AIModel),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracingEnabled := initTracing(ctx, cfg, zapLogger)

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_database")

	redisClient, err := database.ConnectRedis(ctx, cfg.RedisURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_redis")

	// The server does not publish jobs; the queue is only checked by /healthz.
	var jobQueue queue.JobQueue
	if cfg.RabbitMQURL != "" {
		q, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL, zapLogger)
		if err != nil {
			zapLogger.Warn("rabbitmq_unavailable", zap.Error(err))
		} else {
			jobQueue = q
			defer func() { _ = q.Close() }()
		}
	}

	users := database.NewUserRepository(db)
	settings := database.NewSettingsRepository(db)
	events := database.NewCalendarEventRepository(db)
	suggestions := database.NewSuggestionRepository(db)

	analysisService := analysis.NewService(users, settings, events, suggestions,
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

	planningService := planning.NewService(users, settings, events, database.NewIntentionRepository(db), zapLogger,
		planning.Options{DefaultLocation: cfg.DefaultLocation()})

	var generator ai.MessageGenerator
	if cfg.OpenAIKey != "" {
		generator = ai.NewOpenAIGenerator(cfg.OpenAIKey, cfg.AIBaseURL, cfg.AIModel, zapLogger, debugMode)
	} else {
		zapLogger.Warn("openai_api_key_not_set_message_generation_disabled")
	}

	healthChecker := handlers.NewHealthChecker(version)
	healthChecker.AddCheck("database", db.HealthCheck)
	healthChecker.AddCheck("redis", func(ctx context.Context) error { return redisClient.Ping(ctx).Err() })
	if jobQueue != nil {
		healthChecker.AddCheck("rabbitmq", jobQueue.HealthCheck)
	} else {
		healthChecker.AddCheck("rabbitmq", nil)
	}

	corsReloader := middleware.NewCORSReloader(database.NewCorsConfigRepository(db), cfg.FrontendURL, zapLogger, configReloadInterval)
	rateLimitReloader, err := newRateLimitReloader(redisClient, database.NewRatelimitConfigRepository(db), cfg.RateLimit, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_create_rate_limiter", zap.Error(err))
	}

	// API routes live on their own router so the rate limiter wraps them once.
	apiRouter := mux.NewRouter()
	if tracingEnabled {
		apiRouter.Use(telemetry.Middleware(serviceName))
	}
	api := apiRouter.PathPrefix("/api/v1").Subrouter()
	handlers.NewAdvocacyHandler(analysisService, users, suggestions, generator, zapLogger).
		RegisterRoutes(api.PathPrefix("/advocacy").Subrouter())
	handlers.NewSuggestionHandler(suggestions).RegisterRoutes(api.PathPrefix("/suggestions").Subrouter())
	handlers.NewCalendarHandler(syncService, events, zapLogger).RegisterRoutes(api.PathPrefix("/calendar").Subrouter())
	handlers.NewSettingsHandler(users, settings).RegisterRoutes(api.PathPrefix("/users").Subrouter())
	handlers.NewPlanningHandler(planningService, zapLogger).RegisterRoutes(api.PathPrefix("/planning").Subrouter())

	r := mux.NewRouter()
	// gorilla/mux runs middleware in registration order, outermost first.
	r.Use(middleware.RequestID)
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	r.Use(middleware.Logging(zapLogger))
	r.Use(middleware.Audit(zapLogger))
	r.Use(middleware.ErrorHandler(zapLogger))
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	r.Use(middleware.ContentType)
	r.Use(middleware.Timeout(requestTimeout))

	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/version", healthChecker.Version).Methods(http.MethodGet)
	r.PathPrefix("/api/v1").Handler(rateLimitReloader.Middleware()(apiRouter))

	// CORS wraps the router so preflights are answered before route matching.
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           corsReloader.Middleware()(r),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      requestTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go corsReloader.Start(ctx)
	go rateLimitReloader.Start(ctx)

	go func() {
		zapLogger.Info("server_listening", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLogger.Info("server_shutting_down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server_forced_to_shutdown", zap.Error(err))
	}
	zapLogger.Info("server_stopped")
}

// initTracing installs the OTLP tracer provider when enabled and registers its shutdown
// on ctx cancellation. It reports whether tracing is active.
func initTracing(ctx context.Context, cfg *config.Config, zapLogger *zap.Logger) bool {
	if !cfg.OTELEnabled {
		return false
	}
	if cfg.OTELEndpoint == "" {
		zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		return false
	}
	tp, err := telemetry.InitTracer(ctx, telemetry.Options{
		ServiceName:    serviceName,
		ServiceVersion: version,
		Endpoint:       cfg.OTELEndpoint,
		Insecure:       true,
	})
	if err != nil {
		zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
		return false
	}
	zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
			zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
		}
	}()
	return true
}

func newRateLimitReloader(client *redis.Client, repo middleware.RatelimitConfigStore, rate string, zapLogger *zap.Logger) (*middleware.RateLimitReloader, error) {
	store, err := middleware.NewLimiterStore(client)
	if err != nil {
		return nil, err
	}
	return middleware.NewRateLimitReloader(store, repo, rate, zapLogger, configReloadInterval), nil
}
