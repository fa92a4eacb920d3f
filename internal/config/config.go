package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds application configuration. Values come from an optional YAML file
// named by CONFIG_FILE, then from environment variables, which take precedence.
type Config struct {
	DatabaseURL      string `yaml:"database_url"`
	ServerPort       string `yaml:"server_port"`
	FrontendURL      string `yaml:"frontend_url"`
	EnableHSTS       bool   `yaml:"enable_hsts"`
	RedisURL         string `yaml:"redis_url"`
	RabbitMQURL      string `yaml:"rabbitmq_url"`
	RabbitMQPrefetch int    `yaml:"rabbitmq_prefetch"`
	ServerDebugMode  bool   `yaml:"server_debug_mode"`
	WorkerDebugMode  bool   `yaml:"worker_debug_mode"`
	OTELEnabled      bool   `yaml:"otel_enabled"`
	OTELEndpoint     string `yaml:"otel_endpoint"`
	// RateLimit seeds the stored API rate limit, in ulule/limiter format ("100-M").
	RateLimit string `yaml:"rate_limit"`

	OpenAIKey string `yaml:"openai_api_key"`
	AIModel   string `yaml:"ai_model"`
	AIBaseURL string `yaml:"ai_base_url"`

	Google GoogleConfig `yaml:"google"`

	Analysis AnalysisConfig `yaml:"analysis"`
}

// GoogleConfig holds the OAuth client used to read Google calendars.
type GoogleConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
}

// AnalysisConfig tunes calendar analysis and suggestion lifetimes.
type AnalysisConfig struct {
	WindowDays      int           `yaml:"window_days"`
	Cron            string        `yaml:"cron"`
	DefaultTimezone string        `yaml:"default_timezone"`
	LockTTL         time.Duration `yaml:"lock_ttl"`
	DedupWindow     time.Duration `yaml:"dedup_window"`
	SuggestionTTL   time.Duration `yaml:"suggestion_ttl"`
}

// Load builds the configuration from defaults, CONFIG_FILE and the environment.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		ServerPort:       "8080",
		FrontendURL:      "http://localhost:3000",
		RedisURL:         "redis://localhost:6379/0",
		RabbitMQPrefetch: 1,
		Google: GoogleConfig{
			RedirectURL: "http://localhost:3000/api/auth/google/callback",
		},
		Analysis: AnalysisConfig{
			WindowDays:      7,
			Cron:            "0 6 * * *",
			DefaultTimezone: "UTC",
			LockTTL:         30 * time.Second,
			DedupWindow:     24 * time.Hour,
			SuggestionTTL:   48 * time.Hour,
		},
	}
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.ServerPort = getEnv("SERVER_PORT", c.ServerPort)
	c.FrontendURL = getEnv("FRONTEND_URL", c.FrontendURL)
	c.EnableHSTS = getEnvBool("ENABLE_HSTS", c.EnableHSTS)
	c.RedisURL = getEnv("REDIS_URL", c.RedisURL)
	c.RabbitMQURL = getEnv("RABBITMQ_URL", c.RabbitMQURL)
	c.RabbitMQPrefetch = getEnvInt("RABBITMQ_PREFETCH", c.RabbitMQPrefetch)
	c.ServerDebugMode = getEnvBool("SERVER_DEBUG_MODE", c.ServerDebugMode)
	c.WorkerDebugMode = getEnvBool("WORKER_DEBUG_MODE", c.WorkerDebugMode)
	c.OTELEnabled = getEnvBool("OTEL_ENABLED", c.OTELEnabled)
	c.OTELEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", c.OTELEndpoint)
	c.RateLimit = getEnv("RATE_LIMIT", c.RateLimit)

	c.OpenAIKey = getEnv("OPENAI_API_KEY", c.OpenAIKey)
	c.AIModel = getEnv("AI_MODEL", c.AIModel)
	c.AIBaseURL = getEnv("AI_BASE_URL", c.AIBaseURL)

	c.Google.ClientID = getEnv("GOOGLE_CLIENT_ID", c.Google.ClientID)
	c.Google.ClientSecret = getEnv("GOOGLE_CLIENT_SECRET", c.Google.ClientSecret)
	c.Google.RedirectURL = getEnv("GOOGLE_REDIRECT_URI", c.Google.RedirectURL)

	c.Analysis.WindowDays = getEnvInt("ANALYSIS_WINDOW_DAYS", c.Analysis.WindowDays)
	c.Analysis.Cron = getEnv("ANALYSIS_CRON", c.Analysis.Cron)
	c.Analysis.DefaultTimezone = getEnv("DEFAULT_TIMEZONE", c.Analysis.DefaultTimezone)
	c.Analysis.LockTTL = getEnvDuration("ANALYSIS_LOCK_TTL", c.Analysis.LockTTL)
	c.Analysis.DedupWindow = getEnvDuration("ANALYSIS_DEDUP_WINDOW", c.Analysis.DedupWindow)
	c.Analysis.SuggestionTTL = getEnvDuration("SUGGESTION_TTL", c.Analysis.SuggestionTTL)
}

// Validate checks required keys and value ranges.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.Analysis.WindowDays <= 0 {
		return fmt.Errorf("ANALYSIS_WINDOW_DAYS must be positive, got %d", c.Analysis.WindowDays)
	}
	if _, err := time.LoadLocation(c.Analysis.DefaultTimezone); err != nil {
		return fmt.Errorf("invalid DEFAULT_TIMEZONE %q: %w", c.Analysis.DefaultTimezone, err)
	}
	if c.Analysis.LockTTL <= 0 {
		return errors.New("ANALYSIS_LOCK_TTL must be positive")
	}
	return nil
}

// DefaultLocation returns the timezone used for users without one.
func (c *Config) DefaultLocation() *time.Location {
	loc, err := time.LoadLocation(c.Analysis.DefaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// AnalysisWindow returns the look-ahead used when loading events for analysis.
func (c *Config) AnalysisWindow() time.Duration {
	return time.Duration(c.Analysis.WindowDays) * 24 * time.Hour
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
