package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/benvon/daily-journal/internal/validation"
)

// Store drivers accepted by STORE_DRIVER
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config holds application configuration
type Config struct {
	StoreDriver      string `validate:"oneof=postgres memory"`
	DatabaseURL      string `validate:"required_if=StoreDriver postgres"`
	TelegramToken    string
	RedisURL         string
	RabbitMQURL      string
	RabbitMQPrefetch int `validate:"min=1"`

	GraphBaseURL      string `validate:"required,url"`
	GraphUserToken    string
	CommitMaxRetries  int           `validate:"min=1"`
	CommitInsertDelay time.Duration `validate:"min=0"`
	CommitRetryDelay  time.Duration `validate:"min=0"`
	CommitHTTPTimeout time.Duration `validate:"gt=0"`

	QuoteTime     string `validate:"clock"`
	ReminderTime  string `validate:"clock"`
	ReportWeekday time.Weekday
	ReportTime    string `validate:"clock"`
	Location      *time.Location

	QuotesFile  string
	JournalFont string

	ChatRateLimit        string `validate:"required"`
	AdminPort            string `validate:"required,numeric"`
	AdminJWTSecret       string
	AdminAllowedOrigins  []string
	BroadcastConcurrency int `validate:"min=1"`

	OTELEnabled     bool
	OTELEndpoint    string
	BotDebugMode    bool
	WorkerDebugMode bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	weekday, err := parseWeekday(getEnv("REPORT_WEEKDAY", "friday"))
	if err != nil {
		return nil, err
	}

	loc := time.Local
	if tz := getEnv("TIMEZONE", ""); tz != "" {
		loc, err = time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tz, err)
		}
	}

	cfg := &Config{
		StoreDriver:      strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		TelegramToken:    getEnv("TELEGRAM_BOT_TOKEN", ""),
		RedisURL:         getEnv("REDIS_URL", ""),
		RabbitMQURL:      getEnv("RABBITMQ_URL", ""),
		RabbitMQPrefetch: getEnvInt("RABBITMQ_PREFETCH", 1),

		GraphBaseURL:      strings.TrimRight(getEnv("GRAPH_BASE_URL", "https://pixe.la/v1/users/journal"), "/"),
		GraphUserToken:    getEnv("GRAPH_USER_TOKEN", ""),
		CommitMaxRetries:  getEnvInt("COMMIT_MAX_RETRIES", 10),
		CommitInsertDelay: getEnvDuration("COMMIT_INSERT_DELAY", 2*time.Second),
		CommitRetryDelay:  getEnvDuration("COMMIT_RETRY_DELAY", 3*time.Second),
		CommitHTTPTimeout: getEnvDuration("COMMIT_HTTP_TIMEOUT", 10*time.Second),

		QuoteTime:     getEnv("QUOTE_TIME", "08:00"),
		ReminderTime:  getEnv("REMINDER_TIME", "21:30"),
		ReportWeekday: weekday,
		ReportTime:    getEnv("REPORT_TIME", "18:00"),
		Location:      loc,

		QuotesFile:  getEnv("QUOTES_FILE", ""),
		JournalFont: getEnv("JOURNAL_FONT", ""),

		ChatRateLimit:        getEnv("CHAT_RATE_LIMIT", "30-M"),
		AdminPort:            getEnv("ADMIN_PORT", "8080"),
		AdminJWTSecret:       getEnv("ADMIN_JWT_SECRET", ""),
		AdminAllowedOrigins:  SplitList(getEnv("ADMIN_ALLOWED_ORIGINS", "")),
		BroadcastConcurrency: getEnvInt("BROADCAST_CONCURRENCY", 8),

		OTELEnabled:     getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		BotDebugMode:    getEnvBool("BOT_DEBUG_MODE", false),
		WorkerDebugMode: getEnvBool("WORKER_DEBUG_MODE", false),
	}

	if err := validation.Validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// ApplyLocation makes Location the process's local zone. Days are keyed by
// local wall time throughout, so processes call this once at startup before
// any goroutine reads the clock.
func (c *Config) ApplyLocation() {
	if c.Location != nil {
		time.Local = c.Location
	}
}

// RequireTelegram reports an error when the bot token is missing
func (c *Config) RequireTelegram() error {
	if c.TelegramToken == "" {
		return errors.New("TELEGRAM_BOT_TOKEN is required")
	}
	return nil
}

// RequireRabbitMQ reports an error when the job queue is not configured
func (c *Config) RequireRabbitMQ() error {
	if c.RabbitMQURL == "" {
		return errors.New("RABBITMQ_URL is required for scheduled broadcasts")
	}
	return nil
}

// ParseClock parses an HH:MM wall clock time into hours and minutes past midnight
func ParseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// SplitList splits a comma separated value, trimming blanks and duplicates
func SplitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	seen := make(map[string]bool)
	for _, p := range strings.Split(raw, ",") {
		s := strings.TrimSpace(p)
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func parseWeekday(s string) (time.Weekday, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), s) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("invalid REPORT_WEEKDAY %q", s)
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
