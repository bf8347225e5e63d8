package config

import (
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	pkgRetry "github.com/futig/jd-assessment/internal/pkg/retry"
	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	// Server configuration
	ServerAddr      string        `env:"SERVER_ADDR" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
	CORSOrigins     []string      `env:"CORS_ORIGINS" envDefault:"*" envSeparator:","`

	// Logging configuration
	LogCfg LogConfig `envPrefix:"LOG_"`

	// Assessment service connector
	AssessmentCfg AssessmentConnectorConfig `envPrefix:"ASSESSMENT_"`

	// Answer generation
	AnswerCfg AnswerConfig `envPrefix:"ANSWER_"`

	// Session workflow
	SessionCfg SessionConfig `envPrefix:"SESSION_"`

	// Question cache backend
	CacheCfg CacheConfig `envPrefix:"CACHE_"`

	// Mock configuration
	EnableMocks bool `env:"ENABLE_MOCKS" envDefault:"false"`

	// Telegram bot configuration (optional)
	TelegramCfg TelegramConfig `envPrefix:"TELEGRAM_"`

	// Environment (set from flag, not from env var)
	Environment string
}

type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
	// File enables an additional rotating JSON log file when set.
	File       string `env:"FILE"`
	MaxSizeMB  int    `env:"MAX_SIZE_MB" envDefault:"100"`
	MaxBackups int    `env:"MAX_BACKUPS" envDefault:"5"`
	MaxAgeDays int    `env:"MAX_AGE_DAYS" envDefault:"30"`
}

// TelegramConfig holds Telegram bot configuration
type TelegramConfig struct {
	BotToken           string `env:"BOT_TOKEN"`
	UpdateTimeout      int    `env:"UPDATE_TIMEOUT" envDefault:"60"`
	RateLimitPerMinute int    `env:"RATE_LIMIT_PER_MINUTE" envDefault:"30"`
	RateLimitBurst     int    `env:"RATE_LIMIT_BURST" envDefault:"5"`
	ShutdownTimeout    int    `env:"SHUTDOWN_TIMEOUT" envDefault:"10"` // seconds
	// StreamEditInterval throttles message edits while an answer streams in.
	StreamEditInterval time.Duration `env:"STREAM_EDIT_INTERVAL" envDefault:"1s"`
}

type AssessmentConnectorConfig struct {
	HTTPClientConfig
	AnalyzeJDEndpoint         string               `env:"ANALYZE_JD_ENDPOINT" envDefault:"/analyze-jd"`
	GenerateQuestionsEndpoint string               `env:"GENERATE_QUESTIONS_ENDPOINT" envDefault:"/generate-questions"`
	EvaluateAnswerEndpoint    string               `env:"EVALUATE_ANSWER_ENDPOINT" envDefault:"/evaluate-answer"`
	GenerateAnswerEndpoint    string               `env:"GENERATE_ANSWER_ENDPOINT" envDefault:"/generate-answer"`
	StreamAnswerEndpoint      string               `env:"STREAM_ANSWER_ENDPOINT" envDefault:"/generate-answer-stream"`
	LogsEndpoint              string               `env:"LOGS_ENDPOINT" envDefault:"/logs/{type}"`
	Retry                     pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

type HTTPClientConfig struct {
	RequestTimeout        time.Duration `env:"TIMEOUT" envDefault:"60s"`
	ConnTimeout           time.Duration `env:"CONN_TIMEOUT" envDefault:"10s"`
	KeepAlive             time.Duration `env:"KEEP_ALIVE" envDefault:"90s"`
	IdleConnTimeout       time.Duration `env:"IDLE_CONN_TIMEOUT" envDefault:"90s"`
	ResponseHeaderTimeout time.Duration `env:"RESPONSE_HEADER_TIMEOUT" envDefault:"30s"`
	Token                 string        `env:"TOKEN"`
	Url                   string        `env:"SERVICE_URL,notEmpty"`
}

type AnswerConfig struct {
	WordLimit     int           `env:"WORD_LIMIT" envDefault:"100"`
	StreamTimeout time.Duration `env:"STREAM_TIMEOUT" envDefault:"10s"`
}

type SessionConfig struct {
	TTL                  time.Duration `env:"TTL" envDefault:"24h"`
	ResultsDelay         time.Duration `env:"RESULTS_DELAY" envDefault:"1s"`
	DefaultQuestionCount int           `env:"DEFAULT_QUESTION_COUNT" envDefault:"10"`
	MinQuestionCount     int           `env:"MIN_QUESTION_COUNT" envDefault:"5"`
	MaxQuestionCount     int           `env:"MAX_QUESTION_COUNT" envDefault:"50"`
	MinJDLength          int           `env:"MIN_JD_LENGTH" envDefault:"200"`
	ConfidenceThreshold  float64       `env:"CONFIDENCE_THRESHOLD" envDefault:"80"`
}

const (
	CacheBackendMemory   = "memory"
	CacheBackendRedis    = "redis"
	CacheBackendPostgres = "postgres"
)

type CacheConfig struct {
	Backend       string        `env:"BACKEND" envDefault:"memory"`
	TTL           time.Duration `env:"TTL" envDefault:"0s"`
	RedisAddr     string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	DatabaseURL   string        `env:"DATABASE_URL"`
	DBMaxConns    int32         `env:"DB_MAX_CONNS" envDefault:"10"`
}

func LoadConfig() (*Config, error) {
	envFlag := flag.String("env", "local", "Environment to run (local, prod, or custom)")
	flag.Parse()

	envFile := getEnvFile(*envFlag)
	// Try to load env file, but don't fail if it's missing.
	// In containerized/prod environments variables are usually set externally.
	if err := godotenv.Load(envFile); err != nil {
		fmt.Printf("Warning: could not load %s file (this is ok if env vars are set externally): %v\n", envFile, err)
	}

	cfg, err := Parse()
	if err != nil {
		return nil, err
	}
	cfg.Environment = *envFlag

	return cfg, nil
}

// Parse reads the configuration from the process environment and validates it.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	var errs []error

	if cfg.AnswerCfg.WordLimit < 1 {
		errs = append(errs, fmt.Errorf("ANSWER_WORD_LIMIT must be positive, got %d", cfg.AnswerCfg.WordLimit))
	}

	if cfg.AnswerCfg.StreamTimeout <= 0 {
		errs = append(errs, fmt.Errorf("ANSWER_STREAM_TIMEOUT must be positive, got %s", cfg.AnswerCfg.StreamTimeout))
	}

	s := cfg.SessionCfg
	if s.MinQuestionCount < 1 || s.MinQuestionCount > s.MaxQuestionCount {
		errs = append(errs, fmt.Errorf("SESSION_MIN_QUESTION_COUNT must be between 1 and SESSION_MAX_QUESTION_COUNT(%d), got %d", s.MaxQuestionCount, s.MinQuestionCount))
	}

	if s.DefaultQuestionCount < s.MinQuestionCount || s.DefaultQuestionCount > s.MaxQuestionCount {
		errs = append(errs, fmt.Errorf("SESSION_DEFAULT_QUESTION_COUNT must be between %d and %d, got %d", s.MinQuestionCount, s.MaxQuestionCount, s.DefaultQuestionCount))
	}

	if s.ConfidenceThreshold < 0 || s.ConfidenceThreshold > 100 {
		errs = append(errs, fmt.Errorf("SESSION_CONFIDENCE_THRESHOLD must be between 0 and 100, got %v", s.ConfidenceThreshold))
	}

	if s.ResultsDelay < 0 {
		errs = append(errs, fmt.Errorf("SESSION_RESULTS_DELAY must not be negative, got %s", s.ResultsDelay))
	}

	switch cfg.CacheCfg.Backend {
	case CacheBackendMemory, CacheBackendRedis:
	case CacheBackendPostgres:
		if cfg.CacheCfg.DatabaseURL == "" {
			errs = append(errs, errors.New("CACHE_DATABASE_URL is required for the postgres cache backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("CACHE_BACKEND must be one of memory, redis, postgres, got %q", cfg.CacheCfg.Backend))
	}

	if cfg.TelegramCfg.RateLimitPerMinute < 1 || cfg.TelegramCfg.RateLimitPerMinute > 60 {
		errs = append(errs, fmt.Errorf("TELEGRAM_RATE_LIMIT_PER_MINUTE must be between 1 and 60, got %d", cfg.TelegramCfg.RateLimitPerMinute))
	}

	if cfg.TelegramCfg.RateLimitBurst < 1 || cfg.TelegramCfg.RateLimitBurst > 20 {
		errs = append(errs, fmt.Errorf("TELEGRAM_RATE_LIMIT_BURST must be between 1 and 20, got %d", cfg.TelegramCfg.RateLimitBurst))
	}

	if cfg.TelegramCfg.ShutdownTimeout < 1 || cfg.TelegramCfg.ShutdownTimeout > 300 {
		errs = append(errs, fmt.Errorf("TELEGRAM_SHUTDOWN_TIMEOUT must be between 1 and 300 seconds, got %d", cfg.TelegramCfg.ShutdownTimeout))
	}

	if len(errs) > 0 {
		msgs := make([]string, 0, len(errs))
		for _, err := range errs {
			msgs = append(msgs, err.Error())
		}
		return fmt.Errorf("configuration validation errors:\n  - %s", strings.Join(msgs, "\n  - "))
	}

	return nil
}

func getEnvFile(environment string) string {
	switch environment {
	case "prod", "production":
		return ".env.prod"
	case "local", "dev", "development":
		return ".env.local"
	default:
		return fmt.Sprintf(".env.%s", environment)
	}
}
