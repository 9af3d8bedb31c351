package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kapu/trend-script-go/internal/constants"
	"github.com/kapu/trend-script-go/internal/domain"
	"github.com/kapu/trend-script-go/internal/util"
)

type Config struct {
	Gemini   GeminiConfig
	OpenAI   OpenAIConfig
	Pipeline PipelineConfig
	Metrics  MetricsConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logging  LoggingConfig
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type OpenAIConfig struct {
	APIKey         string
	Model          string
	EnableFallback bool
}

type PipelineConfig struct {
	MaxRetries       int
	EnableValidation bool
	MaxConcurrency   int
	DefaultDuration  int
	DefaultTone      string
	DefaultLanguage  string
	GenerateTimeout  time.Duration
	Platforms        []string
}

type MetricsConfig struct {
	HistorySize int
	Addr        string
}

type PostgresConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Enabled reports whether a trend store is configured.
func (p PostgresConfig) Enabled() bool {
	return p.Host != ""
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	TTL      time.Duration
}

func (r RedisConfig) Enabled() bool {
	return r.Host != ""
}

type LoggingConfig struct {
	Level  string
	File   string
	Format string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Gemini: GeminiConfig{
			APIKey: getEnv("GEMINI_API_KEY", ""),
			Model:  getEnv("GEMINI_MODEL", constants.ModelDefaults.GeminiModel),
		},
		OpenAI: OpenAIConfig{
			APIKey:         getEnv("OPENAI_API_KEY", ""),
			Model:          getEnv("OPENAI_MODEL", constants.ModelDefaults.OpenAIModel),
			EnableFallback: getEnvBool("OPENAI_ENABLE_FALLBACK", true),
		},
		Pipeline: PipelineConfig{
			MaxRetries:       getEnvInt("PIPELINE_MAX_RETRIES", constants.PipelineConfig.MaxRetries),
			EnableValidation: getEnvBool("PIPELINE_ENABLE_VALIDATION", constants.PipelineConfig.EnableValidation),
			MaxConcurrency:   getEnvInt("PIPELINE_MAX_CONCURRENCY", constants.PipelineConfig.MaxConcurrency),
			DefaultDuration:  getEnvInt("PIPELINE_DEFAULT_DURATION", 45),
			DefaultTone:      getEnv("PIPELINE_DEFAULT_TONE", "entertaining"),
			DefaultLanguage:  getEnv("PIPELINE_DEFAULT_LANGUAGE", "en"),
			Platforms:        util.SplitCSV(getEnv("PIPELINE_PLATFORMS", "tiktok,reels,shorts")),
			GenerateTimeout:  time.Duration(getEnvInt("PIPELINE_GENERATE_TIMEOUT_SECONDS", int(constants.ModelDefaults.Timeout/time.Second))) * time.Second,
		},
		Metrics: MetricsConfig{
			HistorySize: getEnvInt("METRICS_HISTORY_SIZE", constants.MetricsConfig.HistorySize),
			Addr:        getEnv("METRICS_ADDR", ""),
		},
		Postgres: PostgresConfig{
			Host:     getEnv("POSTGRES_HOST", ""),
			Port:     getEnvInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "trends"),
			Password: getEnv("POSTGRES_PASSWORD", ""),
			Database: getEnv("POSTGRES_DB", "trends"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

			MaxOpenConns:    getEnvInt("POSTGRES_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("POSTGRES_MAX_IDLE_CONNS", 2),
			ConnMaxLifetime: time.Duration(getEnvInt("POSTGRES_CONN_MAX_LIFETIME_MINUTES", 5)) * time.Minute,
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", ""),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			TTL:      time.Duration(getEnvInt("REDIS_RESULT_TTL_MINUTES", int(constants.CacheTTL.GenerationResult/time.Minute))) * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			File:   getEnv("LOG_FILE", ""),
			Format: getEnv("LOG_FORMAT", "console"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks structural settings. Missing model credentials are not an
// error here; the model manager reports them as configuration errors when a
// generation is attempted, so offline commands like scoring still work.
func (c *Config) Validate() error {
	if c.Pipeline.MaxRetries < 1 {
		return fmt.Errorf("PIPELINE_MAX_RETRIES must be at least 1")
	}
	if c.Pipeline.MaxConcurrency < 0 {
		return fmt.Errorf("PIPELINE_MAX_CONCURRENCY must not be negative")
	}
	if c.Pipeline.DefaultDuration <= 0 {
		return fmt.Errorf("PIPELINE_DEFAULT_DURATION must be positive")
	}
	if len(c.Pipeline.Platforms) == 0 {
		return fmt.Errorf("PIPELINE_PLATFORMS must name at least one platform")
	}
	if _, err := domain.ParsePlatforms(c.Pipeline.Platforms); err != nil {
		return fmt.Errorf("PIPELINE_PLATFORMS: %w", err)
	}
	if c.Metrics.HistorySize < 1 {
		return fmt.Errorf("METRICS_HISTORY_SIZE must be at least 1")
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be console or json")
	}
	return nil
}

// HasModelCredentials reports whether at least one provider can be built.
func (c *Config) HasModelCredentials() bool {
	return c.Gemini.APIKey != "" || c.OpenAI.APIKey != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
