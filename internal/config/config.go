package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Cache backend constants
const (
	CacheBackendMemory  = "memory"
	CacheBackendRedis   = "redis"
	CacheBackendRueidis = "rueidis"
)

type Config struct {
	// Server settings
	ServerAddr   string
	BaseURL      string
	IsProduction bool

	// Session token settings
	JWTSecret              string
	JWTExpiration          time.Duration
	RefreshTokenExpiration time.Duration

	// Device authorization settings
	DeviceCodeExpiration time.Duration
	PollInterval         time.Duration

	// Single-use token settings
	DownloadTokenExpiration time.Duration
	ResetTokenExpiration    time.Duration

	// Credential cache
	CacheBackend     string // "memory", "redis" or "rueidis"
	CacheInitTimeout time.Duration
	RedisAddr        string
	RedisPassword    string
	RedisDB          int

	// Database (principal / client records)
	DatabaseDriver string // "sqlite" or "postgres"
	DatabaseDSN    string

	// Rate limiting (authorize / reset endpoints)
	EnableRateLimit    bool
	RateLimitStore     string // "memory" or "redis"
	RateLimitPerMinute int

	// Notifier (Apprise endpoint for reset delivery)
	AppriseURL          string
	AppriseTargets      []string
	NotifyAuthMode      string // "none", "simple" or "hmac"
	NotifyAuthSecret    string
	NotifyTimeout       time.Duration
	NotifyMaxRetries    int
	NotifyRetryDelay    time.Duration
	NotifyMaxRetryDelay time.Duration

	// Metrics
	MetricsEnabled bool
}

func Load() *Config {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	return &Config{
		ServerAddr:   getEnv("SERVER_ADDR", ":8080"),
		BaseURL:      getEnv("BASE_URL", "http://localhost:8080"),
		IsProduction: getEnv("ENVIRONMENT", "development") == "production",

		JWTSecret:              getEnv("JWT_SECRET", "your-256-bit-secret-change-in-production"),
		JWTExpiration:          getEnvDuration("JWT_EXPIRATION", time.Hour),
		RefreshTokenExpiration: getEnvDuration("REFRESH_TOKEN_EXPIRATION", 720*time.Hour),

		DeviceCodeExpiration: getEnvDuration("DEVICE_CODE_EXPIRATION", 10*time.Minute),
		PollInterval:         getEnvDuration("DEVICE_POLL_INTERVAL", 5*time.Second),

		DownloadTokenExpiration: getEnvDuration("DOWNLOAD_TOKEN_EXPIRATION", time.Hour),
		ResetTokenExpiration:    getEnvDuration("RESET_TOKEN_EXPIRATION", 30*time.Minute),

		CacheBackend:     getEnv("CACHE_BACKEND", CacheBackendMemory),
		CacheInitTimeout: getEnvDuration("CACHE_INIT_TIMEOUT", 5*time.Second),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisDB:          getEnvInt("REDIS_DB", 0),

		DatabaseDriver: getEnv("DATABASE_DRIVER", "sqlite"),
		DatabaseDSN:    getEnv("DATABASE_DSN", "vitransfer.db"),

		EnableRateLimit:    getEnvBool("ENABLE_RATE_LIMIT", true),
		RateLimitStore:     getEnv("RATE_LIMIT_STORE", "memory"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 30),

		AppriseURL:          getEnv("APPRISE_URL", ""),
		AppriseTargets:      getEnvSlice("APPRISE_TARGETS", nil),
		NotifyAuthMode:      getEnv("NOTIFY_AUTH_MODE", "none"),
		NotifyAuthSecret:    getEnv("NOTIFY_AUTH_SECRET", ""),
		NotifyTimeout:       getEnvDuration("NOTIFY_TIMEOUT", 10*time.Second),
		NotifyMaxRetries:    getEnvInt("NOTIFY_MAX_RETRIES", 3),
		NotifyRetryDelay:    getEnvDuration("NOTIFY_RETRY_DELAY", time.Second),
		NotifyMaxRetryDelay: getEnvDuration("NOTIFY_MAX_RETRY_DELAY", 10*time.Second),

		MetricsEnabled: getEnvBool("METRICS_ENABLED", true),
	}
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	switch c.CacheBackend {
	case CacheBackendMemory, CacheBackendRedis, CacheBackendRueidis:
	default:
		return fmt.Errorf("unknown cache backend %q", c.CacheBackend)
	}

	switch c.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown database driver %q", c.DatabaseDriver)
	}

	switch c.RateLimitStore {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown rate limit store %q", c.RateLimitStore)
	}

	if c.BaseURL == "" {
		return fmt.Errorf("BASE_URL must be set")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must be set")
	}
	if c.DeviceCodeExpiration <= 0 {
		return fmt.Errorf("DEVICE_CODE_EXPIRATION must be positive")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("DEVICE_POLL_INTERVAL must be positive")
	}

	return nil
}

// PollIntervalSeconds returns the poll interval the way the device flow
// reports it to clients (whole seconds, minimum 1).
func (c *Config) PollIntervalSeconds() int {
	s := int(c.PollInterval / time.Second)
	if s < 1 {
		s = 1
	}
	return s
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var i int
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
			return i
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

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var parts []string
		for _, part := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				parts = append(parts, trimmed)
			}
		}
		if len(parts) > 0 {
			return parts
		}
	}
	return defaultValue
}
