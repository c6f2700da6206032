package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Environment string
	ServerPort  string

	DatabaseType string // sqlite, postgres, mysql
	DatabasePath string // SQLite file path
	DatabaseURL  string // PostgreSQL/MySQL connection string

	SessionDuration time.Duration
	SessionStore    string // sql or redis
	RedisAddr       string
	RedisPassword   string
	RedisDB         int

	JWTSecret string
	JWTIssuer string

	CORSOrigins        []string
	RateLimitPerMinute int
	TrustProxy         bool // take the client IP from X-Forwarded-For / X-Real-IP

	LogLevel  string
	LogFormat string

	AWSRegion    string
	SESFromEmail string
	SESFromName  string
	AppBaseURL   string
	EmailDebug   bool
}

// Load reads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	cfg := &Config{
		Environment:        getEnv("APP_ENV", "development"),
		ServerPort:         getEnv("PORT", "8080"),
		DatabaseType:       strings.ToLower(getEnv("DB_TYPE", "sqlite")),
		DatabasePath:       getEnv("DB_PATH", "./familylink.db"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		SessionDuration:    time.Duration(getEnvInt("SESSION_DURATION_HOURS", 24)) * time.Hour,
		SessionStore:       strings.ToLower(getEnv("SESSION_STORE", "sql")),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisDB:            getEnvInt("REDIS_DB", 0),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		JWTIssuer:          getEnv("JWT_ISSUER", "familylink"),
		CORSOrigins:        parseCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 10),
		TrustProxy:         getEnv("TRUST_PROXY", "") == "true",
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "console"),
		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		SESFromEmail:       getEnv("SES_FROM_EMAIL", ""),
		SESFromName:        getEnv("SES_FROM_NAME", "FamilyLink"),
		AppBaseURL:         getEnv("APP_BASE_URL", "http://localhost:8080"),
		EmailDebug:         getEnv("EMAIL_DEBUG", "") == "true",
	}

	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			return nil, errors.New("JWT_SECRET is required in production")
		}
		cfg.JWTSecret = "dev-secret-change-me"
	}

	switch cfg.DatabaseType {
	case "sqlite", "sqlite3", "postgres", "postgresql", "mysql":
	default:
		return nil, fmt.Errorf("unsupported DB_TYPE: %s", cfg.DatabaseType)
	}
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "sqlite3" && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required for DB_TYPE=%s", cfg.DatabaseType)
	}

	switch cfg.SessionStore {
	case "sql", "redis":
	default:
		return nil, fmt.Errorf("unsupported SESSION_STORE: %s", cfg.SessionStore)
	}

	if cfg.SessionDuration <= 0 {
		cfg.SessionDuration = 24 * time.Hour
	}
	if cfg.RateLimitPerMinute <= 0 {
		cfg.RateLimitPerMinute = 10
	}

	return cfg, nil
}

// IsProduction reports whether the app runs with APP_ENV=production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c *Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.ServerPort)
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
