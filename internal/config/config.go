package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	ServerPort int
	AppEnv     string
	LogLevel   string

	DatabaseDriver string // sqlite or postgres
	DatabaseURL    string

	SessionSecret string
	JWTSecret     string
	SessionTTL    time.Duration

	Location  *time.Location
	UploadDir string
	RedisAddr string

	AdminUsername string
	AdminEmail    string
	AdminPassword string

	CORSOrigins     []string
	LoginRatePerMin int
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Load loads configuration from environment variables or sets defaults.
// A .env file in the working directory is read first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	ttl, err := time.ParseDuration(getEnv("SESSION_TTL", "720h"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL: %w", err)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("SESSION_TTL must be positive")
	}

	loc, err := time.LoadLocation(getEnv("TIMEZONE", "Local"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	rate, err := strconv.Atoi(getEnv("LOGIN_RATE_PER_MIN", "10"))
	if err != nil || rate <= 0 {
		return nil, fmt.Errorf("invalid LOGIN_RATE_PER_MIN %q", os.Getenv("LOGIN_RATE_PER_MIN"))
	}

	cfg := &Config{
		ServerPort:      port,
		AppEnv:          getEnv("APP_ENV", "development"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		DatabaseDriver:  strings.ToLower(getEnv("DATABASE_DRIVER", "sqlite")),
		DatabaseURL:     getEnv("DATABASE_URL", "./smarttools.db"),
		SessionSecret:   getEnv("SESSION_SECRET", ""),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		SessionTTL:      ttl,
		Location:        loc,
		UploadDir:       getEnv("UPLOAD_DIR", "./uploads"),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		AdminUsername:   getEnv("ADMIN_USERNAME", "admin"),
		AdminEmail:      getEnv("ADMIN_EMAIL", "admin@smarttools.local"),
		AdminPassword:   getEnv("ADMIN_PASSWORD", "admin123"),
		CORSOrigins:     splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		LoginRatePerMin: rate,
	}

	switch cfg.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.DatabaseDriver)
	}

	if cfg.SessionSecret == "" || cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("SESSION_SECRET and JWT_SECRET are required in production")
		}
		if cfg.SessionSecret == "" {
			cfg.SessionSecret = "dev-session-secret-change-me-0123456789"
		}
		if cfg.JWTSecret == "" {
			cfg.JWTSecret = "dev-jwt-secret-change-me"
		}
	}

	return cfg, nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
