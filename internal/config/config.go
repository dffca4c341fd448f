package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Addr string
	Env  string

	// Database. Driver is either "sqlite3" or "postgres"; the DSN is passed
	// to database/sql as-is.
	DatabaseDriver string
	DatabaseDSN    string

	// Redis backing the recent-message cache.
	RedisURL string

	// Secret used to sign session cookies.
	CookieSecret string

	// Outbound email (verification). Empty host means emails are logged
	// instead of sent.
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	// BaseURL is the externally reachable address used in verification links.
	BaseURL string
}

// Load reads configuration from environment variables. In development a
// .env file is loaded first if present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Addr:           getEnv("ADDR", ":8080"),
		Env:            getEnv("ENV", "development"),
		DatabaseDriver: getEnv("DATABASE_DRIVER", "sqlite3"),
		DatabaseDSN:    getEnv("DATABASE_DSN", "pairchat.db"),
		RedisURL:       getEnv("REDIS_URL", "redis://localhost:6379/0"),
		CookieSecret:   os.Getenv("COOKIE_SECRET"),
		SMTPHost:       os.Getenv("SMTP_HOST"),
		SMTPPort:       getEnv("SMTP_PORT", "587"),
		SMTPUsername:   os.Getenv("SMTP_USERNAME"),
		SMTPPassword:   os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:       getEnv("SMTP_FROM", "noreply@pairchat.local"),
		BaseURL:        getEnv("BASE_URL", "http://localhost:8080"),
	}
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
