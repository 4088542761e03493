package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Server
	Env        string
	Port       string
	CORSOrigin string

	// Database
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	// JWT
	JWTSecret        string
	JWTExpirationDur time.Duration

	// Email
	ResendAPIKey string
	EmailFrom    string

	// Rate limiting for the public auth routes, per client IP
	AuthRateLimit float64
	AuthRateBurst int

	// Cron spec for the overdue sweep; empty disables it
	OverdueSweepSchedule string

	// Optional key protecting /metrics
	MetricsAPIKey string
}

var appConfig *Config

// devJWTSecret signs tokens outside production when JWT_SECRET is unset.
const devJWTSecret = "fallback-secret-key-for-dev-only"

// ErrMissingJWTSecret is returned by Load when ENV=production has no JWT_SECRET.
var ErrMissingJWTSecret = errors.New("JWT_SECRET must be set when ENV=production")

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		// Server
		Env:        getEnv("ENV", "development"),
		Port:       getEnv("PORT", "5000"),
		CORSOrigin: getEnv("CORS_ORIGIN", "http://localhost:5173"),

		// Database
		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "invoiceflow"),
		DBPassword: getEnv("DB_PASSWORD", "invoiceflow"),
		DBName:     getEnv("DB_NAME", "invoiceflow"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		SQLitePath: getEnv("SQLITE_PATH", "invoiceflow.db"),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", devJWTSecret),

		// Email
		ResendAPIKey: os.Getenv("RESEND_API_KEY"),
		EmailFrom:    getEnv("EMAIL_FROM", "invoices@yourdomain.com"),

		OverdueSweepSchedule: getEnvAllowEmpty("OVERDUE_SWEEP_SCHEDULE", "@hourly"),
		MetricsAPIKey:        os.Getenv("METRICS_API_KEY"),
	}

	if config.IsProduction() && os.Getenv("JWT_SECRET") == "" {
		return nil, ErrMissingJWTSecret
	}

	expStr := getEnv("JWT_EXPIRES_IN", "720h")
	expDur, err := time.ParseDuration(expStr)
	if err != nil {
		log.Printf("Warning: invalid JWT_EXPIRES_IN value '%s', falling back to 720h\n", expStr)
		expDur = 30 * 24 * time.Hour
	}
	config.JWTExpirationDur = expDur

	rateStr := getEnv("AUTH_RATE_LIMIT", "5")
	rate, err := strconv.ParseFloat(rateStr, 64)
	if err != nil || rate <= 0 {
		log.Printf("Warning: invalid AUTH_RATE_LIMIT value '%s', falling back to 5\n", rateStr)
		rate = 5
	}
	config.AuthRateLimit = rate

	burstStr := getEnv("AUTH_RATE_BURST", "10")
	burst, err := strconv.Atoi(burstStr)
	if err != nil || burst <= 0 {
		log.Printf("Warning: invalid AUTH_RATE_BURST value '%s', falling back to 10\n", burstStr)
		burst = 10
	}
	config.AuthRateBurst = burst

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// IsProduction reports whether the service runs with ENV=production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAllowEmpty is like getEnv but honours an explicitly empty value.
func getEnvAllowEmpty(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}
