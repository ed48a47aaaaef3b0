package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Server
	Port string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT
	JWTSecret        string
	JWTExpirationDur time.Duration

	// Payments provider
	ProviderAPIURL    string
	ProviderAPIToken  string
	ProviderProfileID string
	WebhookSecret     string

	// API key protecting the sync/import driver endpoints
	PipelineAPIKey string

	// Auto-post confidence thresholds. The live (webhook) path and the
	// batch (sync/import) path deliberately carry separate values; see
	// the review workflow docs before unifying them.
	AutoPostLiveThreshold  int
	AutoPostBatchThreshold int
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// Get values from environment variables with defaults
	config := &Config{
		// Server
		Port: getEnv("PORT", "8080"),

		// Database
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "minibooks"),
		DBPassword: getEnv("DB_PASSWORD", "minibooks"),
		DBName:     getEnv("DB_NAME", "minibooks"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),

		// Provider
		ProviderAPIURL:    getEnv("PROVIDER_API_URL", "https://api.sandbox.transferwise.tech"),
		ProviderAPIToken:  getEnv("PROVIDER_API_TOKEN", ""),
		ProviderProfileID: getEnv("PROVIDER_PROFILE_ID", ""),
		WebhookSecret:     getEnv("PROVIDER_WEBHOOK_SECRET", ""),

		PipelineAPIKey: getEnv("PIPELINE_API_KEY", ""),

		AutoPostLiveThreshold:  getEnvInt("AUTOPOST_THRESHOLD_LIVE", 80),
		AutoPostBatchThreshold: getEnvInt("AUTOPOST_THRESHOLD_BATCH", 40),
	}

	// Parse JWT expiration duration
	expStr := getEnv("JWT_EXPIRES_IN", "24h")
	expDur, err := time.ParseDuration(expStr)
	if err != nil {
		log.Printf("Warning: invalid JWT_EXPIRES_IN value '%s', falling back to 24h\n", expStr)
		expDur = 24 * time.Hour
	}
	config.JWTExpirationDur = expDur

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

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %d\n", key, value, defaultValue)
		return defaultValue
	}
	return n
}
