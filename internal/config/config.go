package config

import (
	"log"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// MongoDB Configuration
	MongoURI      string
	MongoDatabase string
	MongoTimeout  time.Duration

	// HTTP Server Configuration
	HTTPPort         string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration

	// Logging Configuration
	LogLevel  string
	LogFormat string

	// CORS Configuration
	CORSAllowedOrigins   string
	CORSAllowedMethods   string
	CORSAllowedHeaders   string
	CORSAllowCredentials bool
	CORSMaxAge           int

	// Worker Configuration
	WorkerEnabled  bool
	WorkerCadence  time.Duration
	WorkerSchedule string

	// Render Provider Configuration
	RenderBaseURL     string
	RenderAPIKey      string
	RenderCountryCode string
	RenderTimeout     time.Duration
	RenderMaxAttempts int

	// Browser Configuration
	BrowserHeadless    bool
	BrowserBinPath     string
	BrowserPageTimeout time.Duration

	// Session Configuration
	SessionTTL time.Duration

	// Credential Encryption
	EncryptionKeyHex string
}

// Load reads configuration from environment variables with sensible defaults.
// A local .env file is loaded first when present.
func Load() *Config {
	if err := godotenv.Load(); err == nil {
		slog.Info("Loaded configuration from .env file")
	}

	return &Config{
		// MongoDB
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017/reservation_monitor?authSource=admin"),
		MongoDatabase: getEnv("MONGO_DATABASE", "reservation_monitor"),
		MongoTimeout:  getDurationEnv("MONGO_TIMEOUT_SEC", 10) * time.Second,

		// HTTP Server
		HTTPPort:         getEnv("HTTP_PORT", "8080"),
		HTTPReadTimeout:  getDurationEnv("HTTP_READ_TIMEOUT_SEC", 30) * time.Second,
		HTTPWriteTimeout: getDurationEnv("HTTP_WRITE_TIMEOUT_SEC", 120) * time.Second,

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		// CORS
		CORSAllowedOrigins:   getEnv("CORS_ALLOWED_ORIGINS", "*"),
		CORSAllowedMethods:   getEnv("CORS_ALLOWED_METHODS", "GET, POST, PUT, DELETE, OPTIONS, PATCH"),
		CORSAllowedHeaders:   getEnv("CORS_ALLOWED_HEADERS", "*"),
		CORSAllowCredentials: getBoolEnv("CORS_ALLOW_CREDENTIALS", true),
		CORSMaxAge:           getIntEnv("CORS_MAX_AGE", 3600),

		// Worker
		WorkerEnabled:  getBoolEnv("WORKER_ENABLED", true),
		WorkerCadence:  getDurationEnv("WORKER_CADENCE_MIN", 30) * time.Minute,
		WorkerSchedule: getEnv("WORKER_SCHEDULE", "*/30 * * * *"),

		// Render Provider
		RenderBaseURL:     getEnv("RENDER_BASE_URL", "https://api.scrapingbee.com/v1"),
		RenderAPIKey:      getEnv("RENDER_API_KEY", ""),
		RenderCountryCode: getEnv("RENDER_COUNTRY_CODE", "br"),
		RenderTimeout:     getDurationEnv("RENDER_TIMEOUT_SEC", 90) * time.Second,
		RenderMaxAttempts: getIntEnv("RENDER_MAX_ATTEMPTS", 3),

		// Browser
		BrowserHeadless:    getBoolEnv("BROWSER_HEADLESS", true),
		BrowserBinPath:     getEnv("BROWSER_BIN_PATH", ""),
		BrowserPageTimeout: getDurationEnv("BROWSER_PAGE_TIMEOUT_SEC", 60) * time.Second,

		// Sessions
		SessionTTL: getDurationEnv("SESSION_TTL_HOURS", 24) * time.Hour,

		// Credential encryption (hex-encoded 32-byte key)
		EncryptionKeyHex: getEnv("ENCRYPTION_KEY", ""),
	}
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Printf("Warning: Invalid integer value for %s, using default %d", key, defaultValue)
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue int) time.Duration {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return time.Duration(intVal)
		}
		log.Printf("Warning: Invalid duration value for %s, using default %d", key, defaultValue)
	}
	return time.Duration(defaultValue)
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
		log.Printf("Warning: Invalid boolean value for %s, using default %t", key, defaultValue)
	}
	return defaultValue
}
