package config

import (
	"log"
	"os"
	"strconv"
	"time"
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

	// Scheduler Configuration. The dispatcher tick interval is deliberately
	// not configurable; see internal/scheduler.
	SchedulerEnabled     bool
	SchedulerLockTTL     time.Duration
	SchedulerConcurrency int

	// Async Reconcile Configuration
	ReconcileWorkers   int
	ReconcileQueueSize int

	// Webhook Configuration (empty URL disables notifications)
	WebhookURL             string
	WebhookTimeout         time.Duration
	WebhookMaxAttempts     int
	WebhookInitialDelayMs  int
	WebhookMaxDelayMs      int
	WebhookBackoffMultiple float64

	// Janitor Configuration
	JanitorSchedule  string
	JanitorRetention time.Duration

	// CORS Configuration
	CORSAllowedOrigins   string
	CORSAllowedMethods   string
	CORSAllowedHeaders   string
	CORSAllowCredentials bool
	CORSMaxAge           int
}

// Load reads configuration from environment variables with sensible defaults
func Load() *Config {
	return &Config{
		// MongoDB
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017/lull?authSource=admin"),
		MongoDatabase: getEnv("MONGO_DATABASE", "lull"),
		MongoTimeout:  getDurationEnv("MONGO_TIMEOUT_SEC", 10) * time.Second,

		// HTTP Server
		HTTPPort:         getEnv("HTTP_PORT", "8080"),
		HTTPReadTimeout:  getDurationEnv("HTTP_READ_TIMEOUT_SEC", 30) * time.Second,
		HTTPWriteTimeout: getDurationEnv("HTTP_WRITE_TIMEOUT_SEC", 30) * time.Second,

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		// Scheduler
		SchedulerEnabled:     getBoolEnv("SCHEDULER_ENABLED", true),
		SchedulerLockTTL:     getDurationEnv("SCHEDULER_LOCK_TTL_SEC", 300) * time.Second,
		SchedulerConcurrency: getIntEnv("SCHEDULER_CONCURRENCY", 10),

		// Async reconcile
		ReconcileWorkers:   getIntEnv("RECONCILE_WORKERS", 4),
		ReconcileQueueSize: getIntEnv("RECONCILE_QUEUE_SIZE", 100),

		// Webhook
		WebhookURL:             getEnv("WEBHOOK_URL", ""),
		WebhookTimeout:         getDurationEnv("WEBHOOK_TIMEOUT_SEC", 10) * time.Second,
		WebhookMaxAttempts:     getIntEnv("WEBHOOK_MAX_ATTEMPTS", 3),
		WebhookInitialDelayMs:  getIntEnv("WEBHOOK_INITIAL_DELAY_MS", 500),
		WebhookMaxDelayMs:      getIntEnv("WEBHOOK_MAX_DELAY_MS", 10000),
		WebhookBackoffMultiple: getFloatEnv("WEBHOOK_BACKOFF_MULTIPLIER", 2.0),

		// Janitor
		JanitorSchedule:  getEnv("JANITOR_SCHEDULE", "0 2 * * *"),
		JanitorRetention: getDurationEnv("JANITOR_RETENTION_DAYS", 30) * 24 * time.Hour,

		// CORS
		CORSAllowedOrigins:   getEnv("CORS_ALLOWED_ORIGINS", "*"),
		CORSAllowedMethods:   getEnv("CORS_ALLOWED_METHODS", "GET, POST, PUT, DELETE, OPTIONS, PATCH"),
		CORSAllowedHeaders:   getEnv("CORS_ALLOWED_HEADERS", "*"),
		CORSAllowCredentials: getBoolEnv("CORS_ALLOW_CREDENTIALS", true),
		CORSMaxAge:           getIntEnv("CORS_MAX_AGE", 3600),
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

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
		log.Printf("Warning: Invalid float value for %s, using default %g", key, defaultValue)
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
