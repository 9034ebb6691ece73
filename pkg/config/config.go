package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service settings, read from environment variables.
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// StorageDriver selects the notification store: postgres, mongo or memory.
	StorageDriver   string
	PostgresConnStr string
	MongoURI        string
	MongoDatabase   string

	WorkerCount   int
	QueueCapacity int

	AnalyzerMinLatency time.Duration
	AnalyzerMaxLatency time.Duration
	AnalyzeTimeout     time.Duration

	StreamInterval time.Duration
	StreamLimit    int

	RateLimitPerSecond float64
}

// Load reads the configuration from the environment, consulting a .env file
// when one is present.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, assuming environment variables are set.")
	}

	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		StorageDriver:   getEnv("STORAGE_DRIVER", "postgres"),
		PostgresConnStr: getEnv("POSTGRES_CONN_STR", ""),
		MongoURI:        getEnv("MONGO_URI", ""),
		MongoDatabase:   getEnv("MONGO_DATABASE", "notifications"),

		WorkerCount:   getEnvInt("WORKER_COUNT", 4),
		QueueCapacity: getEnvInt("QUEUE_CAPACITY", 1024),

		AnalyzerMinLatency: getEnvDuration("ANALYZER_MIN_LATENCY", time.Second),
		AnalyzerMaxLatency: getEnvDuration("ANALYZER_MAX_LATENCY", 3*time.Second),
		AnalyzeTimeout:     getEnvDuration("ANALYZE_TIMEOUT", 30*time.Second),

		StreamInterval: getEnvDuration("STREAM_INTERVAL", time.Second),
		StreamLimit:    getEnvInt("STREAM_LIMIT", 20),

		RateLimitPerSecond: getEnvFloat("RATE_LIMIT_PER_SECOND", 20),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
		log.Printf("Invalid integer for %s, using default %d", key, defaultValue)
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
		log.Printf("Invalid float for %s, using default %g", key, defaultValue)
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
		log.Printf("Invalid duration for %s, using default %s", key, defaultValue)
	}
	return defaultValue
}
