package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers.
const (
	StoreMemory   = "memory"
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
)

// Config holds application configuration from environment variables
type Config struct {
	// Application
	AppPort string
	AppEnv  string

	// Document store
	StoreDriver   string
	MongoURI      string
	MongoDatabase string
	DatabaseURL   string

	// Redis enables the product cache and the change feed when set
	RedisURL string

	// Text generation
	GoogleAIAPIKey string
	LLMModel       string
	LLMTimeout     time.Duration

	// Discovery
	PollInterval time.Duration

	// Identity
	JWTSecret string
	TokenTTL  time.Duration

	PincodeAPIURL string

	ChatRateLimitPerMin int

	// OpenTelemetry
	MetricsEnabled           bool
	OTELExporterOTLPEndpoint string
	OTELExporterOTLPInsecure bool
	OTELServiceName          string
	OTELServiceVersion       string
}

// Load loads configuration from .env file and environment variables with defaults
func Load() *Config {
	// .env is optional
	if err := godotenv.Load(); err != nil {
		if _, ok := err.(*os.PathError); !ok {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	}

	return &Config{
		AppPort: getEnv("APP_PORT", "8080"),
		AppEnv:  getEnv("APP_ENV", "development"),

		StoreDriver:   getEnv("STORE_DRIVER", StoreMemory),
		MongoURI:      getEnv("MONGO_URI", ""),
		MongoDatabase: getEnv("MONGO_DATABASE", "vendorgpt"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),

		RedisURL: getEnv("REDIS_URL", ""),

		GoogleAIAPIKey: getEnv("GOOGLE_AI_API_KEY", ""),
		LLMModel:       getEnv("LLM_MODEL", "gemini-2.5-flash"),
		LLMTimeout:     getEnvDuration("LLM_TIMEOUT", 20*time.Second),

		PollInterval: getEnvDuration("POLL_INTERVAL", 30*time.Second),

		JWTSecret: getEnv("JWT_SECRET", ""),
		TokenTTL:  getEnvDuration("TOKEN_TTL", 24*time.Hour),

		PincodeAPIURL: getEnv("PINCODE_API_URL", "https://api.postalpincode.in"),

		ChatRateLimitPerMin: getEnvInt("CHAT_RATE_LIMIT_PER_MIN", 30),

		MetricsEnabled:           getEnvBool("METRICS_ENABLED", false),
		OTELExporterOTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		OTELExporterOTLPInsecure: getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		OTELServiceName:          getEnv("OTEL_SERVICE_NAME", "vendorgpt-api"),
		OTELServiceVersion:       getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
	}
}

// Validate checks that the selected drivers have what they need to start.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreMemory:
	case StoreMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required when STORE_DRIVER=%s", StoreMongo)
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER=%s", StorePostgres)
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
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
