package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers accepted by STORE_DRIVER.
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// AppConfig holds all configuration for the application.
// The values are loaded from environment variables.
type AppConfig struct {
	// Core settings
	Port     string
	LogLevel string
	LogFile  string

	// Storage
	StoreDriver  string
	DatabasePath string
	DatabaseURL  string
	SeedFixtures bool

	// Security settings
	JWTSecret          string
	CSRFEnabled        bool
	AccessTokenExpiry  time.Duration
	MaxUploadSizeBytes int64
	AllowedOrigins     []string
	RateLimitRPS       float64
	RateLimitBurst     int

	// Bootstrap operator account
	AdminUsername  string
	AdminPassword  string
	AdminMfaSecret string

	// Listing and export behaviour
	SearchDebounce     time.Duration
	ListSessionTTL     time.Duration
	StatsCacheTTL      time.Duration
	LiveFeedInterval   time.Duration
	LiveFeedMaxRecords int

	// API source connection tests
	SourceTestTimeout time.Duration
	SourceTestRate    float64
}

// Cfg is a global instance of the AppConfig.
var Cfg *AppConfig

// LoadConfig loads configuration from environment variables or a .env file.
// It centralizes all configuration logic for the application.
func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		errEnv = godotenv.Load("../.env")
	}

	if errEnv != nil {
		if os.IsNotExist(errEnv) {
			log.Println("Info: No .env file found in current or parent directory. Relying on OS environment variables.")
		} else {
			log.Printf("Warning: Error loading .env file: %v. Relying on OS environment variables.", errEnv)
		}
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")
	Cfg = FromEnv()

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, StoreDriver=%s, CSRF=%t",
		Cfg.Port, Cfg.LogLevel, Cfg.StoreDriver, Cfg.CSRFEnabled)
}

// FromEnv builds an AppConfig from the current process environment.
func FromEnv() *AppConfig {
	maxUploadSizeBytesStr := getEnv("MAX_UPLOAD_SIZE_BYTES", "5242880") // 5MB default
	maxUploadSizeBytes, err := strconv.ParseInt(maxUploadSizeBytesStr, 10, 64)
	if err != nil {
		log.Printf("WARNING: Invalid MAX_UPLOAD_SIZE_BYTES format '%s'. Using default 5MB. Error: %v", maxUploadSizeBytesStr, err)
		maxUploadSizeBytes = 5 * 1024 * 1024
	}

	return &AppConfig{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", ""),

		StoreDriver:  strings.ToLower(getEnv("STORE_DRIVER", StoreSQLite)),
		DatabasePath: getEnv("DATABASE_PATH", "./tradeops.db"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		SeedFixtures: getEnvAsBool("SEED_FIXTURES", true),

		JWTSecret:          getEnv("JWT_SECRET", ""),
		CSRFEnabled:        getEnvAsBool("CSRF_ENABLED", true),
		AccessTokenExpiry:  getEnvAsDuration("ACCESS_TOKEN_EXPIRY", 60*time.Minute),
		MaxUploadSizeBytes: maxUploadSizeBytes,
		AllowedOrigins:     getEnvAsList("ALLOWED_ORIGINS", "http://localhost:3000"),
		RateLimitRPS:       getEnvAsFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 30),

		AdminUsername:  getEnv("ADMIN_USERNAME", "superadmin"),
		AdminPassword:  getEnv("ADMIN_PASSWORD", ""),
		AdminMfaSecret: getEnv("ADMIN_MFA_SECRET", ""),

		SearchDebounce:     getEnvAsDuration("SEARCH_DEBOUNCE", 300*time.Millisecond),
		ListSessionTTL:     getEnvAsDuration("LIST_SESSION_TTL", 30*time.Minute),
		StatsCacheTTL:      getEnvAsDuration("STATS_CACHE_TTL", 5*time.Minute),
		LiveFeedInterval:   getEnvAsDuration("LIVE_FEED_INTERVAL", 3*time.Second),
		LiveFeedMaxRecords: getEnvAsInt("LIVE_FEED_MAX_RECORDS", 200),

		SourceTestTimeout: getEnvAsDuration("SOURCE_TEST_TIMEOUT", 5*time.Second),
		SourceTestRate:    getEnvAsFloat("SOURCE_TEST_RATE", 2),
	}
}

// Validate reports the first setting that would prevent a secure start.
func (c *AppConfig) Validate() error {
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	if c.AdminPassword == "" {
		return fmt.Errorf("ADMIN_PASSWORD is required")
	}
	switch c.StoreDriver {
	case StoreMemory:
	case StoreSQLite:
		if c.DatabasePath == "" {
			return fmt.Errorf("DATABASE_PATH is required for the sqlite store")
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.SearchDebounce < 0 {
		return fmt.Errorf("SEARCH_DEBOUNCE cannot be negative")
	}
	if c.LiveFeedInterval <= 0 {
		return fmt.Errorf("LIVE_FEED_INTERVAL must be positive")
	}
	if c.LiveFeedMaxRecords <= 0 {
		return fmt.Errorf("LIVE_FEED_MAX_RECORDS must be positive")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	return nil
}

// getEnv retrieves an environment variable or returns a fallback value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvAsInt retrieves an environment variable as an integer or returns a fallback.
func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	log.Printf("Invalid float value for %s ('%s'), using default: %g", key, valueStr, fallback)
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid boolean value for %s ('%s'), using default: %t", key, valueStr, fallback)
	return fallback
}

// getEnvAsDuration retrieves an environment variable as a time.Duration or returns a fallback.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}

// getEnvAsList splits a comma-separated variable, dropping blanks.
func getEnvAsList(key, fallback string) []string {
	raw := getEnv(key, fallback)
	if raw == "" {
		return []string{}
	}
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
