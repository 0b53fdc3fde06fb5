// Package config provides configuration management for the application.
package config

import (
	"fmt"
	"net/url"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"property-matching-engine/internal/models"
)

// Config holds all configuration values for the application.
type Config struct {
	// AWS
	AWSRegion string
	S3Bucket  string

	// Database
	DatabaseURLOverride string
	DBHost              string
	DBPort              int
	DBName              string
	DBUser              string
	DBPassword          string
	DBMaxConns          int

	// SES
	SESSenderEmail string
	DashboardURL   string

	// Application
	Stage    string
	LogLevel string
	Port     string

	// Matching
	MatchThreshold       int
	MatchMaxResults      int
	QuickMatchMaxResults int
	PriceWeight          int
	LocationWeight       int
	AreaWeight           int
	RoomWeight           int
	FeatureWeight        int
	BudgetFlexibility    bool
	ExactLocationMatch   bool
	IncludeUnavailable   bool
	MatchWorkers         int
	ParallelThreshold    int
	DigestMaxClients     int
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	_ = godotenv.Load()

	cfg := &Config{
		// AWS
		AWSRegion: getEnv("AWS_REGION", "eu-central-1"),
		S3Bucket:  getEnv("S3_BUCKET", "property-matching-dev"),

		// Database
		DatabaseURLOverride: getEnv("DATABASE_URL", ""),
		DBHost:              getEnv("DB_HOST", "localhost"),
		DBPort:              getEnvInt("DB_PORT", 5432),
		DBName:              getEnv("DB_NAME", "realestate_crm"),
		DBUser:              getEnv("DB_USER", "postgres"),
		DBPassword:          getEnv("DB_PASSWORD", ""),
		DBMaxConns:          getEnvInt("DB_MAX_CONNS", 10),

		// SES
		SESSenderEmail: getEnv("SES_SENDER_EMAIL", ""),
		DashboardURL:   getEnv("DASHBOARD_URL", "http://localhost:3000"),

		// Application
		Stage:    getEnv("STAGE", "dev"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Port:     getEnv("PORT", "8080"),

		// Matching
		MatchThreshold:       getEnvInt("MATCH_THRESHOLD", models.DefaultMatchThreshold),
		MatchMaxResults:      getEnvInt("MATCH_MAX_RESULTS", models.DefaultMaxResults),
		QuickMatchMaxResults: getEnvInt("QUICK_MATCH_MAX_RESULTS", models.QuickMatchMaxResults),
		PriceWeight:          getEnvInt("MATCH_PRICE_WEIGHT", models.DefaultPriceWeight),
		LocationWeight:       getEnvInt("MATCH_LOCATION_WEIGHT", models.DefaultLocationWeight),
		AreaWeight:           getEnvInt("MATCH_AREA_WEIGHT", models.DefaultAreaWeight),
		RoomWeight:           getEnvInt("MATCH_ROOM_WEIGHT", models.DefaultRoomWeight),
		FeatureWeight:        getEnvInt("MATCH_FEATURE_WEIGHT", models.DefaultFeatureWeight),
		BudgetFlexibility:    getEnvBool("MATCH_BUDGET_FLEXIBILITY", true),
		ExactLocationMatch:   getEnvBool("MATCH_EXACT_LOCATION", false),
		IncludeUnavailable:   getEnvBool("MATCH_INCLUDE_UNAVAILABLE", false),
		MatchWorkers:         getEnvInt("MATCH_WORKERS", runtime.NumCPU()),
		ParallelThreshold:    getEnvInt("MATCH_PARALLEL_THRESHOLD", 200),
		DigestMaxClients:     getEnvInt("DIGEST_MAX_CLIENTS", 10),
	}

	if cfg.MatchThreshold < 0 || cfg.MatchThreshold > 100 {
		return nil, fmt.Errorf("MATCH_THRESHOLD must be between 0 and 100, got %d", cfg.MatchThreshold)
	}

	return cfg, nil
}

// MatchDefaults returns the matching configuration for the full endpoints.
func (c *Config) MatchDefaults() models.MatchConfig {
	return models.MatchConfig{
		MatchThreshold:         c.MatchThreshold,
		MaxResults:             c.MatchMaxResults,
		PriceWeight:            c.PriceWeight,
		LocationWeight:         c.LocationWeight,
		AreaWeight:             c.AreaWeight,
		RoomWeight:             c.RoomWeight,
		FeatureWeight:          c.FeatureWeight,
		AllowBudgetFlexibility: c.BudgetFlexibility,
		ExactLocationMatch:     c.ExactLocationMatch,
		IncludeUnavailable:     c.IncludeUnavailable,
	}
}

// QuickMatchDefaults is MatchDefaults with the quick-match result cap.
func (c *Config) QuickMatchDefaults() models.MatchConfig {
	cfg := c.MatchDefaults()
	cfg.MaxResults = c.QuickMatchMaxResults
	return cfg
}

// DatabaseURL returns the PostgreSQL connection string.
func (c *Config) DatabaseURL() string {
	if c.DatabaseURLOverride != "" {
		return c.DatabaseURLOverride
	}

	sslMode := "require" // Use SSL for RDS
	if c.DBHost == "localhost" || c.DBHost == "127.0.0.1" {
		sslMode = "disable" // Disable SSL for local development
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     c.DBHost + ":" + strconv.Itoa(c.DBPort),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + sslMode,
	}
	return u.String()
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an environment variable as int or returns a default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvBool retrieves an environment variable as bool or returns a default value.
func getEnvBool(key string, defaultValue bool) bool {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
