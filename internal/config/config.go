package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Pricing  PricingConfig
	Sweep    SweepConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port        string
	Environment string // development, staging, production
	LogLevel    string // debug, info, warn, error
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	URL                string
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
}

// JWTConfig holds JWT-related configuration
type JWTConfig struct {
	Secret             string
	RefreshSecret      string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// PricingConfig holds the tunable inputs of the charter pricing policy.
// The formula itself lives in the pricing service; these only feed the
// default surcharge policy and quote helpers.
type PricingConfig struct {
	LongTripThresholdKM  float64 // trips beyond this get the long-trip discount
	LongTripDiscountRate float64 // e.g. 0.10 for -10% of base
	PeakSurchargeRate    float64 // e.g. 0.20 for +20% of base during peak hours
	AverageSpeedKMH      float64 // used to estimate arrival times
	DriverDailyAllowance float64 // default allowance when a request omits it
}

// SweepConfig holds the background sweep schedules
type SweepConfig struct {
	CompletionSpec        string // cron spec for the overdue-schedule sweep
	AutoConfirmSpec       string // cron spec for the pre-departure confirmation sweep
	AutoConfirmLeadTime   time.Duration
	NotificationRetention time.Duration // old read notifications beyond this are purged
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			URL:                getEnv("DATABASE_URL", ""),
			MaxConnections:     getEnvAsInt("DATABASE_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    time.Duration(getEnvAsInt("DATABASE_CONN_MAX_LIFETIME", 300)) * time.Second,
		},
		JWT: JWTConfig{
			Secret:             getEnv("JWT_SECRET", ""),
			RefreshSecret:      getEnv("JWT_REFRESH_SECRET", ""),
			AccessTokenExpiry:  time.Duration(getEnvAsInt("JWT_ACCESS_TOKEN_EXPIRY", 3600)) * time.Second,
			RefreshTokenExpiry: time.Duration(getEnvAsInt("JWT_REFRESH_TOKEN_EXPIRY", 604800)) * time.Second,
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Pricing: PricingConfig{
			LongTripThresholdKM:  getEnvAsFloat("PRICING_LONG_TRIP_THRESHOLD_KM", 200),
			LongTripDiscountRate: getEnvAsFloat("PRICING_LONG_TRIP_DISCOUNT_RATE", 0.10),
			PeakSurchargeRate:    getEnvAsFloat("PRICING_PEAK_SURCHARGE_RATE", 0.20),
			AverageSpeedKMH:      getEnvAsFloat("PRICING_AVERAGE_SPEED_KMH", 60),
			DriverDailyAllowance: getEnvAsFloat("PRICING_DRIVER_DAILY_ALLOWANCE", 1500),
		},
		Sweep: SweepConfig{
			CompletionSpec:        getEnv("SWEEP_COMPLETION_SPEC", "0 * * * * *"),
			AutoConfirmSpec:       getEnv("SWEEP_AUTO_CONFIRM_SPEC", "30 * * * * *"),
			AutoConfirmLeadTime:   time.Duration(getEnvAsInt("SWEEP_AUTO_CONFIRM_LEAD_MINUTES", 30)) * time.Minute,
			NotificationRetention: time.Duration(getEnvAsInt("NOTIFICATION_RETENTION_DAYS", 30)) * 24 * time.Hour,
		},
	}

	return config, nil
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid integer value for %s, using default %d", key, defaultValue)
		return defaultValue
	}
	return value
}

// getEnvAsFloat gets an environment variable as a float with a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Invalid float value for %s, using default %v", key, defaultValue)
		return defaultValue
	}
	return value
}

// getEnvAsSlice gets a comma-separated environment variable as a slice
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}
