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

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// JWT configuration
	JWT JWTConfig

	// CORS configuration
	CORS CORSConfig

	// Security configuration
	Security SecurityConfig

	// Booking policy configuration
	Booking BookingConfig

	// Redis configuration (catalog cache)
	Redis RedisConfig

	// Kafka configuration (booking events)
	Kafka KafkaConfig
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
	AllowedMethods []string
	AllowedHeaders []string
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	BcryptCost       int
	EnableRequestLog bool
}

// BookingConfig holds the reservation policy parameters.
// RAC and waiting-list capacities are fractions of a class's total seats,
// clamped to at least one seat each.
type BookingConfig struct {
	RACRatio           float64       // RAC pool size as a fraction of total seats
	WaitlistRatio      float64       // waiting-list size as a fraction of total seats
	RefundPercent      float64       // refund as a percentage of total fare
	CancellationCutoff time.Duration // minimum time before departure to allow cancellation
	AssumedDistanceKm  float64       // fallback journey distance for fare calculation
	PNRMaxAttempts     int           // regeneration attempts before a PNR conflict surfaces
	BookingEventsTopic string        // kafka topic for booking lifecycle events
	SearchCacheTTL     time.Duration // TTL for cached train search results
}

// RedisConfig holds the optional redis cache configuration
type RedisConfig struct {
	Addr     string // empty disables the cache
	Password string
	DB       int
}

// KafkaConfig holds the optional kafka producer configuration
type KafkaConfig struct {
	Brokers []string // empty disables event publishing
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
			AllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			AllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Authorization"}),
		},
		Security: SecurityConfig{
			BcryptCost:       getEnvAsInt("BCRYPT_COST", 12),
			EnableRequestLog: getEnvAsBool("ENABLE_REQUEST_LOGGING", true),
		},
		Booking: BookingConfig{
			RACRatio:           getEnvAsFloat("BOOKING_RAC_RATIO", 0.10),
			WaitlistRatio:      getEnvAsFloat("BOOKING_WAITLIST_RATIO", 0.10),
			RefundPercent:      getEnvAsFloat("BOOKING_REFUND_PERCENT", 50),
			CancellationCutoff: time.Duration(getEnvAsInt("BOOKING_CANCELLATION_CUTOFF_HOURS", 4)) * time.Hour,
			AssumedDistanceKm:  getEnvAsFloat("FARE_ASSUMED_DISTANCE_KM", 100),
			PNRMaxAttempts:     getEnvAsInt("BOOKING_PNR_MAX_ATTEMPTS", 5),
			BookingEventsTopic: getEnv("KAFKA_BOOKING_EVENTS_TOPIC", "booking-events"),
			SearchCacheTTL:     time.Duration(getEnvAsInt("SEARCH_CACHE_TTL_SECONDS", 60)) * time.Second,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvAsSlice("KAFKA_BROKERS", nil),
		},
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.JWT.RefreshSecret == "" {
		return fmt.Errorf("JWT_REFRESH_SECRET is required")
	}

	if c.Booking.RACRatio < 0 || c.Booking.RACRatio > 1 {
		return fmt.Errorf("BOOKING_RAC_RATIO must be between 0 and 1")
	}

	if c.Booking.WaitlistRatio < 0 || c.Booking.WaitlistRatio > 1 {
		return fmt.Errorf("BOOKING_WAITLIST_RATIO must be between 0 and 1")
	}

	if c.Booking.RefundPercent < 0 || c.Booking.RefundPercent > 100 {
		return fmt.Errorf("BOOKING_REFUND_PERCENT must be between 0 and 100")
	}

	if c.Booking.AssumedDistanceKm <= 0 {
		return fmt.Errorf("FARE_ASSUMED_DISTANCE_KM must be positive")
	}

	return nil
}

// Helper functions to get environment variables

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid integer value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Invalid float value for %s, using default: %g", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Invalid boolean value for %s, using default: %t", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
