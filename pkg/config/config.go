package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Env           string `validate:"oneof=development production test"`
	DefaultLocale string `validate:"oneof=ar en"`
	Server        ServerConfig
	Redis         RedisConfig
	Dataset       DatasetConfig
	S3            S3Config
	Database      DatabaseConfig
	Cache         CacheConfig
	Geolocation   GeolocationConfig
	Geocoder      GeocoderConfig
	Assets        AssetsConfig
	OTEL          OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host           string
	Port           int `validate:"min=1,max=65535"`
	// AllowedOrigins is read from a comma separated list; "*" allows any origin
	AllowedOrigins []string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int `validate:"min=0"`
}

// DatasetConfig selects where branch datasets are read from
type DatasetConfig struct {
	Source  string `validate:"oneof=http file s3 postgres"`
	BaseURL string `validate:"required_if=Source http"`
	Dir     string `validate:"required_if=Source file"`
	Timeout time.Duration
}

// S3Config holds S3-compatible storage configuration
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	UseSSL    bool
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// CacheConfig holds dataset cache configuration
type CacheConfig struct {
	TTL        time.Duration `validate:"gt=0"`
	MemorySize int           `validate:"min=1"`
}

// GeolocationConfig holds geolocation provider configuration
type GeolocationConfig struct {
	Provider    string `validate:"oneof=none static ip"`
	Latitude    float64
	Longitude   float64
	IPLookupURL string `validate:"required_if=Provider ip"`
	Timeout     time.Duration
	MaxAge      time.Duration
}

// GeocoderConfig holds reverse geocoding configuration
type GeocoderConfig struct {
	Enabled   bool
	BaseURL   string
	UserAgent string
}

// AssetsConfig holds offline asset cache configuration
type AssetsConfig struct {
	Origin  string
	Version string
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Env:           getEnv("APP_ENV", "development"),
		DefaultLocale: getEnv("DEFAULT_LOCALE", "ar"),
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", []string{"*"}),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Dataset: DatasetConfig{
			Source:  getEnv("DATASET_SOURCE", "file"),
			BaseURL: getEnv("DATASET_BASE_URL", ""),
			Dir:     getEnv("DATASET_DIR", "./data"),
			Timeout: getEnvAsDuration("DATASET_TIMEOUT", 10*time.Second),
		},
		S3: S3Config{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", "lg-branches"),
			Prefix:    getEnv("MINIO_PREFIX", ""),
			UseSSL:    getEnvAsBool("MINIO_USE_SSL", false),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "lg_branches"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Cache: CacheConfig{
			TTL:        getEnvAsDuration("CACHE_TTL", 5*time.Minute),
			MemorySize: getEnvAsInt("CACHE_MEMORY_SIZE", 16),
		},
		Geolocation: GeolocationConfig{
			Provider:    getEnv("GEOLOCATION_PROVIDER", "none"),
			Latitude:    getEnvAsFloat("GEOLOCATION_LAT", 0),
			Longitude:   getEnvAsFloat("GEOLOCATION_LNG", 0),
			IPLookupURL: getEnv("GEOLOCATION_IP_URL", ""),
			Timeout:     getEnvAsDuration("GEOLOCATION_TIMEOUT", 15*time.Second),
			MaxAge:      getEnvAsDuration("GEOLOCATION_MAX_AGE", 5*time.Minute),
		},
		Geocoder: GeocoderConfig{
			Enabled:   getEnvAsBool("GEOCODER_ENABLED", true),
			BaseURL:   getEnv("GEOCODER_URL", "https://nominatim.openstreetmap.org"),
			UserAgent: getEnv("GEOCODER_USER_AGENT", "lg-branch-finder/1.3"),
		},
		Assets: AssetsConfig{
			Origin:  getEnv("ASSETS_ORIGIN", ""),
			Version: getEnv("ASSETS_VERSION", "v1.3"),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "lg-branch-finder"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.3.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv reads a .env file into the process environment if one exists.
// It reports whether a file was loaded.
func LoadDotEnv(filenames ...string) bool {
	return godotenv.Load(filenames...) == nil
}

// Validate checks the struct constraints of the configuration
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Addr returns the HTTP listen address
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
