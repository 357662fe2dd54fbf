package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/zatekoja/clinicdesk/backend/pkg/dates"
)

// Hint cache backends
const (
	HintBackendMemory   = "memory"
	HintBackendRedis    = "redis"
	HintBackendPostgres = "postgres"
)

// Config holds all application configuration
type Config struct {
	Env        string
	Server     ServerConfig
	Clinic     ClinicConfig
	Resolution ResolutionConfig
	Dates      DatesConfig
	HintCache  HintCacheConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	OTEL       OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string
	Port int
}

// ClinicConfig points at the clinic REST backend
type ClinicConfig struct {
	BaseURL string
	Timeout time.Duration
	// CatalogPath is an optional YAML endpoint catalog; empty uses the embedded default
	CatalogPath string
}

// ResolutionConfig holds the per-probe time bounds
type ResolutionConfig struct {
	ExactTimeout  time.Duration
	LooseTimeout  time.Duration
	ScanTimeout   time.Duration
	SourceTimeout time.Duration
}

// DatesConfig selects how ambiguous numeric dates are read
type DatesConfig struct {
	Order    string
	Location string
}

// HintCacheConfig selects where resolution hints are persisted
type HintCacheConfig struct {
	Backend string
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

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
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
		Env: getEnv("ENV", "development"),
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Clinic: ClinicConfig{
			BaseURL:     getEnv("CLINIC_API_URL", "http://localhost:5000/api"),
			Timeout:     getEnvAsDuration("CLINIC_API_TIMEOUT", 10*time.Second),
			CatalogPath: getEnv("CATALOG_PATH", ""),
		},
		Resolution: ResolutionConfig{
			ExactTimeout:  getEnvAsDuration("RESOLVE_EXACT_TIMEOUT", 5*time.Second),
			LooseTimeout:  getEnvAsDuration("RESOLVE_LOOSE_TIMEOUT", 6*time.Second),
			ScanTimeout:   getEnvAsDuration("RESOLVE_SCAN_TIMEOUT", 7*time.Second),
			SourceTimeout: getEnvAsDuration("SOURCE_TIMEOUT", 7*time.Second),
		},
		Dates: DatesConfig{
			Order:    getEnv("DATE_ORDER", "DMY"),
			Location: getEnv("DATE_LOCATION", "Local"),
		},
		HintCache: HintCacheConfig{
			Backend: strings.ToLower(getEnv("HINT_CACHE_BACKEND", HintBackendMemory)),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "clinicdesk"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "clinicdesk-resolver"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings that would otherwise fail at first use
func (c *Config) Validate() error {
	if _, err := dates.ParseOrder(c.Dates.Order); err != nil {
		return fmt.Errorf("DATE_ORDER: %w", err)
	}
	if _, err := c.Dates.TimeLocation(); err != nil {
		return fmt.Errorf("DATE_LOCATION: %w", err)
	}
	switch c.HintCache.Backend {
	case HintBackendMemory, HintBackendRedis, HintBackendPostgres:
	default:
		return fmt.Errorf("HINT_CACHE_BACKEND: unknown backend %q", c.HintCache.Backend)
	}
	if strings.TrimSpace(c.Clinic.BaseURL) == "" {
		return fmt.Errorf("CLINIC_API_URL is required")
	}
	for name, d := range map[string]time.Duration{
		"RESOLVE_EXACT_TIMEOUT": c.Resolution.ExactTimeout,
		"RESOLVE_LOOSE_TIMEOUT": c.Resolution.LooseTimeout,
		"RESOLVE_SCAN_TIMEOUT":  c.Resolution.ScanTimeout,
		"SOURCE_TIMEOUT":        c.Resolution.SourceTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	return nil
}

// DateParser builds the parser for the configured order and location
func (c *DatesConfig) DateParser() (*dates.Parser, error) {
	order, err := dates.ParseOrder(c.Order)
	if err != nil {
		return nil, err
	}
	loc, err := c.TimeLocation()
	if err != nil {
		return nil, err
	}
	return dates.NewParser(order, loc), nil
}

// TimeLocation resolves the configured IANA zone name
func (c *DatesConfig) TimeLocation() (*time.Location, error) {
	switch c.Location {
	case "", "Local":
		return time.Local, nil
	default:
		return time.LoadLocation(c.Location)
	}
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

// getEnvAsDuration accepts Go durations ("750ms") or bare seconds ("5")
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
