package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Store drivers
const (
	DriverPostgres  = "postgres"
	DriverSurrealDB = "surrealdb"
	DriverMemory    = "memory"
)

// minSecretLength matches the HMAC key floor enforced by pkg/jwt
const minSecretLength = 32

// Config holds all application configuration
type Config struct {
	Server      ServerConfig
	Store       StoreConfig
	JWT         JWTConfig
	RateLimit   RateLimitConfig
	Jobs        JobsConfig
	Eligibility EligibilityConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string
	Env             string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

// StoreConfig selects and configures the entity store
type StoreConfig struct {
	Driver   string
	Postgres PostgresConfig
	Surreal  SurrealConfig
	// Timeout bounds each store request. Zero disables it.
	Timeout time.Duration
}

// PostgresConfig holds PostgreSQL connection settings
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

// SurrealConfig holds SurrealDB connection settings
type SurrealConfig struct {
	Host      string
	Port      string
	Namespace string
	Database  string
	User      string
	Password  string
}

// JWTConfig holds bearer token settings
type JWTConfig struct {
	Secret         string
	Issuer         string
	ExpirationMins int
}

// RateLimitConfig holds per-actor request limits. A zero rate disables limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// JobsConfig holds background job schedules
type JobsConfig struct {
	StatusSyncSchedule string
}

// EligibilityConfig holds application eligibility policy
type EligibilityConfig struct {
	AllowUnknownRegion bool
}

// Load reads configuration from environment variables with sensible defaults.
// Named env files are loaded first and must exist; with none given, an
// optional ./.env is loaded. Variables already set in the environment win.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	return &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			Env:             getEnv("SERVER_ENV", "development"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 15*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			AllowedOrigins:  getSliceEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Store: StoreConfig{
			Driver: getEnv("STORE_DRIVER", DriverMemory),
			Postgres: PostgresConfig{
				DSN:          getEnv("POSTGRES_DSN", ""),
				MaxOpenConns: getIntEnv("POSTGRES_MAX_OPEN_CONNS", 20),
				MaxIdleConns: getIntEnv("POSTGRES_MAX_IDLE_CONNS", 5),
			},
			Surreal: SurrealConfig{
				Host:      getEnv("DB_HOST", "localhost"),
				Port:      getEnv("DB_PORT", "8000"),
				Namespace: getEnv("DB_NAMESPACE", "arena"),
				Database:  getEnv("DB_DATABASE", "main"),
				User:      getEnv("DB_USER", "root"),
				Password:  getEnv("DB_PASSWORD", "root"),
			},
			Timeout: getDurationEnv("STORE_TIMEOUT", 5*time.Second),
		},
		JWT: JWTConfig{
			Secret:         getEnv("JWT_SECRET", ""),
			Issuer:         getEnv("JWT_ISSUER", "arena"),
			ExpirationMins: getIntEnv("JWT_EXPIRATION_MINS", 60),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getFloatEnv("RATE_LIMIT_RPS", 10),
			Burst:             getIntEnv("RATE_LIMIT_BURST", 20),
		},
		Jobs: JobsConfig{
			StatusSyncSchedule: getEnv("STATUS_SYNC_SCHEDULE", "@every 1m"),
		},
		Eligibility: EligibilityConfig{
			AllowUnknownRegion: getBoolEnv("ELIGIBILITY_ALLOW_UNKNOWN_REGION", true),
		},
	}, nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Validate checks that all required configuration values are present and valid.
// It returns an error describing all validation failures, or nil if valid.
func (c *Config) Validate() error {
	var errs []error

	// Server validation
	if c.Server.Port == "" {
		errs = append(errs, errors.New("SERVER_PORT is required"))
	}
	if c.Server.Env != "development" && c.Server.Env != "production" && c.Server.Env != "test" {
		errs = append(errs, fmt.Errorf("SERVER_ENV must be 'development', 'production', or 'test', got '%s'", c.Server.Env))
	}
	if len(c.Server.AllowedOrigins) == 0 {
		errs = append(errs, errors.New("CORS_ALLOWED_ORIGINS must have at least one origin"))
	}

	// Store validation
	switch c.Store.Driver {
	case DriverPostgres:
		if c.Store.Postgres.DSN == "" {
			errs = append(errs, errors.New("POSTGRES_DSN is required when STORE_DRIVER is postgres"))
		}
	case DriverSurrealDB:
		if err := c.Store.Surreal.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("SurrealDB: %w", err))
		}
	case DriverMemory:
		if c.IsProduction() {
			errs = append(errs, errors.New("STORE_DRIVER memory is not allowed in production"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be 'postgres', 'surrealdb', or 'memory', got '%s'", c.Store.Driver))
	}
	if c.Store.Timeout < 0 {
		errs = append(errs, errors.New("STORE_TIMEOUT must not be negative"))
	}

	// JWT validation
	if len(c.JWT.Secret) < minSecretLength {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes", minSecretLength))
	}
	if c.JWT.ExpirationMins <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRATION_MINS must be positive"))
	}

	// Rate limit validation
	if c.RateLimit.RequestsPerSecond < 0 {
		errs = append(errs, errors.New("RATE_LIMIT_RPS must not be negative"))
	}
	if c.RateLimit.RequestsPerSecond > 0 && c.RateLimit.Burst <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_BURST must be positive when rate limiting is enabled"))
	}

	// Jobs validation
	if c.Jobs.StatusSyncSchedule != "" {
		if _, err := cron.ParseStandard(c.Jobs.StatusSyncSchedule); err != nil {
			errs = append(errs, fmt.Errorf("STATUS_SYNC_SCHEDULE is invalid: %w", err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// TokenExpiration returns the configured token lifetime
func (j JWTConfig) TokenExpiration() time.Duration {
	return time.Duration(j.ExpirationMins) * time.Minute
}

// RateLimitEnabled reports whether per-actor limiting is on
func (r RateLimitConfig) RateLimitEnabled() bool {
	return r.RequestsPerSecond > 0
}

// Validate checks that all required SurrealDB fields are present
func (s SurrealConfig) Validate() error {
	var missing []string
	if s.Host == "" {
		missing = append(missing, "DB_HOST")
	}
	if s.Port == "" {
		missing = append(missing, "DB_PORT")
	}
	if s.Namespace == "" {
		missing = append(missing, "DB_NAMESPACE")
	}
	if s.Database == "" {
		missing = append(missing, "DB_DATABASE")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Helper functions for reading environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
