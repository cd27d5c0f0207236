package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Preset storage backends
const (
	PresetStorageS3     = "s3"
	PresetStorageMemory = "memory"
)

// Config holds all configuration for the application
type Config struct {
	// Database
	DatabaseURL string
	// DatabaseMaxConns caps the pgx pool; one connection is held for LISTEN
	DatabaseMaxConns int

	// Auth0
	Auth0Domain   string
	Auth0Audience string

	// Server
	Port        string
	CORSOrigins []string
	Env         string
	// Locale selects the language of report labels (en, pt, es)
	Locale string

	// Report presets
	PresetStorage string
	S3            S3Config

	// Ledger sessions
	Sync    SyncConfig
	Session SessionConfig

	// Rate limiting
	RateLimit RateLimitConfig
}

// S3Config holds AWS S3 configuration
type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string // Optional: for MinIO/LocalStack local dev
}

// SyncConfig holds remote sync tuning
type SyncConfig struct {
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	MutationTimeout   time.Duration
	MutationQueueSize int
}

// SessionConfig holds ledger session lifecycle settings
type SessionConfig struct {
	IdleTTL time.Duration
}

// RateLimitConfig holds per-user request limits
type RateLimitConfig struct {
	PerMinute int
	Burst     int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	var errs []string
	duration := func(key string, def time.Duration) time.Duration {
		d, err := getDuration(key, def)
		if err != nil {
			errs = append(errs, err.Error())
		}
		return d
	}
	integer := func(key string, def int) int {
		n, err := getInt(key, def)
		if err != nil {
			errs = append(errs, err.Error())
		}
		return n
	}

	cfg := &Config{
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		DatabaseMaxConns: integer("DB_MAX_CONNS", 10),
		Auth0Domain:      getEnv("AUTH0_DOMAIN", ""),
		Auth0Audience:    getEnv("AUTH0_AUDIENCE", ""),
		Port:             getEnv("PORT", "8080"),
		CORSOrigins:      strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ","),
		Env:              getEnv("ENV", "development"),
		Locale:           getEnv("LOCALE", "en"),
		PresetStorage:    strings.ToLower(getEnv("PRESET_STORAGE", PresetStorageMemory)),
		S3: S3Config{
			Region:          getEnv("S3_REGION", "us-east-1"),
			Bucket:          getEnv("S3_BUCKET", "ruptura-presets"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			Endpoint:        getEnv("S3_ENDPOINT", ""), // Empty = use AWS, set for MinIO/LocalStack
		},
		Sync: SyncConfig{
			InitialBackoff:    duration("SYNC_INITIAL_BACKOFF", 500*time.Millisecond),
			MaxBackoff:        duration("SYNC_MAX_BACKOFF", 30*time.Second),
			MutationTimeout:   duration("MUTATION_TIMEOUT", 10*time.Second),
			MutationQueueSize: integer("MUTATION_QUEUE_SIZE", 64),
		},
		Session: SessionConfig{
			IdleTTL: duration("SESSION_IDLE_TTL", 30*time.Minute),
		},
		RateLimit: RateLimitConfig{
			PerMinute: integer("RATE_LIMIT_PER_MINUTE", 120),
			Burst:     integer("RATE_LIMIT_BURST", 20),
		},
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.DatabaseMaxConns < 2 {
		return fmt.Errorf("DB_MAX_CONNS must be at least 2")
	}
	if c.Auth0Domain == "" {
		return fmt.Errorf("AUTH0_DOMAIN is required")
	}
	if c.Auth0Audience == "" {
		return fmt.Errorf("AUTH0_AUDIENCE is required")
	}
	switch c.PresetStorage {
	case PresetStorageS3:
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when PRESET_STORAGE=s3")
		}
	case PresetStorageMemory:
	default:
		return fmt.Errorf("PRESET_STORAGE must be %q or %q", PresetStorageS3, PresetStorageMemory)
	}
	if c.Sync.MaxBackoff < c.Sync.InitialBackoff {
		return fmt.Errorf("SYNC_MAX_BACKOFF must not be below SYNC_INITIAL_BACKOFF")
	}
	if c.Sync.MutationQueueSize <= 0 {
		return fmt.Errorf("MUTATION_QUEUE_SIZE must be positive")
	}
	if c.RateLimit.PerMinute <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE and RATE_LIMIT_BURST must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return defaultValue, fmt.Errorf("%s must be a positive duration, got %q", key, value)
	}
	return d, nil
}

func getInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue, fmt.Errorf("%s must be an integer, got %q", key, value)
	}
	return n, nil
}
