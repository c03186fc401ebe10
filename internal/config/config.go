package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Credential store backends.
const (
	CredentialStoreRedis    = "redis"
	CredentialStorePostgres = "postgres"
	CredentialStoreMemory   = "memory"
)

// Config aggregates runtime configuration for the dashboard.
type Config struct {
	App       AppConfig
	API       APIConfig
	Session   SessionConfig
	Cache     CacheConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	RateLimit RateLimitConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// APIConfig describes the remote platform API.
type APIConfig struct {
	BaseURL        string
	TimeoutSeconds int
}

// SessionConfig controls browser sessions and where credentials live.
type SessionConfig struct {
	CookieName       string
	CookieSecure     bool
	IdleTTLMinutes   int
	SweepIntervalSec int
	CredentialStore  string
	CredentialTTLHrs int
	BcryptCost       int
}

// CacheConfig controls the query cache.
type CacheConfig struct {
	StaleAfterSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level    string
	Encoding string
}

// RateLimitConfig throttles login attempts per client IP.
type RateLimitConfig struct {
	LoginPerMinute int
	LoginBurst     int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "clinic-admin"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		API: APIConfig{
			BaseURL:        strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:5000/api"), "/"),
			TimeoutSeconds: getEnvAsInt("API_TIMEOUT_SECONDS", 15),
		},
		Session: SessionConfig{
			CookieName:       getEnv("SESSION_COOKIE_NAME", "clinic_admin_sid"),
			CookieSecure:     getEnvAsBool("SESSION_COOKIE_SECURE", false),
			IdleTTLMinutes:   getEnvAsInt("SESSION_IDLE_TTL_MINUTES", 120),
			SweepIntervalSec: getEnvAsInt("SESSION_SWEEP_INTERVAL_SECONDS", 60),
			CredentialStore:  strings.ToLower(getEnv("CREDENTIAL_STORE", CredentialStoreRedis)),
			CredentialTTLHrs: getEnvAsInt("SESSION_CREDENTIAL_TTL_HOURS", 168),
			BcryptCost:       getEnvAsInt("SESSION_BCRYPT_COST", 10),
		},
		Cache: CacheConfig{
			StaleAfterSeconds: getEnvAsInt("CACHE_STALE_AFTER_SECONDS", 0),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:      getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:  os.Getenv("REDIS_PASSWORD"),
			DB:        redisDB,
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "clinic-admin"),
		},
		Logger: LoggerConfig{
			Level:    getEnv("LOG_LEVEL", "info"),
			Encoding: getEnv("LOG_ENCODING", "json"),
		},
		RateLimit: RateLimitConfig{
			LoginPerMinute: getEnvAsInt("LOGIN_RATE_PER_MINUTE", 10),
			LoginBurst:     getEnvAsInt("LOGIN_RATE_BURST", 5),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}
	switch c.Session.CredentialStore {
	case CredentialStoreRedis, CredentialStoreMemory:
	case CredentialStorePostgres:
		if c.Postgres.DSN == "" {
			return fmt.Errorf("CREDENTIAL_STORE=postgres requires POSTGRES_DSN")
		}
	default:
		return fmt.Errorf("unknown CREDENTIAL_STORE %q", c.Session.CredentialStore)
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Timeout returns the upstream HTTP client timeout.
func (a APIConfig) Timeout() time.Duration {
	if a.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// IdleTTL returns how long an unused session is kept in memory.
func (s SessionConfig) IdleTTL() time.Duration {
	if s.IdleTTLMinutes <= 0 {
		return 2 * time.Hour
	}
	return time.Duration(s.IdleTTLMinutes) * time.Minute
}

// SweepInterval returns the idle-session sweep period.
func (s SessionConfig) SweepInterval() time.Duration {
	if s.SweepIntervalSec <= 0 {
		return time.Minute
	}
	return time.Duration(s.SweepIntervalSec) * time.Second
}

// CredentialTTL returns how long stored credentials survive without use.
func (s SessionConfig) CredentialTTL() time.Duration {
	if s.CredentialTTLHrs <= 0 {
		return 7 * 24 * time.Hour
	}
	return time.Duration(s.CredentialTTLHrs) * time.Hour
}

// StaleAfter returns the max age of a cache entry; zero disables age-based staleness.
func (c CacheConfig) StaleAfter() time.Duration {
	if c.StaleAfterSeconds <= 0 {
		return 0
	}
	return time.Duration(c.StaleAfterSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
