package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Tenant    TenantConfig
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
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret            string
	AccessTokenTTLMin    int
	RefreshTokenTTLHours int
	BcryptCost           int
	CookieSecure         bool
}

// RateLimitPolicy pairs a request ceiling with its window.
type RateLimitPolicy struct {
	MaxRequests int
	Window      time.Duration
}

// RateLimitConfig carries the per-action policies and the backing store choice.
type RateLimitConfig struct {
	Store       string // "memory" or "redis"
	SweepPeriod time.Duration
	Login       RateLimitPolicy
	VisitCreate RateLimitPolicy
	Read        RateLimitPolicy
	Search      RateLimitPolicy
}

// TenantConfig controls org-scope resolution.
type TenantConfig struct {
	DefaultOrg string
}

const devJWTSecret = "dev-secret"

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	env := getEnv("APP_ENV", "development")

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "visit-report-service"),
			Env:                   env,
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:            getEnv("AUTH_JWT_SECRET", devJWTSecret),
			AccessTokenTTLMin:    getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 15),
			RefreshTokenTTLHours: getEnvAsInt("AUTH_REFRESH_TOKEN_TTL_HOURS", 168),
			BcryptCost:           getEnvAsInt("AUTH_BCRYPT_COST", 12),
			CookieSecure:         env == "production",
		},
		RateLimit: RateLimitConfig{
			Store:       getEnv("RATELIMIT_STORE", "memory"),
			SweepPeriod: time.Duration(getEnvAsInt("RATELIMIT_SWEEP_MINUTES", 5)) * time.Minute,
			Login: RateLimitPolicy{
				MaxRequests: getEnvAsInt("RATELIMIT_LOGIN_MAX", 20),
				Window:      time.Duration(getEnvAsInt("RATELIMIT_LOGIN_WINDOW_MINUTES", 15)) * time.Minute,
			},
			VisitCreate: RateLimitPolicy{
				MaxRequests: getEnvAsInt("RATELIMIT_VISIT_CREATE_MAX", 30),
				Window:      time.Minute,
			},
			Read: RateLimitPolicy{
				MaxRequests: getEnvAsInt("RATELIMIT_READ_MAX", 100),
				Window:      time.Minute,
			},
			Search: RateLimitPolicy{
				MaxRequests: getEnvAsInt("RATELIMIT_SEARCH_MAX", 60),
				Window:      time.Minute,
			},
		},
		Tenant: TenantConfig{
			DefaultOrg: getEnv("TENANT_DEFAULT_ORG", "default"),
		},
	}

	return cfg, nil
}

// UsingDefaultSecret reports whether the signing secret was left at its
// development default. Production deployments must override it.
func (a AuthConfig) UsingDefaultSecret() bool {
	return a.JWTSecret == devJWTSecret
}

// AccessTokenTTL returns the access token validity window.
func (a AuthConfig) AccessTokenTTL() time.Duration {
	if a.AccessTokenTTLMin <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(a.AccessTokenTTLMin) * time.Minute
}

// RefreshTokenTTL returns the refresh token validity window.
func (a AuthConfig) RefreshTokenTTL() time.Duration {
	if a.RefreshTokenTTLHours <= 0 {
		return 168 * time.Hour
	}
	return time.Duration(a.RefreshTokenTTLHours) * time.Hour
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
