package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAppName         = "StayEase"
	defaultAPIName         = "StayEase API"
	defaultAppEnv          = "development"
	defaultPort            = "4200"
	defaultAPIPort         = "8080"
	defaultLogLevel        = "info"
	defaultLogFormat       = "json"
	defaultShutdownDelay   = 10 * time.Second
	defaultAPITimeout      = 15 * time.Second
	defaultStoreBackend    = StoreBolt
	defaultStorePath       = "stayease-session.db"
	defaultRedisPrefix     = "stayease:session:"
	defaultTokenTTL        = 24 * time.Hour
	defaultIdempotencyTTL  = 24 * time.Hour
	defaultLoginAttempts   = 5
	devJWTSecret           = "stayease-dev-secret"
	idemTTLSecondsEnvVar   = "IDEMPOTENCY_TTL_SECONDS"
	idemTTLDurEnvVar       = "IDEMPOTENCY_TTL"
	shutdownSecondsEnvVar  = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar = "SHUTDOWN_TIMEOUT"

	// EmbeddedAPI as API_BASE_URL runs the development API in-process.
	EmbeddedAPI = "embedded"
)

// Credential store backends selectable through STORE_BACKEND.
const (
	StoreMemory = "memory"
	StoreBolt   = "bolt"
	StoreRedis  = "redis"
	StoreNone   = "none"
)

// Config captures runtime configuration for both processes, loaded from
// environment variables. Load fills the web shell fields, LoadAPI the
// development API fields.
type Config struct {
	AppName        string
	AppEnv         string
	Port           string
	LogLevel       string
	LogFormat      string
	ShutdownPeriod time.Duration

	// Web shell.
	APIBaseURL   string
	APITimeout   time.Duration
	StoreBackend string
	StorePath    string
	RedisPrefix  string

	// Shared: the web shell uses Redis when StoreBackend is redis, the
	// development API for rate limiting and idempotency.
	RedisURL string

	// Development API.
	DatabaseURL            string
	JWTSecret              string
	TokenTTL               time.Duration
	IdempotencyTTL         time.Duration
	LoginAttemptsPerMinute int
}

// Load reads the web shell configuration from the environment.
func Load() (Config, error) {
	cfg, err := loadCommon(defaultAppName, defaultPort)
	if err != nil {
		return Config{}, err
	}

	cfg.APIBaseURL = strings.TrimRight(getEnv("API_BASE_URL", EmbeddedAPI), "/")
	cfg.StoreBackend = strings.ToLower(getEnv("STORE_BACKEND", defaultStoreBackend))
	cfg.StorePath = getEnv("STORE_PATH", defaultStorePath)
	cfg.RedisPrefix = getEnv("STORE_REDIS_PREFIX", defaultRedisPrefix)
	cfg.RedisURL = os.Getenv("REDIS_URL")
	cfg.JWTSecret = getEnv("JWT_SECRET", devJWTSecret)
	cfg.TokenTTL = defaultTokenTTL
	cfg.IdempotencyTTL = defaultIdempotencyTTL
	cfg.LoginAttemptsPerMinute = defaultLoginAttempts

	if cfg.APITimeout, err = durationEnv("API_TIMEOUT", defaultAPITimeout); err != nil {
		return Config{}, err
	}

	if !cfg.Embedded() {
		u, err := url.Parse(cfg.APIBaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return Config{}, fmt.Errorf("invalid API_BASE_URL %q", cfg.APIBaseURL)
		}
	}

	switch cfg.StoreBackend {
	case StoreMemory, StoreBolt, StoreNone:
	case StoreRedis:
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL must be set when STORE_BACKEND=%s", StoreRedis)
		}
	default:
		return Config{}, fmt.Errorf("invalid STORE_BACKEND %q", cfg.StoreBackend)
	}

	return cfg, nil
}

// LoadAPI reads the development API configuration from the environment.
// DATABASE_URL and REDIS_URL are optional in development environments,
// where in-memory repositories are used instead.
func LoadAPI() (Config, error) {
	cfg, err := loadCommon(defaultAPIName, defaultAPIPort)
	if err != nil {
		return Config{}, err
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.RedisURL = os.Getenv("REDIS_URL")
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	cfg.IdempotencyTTL = defaultIdempotencyTTL
	cfg.LoginAttemptsPerMinute = defaultLoginAttempts

	if cfg.TokenTTL, err = durationEnv("TOKEN_TTL", defaultTokenTTL); err != nil {
		return Config{}, err
	}

	if v := os.Getenv(idemTTLSecondsEnvVar); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", idemTTLSecondsEnvVar, err)
		}
		cfg.IdempotencyTTL = time.Duration(seconds) * time.Second
	} else if cfg.IdempotencyTTL, err = durationEnv(idemTTLDurEnvVar, defaultIdempotencyTTL); err != nil {
		return Config{}, err
	}

	if v := os.Getenv("LOGIN_ATTEMPTS_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid LOGIN_ATTEMPTS_PER_MINUTE: %w", err)
		}
		cfg.LoginAttemptsPerMinute = n
	}

	if cfg.JWTSecret == "" {
		if !cfg.IsDev() {
			return Config{}, fmt.Errorf("JWT_SECRET must be set when APP_ENV=%s", cfg.AppEnv)
		}
		cfg.JWTSecret = devJWTSecret
	}

	if !cfg.IsDev() {
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
	}

	return cfg, nil
}

func loadCommon(appName, port string) (Config, error) {
	cfg := Config{
		AppName:        getEnv("APP_NAME", appName),
		AppEnv:         getEnv("APP_ENV", defaultAppEnv),
		Port:           getEnv("PORT", port),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		LogFormat:      strings.ToLower(getEnv("LOG_FORMAT", defaultLogFormat)),
		ShutdownPeriod: defaultShutdownDelay,
	}

	if v := os.Getenv(shutdownSecondsEnvVar); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", shutdownSecondsEnvVar, err)
		}
		cfg.ShutdownPeriod = time.Duration(seconds) * time.Second
	} else if v := os.Getenv(shutdownDurationEnvVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", shutdownDurationEnvVar, err)
		}
		cfg.ShutdownPeriod = d
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// Embedded reports whether the web shell talks to an in-process API.
func (c Config) Embedded() bool {
	return strings.EqualFold(c.APIBaseURL, EmbeddedAPI)
}

// IsDev reports whether the configured environment is a development one.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
