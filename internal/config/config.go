package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backend kinds.
const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// Config aggregates runtime configuration for the portal and dev backend.
type Config struct {
	App        AppConfig
	Backend    BackendConfig
	Session    SessionConfig
	Postgres   PostgresConfig
	Redis      RedisConfig
	Logger     LoggerConfig
	Auth       AuthConfig
	Navigation NavigationConfig
	DevBackend DevBackendConfig
}

// AppConfig controls portal server behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// BackendConfig points the client at the remote backend. Embedded serves the
// dev backend in-process instead of dialing BaseURL.
type BackendConfig struct {
	BaseURL        string
	TimeoutSeconds int
	Embedded       bool
}

// SessionConfig selects where the session record lives.
type SessionConfig struct {
	Store string
	Dir   string
	Key   string
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
	Level string
}

// AuthConfig defines the client-side role labels.
type AuthConfig struct {
	AdminRole         string
	DefaultSignupRole string
}

// NavigationConfig names the navigation surfaces.
type NavigationConfig struct {
	LoginPath   string
	ProfilePath string
	AdminPath   string
	HomePath    string
}

// DevBackendConfig configures the in-memory reference backend.
type DevBackendConfig struct {
	Host                  string
	Port                  string
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
	AdminUsername         string
	AdminEmail            string
	AdminPassword         string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 4))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 1))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "authportal"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "127.0.0.1"),
			Port:                  getEnv("APP_PORT", "3000"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Backend: BackendConfig{
			BaseURL:        strings.TrimRight(getEnv("BACKEND_BASE_URL", "http://localhost:8080/api"), "/"),
			TimeoutSeconds: getEnvAsInt("BACKEND_TIMEOUT_SECONDS", 0),
			Embedded:       getEnvAsBool("BACKEND_EMBEDDED", false),
		},
		Session: SessionConfig{
			Store: strings.ToLower(getEnv("SESSION_STORE", StoreFile)),
			Dir:   getEnv("SESSION_STORE_DIR", ".authportal"),
			Key:   getEnv("SESSION_KEY", "user"),
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
			Addr:      getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:  os.Getenv("REDIS_PASSWORD"),
			DB:        redisDB,
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "authportal:"),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			AdminRole:         getEnv("AUTH_ADMIN_ROLE", "ROLE_ADMIN"),
			DefaultSignupRole: getEnv("AUTH_DEFAULT_SIGNUP_ROLE", "user"),
		},
		Navigation: NavigationConfig{
			LoginPath:   getEnv("NAV_LOGIN_PATH", "/auth"),
			ProfilePath: getEnv("NAV_PROFILE_PATH", "/profile"),
			AdminPath:   getEnv("NAV_ADMIN_PATH", "/admin"),
			HomePath:    getEnv("NAV_HOME_PATH", "/"),
		},
		DevBackend: DevBackendConfig{
			Host:                  getEnv("DEVBACKEND_HOST", "127.0.0.1"),
			Port:                  getEnv("DEVBACKEND_PORT", "8080"),
			JWTSecret:             getEnv("DEVBACKEND_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("DEVBACKEND_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("DEVBACKEND_BCRYPT_COST", 12),
			AdminUsername:         getEnv("DEVBACKEND_ADMIN_USERNAME", "admin"),
			AdminEmail:            getEnv("DEVBACKEND_ADMIN_EMAIL", "admin@example.com"),
			AdminPassword:         getEnv("DEVBACKEND_ADMIN_PASSWORD", "admin123"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Session.Store {
	case StoreMemory, StoreFile, StoreRedis, StorePostgres:
	default:
		return fmt.Errorf("invalid SESSION_STORE %q", c.Session.Store)
	}
	if c.Session.Store == StorePostgres && c.Postgres.DSN == "" {
		return fmt.Errorf("SESSION_STORE=postgres requires POSTGRES_DSN")
	}
	if strings.TrimSpace(c.Session.Key) == "" {
		return fmt.Errorf("SESSION_KEY must not be empty")
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

// Timeout returns the backend client timeout; zero means no limit.
func (b BackendConfig) Timeout() time.Duration {
	if b.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(b.TimeoutSeconds) * time.Second
}

// Addr returns the dev backend bind address.
func (d DevBackendConfig) Addr() string {
	return fmt.Sprintf("%s:%s", d.Host, d.Port)
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
