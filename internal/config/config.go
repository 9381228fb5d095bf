// Package config reads the service configuration from the environment and an
// optional .env file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"

	ProviderDemo   = "demo"
	ProviderGoogle = "google"
)

type Config struct {
	HTTPAddr         string
	LogLevel         string
	Store            StoreConfig
	JWTSecret        string
	SessionTTL       time.Duration
	SecureCookies    bool
	IdentityProvider string
	DemoOTP          string
	GoogleClientID   string
	CandidatesFile   string
	ResultsCacheTTL  time.Duration
}

type StoreConfig struct {
	Backend       string
	SQLitePath    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
	Postgres      PostgresConfig
}

type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

func (p PostgresConfig) ConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", p.User, p.Password, p.Host, p.Port, p.DBName)
}

// Load reads .env files (missing ones are fine) and then the environment.
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	cfg := Config{
		HTTPAddr: getEnv("HTTP_ADDR", "0.0.0.0:8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Store: StoreConfig{
			Backend:       getEnv("STORE_BACKEND", BackendSQLite),
			SQLitePath:    getEnv("SQLITE_PATH", "ballot.db"),
			RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: os.Getenv("REDIS_PASSWORD"),
			RedisPrefix:   getEnv("REDIS_PREFIX", "ballot:"),
			Postgres: PostgresConfig{
				Host:     os.Getenv("POSTGRES_HOST"),
				Port:     getEnv("POSTGRES_PORT", "5432"),
				User:     os.Getenv("POSTGRES_USER"),
				Password: os.Getenv("POSTGRES_PASSWORD"),
				DBName:   os.Getenv("POSTGRES_DB"),
			},
		},
		JWTSecret:        os.Getenv("JWT_SECRET"),
		IdentityProvider: getEnv("IDENTITY_PROVIDER", ProviderDemo),
		DemoOTP:          getEnv("DEMO_OTP", "123456"),
		GoogleClientID:   os.Getenv("GOOGLE_CLIENT_ID"),
		CandidatesFile:   os.Getenv("CANDIDATES_FILE"),
	}

	var err error
	if cfg.Store.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return Config{}, err
	}
	if cfg.SessionTTL, err = getDuration("SESSION_TTL", 24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.ResultsCacheTTL, err = getDuration("RESULTS_CACHE_TTL", 0); err != nil {
		return Config{}, err
	}
	if cfg.SecureCookies, err = getBool("SECURE_COOKIES", true); err != nil {
		return Config{}, err
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Store.Backend {
	case BackendMemory, BackendSQLite, BackendRedis, BackendPostgres:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.Store.Backend)
	}
	switch c.IdentityProvider {
	case ProviderDemo:
	case ProviderGoogle:
		if c.GoogleClientID == "" {
			return fmt.Errorf("GOOGLE_CLIENT_ID is required for the google identity provider")
		}
	default:
		return fmt.Errorf("unknown IDENTITY_PROVIDER %q", c.IdentityProvider)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	return nil
}

// NewLogger builds the process logger for a level name.
func NewLogger(level string) *slog.Logger {
	lvl := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
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

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
