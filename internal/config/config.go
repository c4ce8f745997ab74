package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	HTTP     HTTPConfig
	Queue    QueueConfig
	Overview OverviewConfig
	LogLevel slog.Level
}

type ServerConfig struct {
	Host string
	Port int
}

type DatabaseConfig struct {
	URL              string
	MaxConns         int
	MinConns         int
	RunMigrations    bool
	ConnectTimeout   time.Duration
	StatementTimeout time.Duration // 0 leaves the server default
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret      string
	DevSuperuserID string // seeds the in-memory user store when DATABASE_URL is empty
}

type HTTPConfig struct {
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
}

type QueueConfig struct {
	ImportQueue string // consumed by the import pipeline, never by the worker
	RelayQueue  string // served by the worker
	Concurrency int
	RelaySpec   string        // cron spec for the outbox relay
	RelayGrace  time.Duration // minimum age of an undispatched outbox row
	RelayBatch  int
}

type OverviewConfig struct {
	CacheTTL time.Duration // 0 disables caching
}

// Load reads configuration from the environment. A .env file in the
// working directory is applied first when present; real environment
// variables always win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	port, err := getEnvInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	maxConns, err := getEnvInt("DB_MAX_CONNS", 20)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}

	minConns, err := getEnvInt("DB_MIN_CONNS", 2)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	runMigrations, err := getEnvBool("DB_RUN_MIGRATIONS", true)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_RUN_MIGRATIONS: %w", err)
	}

	connectTimeout, err := getEnvDuration("DB_CONNECT_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_CONNECT_TIMEOUT: %w", err)
	}

	statementTimeout, err := getEnvDuration("DB_STATEMENT_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_STATEMENT_TIMEOUT: %w", err)
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	rps, err := getEnvFloat("RATE_LIMIT_RPS", 50)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}

	burst, err := getEnvInt("RATE_LIMIT_BURST", 100)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}

	concurrency, err := getEnvInt("WORKER_CONCURRENCY", 4)
	if err != nil {
		return nil, fmt.Errorf("invalid WORKER_CONCURRENCY: %w", err)
	}

	relayGrace, err := getEnvDuration("OUTBOX_RELAY_GRACE", time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid OUTBOX_RELAY_GRACE: %w", err)
	}

	relayBatch, err := getEnvInt("OUTBOX_RELAY_BATCH", 100)
	if err != nil {
		return nil, fmt.Errorf("invalid OUTBOX_RELAY_BATCH: %w", err)
	}

	cacheTTL, err := getEnvDuration("OVERVIEW_CACHE_TTL", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid OVERVIEW_CACHE_TTL: %w", err)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: port,
		},
		Database: DatabaseConfig{
			URL:              getEnv("DATABASE_URL", ""),
			MaxConns:         maxConns,
			MinConns:         minConns,
			RunMigrations:    runMigrations,
			ConnectTimeout:   connectTimeout,
			StatementTimeout: statementTimeout,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Auth: AuthConfig{
			JWTSecret:      getEnv("JWT_SECRET", ""),
			DevSuperuserID: getEnv("DEV_SUPERUSER_ID", ""),
		},
		HTTP: HTTPConfig{
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
			RateLimitRPS:   rps,
			RateLimitBurst: burst,
		},
		Queue: QueueConfig{
			ImportQueue: getEnv("IMPORT_QUEUE", "default"),
			RelayQueue:  getEnv("OUTBOX_RELAY_QUEUE", "outbox"),
			Concurrency: concurrency,
			RelaySpec:   getEnv("OUTBOX_RELAY_SPEC", "@every 30s"),
			RelayGrace:  relayGrace,
			RelayBatch:  relayBatch,
		},
		Overview: OverviewConfig{
			CacheTTL: cacheTTL,
		},
		LogLevel: level,
	}

	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// InMemory reports whether the API runs without Postgres.
func (c *Config) InMemory() bool {
	return c.Database.URL == ""
}

func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("missing required env var: JWT_SECRET")
	}
	if c.Database.URL == "" && c.Auth.DevSuperuserID != "" {
		if _, err := uuid.Parse(c.Auth.DevSuperuserID); err != nil {
			return fmt.Errorf("invalid DEV_SUPERUSER_ID: %w", err)
		}
	}
	if c.Queue.RelayBatch <= 0 {
		return fmt.Errorf("OUTBOX_RELAY_BATCH must be positive, got %d", c.Queue.RelayBatch)
	}
	if c.Queue.ImportQueue == c.Queue.RelayQueue {
		return fmt.Errorf("IMPORT_QUEUE and OUTBOX_RELAY_QUEUE must differ, both are %q", c.Queue.ImportQueue)
	}
	if c.Queue.RelayGrace < time.Second {
		return fmt.Errorf("OUTBOX_RELAY_GRACE must be at least 1s, got %s", c.Queue.RelayGrace)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(v, 64)
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseBool(v)
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return time.ParseDuration(v)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
