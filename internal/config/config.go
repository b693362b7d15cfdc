package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// MaxTokenTTL is the fixed validity window of an access token.
const MaxTokenTTL = 7 * 24 * time.Hour

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	Env  string
	Port int

	DBURL         string
	StoreDriver   string
	RunMigrations bool

	JWTSecret string
	TokenTTL  time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	OTLPEndpoint string

	CORSOrigins  []string
	MaxBodyBytes int64
}

func Load() Config {
	// .env is optional, real environment always wins
	_ = godotenv.Load()

	ttl := time.Duration(getEnvInt("JWT_TTL_HOURS", 168)) * time.Hour
	if ttl <= 0 || ttl > MaxTokenTTL {
		ttl = MaxTokenTTL
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		dbURL = buildDBURL()
	}

	return Config{
		Env:           getEnv("APP_ENV", "dev"),
		Port:          getEnvInt("PORT", 8080),
		DBURL:         dbURL,
		StoreDriver:   getEnv("STORE_DRIVER", StoreDriverPostgres),
		RunMigrations: getEnvBool("RUN_MIGRATIONS", true),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		TokenTTL:      ttl,
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		OTLPEndpoint:  os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		CORSOrigins:   splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		MaxBodyBytes:  int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),
	}
}

// Validate reports configuration that would make the server unsafe or unusable.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		if c.Env != "dev" && c.Env != "test" {
			return errors.New("JWT_SECRET is required")
		}
	}

	switch c.StoreDriver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	if c.TokenTTL <= 0 || c.TokenTTL > MaxTokenTTL {
		return fmt.Errorf("token ttl %s outside (0, %s]", c.TokenTTL, MaxTokenTTL)
	}

	return nil
}

// SigningKey falls back to a fixed development key when no secret is set.
func (c Config) SigningKey() string {
	if c.JWTSecret == "" {
		return "dev-only-insecure-secret"
	}
	return c.JWTSecret
}

func buildDBURL() string {
	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "bloghub")
	pass := getEnv("DB_PASSWORD", "bloghub")
	name := getEnv("DB_NAME", "bloghub")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			slog.Warn("invalid integer env, using default", "key", key, "value", v)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fallback
		}
		return b
	}
	return fallback
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
