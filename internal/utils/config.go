package utils

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ServerPort string
	JWTSecret  string
	JWTTTL     time.Duration
	Postgres   PostgresConfig
	Mongo      MongoConfig
	OpenAI     OpenAIConfig
	Logging    LoggingConfig
}

type PostgresConfig struct {
	DSN               string
	Host              string
	Port              int
	User              string
	Password          string
	Database          string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
	ConnectTimeout    time.Duration
}

type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

// OpenAIConfig points at any OpenAI-compatible chat completion endpoint.
type OpenAIConfig struct {
	BaseURL      string
	APIKey       string
	Model        string
	SystemPrompt string
}

type LoggingConfig struct {
	Level        string
	Encoding     string
	Development  bool
	EnableCaller bool
	ServiceName  string
}

func LoadConfig() (*Config, error) {
	jwtSecret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if jwtSecret == "" {
		return nil, fmt.Errorf("config: JWT_SECRET is required")
	}

	pgPort, _ := strconv.Atoi(envOrDefault("POSTGRES_PORT", "5432"))

	cfg := &Config{
		ServerPort: envOrDefault("PORT", "8080"),
		JWTSecret:  jwtSecret,
		JWTTTL:     parseDuration(envOrDefault("JWT_TTL", "24h"), 24*time.Hour),
		Postgres: PostgresConfig{
			DSN:               os.Getenv("POSTGRES_DSN"),
			Host:              envOrDefault("POSTGRES_HOST", "localhost"),
			Port:              pgPort,
			User:              envOrDefault("POSTGRES_USER", "postgres"),
			Password:          os.Getenv("POSTGRES_PASSWORD"),
			Database:          envOrDefault("POSTGRES_DB", "chatrelay"),
			MaxConns:          parseInt32(envOrDefault("POSTGRES_MAX_CONNS", "8"), 8),
			MinConns:          parseInt32(envOrDefault("POSTGRES_MIN_CONNS", "1"), 1),
			MaxConnLifetime:   parseDuration(envOrDefault("POSTGRES_MAX_CONN_LIFETIME", "1h"), time.Hour),
			MaxConnIdleTime:   parseDuration(envOrDefault("POSTGRES_MAX_CONN_IDLE", "30m"), 30*time.Minute),
			HealthCheckPeriod: parseDuration(envOrDefault("POSTGRES_HEALTH_CHECK_PERIOD", "1m"), time.Minute),
			ConnectTimeout:    parseDuration(envOrDefault("POSTGRES_CONNECT_TIMEOUT", "5s"), 5*time.Second),
		},
		Mongo: MongoConfig{
			URI:            envOrDefault("MONGO_URI", "mongodb://localhost:27017"),
			Database:       envOrDefault("MONGO_DATABASE", "chatrelay"),
			ConnectTimeout: parseDuration(envOrDefault("MONGO_CONNECT_TIMEOUT", "5s"), 5*time.Second),
		},
		OpenAI: OpenAIConfig{
			BaseURL:      strings.TrimRight(envOrDefault("OPENAI_BASE_URL", "https://api.together.xyz/v1"), "/"),
			APIKey:       strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
			Model:        envOrDefault("OPENAI_MODEL", "moonshotai/Kimi-K2-Instruct"),
			SystemPrompt: envOrDefault("SYSTEM_PROMPT", "You are a helpful assistant."),
		},
		Logging: LoggingConfig{
			Level:        strings.ToLower(envOrDefault("LOG_LEVEL", "info")),
			Encoding:     strings.ToLower(envOrDefault("LOG_ENCODING", "console")),
			Development:  parseBool(envOrDefault("LOG_DEVELOPMENT", "false"), false),
			EnableCaller: parseBool(envOrDefault("LOG_CALLER", "false"), false),
			ServiceName:  envOrDefault("SERVICE_NAME", "chat-relay"),
		},
	}

	if cfg.OpenAI.APIKey == "" {
		return nil, fmt.Errorf("config: OPENAI_API_KEY is required")
	}

	return cfg, nil
}

func (c PostgresConfig) BuildDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s", c.User, c.Password, c.Host, c.Port, c.Database)
}

func envOrDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

func parseInt32(value string, fallback int32) int32 {
	i, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return int32(i)
}

func parseBool(value string, fallback bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return v
}
