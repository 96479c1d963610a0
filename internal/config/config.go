package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	Server     ServerConfig
	Storage    StorageConfig
	Mongo      MongoConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	ClickHouse ClickHouseConfig
	JWT        JWTConfig
	Password   PasswordConfig
	RateLimit  RateLimitConfig
	Audit      AuditConfig
}

type ServerConfig struct {
	Port            string
	CORSOrigin      string
	ShutdownTimeout time.Duration
}

type StorageConfig struct {
	// Backend selects the account store implementation:
	// "mongo" (default), "postgres", or "memory".
	Backend string
}

type MongoConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type DatabaseConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

type RedisConfig struct {
	Addr       string
	Password   string
	DB         int
	StreamName string
}

type ClickHouseConfig struct {
	Addr     string
	Database string
	Username string
	Password string
	MaxConns int
}

type JWTConfig struct {
	Secret        string
	TokenDuration time.Duration
}

type PasswordConfig struct {
	BcryptCost int
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

type AuditConfig struct {
	ConsumerGroup string
	ConsumerName  string
	BatchSize     int
	PollInterval  time.Duration
	BlockTime     time.Duration
}

func Load() (*Config, error) {
	// Load .env if it exists (local dev), ignore if not
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("AUTHD_PORT", "3000"),
			CORSOrigin:      getEnv("CORS_ORIGIN", "http://localhost:5173"),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Storage: StorageConfig{
			Backend: getEnv("STORAGE_BACKEND", "mongo"),
		},
		Mongo: MongoConfig{
			URI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGO_DATABASE", "authdb"),
			Timeout:  getEnvAsDuration("MONGO_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			DSN:             getEnv("DB_DSN", ""),
			MaxConns:        int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns:        int32(getEnvAsInt("DB_MIN_CONNS", 5)),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", time.Hour),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			Addr:       getEnv("REDIS_ADDR", ""),
			Password:   getEnv("REDIS_PASSWORD", ""),
			DB:         getEnvAsInt("REDIS_DB", 0),
			StreamName: getEnv("REDIS_STREAM_NAME", "auth:events"),
		},
		ClickHouse: ClickHouseConfig{
			Addr:     getEnv("CLICKHOUSE_ADDR", "localhost:9000"),
			Database: getEnv("CLICKHOUSE_DATABASE", "audit"),
			Username: getEnv("CLICKHOUSE_USERNAME", "clickhouse"),
			Password: getEnv("CLICKHOUSE_PASSWORD", ""),
			MaxConns: getEnvAsInt("CLICKHOUSE_MAX_CONNS", 10),
		},
		JWT: JWTConfig{
			Secret:        getEnv("JWT_SECRET", ""),
			TokenDuration: getEnvAsDuration("JWT_TOKEN_DURATION", 24*time.Hour),
		},
		Password: PasswordConfig{
			BcryptCost: getEnvAsInt("BCRYPT_COST", bcrypt.DefaultCost),
		},
		RateLimit: RateLimitConfig{
			Requests: getEnvAsInt("RATE_LIMIT_REQUESTS", 20),
			Window:   getEnvAsDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
		Audit: AuditConfig{
			ConsumerGroup: getEnv("AUDIT_CONSUMER_GROUP", "audit-group"),
			ConsumerName:  getEnv("AUDIT_CONSUMER_NAME", "worker-1"),
			BatchSize:     getEnvAsInt("AUDIT_BATCH_SIZE", 100),
			PollInterval:  getEnvAsDuration("AUDIT_POLL_INTERVAL", time.Second),
			BlockTime:     getEnvAsDuration("AUDIT_BLOCK_TIME", 5*time.Second),
		},
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
