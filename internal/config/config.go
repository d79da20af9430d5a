package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Store and cache drivers accepted by STORE_DRIVER and CACHE_DRIVER.
const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreMemory   = "memory"

	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

// Config holds the application's configuration values.
// Tags like `envconfig:"APP_PORT"` specify the environment variable name.
type Config struct {
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"` // debug enables request logging
	StoreDriver string `envconfig:"STORE_DRIVER" default:"mongo"`
	HttpServer  ServerConfig
	GrpcServer  GrpcServerConfig
	Mongo       MongoConfig
	Postgres    PostgresConfig
	Cache       CacheConfig
	Redis       RedisConfig
	Auth        AuthConfig
	Cloudinary  CloudinaryConfig
	Orders      OrdersConfig
}

// ServerConfig holds HTTP server-specific configurations.
type ServerConfig struct {
	Port           string        `envconfig:"HTTP_SERVER_PORT" default:"5000"`
	TimeoutRead    time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_READ" default:"15s"`
	TimeoutWrite   time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_WRITE" default:"15s"`
	TimeoutIdle    time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_IDLE" default:"60s"`
	MaxUploadBytes int64         `envconfig:"HTTP_MAX_UPLOAD_BYTES" default:"26214400"`
	AllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	LoginRateLimit int           `envconfig:"LOGIN_RATE_LIMIT" default:"10"` // Per IP per minute
}

// GrpcServerConfig holds gRPC server-specific configurations.
type GrpcServerConfig struct {
	Port string `envconfig:"GRPC_SERVER_PORT" default:"9090"`
}

// MongoConfig holds the MongoDB connection details.
type MongoConfig struct {
	URI      string `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	Database string `envconfig:"MONGO_DATABASE" default:"ecommerce_modern"`
}

// PostgresConfig holds PostgreSQL database connection details.
// The fields are only checked when STORE_DRIVER=postgres.
type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST"`
	Port     string `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER"`
	Password string `envconfig:"POSTGRES_PASSWORD"`
	DBName   string `envconfig:"POSTGRES_DBNAME"`
}

// DSN constructs the Data Source Name string for connecting to PostgreSQL.
func (pc *PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		pc.Host, pc.Port, pc.User, pc.Password, pc.DBName)
}

func (pc *PostgresConfig) validate() error {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"POSTGRES_HOST", pc.Host},
		{"POSTGRES_USER", pc.User},
		{"POSTGRES_PASSWORD", pc.Password},
		{"POSTGRES_DBNAME", pc.DBName},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("required key(s) %s missing value", strings.Join(missing, ", "))
	}
	return nil
}

// CacheConfig selects the catalog read cache.
type CacheConfig struct {
	Driver string        `envconfig:"CACHE_DRIVER" default:"memory"`
	TTL    time.Duration `envconfig:"CACHE_TTL" default:"5m"`
}

// RedisConfig holds the Redis connection details for CACHE_DRIVER=redis.
type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// AuthConfig holds token signing settings and the admin account.
type AuthConfig struct {
	JWTSecret         string        `envconfig:"JWT_SECRET" required:"true"`
	TokenTTL          time.Duration `envconfig:"JWT_TOKEN_TTL" default:"24h"`
	Issuer            string        `envconfig:"JWT_ISSUER" default:"storefront-service"`
	AdminUsername     string        `envconfig:"ADMIN_USERNAME" default:"admin"`
	AdminPasswordHash string        `envconfig:"ADMIN_PASSWORD_HASH" required:"true"`
}

// CloudinaryConfig holds image host credentials and upload limits.
type CloudinaryConfig struct {
	CloudName    string `envconfig:"CLOUDINARY_CLOUD_NAME"`
	APIKey       string `envconfig:"CLOUDINARY_API_KEY"`
	APISecret    string `envconfig:"CLOUDINARY_API_SECRET"`
	Folder       string `envconfig:"CLOUDINARY_FOLDER" default:"ecommerce_products"`
	MaxFiles     int    `envconfig:"UPLOAD_MAX_FILES" default:"5"`
	MaxFileBytes int64  `envconfig:"UPLOAD_MAX_FILE_BYTES" default:"5242880"`
}

// OrdersConfig holds checkout settings.
type OrdersConfig struct {
	VerifyTotal bool `envconfig:"ORDERS_VERIFY_TOTAL" default:"true"`
}

// Load reads the configuration from environment variables.
// It should be called once during application startup.
func Load() (*Config, error) {
	log.Println("Loading service configuration...")
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process configuration: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("failed to process configuration: %w", err)
	}

	log.Printf("Configuration loaded successfully for APP_ENV: %s", cfg.AppEnv)
	return &cfg, nil
}

// LoadPostgres reads only the PostgreSQL settings, for commands that need
// nothing else (migrate).
func LoadPostgres() (*PostgresConfig, error) {
	var pc PostgresConfig
	if err := envconfig.Process("", &pc); err != nil {
		return nil, fmt.Errorf("failed to process configuration: %w", err)
	}
	if err := pc.validate(); err != nil {
		return nil, fmt.Errorf("failed to process configuration: %w", err)
	}
	return &pc, nil
}

func (c *Config) validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}
	if c.Auth.AdminPasswordHash == "" {
		return fmt.Errorf("ADMIN_PASSWORD_HASH must not be empty")
	}

	switch c.StoreDriver {
	case StoreMongo, StoreMemory:
	case StorePostgres:
		if err := c.Postgres.validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	switch c.Cache.Driver {
	case CacheMemory, CacheRedis, CacheNone:
	default:
		return fmt.Errorf("unknown CACHE_DRIVER %q", c.Cache.Driver)
	}

	if c.Cloudinary.MaxFiles < 1 {
		return fmt.Errorf("UPLOAD_MAX_FILES must be at least 1")
	}
	return nil
}

// Debug reports whether verbose request logging is enabled.
func (c *Config) Debug() bool {
	return strings.EqualFold(c.LogLevel, "debug")
}
