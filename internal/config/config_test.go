package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("ADMIN_PASSWORD_HASH", "$2a$10$abcdefghijklmnopqrstuv")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, StoreMongo, cfg.StoreDriver)
	assert.Equal(t, "5000", cfg.HttpServer.Port)
	assert.Equal(t, 15*time.Second, cfg.HttpServer.TimeoutRead)
	assert.Equal(t, int64(26214400), cfg.HttpServer.MaxUploadBytes)
	assert.Equal(t, []string{"*"}, cfg.HttpServer.AllowedOrigins)
	assert.Equal(t, "9090", cfg.GrpcServer.Port)
	assert.Equal(t, "ecommerce_modern", cfg.Mongo.Database)
	assert.Equal(t, CacheMemory, cfg.Cache.Driver)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "admin", cfg.Auth.AdminUsername)
	assert.Equal(t, "ecommerce_products", cfg.Cloudinary.Folder)
	assert.Equal(t, 5, cfg.Cloudinary.MaxFiles)
	assert.True(t, cfg.Orders.VerifyTotal)
	assert.False(t, cfg.Debug())
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("ADMIN_PASSWORD_HASH", "hash")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to process configuration")
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoad_PostgresRequiresConnectionDetails(t *testing.T) {
	setRequired(t)
	t.Setenv("STORE_DRIVER", StorePostgres)
	t.Setenv("POSTGRES_HOST", "db")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "POSTGRES_USER")

	t.Setenv("POSTGRES_USER", "shop")
	t.Setenv("POSTGRES_PASSWORD", "pw")
	t.Setenv("POSTGRES_DBNAME", "storefront")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "host=db port=5432 user=shop password=pw dbname=storefront sslmode=disable", cfg.Postgres.DSN())
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com,https://b.example.com")
	t.Setenv("CACHE_DRIVER", CacheRedis)
	t.Setenv("ORDERS_VERIFY_TOTAL", "false")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.HttpServer.AllowedOrigins)
	assert.Equal(t, CacheRedis, cfg.Cache.Driver)
	assert.False(t, cfg.Orders.VerifyTotal)
	assert.True(t, cfg.Debug())
}

func TestLoad_UnknownDriver(t *testing.T) {
	setRequired(t)
	t.Setenv("STORE_DRIVER", "sqlite")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown STORE_DRIVER")
}

func TestLoadPostgres(t *testing.T) {
	t.Setenv("POSTGRES_HOST", "db")
	t.Setenv("POSTGRES_USER", "shop")
	t.Setenv("POSTGRES_PASSWORD", "pw")
	t.Setenv("POSTGRES_DBNAME", "")

	_, err := LoadPostgres()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "POSTGRES_DBNAME")

	t.Setenv("POSTGRES_DBNAME", "storefront")
	t.Setenv("POSTGRES_PORT", "6543")
	pc, err := LoadPostgres()
	require.NoError(t, err)
	assert.Equal(t, "6543", pc.Port)
}
