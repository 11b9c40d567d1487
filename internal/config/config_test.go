package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_NAME", "dashboard")
	t.Setenv("JWT_ACCESS_SECRET", "access")
	t.Setenv("JWT_REFRESH_SECRET", "refresh")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Env)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "3306", cfg.DBPort)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTokenTTL)
	assert.False(t, cfg.RefreshRotateOnUse)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowOrigins)
	assert.Equal(t, "auth.events", cfg.AMQP.Queue)
	assert.Empty(t, cfg.AMQP.URL)
	assert.Equal(t, 256, cfg.AMQP.PublishBuffer)
	assert.Equal(t, 5*time.Second, cfg.AMQP.DialTimeout)
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("ACCESS_TOKEN_TTL", "5m")
	t.Setenv("REFRESH_ROTATE_ON_USE", "true")
	t.Setenv("BCRYPT_COST", "99")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("RABBITMQ_URL", "amqp://guest:guest@mq:5672/")
	t.Setenv("AMQP_DIAL_TIMEOUT", "750ms")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, 5*time.Minute, cfg.AccessTokenTTL)
	assert.True(t, cfg.RefreshRotateOnUse)
	assert.Equal(t, 10, cfg.BcryptCost, "out-of-range cost falls back to the bcrypt default")
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowOrigins)
	assert.Equal(t, "amqp://guest:guest@mq:5672/", cfg.AMQP.URL)
	assert.Equal(t, 750*time.Millisecond, cfg.AMQP.DialTimeout)
}

func TestLoad_MissingRequired(t *testing.T) {
	setRequired(t)
	t.Setenv("DB_HOST", "")
	t.Setenv("JWT_REFRESH_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_HOST")
	assert.Contains(t, err.Error(), "JWT_REFRESH_SECRET")
}

func TestLoad_SecretsMustDiffer(t *testing.T) {
	setRequired(t)
	t.Setenv("JWT_REFRESH_SECRET", "access")

	_, err := Load()
	assert.ErrorContains(t, err, "must differ")
}

func TestLoad_BadTTL(t *testing.T) {
	setRequired(t)
	t.Setenv("REFRESH_TOKEN_TTL", "-1h")

	_, err := Load()
	assert.ErrorContains(t, err, "REFRESH_TOKEN_TTL")
}

func TestRateLimitConfig(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 10*time.Second, cfg.TTL)
	assert.Equal(t, 2*time.Second, cfg.Period())
	assert.Equal(t, "ip_route", cfg.KeyStrategy)
}

func TestCacheConfig(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")

	cfg := LoadCacheConfig()
	assert.Equal(t, map[string]bool{"GET": true, "HEAD": true}, cfg.Methods)
	assert.Equal(t, "cache:admin", cfg.Prefix)
	assert.Equal(t, 30*time.Second, cfg.TTL)
}

func TestRedisConfig(t *testing.T) {
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("REDIS_DB", "2")

	cfg := LoadRedisConfig()
	assert.Equal(t, "cache:6380", cfg.Addr)
	assert.Equal(t, 2, cfg.DB)
	assert.False(t, cfg.TLS)
}
