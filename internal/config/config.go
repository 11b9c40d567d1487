package config // package config loads application configuration from the environment

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable (optionally provided through a .env file).
type Config struct {
	Env  string // application environment (development, production, test)
	Port string // HTTP port to listen on

	DBUser string
	DBPass string // may be empty
	DBHost string
	DBPort string
	DBName string

	JWTAccessSecret    string        // signs access tokens
	JWTRefreshSecret   string        // signs refresh tokens; must differ from the access secret
	AccessTokenTTL     time.Duration // lifetime of access tokens
	RefreshTokenTTL    time.Duration // lifetime of refresh tokens
	RefreshRotateOnUse bool          // rotate the refresh token on every /refresh
	BcryptCost         int           // bcrypt work factor

	CORSAllowOrigins []string

	RateLimit RateLimitConfig
	Cache     CacheConfig
	Redis     RedisConfig
	AMQP      AMQPConfig
}

// required lists keys that have no default and must be set.
var required = []string{"DB_USER", "DB_HOST", "DB_NAME", "JWT_ACCESS_SECRET", "JWT_REFRESH_SECRET"}

// Load reads configuration from the process environment. A .env file in the
// working directory is loaded first when present; real environment variables
// take precedence over it.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("DB_PORT", "3306")
	v.SetDefault("ACCESS_TOKEN_TTL", "15m")
	v.SetDefault("REFRESH_TOKEN_TTL", "168h")
	v.SetDefault("REFRESH_ROTATE_ON_USE", false)
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("CORS_ALLOW_ORIGINS", "*")

	var missing []string
	for _, k := range required {
		if strings.TrimSpace(v.GetString(k)) == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}

	cfg := Config{
		Env:                v.GetString("APP_ENV"),
		Port:               v.GetString("APP_PORT"),
		DBUser:             v.GetString("DB_USER"),
		DBPass:             v.GetString("DB_PASS"),
		DBHost:             v.GetString("DB_HOST"),
		DBPort:             v.GetString("DB_PORT"),
		DBName:             v.GetString("DB_NAME"),
		JWTAccessSecret:    v.GetString("JWT_ACCESS_SECRET"),
		JWTRefreshSecret:   v.GetString("JWT_REFRESH_SECRET"),
		AccessTokenTTL:     v.GetDuration("ACCESS_TOKEN_TTL"),
		RefreshTokenTTL:    v.GetDuration("REFRESH_TOKEN_TTL"),
		RefreshRotateOnUse: v.GetBool("REFRESH_ROTATE_ON_USE"),
		BcryptCost:         v.GetInt("BCRYPT_COST"),
		CORSAllowOrigins:   splitList(v.GetString("CORS_ALLOW_ORIGINS")),
		RateLimit:          LoadRateLimitConfig(),
		Cache:              LoadCacheConfig(),
		Redis:              LoadRedisConfig(),
		AMQP:               LoadAMQPConfig(),
	}

	if cfg.JWTAccessSecret == cfg.JWTRefreshSecret {
		return Config{}, errors.New("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ")
	}
	if cfg.AccessTokenTTL <= 0 {
		return Config{}, fmt.Errorf("invalid ACCESS_TOKEN_TTL: %q", v.GetString("ACCESS_TOKEN_TTL"))
	}
	if cfg.RefreshTokenTTL <= 0 {
		return Config{}, fmt.Errorf("invalid REFRESH_TOKEN_TTL: %q", v.GetString("REFRESH_TOKEN_TTL"))
	}
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return cfg, nil
}

// IsDevelopment reports whether the service runs in a local environment.
func (c Config) IsDevelopment() bool {
	return c.Env == "development" || c.Env == "dev"
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
