package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restodash/dashboard-api/internal/config"
)

func limitCfg(capacity int) config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled:        true,
		Capacity:       capacity,
		RefillTokens:   1,
		RefillInterval: time.Minute,
		TTL:            10 * time.Minute,
		KeyStrategy:    "ip_route",
		Prefix:         "rl",
	}
}

func limitedEcho(mw echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	ok := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }
	e.POST("/login", ok, mw)
	e.POST("/signup", ok, mw)
	return e
}

func TestTokenBucket_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	e := limitedEcho(NewTokenBucket(limitCfg(2), rdb, nil))

	for i := 0; i < 2; i++ {
		rec := serve(e, http.MethodPost, "/login", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, strconv.Itoa(1-i), rec.Header().Get("X-RateLimit-Remaining"))
	}

	rec := serve(e, http.MethodPost, "/login", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error":"too_many_requests"`)
	retry, err := strconv.Atoi(rec.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, retry, 1)
	assert.LessOrEqual(t, retry, 60)

	// buckets are per route
	assert.Equal(t, http.StatusOK, serve(e, http.MethodPost, "/signup", "").Code)
	assert.True(t, mr.Exists("rl:ip:192.0.2.1:route:POST /login"))
}

func TestTokenBucket_RedisDownFailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { rdb.Close() })
	mr.Close()

	e := limitedEcho(NewTokenBucket(limitCfg(1), rdb, nil))
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, serve(e, http.MethodPost, "/login", "").Code)
	}
}

func TestTokenBucket_MemoryFallback(t *testing.T) {
	e := limitedEcho(NewTokenBucket(limitCfg(3), nil, nil))

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, serve(e, http.MethodPost, "/login", "").Code)
	}
	rec := serve(e, http.MethodPost, "/login", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestTokenBucket_Disabled(t *testing.T) {
	cfg := limitCfg(1)
	cfg.Enabled = false
	e := limitedEcho(NewTokenBucket(cfg, nil, nil))
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, serve(e, http.MethodPost, "/login", "").Code)
	}
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	cfg := limitCfg(1)
	cases := map[string]string{
		"ip":       "rl:ip:192.0.2.1",
		"user":     "rl:user:42",
		"route":    "rl:route:POST /login",
		"ip_user":  "rl:ip:192.0.2.1:user:42",
		"ip_route": "rl:ip:192.0.2.1:route:POST /login",
		"":         "rl:ip:192.0.2.1:user:42:route:POST /login",
	}
	for strategy, want := range cases {
		c := e.NewContext(httptest.NewRequest(http.MethodPost, "/login", nil), nil)
		c.SetPath("/login")
		c.Set(ctxUserID, uint64(42))
		cfg.KeyStrategy = strategy
		assert.Equal(t, want, buildRateKey(cfg, c), strategy)
	}
}
