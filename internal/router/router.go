// Package router wires handlers and middleware into an echo server.
package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/restodash/dashboard-api/internal/config"
	"github.com/restodash/dashboard-api/internal/handler"
	"github.com/restodash/dashboard-api/internal/middleware"
	"github.com/restodash/dashboard-api/internal/model"
)

// Options carries everything the HTTP layer depends on. Redis and DB may be
// nil: rate limiting then runs in-process, caching is skipped and /readyz
// is not registered.
type Options struct {
	Auth     *handler.AuthHandler
	Admin    *handler.AdminHandler
	Verifier middleware.AccessVerifier

	DB    handler.Pinger
	Redis *redis.Client

	RateLimit   config.RateLimitConfig
	Cache       config.CacheConfig
	CORSOrigins []string
	Log         *zap.Logger
}

// New builds the echo instance with global middleware and all routes.
func New(o Options) *echo.Echo {
	if o.Log == nil {
		o.Log = zap.NewNop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	// Request bodies are validated through the shared validator, and every
	// error leaves through one JSON error handler.
	e.Validator = handler.NewRequestValidator()
	e.HTTPErrorHandler = handler.HTTPErrorHandler(o.Log)

	// Recover first so a panic still gets a request id and an access log line.
	e.Use(echomw.Recover())
	e.Use(middleware.RequestID(o.Log))
	e.Use(middleware.AccessLog(o.Log))
	// CORS is only installed when origins are configured.
	if len(o.CORSOrigins) > 0 {
		e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins: o.CORSOrigins,
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		}))
	}

	RegisterRoutes(e, o)
	RegisterAuth(e, o)
	RegisterAdmin(e, o)
	return e
}

// RegisterRoutes registers the unauthenticated health checks.
func RegisterRoutes(e *echo.Echo, o Options) {
	// Liveness never touches a dependency.
	e.GET("/healthz", handler.Health)
	// Readiness pings the database, so it needs one.
	if o.DB != nil {
		e.GET("/readyz", handler.Ready(o.DB))
	}
}

// RegisterAuth registers signup, login and session routes. The credential
// endpoints share one rate limiter; the rest require a valid access token.
func RegisterAuth(e *echo.Echo, o Options) {
	// One token bucket per client across signup, login and refresh.
	limit := middleware.NewTokenBucket(o.RateLimit, o.Redis, o.Log)
	// A new account shows up in the admin user list, so signup clears the
	// cached list pages on success.
	e.POST("/signup", o.Auth.Signup, limit, middleware.InvalidateOnWrite(o.Cache, o.Redis, o.Log))
	// Login issues both tokens and replaces the stored refresh token.
	e.POST("/login", o.Auth.Login, limit)
	// Refresh exchanges the stored refresh token for a new access token.
	e.POST("/refresh", o.Auth.Refresh, limit)

	// Everything below needs a valid access token in the Authorization header.
	jwt := middleware.JWTAuth(o.Verifier)
	// Logout clears the caller's refresh token.
	e.POST("/logout", o.Auth.Logout, jwt)
	// Stored profile plus a fresh access token carrying the current role.
	e.GET("/authUserData", o.Auth.AuthUserData, jwt)
	// Identity straight from the token claims.
	e.GET("/profile", o.Auth.Profile, jwt)
}

// RegisterAdmin registers the SUPERADMIN user management routes. List
// responses are cached in Redis; every successful write through the group
// invalidates the cache.
func RegisterAdmin(e *echo.Echo, o Options) {
	// Authenticate, then require SUPERADMIN, then consult the cache. The group
	// is registered with a prefix so unknown paths elsewhere still 404.
	admin := e.Group("/admin",
		middleware.JWTAuth(o.Verifier),
		middleware.RequireRole(model.RoleSuperAdmin),
		middleware.NewRedisCache(o.Cache, o.Redis, o.Log),
	)
	// Paginated, searchable user list.
	admin.GET("/users", o.Admin.ListUsers)
	// Create a user with an explicit role.
	admin.POST("/users", o.Admin.CreateUser)
	// Update profile fields and role.
	admin.PUT("/users/:id", o.Admin.UpdateUser)
	// Delete a user other than the caller.
	admin.DELETE("/users/:id", o.Admin.DeleteUser)
	// Set a new password and end the user's session.
	admin.PUT("/users/:id/password", o.Admin.ResetPassword)
	// Promote a user to RESTAURANT_ADMIN of one restaurant.
	admin.POST("/restaurants/:restaurantId/assign-admin/:userId", o.Admin.AssignRestaurantAdmin)
}
