package middleware

// identity.go holds the context keys written by JWTAuth and helpers that
// read them back for handlers and other middleware.

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/restodash/dashboard-api/internal/model"
	"github.com/restodash/dashboard-api/internal/utils"
)

const (
	ctxClaims = "claims"
	ctxUserID = "user_id"
	ctxRole   = "role"
)

// Claims returns the verified access token claims of the request.
func Claims(c echo.Context) (*utils.Claims, bool) {
	cl, ok := c.Get(ctxClaims).(*utils.Claims)
	return cl, ok && cl != nil
}

// UserID returns the authenticated user id, zero for anonymous requests.
func UserID(c echo.Context) uint64 {
	id, _ := c.Get(ctxUserID).(uint64)
	return id
}

// Role returns the role claim of the authenticated user.
func Role(c echo.Context) model.Role {
	r, _ := c.Get(ctxRole).(model.Role)
	return r
}

// userKey identifies the caller for rate limiting.
func userKey(c echo.Context) string {
	if id := UserID(c); id != 0 {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}
