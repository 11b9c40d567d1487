package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/restodash/dashboard-api/internal/apperrors"
	"github.com/restodash/dashboard-api/internal/model"
)

// RequireRole rejects requests whose role claim is not one of roles with
// 403. It must run after JWTAuth.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !model.HasRole(Role(c), roles...) {
				return c.JSON(http.StatusForbidden, echo.Map{"error": apperrors.ErrForbidden.Message})
			}
			return next(c)
		}
	}
}
