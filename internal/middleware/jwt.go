package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/restodash/dashboard-api/internal/apperrors"
	"github.com/restodash/dashboard-api/internal/utils"
)

// AccessVerifier checks access tokens. *utils.Issuer implements it.
type AccessVerifier interface {
	VerifyAccess(raw string) (*utils.Claims, error)
}

// JWTAuth validates the Bearer access token of each request and stores
// its claims on the context (see Claims, UserID and Role). It never
// consults the credential store.
//
//	missing or malformed header -> 401
//	expired token               -> 401 "Token expired"
//	any other failure           -> 403 "Invalid token"
func JWTAuth(v AccessVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": apperrors.ErrUnauthenticated.Message})
			}

			claims, err := v.VerifyAccess(raw)
			if err != nil {
				if apperrors.KindOf(err) == apperrors.KindTokenExpired {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": apperrors.ErrTokenExpired.Message})
				}
				return c.JSON(http.StatusForbidden, echo.Map{"error": apperrors.ErrInvalidToken.Message})
			}

			c.Set(ctxClaims, claims)
			c.Set(ctxUserID, claims.UserID)
			c.Set(ctxRole, claims.Role)
			return next(c)
		}
	}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header value. The scheme is matched case-insensitively.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
