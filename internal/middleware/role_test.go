package middleware

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restodash/dashboard-api/internal/model"
	"github.com/restodash/dashboard-api/internal/utils"
)

func TestRequireRole(t *testing.T) {
	iss := testIssuer(t)
	e := echo.New()
	e.GET("/admin", func(c echo.Context) error { return c.String(http.StatusOK, "ok") },
		JWTAuth(iss), RequireRole(model.RoleSuperAdmin))
	e.GET("/staff", func(c echo.Context) error { return c.String(http.StatusOK, "ok") },
		JWTAuth(iss), RequireRole(model.RoleRestaurantAdmin, model.RoleSuperAdmin))

	token := func(r model.Role) string {
		tok, err := iss.IssueAccess(utils.Identity{ID: 1, Email: "a@x.com", Role: r})
		require.NoError(t, err)
		return "Bearer " + tok.Token
	}

	cases := []struct {
		path   string
		role   model.Role
		status int
	}{
		{"/admin", model.RoleSuperAdmin, http.StatusOK},
		{"/admin", model.RoleRestaurantAdmin, http.StatusForbidden},
		{"/admin", model.RoleUser, http.StatusForbidden},
		{"/staff", model.RoleRestaurantAdmin, http.StatusOK},
		{"/staff", model.RoleSuperAdmin, http.StatusOK},
		{"/staff", model.RoleUser, http.StatusForbidden},
	}
	for _, tc := range cases {
		rec := serve(e, http.MethodGet, tc.path, token(tc.role))
		assert.Equal(t, tc.status, rec.Code, "%s as %s", tc.path, tc.role)
		if tc.status == http.StatusForbidden {
			assert.Contains(t, rec.Body.String(), "Access denied: insufficient role")
		}
	}
}

func TestRequireRole_WithoutClaims(t *testing.T) {
	e := echo.New()
	e.GET("/admin", func(c echo.Context) error { return c.String(http.StatusOK, "ok") },
		RequireRole(model.RoleSuperAdmin))

	rec := serve(e, http.MethodGet, "/admin", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
