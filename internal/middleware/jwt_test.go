package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restodash/dashboard-api/internal/model"
	"github.com/restodash/dashboard-api/internal/utils"
)

func testIssuer(t *testing.T, opts ...utils.IssuerOption) *utils.Issuer {
	t.Helper()
	iss, err := utils.NewIssuer(utils.IssuerConfig{
		AccessSecret:  "mw-access",
		RefreshSecret: "mw-refresh",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    time.Hour,
	}, opts...)
	require.NoError(t, err)
	return iss
}

func serve(e *echo.Echo, method, target, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuth(t *testing.T) {
	iss := testIssuer(t)
	past := testIssuer(t, utils.WithClock(func() time.Time { return time.Now().Add(-time.Hour) }))

	good, err := iss.IssueAccess(utils.Identity{ID: 7, Email: "a@x.com", Role: model.RoleRestaurantAdmin})
	require.NoError(t, err)
	expired, err := past.IssueAccess(utils.Identity{ID: 7, Email: "a@x.com", Role: model.RoleUser})
	require.NoError(t, err)
	refresh, err := iss.IssueRefresh(utils.Identity{ID: 7, Email: "a@x.com"})
	require.NoError(t, err)

	e := echo.New()
	e.GET("/me", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"id": UserID(c), "role": Role(c)})
	}, JWTAuth(iss))

	cases := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"valid", "Bearer " + good.Token, http.StatusOK, `"role":"RESTAURANT_ADMIN"`},
		{"lower-case scheme", "bearer " + good.Token, http.StatusOK, `"id":7`},
		{"missing header", "", http.StatusUnauthorized, "Missing or invalid Authorization header"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "Missing or invalid Authorization header"},
		{"empty token", "Bearer ", http.StatusUnauthorized, "Missing or invalid Authorization header"},
		{"expired", "Bearer " + expired.Token, http.StatusUnauthorized, "Token expired"},
		{"garbage", "Bearer not.a.jwt", http.StatusForbidden, "Invalid token"},
		{"refresh token", "Bearer " + refresh.Token, http.StatusForbidden, "Invalid token"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(e, http.MethodGet, "/me", tc.header)
			assert.Equal(t, tc.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.body)
		})
	}
}

func TestBearerToken(t *testing.T) {
	tok, ok := bearerToken("  Bearer   abc  ")
	assert.True(t, ok)
	assert.Equal(t, "abc", tok)

	_, ok = bearerToken("Bearerabc")
	assert.False(t, ok)
}
