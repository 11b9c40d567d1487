package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) PingContext(ctx context.Context) error { return f(ctx) }

func TestHealthAndReady(t *testing.T) {
	var down error
	e := echo.New()
	e.GET("/healthz", Health)
	e.GET("/readyz", Ready(pingerFunc(func(context.Context) error { return down })))

	rec := do(e, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/readyz", "", "").Code)

	down = errors.New("dial tcp: connection refused")
	rec = do(e, http.MethodGet, "/readyz", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"unavailable"}`, rec.Body.String())
}

func TestHTTPErrorHandler(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = HTTPErrorHandler(nil)
	e.GET("/known", func(c echo.Context) error { return c.String(http.StatusOK, "x") })

	rec := do(e, http.MethodGet, "/unknown", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Not Found"}`, rec.Body.String())

	rec = do(e, http.MethodPost, "/known", "", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
