package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/restodash/dashboard-api/internal/apperrors"
	"github.com/restodash/dashboard-api/internal/middleware"
)

// statusByKind is the default HTTP status for each error kind. Handlers
// override it where an endpoint documents a different code.
var statusByKind = map[apperrors.Kind]int{
	apperrors.KindValidation:      http.StatusBadRequest,
	apperrors.KindConflict:        http.StatusBadRequest,
	apperrors.KindAuthentication:  http.StatusUnauthorized,
	apperrors.KindForbidden:       http.StatusForbidden,
	apperrors.KindNotFound:        http.StatusNotFound,
	apperrors.KindUnauthenticated: http.StatusUnauthorized,
	apperrors.KindTokenExpired:    http.StatusUnauthorized,
	apperrors.KindInvalidToken:    http.StatusForbidden,
	apperrors.KindInternal:        http.StatusInternalServerError,
}

type errorBody struct {
	Error  string                 `json:"error"`
	Errors []apperrors.FieldError `json:"errors,omitempty"`
}

// writeError renders err with the default status for its kind.
func writeError(c echo.Context, err error) error {
	e := apperrors.As(err)
	return writeErrorStatus(c, statusByKind[e.Kind], err)
}

// writeErrorStatus renders err with an explicit status. Internal errors are
// logged with their cause and reported generically.
func writeErrorStatus(c echo.Context, status int, err error) error {
	e := apperrors.As(err)
	if e.Kind == apperrors.KindInternal {
		middleware.Logger(c).Error("request failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, errorBody{Error: apperrors.ErrInternal.Message})
	}
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return c.JSON(status, errorBody{Error: e.Message, Errors: e.Fields})
}

// HTTPErrorHandler renders errors that escape handlers (unknown routes,
// wrong methods, panics recovered by echo) in the same JSON shape.
func HTTPErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		if he, ok := err.(*echo.HTTPError); ok {
			msg := http.StatusText(he.Code)
			if s, ok := he.Message.(string); ok {
				msg = s
			}
			if he.Code >= http.StatusInternalServerError {
				log.Error("unhandled error", zap.Error(err))
				msg = apperrors.ErrInternal.Message
			}
			_ = c.JSON(he.Code, errorBody{Error: msg})
			return
		}
		_ = writeError(c, err)
	}
}
