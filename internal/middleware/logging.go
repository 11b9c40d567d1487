package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

const ctxLogger = "logger"

// RequestID assigns every request a UUID (or keeps the caller's
// X-Request-ID), echoes it back in the response header and stores a
// request-scoped logger carrying it (see Logger).
func RequestID(base *zap.Logger) echo.MiddlewareFunc {
	return echomw.RequestIDWithConfig(echomw.RequestIDConfig{
		Generator: uuid.NewString,
		RequestIDHandler: func(c echo.Context, id string) {
			c.Set(ctxLogger, base.With(zap.String("request_id", id)))
		},
	})
}

// AccessLog writes the per-request summary line.
func AccessLog(base *zap.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURIPath:   true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("request_id", v.RequestID),
				zap.String("method", v.Method),
				zap.String("path", v.URIPath),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("remote_ip", v.RemoteIP),
			}
			if id := UserID(c); id != 0 {
				fields = append(fields, zap.Uint64("user_id", id))
			}
			switch {
			case v.Status >= 500:
				base.Error("request", append(fields, zap.Error(v.Error))...)
			case v.Status >= 400:
				base.Warn("request", fields...)
			default:
				base.Info("request", fields...)
			}
			return nil
		},
	})
}

// Logger returns the request-scoped logger, or a no-op logger when
// RequestID is not installed.
func Logger(c echo.Context) *zap.Logger {
	if l, ok := c.Get(ctxLogger).(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}
