package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RequestLogger writes one structured line per request.  Handler errors are
// rendered through Echo's error handler first so the logged status matches
// what the client received.
func RequestLogger(log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			status := c.Response().Status
			level := zapcore.InfoLevel
			switch {
			case status >= 500:
				level = zapcore.ErrorLevel
			case status >= 400:
				level = zapcore.WarnLevel
			}
			if ce := log.Check(level, "request"); ce != nil {
				fields := []zap.Field{
					zap.String("method", c.Request().Method),
					zap.String("route", c.Path()),
					zap.Int("status", status),
					zap.Duration("latency", time.Since(start)),
					zap.String("request_id", RequestIDFrom(c)),
					zap.String("user_id", currentUserID(c)),
					zap.String("ip", c.RealIP()),
				}
				if err != nil {
					fields = append(fields, zap.Error(err))
				}
				ce.Write(fields...)
			}
			return nil
		}
	}
}
