package api

import (
	"crypto/subtle"
	"time"

	"github.com/labstack/echo/v4"

	"foodbank-notifier/internal/common/logger"
)

const HeaderTriggerToken = "X-Trigger-Token"

// RequestLogger logs each HTTP request with structured fields.
func RequestLogger(log logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			log.Info("http request", map[string]interface{}{
				"method":      c.Request().Method,
				"path":        c.Request().URL.Path,
				"status":      c.Response().Status,
				"duration_ms": time.Since(start).Milliseconds(),
				"request_id":  c.Response().Header().Get(echo.HeaderXRequestID),
			})
			return nil
		}
	}
}

// TriggerToken rejects requests without the shared secret. An empty token
// disables the check.
func TriggerToken(token string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if token == "" {
			return next
		}
		return func(c echo.Context) error {
			got := c.Request().Header.Get(HeaderTriggerToken)
			if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				return errUnauthorized
			}
			return next(c)
		}
	}
}
