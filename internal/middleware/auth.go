package middleware

import (
	"crypto/subtle"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	apiKeyHeader = "X-API-Key"
	userIDHeader = "X-User-ID"

	userIDContextKey = "userID"
)

// RequireAPIKey guards the admin surface with a static API key.
func RequireAPIKey(apiKey string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if apiKey == "" {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "admin API key not configured")
			}
			provided := c.Request().Header.Get(apiKeyHeader)
			if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid API key")
			}
			return next(c)
		}
	}
}

// RequireUser trusts the identity header injected by the upstream auth
// proxy. Requests reaching this service directly without the header are
// rejected.
func RequireUser() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := c.Request().Header.Get(userIDHeader)
			if raw == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing user identity")
			}
			id, err := strconv.ParseUint(raw, 10, 32)
			if err != nil || id == 0 {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid user identity")
			}
			c.Set(userIDContextKey, uint(id))
			return next(c)
		}
	}
}

// UserID returns the authenticated user id set by RequireUser.
func UserID(c echo.Context) (uint, error) {
	id, ok := c.Get(userIDContextKey).(uint)
	if !ok {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "missing user identity")
	}
	return id, nil
}
