package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// ScrapeAuth protects an endpoint with a static bearer secret, the way a
// Prometheus scrape job sends authorization credentials. An empty secret
// disables the check.
func ScrapeAuth(sharedSecret string) echo.MiddlewareFunc {
	secretBytes := []byte(sharedSecret)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if len(secretBytes) == 0 {
				return next(c)
			}
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			token, ok := strings.CutPrefix(auth, "Bearer ")
			if !ok || token == "" {
				c.Response().Header().Set(echo.HeaderWWWAuthenticate, `Bearer realm="metrics"`)
				return echo.NewHTTPError(http.StatusUnauthorized, "missing scrape credentials")
			}
			if subtle.ConstantTimeCompare([]byte(token), secretBytes) != 1 {
				return echo.NewHTTPError(http.StatusForbidden, "invalid scrape credentials")
			}
			return next(c)
		}
	}
}
