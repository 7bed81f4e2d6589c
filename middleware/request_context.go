package middleware

import (
	"festival-hub/utils/logger"

	"github.com/labstack/echo/v4"
)

// RequestContext copies the request ID and matched route into the request
// context so every log line of the request carries them. It must run after
// echo's RequestID middleware.
func RequestContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx := req.Context()
			if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
				ctx = logger.WithRequestID(ctx, id)
			}
			if route := c.Path(); route != "" {
				ctx = logger.WithRoute(ctx, route)
			}
			c.SetRequest(req.WithContext(ctx))
			return next(c)
		}
	}
}
