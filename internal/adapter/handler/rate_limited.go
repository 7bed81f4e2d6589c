package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RateLimited answers a throttled session API call in the endpoint's own
// body shape, so clients that only parse authenticated/success still see a
// negative answer.
func (r *Responder) RateLimited(c echo.Context) error {
	c.Response().Header().Set("Cache-Control", "no-store")
	if c.Request().Method == http.MethodPost {
		return c.JSON(http.StatusTooManyRequests, signOutResponse{Error: msgRateLimited})
	}
	return c.JSON(http.StatusTooManyRequests, checkAuthResponse{Error: msgRateLimited})
}
