package handler

import (
	"log/slog"

	"festival-hub/internal/domain"
	"festival-hub/internal/session"

	"github.com/labstack/echo/v4"
)

// CheckAuthHandler serves GET /api/check-auth.
type CheckAuthHandler struct {
	responder *Responder
	metrics   domain.AuthMetrics
}

// NewCheckAuthHandler creates a new session-check handler.
func NewCheckAuthHandler(r *Responder, m domain.AuthMetrics) *CheckAuthHandler {
	return &CheckAuthHandler{responder: r, metrics: m}
}

// Handle reports the request's session state. It always answers with JSON.
func (h *CheckAuthHandler) Handle(c echo.Context) (err error) {
	ctx := c.Request().Context()

	defer func() {
		if rec := recover(); rec != nil {
			slog.ErrorContext(ctx, "check-auth panicked", "panic", rec)
			h.metrics.ObserveSessionCheck("error")
			if c.Response().Committed {
				return
			}
			status, body := h.responder.CheckAuthPanic()
			err = c.JSON(status, body)
		}
	}()

	result := session.FromContext(c).CurrentSession(ctx)
	status, body := h.responder.CheckAuth(result)
	h.metrics.ObserveSessionCheck(checkOutcome(status, result))

	c.Response().Header().Set("Cache-Control", "no-store")
	return c.JSON(status, body)
}
