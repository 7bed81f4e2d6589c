package handler

import (
	"log/slog"
	"net/http"
	"time"

	"festival-hub/internal/domain"
	"festival-hub/internal/session"

	"github.com/labstack/echo/v4"
)

// SignOutHandler serves POST /api/sign-out.
type SignOutHandler struct {
	responder    *Responder
	metrics      domain.AuthMetrics
	cookieName   string
	secureCookie bool
}

// NewSignOutHandler creates a new sign-out handler.
func NewSignOutHandler(r *Responder, m domain.AuthMetrics, cookieName string, secureCookie bool) *SignOutHandler {
	return &SignOutHandler{responder: r, metrics: m, cookieName: cookieName, secureCookie: secureCookie}
}

// Handle terminates the session. Signing out without a session succeeds.
func (h *SignOutHandler) Handle(c echo.Context) (err error) {
	ctx := c.Request().Context()

	defer func() {
		if rec := recover(); rec != nil {
			slog.ErrorContext(ctx, "sign-out panicked", "panic", rec)
			h.metrics.ObserveSignOut("failure")
			if c.Response().Committed {
				return
			}
			h.expireCookie(c)
			status, body := h.responder.SignOut(domain.ErrSignOutFailed)
			err = c.JSON(status, body)
		}
	}()

	signOutErr := session.FromContext(c).SignOut(ctx)
	if signOutErr != nil {
		slog.ErrorContext(ctx, "sign-out failed", "error", signOutErr)
		h.metrics.ObserveSignOut("failure")
	} else {
		h.metrics.ObserveSignOut("success")
	}

	h.expireCookie(c)
	c.Response().Header().Set("Cache-Control", "no-store")
	status, body := h.responder.SignOut(signOutErr)
	return c.JSON(status, body)
}

// expireCookie tells the browser to drop the session cookie. It is a no-op
// once the response has been written.
func (h *SignOutHandler) expireCookie(c echo.Context) {
	if c.Response().Committed {
		return
	}
	c.SetCookie(&http.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
