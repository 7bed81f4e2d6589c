package guard

import (
	"log/slog"
	"net/http"

	"festival-hub/internal/adapter/view"
	"festival-hub/internal/domain"
	"festival-hub/internal/session"
	"festival-hub/utils/logger"

	"github.com/labstack/echo/v4"
)

const identityKey = "festival.identity"

// RequireSession guards a page. The decision is taken before next runs, so a
// redirect or denial never follows protected output.
func (g *Guard) RequireSession(route string, required domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			acc := session.FromContext(c)
			decision := g.Check(ctx, acc, required)
			result := acc.CurrentSession(ctx)
			g.metrics.ObserveRouteDecision(route, decision.Kind)

			switch decision.Kind {
			case domain.DecisionRedirect:
				if result.Status == domain.StatusFailed {
					slog.WarnContext(ctx, "session lookup failed, redirecting to sign-in",
						"route", route, "error", result.Cause)
				}
				return c.Redirect(http.StatusSeeOther, decision.Path)
			case domain.DecisionDeny:
				slog.InfoContext(ctx, "access denied", "route", route, "user_id", result.Identity.ID)
				return g.renderDenied(c)
			default:
				c.Set(identityKey, result.Identity)
				c.SetRequest(c.Request().WithContext(logger.WithUserID(ctx, result.Identity.ID)))
				return next(c)
			}
		}
	}
}

// RequireGuest guards sign-in and sign-up pages.
func (g *Guard) RequireGuest(route string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			result := session.FromContext(c).CurrentSession(c.Request().Context())
			decision := DecideGuest(result, g.paths)
			g.metrics.ObserveRouteDecision(route, decision.Kind)

			if decision.Kind == domain.DecisionRedirect {
				return c.Redirect(http.StatusSeeOther, decision.Path)
			}
			return next(c)
		}
	}
}

// Root is the handler for "/". It only ever redirects.
func (g *Guard) Root(c echo.Context) error {
	result := session.FromContext(c).CurrentSession(c.Request().Context())
	decision := DecideRoot(result, g.paths)
	g.metrics.ObserveRouteDecision("/", decision.Kind)
	return c.Redirect(http.StatusSeeOther, decision.Path)
}

// renderDenied shows the access-denial view. The required role is never
// passed to the template.
func (g *Guard) renderDenied(c echo.Context) error {
	c.Response().Header().Set("Cache-Control", "no-store")
	return c.Render(http.StatusOK, view.DeniedTemplate, view.DeniedPage{
		HomePath:    "/",
		LandingPath: g.paths.Landing,
	})
}

// IdentityFrom returns the identity admitted by RequireSession.
func IdentityFrom(c echo.Context) (*domain.Identity, bool) {
	id, ok := c.Get(identityKey).(*domain.Identity)
	return id, ok && id != nil
}
