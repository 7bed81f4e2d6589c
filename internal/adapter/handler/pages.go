package handler

import (
	"net/http"
	"net/url"
	"strings"

	"festival-hub/internal/adapter/view"
	"festival-hub/internal/domain"
	"festival-hub/internal/guard"

	"github.com/labstack/echo/v4"
)

// PagePaths are the public paths the pages link between.
type PagePaths struct {
	SignIn  string
	SignUp  string
	Landing string
	Manage  string
}

// PageHandler renders the server-side pages. Guards run before every method.
type PageHandler struct {
	kratosBrowserURL string
	publicURL        string
	paths            PagePaths
	organizerRole    domain.Role
}

// NewPageHandler creates a new page handler. kratosBrowserURL is the Kratos
// public URL as seen by browsers; publicURL is this service's own origin.
func NewPageHandler(kratosBrowserURL, publicURL string, paths PagePaths, organizerRole domain.Role) *PageHandler {
	return &PageHandler{
		kratosBrowserURL: strings.TrimRight(kratosBrowserURL, "/"),
		publicURL:        strings.TrimRight(publicURL, "/"),
		paths:            paths,
		organizerRole:    organizerRole,
	}
}

// SignIn links to the Kratos browser login flow.
func (h *PageHandler) SignIn(c echo.Context) error {
	return c.Render(http.StatusOK, view.SignInTemplate, view.AuthPage{
		FlowURL: h.flowURL("login"),
		AltPath: h.paths.SignUp,
	})
}

// SignUp links to the Kratos browser registration flow.
func (h *PageHandler) SignUp(c echo.Context) error {
	return c.Render(http.StatusOK, view.SignUpTemplate, view.AuthPage{
		FlowURL: h.flowURL("registration"),
		AltPath: h.paths.SignIn,
	})
}

// Festivals is the protected landing page.
func (h *PageHandler) Festivals(c echo.Context) error {
	id, ok := guard.IdentityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "identity not bound")
	}
	c.Response().Header().Set("Cache-Control", "no-store")
	return c.Render(http.StatusOK, view.FestivalsTemplate, view.FestivalsPage{
		Email:      id.Email,
		CanManage:  id.HasRole(h.organizerRole),
		ManagePath: h.paths.Manage,
	})
}

// Manage is the organizer-only page.
func (h *PageHandler) Manage(c echo.Context) error {
	id, ok := guard.IdentityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "identity not bound")
	}
	c.Response().Header().Set("Cache-Control", "no-store")
	return c.Render(http.StatusOK, view.ManageTemplate, view.ManagePage{
		Email:       id.Email,
		LandingPath: h.paths.Landing,
	})
}

// flowURL builds a self-service browser flow URL that returns to the landing page.
func (h *PageHandler) flowURL(flow string) string {
	u := h.kratosBrowserURL + "/self-service/" + flow + "/browser"
	if h.publicURL == "" {
		return u
	}
	return u + "?return_to=" + url.QueryEscape(h.publicURL+h.paths.Landing)
}
