// Package server assembles the Echo application: middleware chain, session
// binding, guards, pages and the session API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"festival-hub/config"
	"festival-hub/internal/adapter/handler"
	"festival-hub/internal/adapter/view"
	"festival-hub/internal/domain"
	"festival-hub/internal/guard"
	"festival-hub/internal/session"
	appmiddleware "festival-hub/middleware"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"golang.org/x/time/rate"
)

// Metrics is what the server needs from the metrics backend.
type Metrics interface {
	domain.AuthMetrics
	Handler() http.Handler
}

// Deps are the collaborators built once at startup.
type Deps struct {
	Config      *config.Config
	Provider    domain.IdentityProvider
	Metrics     Metrics
	Logger      *slog.Logger
	ServiceName string
	Tracing     bool
}

// New builds the Echo instance. ctx bounds background work such as the rate
// limiter sweep.
func New(ctx context.Context, d Deps) (*echo.Echo, error) {
	cfg := d.Config

	renderer, err := view.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer

	e.Use(appmiddleware.SecurityHeaders(appmiddleware.SecurityConfig{
		FormActions: []string{cfg.KratosBrowserURL},
		HSTS:        strings.HasPrefix(cfg.PublicURL, "https://"),
	}))
	if d.Tracing {
		e.Use(otelecho.Middleware(d.ServiceName))
		e.Use(appmiddleware.OTelStatusMiddleware())
	}
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(appmiddleware.RequestContext())
	e.Use(requestLogger(d.Logger))
	e.Use(middleware.Recover())

	factory := session.NewServerFactory(d.Provider, cfg.SessionCookieName, d.Logger)
	e.Use(session.Bind(factory))

	g := guard.New(guard.Paths{SignIn: cfg.SignInPath, Landing: cfg.LandingPath}, d.Metrics)
	pages := handler.NewPageHandler(cfg.KratosBrowserURL, cfg.PublicURL, handler.PagePaths{
		SignIn:  cfg.SignInPath,
		SignUp:  cfg.SignUpPath,
		Landing: cfg.LandingPath,
		Manage:  cfg.ManagePath,
	}, domain.Role(cfg.OrganizerRole))

	var diagnostics *handler.Diagnostics
	if cfg.DevDiagnostics {
		diagnostics = &handler.Diagnostics{ProviderConfigured: cfg.KratosURL != "", Environment: cfg.Environment}
	}
	responder := handler.NewResponder(diagnostics)
	checkAuth := handler.NewCheckAuthHandler(responder, d.Metrics)
	signOut := handler.NewSignOutHandler(responder, d.Metrics, cfg.SessionCookieName, strings.HasPrefix(cfg.PublicURL, "https://"))

	// Pages
	e.GET("/", g.Root)
	e.GET(cfg.SignInPath, pages.SignIn, g.RequireGuest(cfg.SignInPath))
	e.GET(cfg.SignUpPath, pages.SignUp, g.RequireGuest(cfg.SignUpPath))
	e.GET(cfg.LandingPath, pages.Festivals, g.RequireSession(cfg.LandingPath, ""))
	e.GET(cfg.ManagePath, pages.Manage, g.RequireSession(cfg.ManagePath, domain.Role(cfg.OrganizerRole)))

	// Session API
	api := e.Group("/api")
	if cfg.RateLimitEnabled {
		// 60 req/min
		limiter := appmiddleware.NewRateLimiter(ctx, rate.Limit(60.0/60.0), 20).OnLimit(responder.RateLimited)
		api.Use(limiter.Middleware())
	}
	api.GET("/check-auth", checkAuth.Handle)
	api.POST("/sign-out", signOut.Handle)

	// Operations
	e.GET("/health", handler.NewHealthHandler(d.ServiceName).Handle)
	e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()), appmiddleware.ScrapeAuth(cfg.MetricsSharedSecret))

	return e, nil
}

func requestLogger(l *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			p := c.Request().URL.Path
			return p == "/health" || p == "/metrics"
		},
		LogStatus:   true,
		LogURI:      true,
		LogError:    true,
		LogMethod:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			rctx := c.Request().Context()
			if v.Error == nil {
				l.InfoContext(rctx, "request completed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds())
			} else {
				l.ErrorContext(rctx, "request failed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds(),
					"error", v.Error.Error())
			}
			return nil
		},
	})
}
