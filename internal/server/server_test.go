package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"festival-hub/config"
	"festival-hub/internal/adapter/gateway"
	"festival-hub/internal/infrastructure/metrics"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// kratosEmulator answers the Kratos frontend endpoints festival-hub uses.
type kratosEmulator struct {
	mu       sync.Mutex
	sessions map[string]kratosUser // cookie value -> user
}

type kratosUser struct {
	email string
	roles []string
}

func (k *kratosEmulator) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	k.mu.Lock()
	defer k.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	value := ""
	if c, err := r.Cookie("ory_kratos_session"); err == nil {
		value = c.Value
	}

	switch r.URL.Path {
	case "/sessions/whoami":
		if value == "aal1" {
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprint(w, `{"error":{"id":"session_aal2_required","code":403,"reason":"An AAL2 session is required.","message":"forbidden"}}`)
			return
		}
		if value == "bad" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"error":{"code":401,"reason":"invalid token","message":"unauthorized"}}`)
			return
		}
		u, ok := k.sessions[value]
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"error":{"code":401,"reason":"No valid session credentials found.","message":"unauthorized"}}`)
			return
		}
		roles, _ := json.Marshal(u.roles)
		fmt.Fprintf(w, `{
			"id": "sess-%s", "active": true,
			"expires_at": %q,
			"identity": {
				"id": "user-%s", "schema_id": "default", "schema_url": "http://kratos/schemas/default",
				"traits": {"email": %q},
				"metadata_public": {"roles": %s}
			}
		}`, value, time.Now().Add(time.Hour).UTC().Format(time.RFC3339), value, u.email, roles)
	case "/self-service/logout/browser":
		if _, ok := k.sessions[value]; !ok {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"error":{"code":401,"reason":"No active session"}}`)
			return
		}
		fmt.Fprintf(w, `{"logout_token": "lt-%s", "logout_url": "http://kratos/self-service/logout?token=lt-%s"}`, value, value)
	case "/self-service/logout":
		delete(k.sessions, strings.TrimPrefix(r.URL.Query().Get("token"), "lt-"))
		w.WriteHeader(http.StatusNoContent)
	default:
		http.NotFound(w, r)
	}
}

type app struct {
	echo   *echo.Echo
	kratos *kratosEmulator
}

func newApp(t *testing.T, mutate func(*config.Config)) *app {
	t.Helper()

	k := &kratosEmulator{sessions: map[string]kratosUser{}}
	ks := httptest.NewServer(k)
	t.Cleanup(ks.Close)

	cfg := &config.Config{
		KratosURL:           ks.URL,
		KratosBrowserURL:    "https://id.festival.test",
		Port:                "0",
		SessionCookieName:   "ory_kratos_session",
		ProviderTimeout:     2 * time.Second,
		SignInPath:          "/sign-in",
		SignUpPath:          "/sign-up",
		LandingPath:         "/festivals",
		ManagePath:          "/festivals/manage",
		OrganizerRole:       "organizer",
		Environment:         "test",
		MetricsSharedSecret: "scrape",
	}
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, cfg.Validate())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	e, err := New(ctx, Deps{
		Config:      cfg,
		Provider:    gateway.NewKratosGateway(cfg.KratosURL, cfg.ProviderTimeout),
		Metrics:     metrics.NewRecorder(),
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		ServiceName: "festival-hub",
	})
	require.NoError(t, err)

	return &app{echo: e, kratos: k}
}

func (a *app) do(method, path, cookie string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: "ory_kratos_session", Value: cookie})
	}
	rec := httptest.NewRecorder()
	a.echo.ServeHTTP(rec, req)
	return rec
}

func (a *app) signIn(cookie, email string, roles ...string) {
	a.kratos.mu.Lock()
	defer a.kratos.mu.Unlock()
	a.kratos.sessions[cookie] = kratosUser{email: email, roles: roles}
}

func TestScenarioA_NoCredential(t *testing.T) {
	a := newApp(t, nil)

	rec := a.do(http.MethodGet, "/api/check-auth", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"authenticated": false, "message": "no active session"}`, rec.Body.String())
}

func TestScenarioB_ValidSession(t *testing.T) {
	a := newApp(t, nil)
	a.signIn("c1", "a@x.com")

	rec := a.do(http.MethodGet, "/api/check-auth", "c1")

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Authenticated bool `json:"authenticated"`
		Session       struct {
			User struct {
				Email string `json:"email"`
			} `json:"user"`
			ExpiresAt int64 `json:"expires_at"`
		} `json:"session"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Authenticated)
	assert.Equal(t, "a@x.com", body.Session.User.Email)
	assert.InDelta(t, time.Now().Add(time.Hour).Unix(), body.Session.ExpiresAt, 5)
}

func TestScenarioC_InvalidToken(t *testing.T) {
	a := newApp(t, nil)

	rec := a.do(http.MethodGet, "/api/check-auth", "bad")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"authenticated": false, "error": "invalid token"}`, rec.Body.String())
}

func TestCheckAuth_SecondFactorRequired(t *testing.T) {
	a := newApp(t, nil)

	rec := a.do(http.MethodGet, "/api/check-auth", "aal1")
	page := a.do(http.MethodGet, "/festivals", "aal1")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"authenticated": false, "error": "An AAL2 session is required."}`, rec.Body.String())
	assert.Equal(t, http.StatusSeeOther, page.Code)
	assert.Equal(t, "/sign-in", page.Header().Get(echo.HeaderLocation))
}

func TestScenarioD_RootRedirects(t *testing.T) {
	a := newApp(t, nil)
	a.signIn("c1", "a@x.com")

	signedIn := a.do(http.MethodGet, "/", "c1")
	anonymous := a.do(http.MethodGet, "/", "")

	assert.Equal(t, http.StatusSeeOther, signedIn.Code)
	assert.Equal(t, "/festivals", signedIn.Header().Get(echo.HeaderLocation))
	assert.Equal(t, http.StatusSeeOther, anonymous.Code)
	assert.Equal(t, "/sign-in", anonymous.Header().Get(echo.HeaderLocation))
}

func TestScenarioE_SignOutThenCheck(t *testing.T) {
	a := newApp(t, nil)
	a.signIn("c1", "a@x.com")

	rec := a.do(http.MethodPost, "/api/sign-out", "c1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success": true}`, rec.Body.String())

	// A client that kept the old cookie is no longer signed in either.
	rec = a.do(http.MethodGet, "/api/check-auth", "c1")
	assert.Equal(t, false, decodeField(t, rec, "authenticated"))

	rec = a.do(http.MethodGet, "/api/check-auth", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decodeField(t, rec, "authenticated"))
}

func TestSignOut_TwiceSucceeds(t *testing.T) {
	a := newApp(t, nil)
	a.signIn("c1", "a@x.com")

	first := a.do(http.MethodPost, "/api/sign-out", "c1")
	second := a.do(http.MethodPost, "/api/sign-out", "c1")

	assert.JSONEq(t, `{"success": true}`, first.Body.String())
	assert.JSONEq(t, `{"success": true}`, second.Body.String())
	assert.Equal(t, http.StatusOK, second.Code)
}

func TestProtectedRoutes(t *testing.T) {
	a := newApp(t, nil)
	a.signIn("attendee", "a@x.com", "attendee")
	a.signIn("organizer", "o@x.com", "organizer")

	tests := []struct {
		name       string
		path       string
		cookie     string
		wantStatus int
		wantLoc    string
		wantBody   string
	}{
		{"anonymous landing", "/festivals", "", http.StatusSeeOther, "/sign-in", ""},
		{"anonymous manage", "/festivals/manage", "", http.StatusSeeOther, "/sign-in", ""},
		{"rejected cookie", "/festivals", "bad", http.StatusSeeOther, "/sign-in", ""},
		{"attendee landing", "/festivals", "attendee", http.StatusOK, "", "a@x.com"},
		{"attendee manage is denied", "/festivals/manage", "attendee", http.StatusOK, "", "Access denied"},
		{"organizer manage", "/festivals/manage", "organizer", http.StatusOK, "", "Manage festivals"},
		{"anonymous sign-in", "/sign-in", "", http.StatusOK, "", "https://id.festival.test/self-service/login/browser"},
		{"signed-in sign-up", "/sign-up", "attendee", http.StatusSeeOther, "/festivals", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.do(http.MethodGet, tt.path, tt.cookie)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantLoc, rec.Header().Get(echo.HeaderLocation))
			if tt.wantBody != "" {
				assert.Contains(t, rec.Body.String(), tt.wantBody)
			}
			if tt.wantStatus == http.StatusSeeOther {
				assert.NotContains(t, rec.Body.String(), "Signed in as")
			}
		})
	}
}

func TestDiagnostics(t *testing.T) {
	a := newApp(t, func(c *config.Config) {
		c.Environment = "development"
		c.DevDiagnostics = true
	})

	rec := a.do(http.MethodGet, "/api/check-auth", "")

	assert.JSONEq(t, `{
		"authenticated": false,
		"message": "no active session",
		"diagnostics": {"provider_configured": true, "environment": "development"}
	}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	a := newApp(t, nil)
	a.do(http.MethodGet, "/api/check-auth", "")

	unauthorized := a.do(http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusUnauthorized, unauthorized.Code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer scrape")
	rec := httptest.NewRecorder()
	a.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `festival_hub_session_checks_total{outcome="unauthenticated"} 1`)
}

func TestHealth(t *testing.T) {
	a := newApp(t, nil)

	rec := a.do(http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "healthy", decodeField(t, rec, "status"))
	assert.Equal(t, "festival-hub", decodeField(t, rec, "service"))
}

func decodeField(t *testing.T, rec *httptest.ResponseRecorder, key string) any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body[key]
}

func TestSessionAPI_RateLimitedBodyShape(t *testing.T) {
	a := newApp(t, func(c *config.Config) { c.RateLimitEnabled = true })

	var rec *httptest.ResponseRecorder
	for range 21 {
		rec = a.do(http.MethodGet, "/api/check-auth", "")
	}

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"authenticated": false, "error": "rate limit exceeded"}`, rec.Body.String())
}
