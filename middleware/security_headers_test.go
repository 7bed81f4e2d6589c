package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func serveWithHeaders(cfg SecurityConfig) *httptest.ResponseRecorder {
	e := echo.New()
	e.Use(SecurityHeaders(cfg))
	e.GET("/festivals", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/festivals", nil))
	return rec
}

func TestSecurityHeaders_SetsAllHeaders(t *testing.T) {
	rec := serveWithHeaders(SecurityConfig{FormActions: []string{"https://id.festival.test"}, HSTS: true})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "max-age=63072000; includeSubDomains; preload", rec.Header().Get("Strict-Transport-Security"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t,
		"default-src 'self'; script-src 'none'; form-action 'self' https://id.festival.test; frame-ancestors 'none'; base-uri 'none'",
		rec.Header().Get("Content-Security-Policy"))
	assert.Equal(t, "strict-origin-when-cross-origin", rec.Header().Get("Referrer-Policy"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestSecurityHeaders_NoHSTSInDevelopment(t *testing.T) {
	rec := serveWithHeaders(SecurityConfig{})

	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "form-action 'self';")
}
