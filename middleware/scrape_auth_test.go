package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestScrapeAuth(t *testing.T) {
	const secret = "scrape-secret-for-metrics"

	tests := []struct {
		name   string
		secret string
		header string
		want   int
	}{
		{"valid secret", secret, "Bearer " + secret, http.StatusOK},
		{"missing header", secret, "", http.StatusUnauthorized},
		{"wrong scheme", secret, "Basic " + secret, http.StatusUnauthorized},
		{"invalid secret", secret, "Bearer wrong", http.StatusForbidden},
		{"disabled when no secret configured", "", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			e.GET("/metrics", func(c echo.Context) error {
				return c.String(http.StatusOK, "ok")
			}, ScrapeAuth(tt.secret))

			req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusUnauthorized {
				assert.NotEmpty(t, rec.Header().Get(echo.HeaderWWWAuthenticate))
			}
		})
	}
}
