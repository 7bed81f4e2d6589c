package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type healthResponse struct {
	Status        string `json:"status"`
	Service       string `json:"service"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// HealthHandler answers liveness checks. It never calls Kratos; a Kratos
// outage already surfaces as 500s on the session API.
type HealthHandler struct {
	service string
	started time.Time
	now     func() time.Time
}

// NewHealthHandler creates a health handler for service, counting uptime from now.
func NewHealthHandler(service string) *HealthHandler {
	return &HealthHandler{service: service, started: time.Now(), now: time.Now}
}

// Handle serves GET /health.
func (h *HealthHandler) Handle(c echo.Context) error {
	return c.JSON(http.StatusOK, healthResponse{
		Status:        "healthy",
		Service:       h.service,
		UptimeSeconds: int64(h.now().Sub(h.started) / time.Second),
	})
}
