package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Version is reported by the root endpoint.
const Version = "1.0.0"

// HealthHandler reports liveness.
type HealthHandler struct {
	environment string
	started     time.Time
}

// NewHealthHandler creates a health handler; uptime counts from now.
func NewHealthHandler(environment string) *HealthHandler {
	return &HealthHandler{environment: environment, started: time.Now()}
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Uptime      float64   `json:"uptime"`
	Environment string    `json:"environment"`
}

// InfoResponse is the body of GET /.
type InfoResponse struct {
	Message     string `json:"message"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
}

// Health godoc
// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:      "healthy",
		Timestamp:   time.Now().UTC(),
		Uptime:      time.Since(h.started).Seconds(),
		Environment: h.environment,
	})
}

// Info godoc
// @Summary API information
// @Tags system
// @Produce json
// @Success 200 {object} InfoResponse
// @Router / [get]
func (h *HealthHandler) Info(c echo.Context) error {
	return c.JSON(http.StatusOK, InfoResponse{
		Message:     "Paperless System API is running",
		Version:     Version,
		Environment: h.environment,
	})
}
