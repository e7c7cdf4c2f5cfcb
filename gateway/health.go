package gateway

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type healthResponse struct {
	Status    string   `json:"status"`
	Providers []string `json:"providers"`
}

// handleHealth implements GET /health.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, healthResponse{
		Status:    "ok",
		Providers: s.registry.Providers(),
	})
}
