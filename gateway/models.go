package gateway

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/parleyai/parley/internal/apperrors"
	"github.com/parleyai/parley/provider"
)

type modelInfoResponse struct {
	ProviderName     string `json:"provider_name"`
	ModelID          string `json:"model_id"`
	ModelName        string `json:"model_name"`
	Description      string `json:"description"`
	SupportsThinking bool   `json:"supports_thinking"`
	ThinkingLocked   bool   `json:"thinking_locked"`
}

func toModelInfoResponse(m provider.ModelInfo) modelInfoResponse {
	return modelInfoResponse{
		ProviderName:     m.ProviderName,
		ModelID:          m.ModelID,
		ModelName:        m.ModelName,
		Description:      m.Description,
		SupportsThinking: m.SupportsThinking,
		ThinkingLocked:   m.ThinkingLocked,
	}
}

type listModelsResponse struct {
	Models []modelInfoResponse `json:"models"`
}

// handleListModels implements GET /models/.
func (s *Server) handleListModels(c echo.Context) error {
	all := s.registry.AllModels()
	out := make([]modelInfoResponse, 0, len(all))
	for _, m := range all {
		out = append(out, toModelInfoResponse(m))
	}
	return c.JSON(http.StatusOK, listModelsResponse{Models: out})
}

type providerModelsResponse struct {
	ProviderName string              `json:"provider_name"`
	Models       []modelInfoResponse `json:"models"`
}

// handleProviderModels implements GET /models/providers/{name}.
func (s *Server) handleProviderModels(c echo.Context) error {
	name := c.Param("name")
	adapter, ok := s.registry.ProviderAdapter(name)
	if !ok {
		return errorResponse(c, apperrors.NotFound("provider not configured: "+name))
	}
	out := make([]modelInfoResponse, 0)
	for _, m := range adapter.Models() {
		m.ProviderName = name
		out = append(out, toModelInfoResponse(m))
	}
	return c.JSON(http.StatusOK, providerModelsResponse{ProviderName: name, Models: out})
}
