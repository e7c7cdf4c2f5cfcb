// Package gateway implements the HTTP/SSE surface of §4.4 and §6: route
// handlers, request validation, SSE framing, and the error-to-status
// mapping of §7, on top of the echo router the rest of the ecosystem uses.
package gateway

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/semaphore"

	"github.com/parleyai/parley/internal/config"
	"github.com/parleyai/parley/internal/observability"
	"github.com/parleyai/parley/mode"
	"github.com/parleyai/parley/provider"
	"github.com/parleyai/parley/store"
)

// maxConcurrentDebates bounds how many multi-agent debates may run at
// once. Each one makes several sequential upstream calls per round, so a
// burst of debate requests sharing one process needs a ceiling the way the
// teacher's thumbnail generator bounds concurrent image work.
const maxConcurrentDebates = 4

// Server bundles the dependencies every handler needs.
type Server struct {
	cfg         *config.Config
	registry    *provider.Registry
	store       *store.Store
	modes       *mode.Manager
	logger      *slog.Logger
	debateSlots *semaphore.Weighted
}

// New builds a Server over the given dependencies.
func New(cfg *config.Config, registry *provider.Registry, st *store.Store, modes *mode.Manager, logger *slog.Logger) *Server {
	return &Server{
		cfg:         cfg,
		registry:    registry,
		store:       st,
		modes:       modes,
		logger:      logger,
		debateSlots: semaphore.NewWeighted(maxConcurrentDebates),
	}
}

// Echo builds and returns the configured router. Separated from New so
// cmd/parleyd can attach it to its own listener lifecycle.
func (s *Server) Echo() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(s.requestLogger())

	e.GET("/health", s.handleHealth)

	e.GET("/models/", s.handleListModels)
	e.GET("/models/providers/:name", s.handleProviderModels)

	e.POST("/chat/stream", s.handleChatStream)
	e.POST("/chat/multi-agent/stream", s.handleMultiAgentStream)

	e.GET("/conversations", s.handleListConversations)
	e.GET("/conversations/:id", s.handleGetConversation)
	e.GET("/conversations/:id/info", s.handleGetConversationInfo)
	e.DELETE("/conversations/:id", s.handleDeleteConversation)
	e.DELETE("/conversations", s.handleDeleteAllConversations)
	e.POST("/conversations/:id/switch-mode", s.handleSwitchMode)

	return e
}

// requestLogger builds one observability.RequestContext per request (the
// conversation id is filled in, if known, from the :id route param; a
// handler resolving a body-supplied conversation id backfills it on the
// same pointer) and stores it on the request's context for every handler
// and downstream package to log through, then emits the closing line with
// its status and elapsed time.
func (s *Server) requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rc := observability.New(s.logger, c.Param("id"))
			c.Response().Header().Set(echo.HeaderXRequestID, rc.RequestID)
			c.SetRequest(c.Request().WithContext(observability.WithRequestContext(c.Request().Context(), rc)))

			err := next(c)

			status := c.Response().Status
			if status == 0 {
				status = http.StatusInternalServerError
			}
			rc.Info("request",
				slog.String("method", c.Request().Method),
				slog.String("path", c.Path()),
				slog.Int("status", status),
				slog.Int64(observability.FieldDuration, rc.DurationMs()),
			)
			return err
		}
	}
}
