package gateway

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/parleyai/parley/internal/apperrors"
	"github.com/parleyai/parley/mode"
	"github.com/parleyai/parley/store"
)

type conversationSummaryResponse struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	UpdatedAt    int64  `json:"updated_at"`
	Mode         string `json:"mode"`
	MessageCount int    `json:"message_count"`
}

type listConversationsResponse struct {
	Conversations []conversationSummaryResponse `json:"conversations"`
}

// handleListConversations implements GET /conversations?limit=&offset=.
func (s *Server) handleListConversations(c echo.Context) error {
	limit := queryInt(c, "limit", 20)
	offset := queryInt(c, "offset", 0)

	list, err := s.store.ListConversations(c.Request().Context(), limit, offset)
	if err != nil {
		return errorResponse(c, err)
	}

	out := make([]conversationSummaryResponse, 0, len(list))
	for _, conv := range list {
		out = append(out, conversationSummaryResponse{
			ID:           conv.ID,
			Title:        conv.Title,
			UpdatedAt:    conv.UpdatedAt.Unix(),
			Mode:         string(conv.Mode),
			MessageCount: conv.MessageCount,
		})
	}
	return c.JSON(http.StatusOK, listConversationsResponse{Conversations: out})
}

type messageResponse struct {
	Role        string `json:"role"`
	Content     string `json:"content"`
	MessageType string `json:"message_type,omitempty"`
	Iteration   int    `json:"iteration,omitempty"`
	Timestamp   int64  `json:"timestamp"`
}

type conversationMessagesResponse struct {
	Messages []messageResponse `json:"messages"`
}

// handleGetConversation implements GET /conversations/{id}.
func (s *Server) handleGetConversation(c echo.Context) error {
	id := c.Param("id")
	messages, err := s.store.LoadMessages(c.Request().Context(), id)
	if err != nil {
		return errorResponse(c, err)
	}
	out := make([]messageResponse, 0, len(messages))
	for _, m := range messages {
		out = append(out, messageResponse{
			Role:        string(m.Role),
			Content:     m.Content,
			MessageType: string(m.MessageType),
			Iteration:   m.Iteration,
			Timestamp:   m.Timestamp.Unix(),
		})
	}
	return c.JSON(http.StatusOK, conversationMessagesResponse{Messages: out})
}

type conversationInfoResponse struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Mode         string `json:"mode"`
	Model        string `json:"model"`
	MessageCount int    `json:"message_count"`
	CreatedAt    int64  `json:"created_at"`
	UpdatedAt    int64  `json:"updated_at"`
}

// handleGetConversationInfo implements GET /conversations/{id}/info.
func (s *Server) handleGetConversationInfo(c echo.Context) error {
	id := c.Param("id")
	conv, err := s.store.GetConversation(c.Request().Context(), id)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, conversationInfoResponse{
		ID:           conv.ID,
		Title:        conv.Title,
		Mode:         string(conv.Mode),
		Model:        conv.Model,
		MessageCount: conv.MessageCount,
		CreatedAt:    conv.CreatedAt.Unix(),
		UpdatedAt:    conv.UpdatedAt.Unix(),
	})
}

// handleDeleteConversation implements DELETE /conversations/{id}.
func (s *Server) handleDeleteConversation(c echo.Context) error {
	id := c.Param("id")
	if err := s.store.Delete(c.Request().Context(), id); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"deleted": true})
}

// handleDeleteAllConversations implements DELETE /conversations.
func (s *Server) handleDeleteAllConversations(c echo.Context) error {
	n, err := s.store.DeleteAll(c.Request().Context())
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, map[string]int{"deleted_count": n})
}

type switchModeRequest struct {
	TargetMode   string            `json:"target_mode"`
	DebateConfig *debateConfigJSON `json:"debate_config,omitempty"`
}

type switchModeResponse struct {
	Success bool   `json:"success"`
	Mode    string `json:"mode"`
	Message string `json:"message"`
}

// handleSwitchMode implements POST /conversations/{id}/switch-mode.
func (s *Server) handleSwitchMode(c echo.Context) error {
	id := c.Param("id")
	var req switchModeRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, apperrors.Validation("malformed request body"))
	}

	target := store.Mode(req.TargetMode)
	if target != store.ModeSimple && target != store.ModeDebate {
		return errorResponse(c, apperrors.Validationf("unknown target_mode %q", req.TargetMode))
	}

	var cfg *mode.DebateConfig
	if req.DebateConfig != nil {
		built, err := req.DebateConfig.toDebateConfig()
		if err != nil {
			return errorResponse(c, err)
		}
		cfg = built
	}

	conv, err := s.modes.SwitchMode(c.Request().Context(), id, target, cfg)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, switchModeResponse{
		Success: true,
		Mode:    string(conv.Mode),
		Message: "mode switched to " + string(conv.Mode),
	})
}

func queryInt(c echo.Context, name string, fallback int) int {
	v := c.QueryParam(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
