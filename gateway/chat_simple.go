package gateway

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/parleyai/parley/internal/apperrors"
	"github.com/parleyai/parley/internal/observability"
	"github.com/parleyai/parley/provider"
	"github.com/parleyai/parley/store"
)

type chatStreamRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id"`
	Model          string `json:"model"`
	Thinking       bool   `json:"thinking,omitempty"`
}

// handleChatStream implements POST /chat/stream: the simple path that
// forwards one user message to a single provider and relays its token
// stream back as a plain UTF-8 body, per §4.4's "simple-mode stream" rule.
func (s *Server) handleChatStream(c echo.Context) error {
	var req chatStreamRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, apperrors.Validation("malformed request body"))
	}
	if req.Message == "" {
		return errorResponse(c, apperrors.Validation("message is required"))
	}
	if req.ConversationID == "" {
		return errorResponse(c, apperrors.Validation("conversation_id is required"))
	}
	adapter, err := resolveAdapter(s.registry, req.Model)
	if err != nil {
		return errorResponse(c, err)
	}

	ctx := c.Request().Context()
	conv, err := s.store.CreateOrTouch(ctx, req.ConversationID, req.Model)
	if err != nil {
		return errorResponse(c, err)
	}
	if rc, ok := observability.FromContext(ctx); ok {
		rc.ConversationID = conv.ID
	}

	history, err := s.store.LoadMessages(ctx, conv.ID)
	if err != nil {
		return errorResponse(c, err)
	}
	messages := make([]provider.Message, 0, len(history)+1)
	for _, m := range history {
		messages = append(messages, provider.Message{Role: provider.Role(m.Role), Content: m.Content})
	}
	messages = append(messages, provider.Message{Role: provider.RoleUser, Content: req.Message})

	if _, err := s.store.AppendMessage(ctx, conv.ID, store.NewMessage{
		Role:        store.RoleUser,
		Content:     req.Message,
		MessageType: store.MessageTypeUser,
	}); err != nil {
		return errorResponse(c, err)
	}

	capability := provider.Capability{ThinkingEnabled: req.Thinking, Temperature: 0.7}

	// The 200 status is committed by the first Write, so a provider error
	// before any text can still be answered with a JSON 502.
	c.Response().Header().Set(echo.HeaderContentType, "text/plain; charset=utf-8")
	flusher, _ := c.Response().Writer.(http.Flusher)

	var accumulated []byte
	bytesSent := false
	clientGone := false
	var streamErr *provider.AdapterError

	// Keep ranging to the end even after a write failure: adapter.Stream's
	// producer goroutine sends unconditionally, so abandoning the loop
	// early would leave it blocked forever on a channel nobody drains.
	for ev := range adapter.Stream(ctx, messages, req.Model, capability) {
		switch ev.Kind {
		case provider.EventText:
			accumulated = append(accumulated, ev.Text...)
			if clientGone {
				continue
			}
			if _, werr := c.Response().Write([]byte(ev.Text)); werr != nil {
				clientGone = true
				continue
			}
			bytesSent = true
			if flusher != nil {
				flusher.Flush()
			}
		case provider.EventError:
			streamErr = ev.Err
		}
	}
	if clientGone {
		return nil
	}

	if streamErr != nil && !bytesSent {
		c.Response().Header().Del(echo.HeaderContentType)
		return errorResponse(c, apperrors.Newf(apperrors.CodeProviderUpstream, "provider error: %s", streamErr.Message))
	}
	if streamErr != nil {
		// Bytes already sent: per §7, close with no further framing rather
		// than attempting a JSON error body on an already-started body.
		return nil
	}
	if ctx.Err() != nil {
		// Client disconnected before the stream completed; nothing further
		// to persist.
		return nil
	}

	if _, err := s.store.AppendMessage(ctx, conv.ID, store.NewMessage{
		Role:        store.RoleAssistant,
		Content:     string(accumulated),
		Model:       req.Model,
		MessageType: store.MessageTypeFinalAnswer,
	}); err != nil {
		if rc, ok := observability.FromContext(ctx); ok {
			rc.Error("failed to persist assistant message", err)
		} else {
			s.logger.Error("failed to persist assistant message", "error", err, "conversation_id", conv.ID)
		}
	}
	return nil
}
