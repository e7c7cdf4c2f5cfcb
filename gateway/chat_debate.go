package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/parleyai/parley/debate"
	"github.com/parleyai/parley/internal/apperrors"
	"github.com/parleyai/parley/internal/observability"
	"github.com/parleyai/parley/mode"
	"github.com/parleyai/parley/provider"
	"github.com/parleyai/parley/store"
)

// multiAgentStreamRequest is the wire shape of POST /chat/multi-agent/stream.
// max_iterations, score_threshold, and thinking sit alongside models at the
// top level; models carries one model id per role, and thinking (optional)
// one reasoning toggle per role.
type multiAgentStreamRequest struct {
	Message        string              `json:"message"`
	ConversationID string              `json:"conversation_id"`
	Models         debateRoleModels    `json:"models"`
	MaxIterations  int                 `json:"max_iterations"`
	ScoreThreshold float64             `json:"score_threshold"`
	Thinking       debateThinkingFlags `json:"thinking,omitempty"`
}

// handleMultiAgentStream implements POST /chat/multi-agent/stream: the
// debate path. It resolves three adapters, refreshes the conversation's
// debate state via the mode manager, runs the Moderator/Expert/Critic
// state machine, and relays each debate.Event as one SSE record, persisting
// every artifact as it arrives so a client disconnect never loses completed
// work (§6, §7).
func (s *Server) handleMultiAgentStream(c echo.Context) error {
	var req multiAgentStreamRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, apperrors.Validation("malformed request body"))
	}
	if req.Message == "" {
		return errorResponse(c, apperrors.Validation("message is required"))
	}
	if req.ConversationID == "" {
		return errorResponse(c, apperrors.Validation("conversation_id is required"))
	}

	cfg, err := req.toDebateConfig()
	if err != nil {
		return errorResponse(c, err)
	}

	moderatorAdapter, err := resolveAdapter(s.registry, cfg.Moderator.ModelID)
	if err != nil {
		return errorResponse(c, err)
	}
	expertAdapter, err := resolveAdapter(s.registry, cfg.Expert.ModelID)
	if err != nil {
		return errorResponse(c, err)
	}
	criticAdapter, err := resolveAdapter(s.registry, cfg.Critic.ModelID)
	if err != nil {
		return errorResponse(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), s.debateTimeout())
	defer cancel()
	conv, err := s.store.CreateOrTouch(ctx, req.ConversationID, cfg.Moderator.ModelID)
	if err != nil {
		return errorResponse(c, err)
	}
	if rc, ok := observability.FromContext(ctx); ok {
		rc.ConversationID = conv.ID
	}

	if _, err := s.modes.SwitchMode(ctx, conv.ID, store.ModeDebate, cfg); err != nil {
		return errorResponse(c, err)
	}
	state, err := s.modes.LoadState(ctx, conv.ID)
	if err != nil {
		return errorResponse(c, err)
	}

	if _, err := s.store.AppendMessage(ctx, conv.ID, store.NewMessage{
		Role:        store.RoleUser,
		Content:     req.Message,
		MessageType: store.MessageTypeUser,
	}); err != nil {
		return errorResponse(c, err)
	}

	runCfg := debate.Config{
		Moderator:      roleModelFor(moderatorAdapter, cfg.Moderator),
		Expert:         roleModelFor(expertAdapter, cfg.Expert),
		Critic:         roleModelFor(criticAdapter, cfg.Critic),
		MaxIterations:  cfg.MaxIterations,
		ScoreThreshold: cfg.ScoreThreshold,
	}

	// Bound how many debates (each several sequential upstream calls per
	// round) run at once; Acquire queues this request rather than
	// rejecting it outright, matching the ceiling's purpose of smoothing
	// bursts, not shedding load.
	if err := s.debateSlots.Acquire(ctx, 1); err != nil {
		return errorResponse(c, apperrors.Internal(err, "timed out waiting for a free debate slot"))
	}
	defer s.debateSlots.Release(1)

	writer := newSSEWriter(c)
	var completedRecords []debate.IterationRecord
	reachedDone := false
	clientGone := false

	// Keep ranging to the end even after a write failure: debate.Run's
	// producer goroutine sends unconditionally, so abandoning the loop
	// early would leave it blocked forever on a channel nobody drains.
	// Persistence of each artifact continues regardless, per §6/§7.
	for ev := range debate.Run(ctx, req.Message, state.ConversationContext, runCfg) {
		s.persistDebateEvent(ctx, conv.ID, ev)
		if ev.Type == debate.EventDone {
			reachedDone = true
			completedRecords = ev.Records
		}
		if clientGone {
			continue
		}
		if werr := writer.write(payloadFor(ev)); werr != nil {
			clientGone = true
		}
	}

	if reachedDone && len(completedRecords) > 0 {
		if err := s.modes.RecordIterations(ctx, conv.ID, completedRecords); err != nil {
			if rc, ok := observability.FromContext(ctx); ok {
				rc.Error("failed to record debate iterations", err)
			} else {
				s.logger.Error("failed to record debate iterations", "error", err, "conversation_id", conv.ID)
			}
		}
	}
	return nil
}

// debateTimeout returns the configured debate budget, falling back to a
// generous default if the server was built without a config (as in tests).
func (s *Server) debateTimeout() time.Duration {
	if s.cfg == nil || s.cfg.DebateTimeout <= 0 {
		return 15 * time.Minute
	}
	return s.cfg.DebateTimeout
}

func roleModelFor(adapter provider.Adapter, binding mode.RoleBinding) debate.RoleModel {
	return debate.RoleModel{Adapter: adapter, ModelID: binding.ModelID, Thinking: binding.Thinking}
}

// persistDebateEvent writes each debate artifact to message history as it
// arrives, so a client disconnect mid-debate never loses completed rounds.
// Moderator-authored artifacts are stored as role=system; Expert and Critic
// artifacts, and the final synthesized answer, as role=assistant.
func (s *Server) persistDebateEvent(ctx context.Context, conversationID string, ev debate.Event) {
	var msg store.NewMessage
	switch ev.Type {
	case debate.EventModeratorInit:
		msg = store.NewMessage{Role: store.RoleSystem, Content: marshalArtifact(ev.Analysis), MessageType: store.MessageTypeModeratorInit}
	case debate.EventExpertAnswer:
		msg = store.NewMessage{Role: store.RoleAssistant, Content: marshalArtifact(ev.Answer), MessageType: store.MessageTypeExpertAnswer, Iteration: ev.Iteration}
	case debate.EventCriticReview:
		msg = store.NewMessage{Role: store.RoleAssistant, Content: marshalArtifact(ev.Review), MessageType: store.MessageTypeCriticReview, Iteration: ev.Iteration}
	case debate.EventModeratorSynthesize:
		msg = store.NewMessage{Role: store.RoleSystem, Content: marshalArtifact(ev.Synthesis), MessageType: store.MessageTypeModeratorSynthesize, Iteration: ev.Iteration}
	case debate.EventDone:
		msg = store.NewMessage{Role: store.RoleAssistant, Content: ev.FinalAnswer, MessageType: store.MessageTypeFinalAnswer}
	default:
		return
	}
	if _, err := s.store.AppendMessage(ctx, conversationID, msg); err != nil {
		if rc, ok := observability.FromContext(ctx); ok {
			rc.Error("failed to persist debate artifact", err, slog.String(observability.FieldEventType, string(ev.Type)))
		} else {
			s.logger.Error("failed to persist debate artifact", "error", err, "conversation_id", conversationID, "type", ev.Type)
		}
	}
}

func marshalArtifact(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
