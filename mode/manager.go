// Package mode implements the conversation mode manager: the narrow
// state-transition surface between a conversation's simple streaming mode
// and its debate mode, per §4.5.
package mode

import (
	"context"
	"encoding/json"

	"github.com/parleyai/parley/debate"
	"github.com/parleyai/parley/internal/apperrors"
	"github.com/parleyai/parley/store"
)

// DebateConfig is the client-supplied role/budget configuration carried
// into debate mode by switch_mode and stored in the conversation's
// debate-state blob.
type DebateConfig struct {
	Moderator      RoleBinding `json:"moderator"`
	Expert         RoleBinding `json:"expert"`
	Critic         RoleBinding `json:"critic"`
	MaxIterations  int         `json:"max_iterations"`
	ScoreThreshold float64     `json:"score_threshold"`
}

// RoleBinding names the model/thinking pair bound to one debate role, as
// stored; the gateway resolves ModelID to a provider.Adapter at dispatch
// time via the registry, not here.
type RoleBinding struct {
	ModelID  string `json:"model_id"`
	Thinking bool   `json:"thinking"`
}

// DebateState is the full persisted blob stored as a conversation's
// metadata_json: the role binding, the running budget, and the
// conversation_context snapshot used to seed a resumed debate, plus the
// records accumulated by prior turns. The blob fills the whole column; it is
// not nested under a key, so no other metadata is stored beside it.
type DebateState struct {
	Active              bool                    `json:"active"`
	Config              DebateConfig            `json:"config"`
	ConversationContext string                  `json:"conversation_context"`
	Records             []debate.IterationRecord `json:"records,omitempty"`
}

// Manager exposes switch_mode over a store.Store.
type Manager struct {
	store *store.Store
}

// New builds a Manager over s.
func New(s *store.Store) *Manager {
	return &Manager{store: s}
}

// SwitchMode implements §4.5. target must be store.ModeSimple or
// store.ModeDebate; cfg is required (and only consulted) when target is
// debate.
func (m *Manager) SwitchMode(ctx context.Context, conversationID string, target store.Mode, cfg *DebateConfig) (*store.Conversation, error) {
	conv, err := m.store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	switch target {
	case store.ModeDebate:
		return m.switchToDebate(ctx, conv, cfg)
	case store.ModeSimple:
		return m.switchToSimple(ctx, conv)
	default:
		return nil, apperrors.Validationf("unknown target mode %q", target)
	}
}

// switchToDebate builds conversation_context from the existing message
// history and stores it alongside cfg. Idempotent if already in debate:
// the existing records are preserved, while the config, the active flag and
// conversation_context are refreshed from the new request and the current
// history.
func (m *Manager) switchToDebate(ctx context.Context, conv *store.Conversation, cfg *DebateConfig) (*store.Conversation, error) {
	if cfg == nil {
		return nil, apperrors.Validation("debate_config is required when switching to debate mode")
	}

	existing, err := m.readState(ctx, conv.ID)
	if err != nil {
		return nil, err
	}

	convContext, err := m.buildConversationContext(ctx, conv.ID)
	if err != nil {
		return nil, err
	}

	state := DebateState{
		Active:              true,
		Config:              *cfg,
		ConversationContext: convContext,
		Records:             existing.Records,
	}
	if err := m.writeState(ctx, conv.ID, state); err != nil {
		return nil, err
	}
	if conv.Mode != store.ModeDebate {
		if err := m.store.UpdateMode(ctx, conv.ID, store.ModeDebate); err != nil {
			return nil, err
		}
	}
	conv.Mode = store.ModeDebate
	return conv, nil
}

// switchToSimple clears the active flag but retains iteration records for
// inspection; message history is untouched.
func (m *Manager) switchToSimple(ctx context.Context, conv *store.Conversation) (*store.Conversation, error) {
	state, err := m.readState(ctx, conv.ID)
	if err != nil {
		return nil, err
	}
	state.Active = false
	if err := m.writeState(ctx, conv.ID, state); err != nil {
		return nil, err
	}
	if conv.Mode != store.ModeSimple {
		if err := m.store.UpdateMode(ctx, conv.ID, store.ModeSimple); err != nil {
			return nil, err
		}
	}
	conv.Mode = store.ModeSimple
	return conv, nil
}

// buildConversationContext loads the conversation's message history and
// pairs up user/assistant turns in order, per §4.3's windowing rule.
func (m *Manager) buildConversationContext(ctx context.Context, conversationID string) (string, error) {
	messages, err := m.store.LoadMessages(ctx, conversationID)
	if err != nil {
		return "", err
	}

	var turns []debate.Turn
	var pendingUser string
	haveUser := false
	for _, msg := range messages {
		switch msg.Role {
		case store.RoleUser:
			pendingUser = msg.Content
			haveUser = true
		case store.RoleAssistant:
			if haveUser {
				turns = append(turns, debate.Turn{User: pendingUser, Assistant: msg.Content})
				haveUser = false
			}
		}
	}
	return debate.BuildConversationContext(turns), nil
}

// readState loads and decodes the debate_state blob from the
// conversation's metadata_json, returning the zero value if absent.
func (m *Manager) readState(ctx context.Context, conversationID string) (DebateState, error) {
	raw, err := m.store.ReadDebateState(ctx, conversationID)
	if err != nil {
		return DebateState{}, err
	}
	if raw == "" {
		return DebateState{}, nil
	}
	var state DebateState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return DebateState{}, apperrors.Wrap(err, apperrors.CodeStorage, "corrupt debate_state blob")
	}
	return state, nil
}

// writeState encodes and persists state as the conversation's debate_state
// blob.
func (m *Manager) writeState(ctx context.Context, conversationID string, state DebateState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return apperrors.Internal(err, "failed to marshal debate_state")
	}
	return m.store.WriteDebateState(ctx, conversationID, string(raw))
}

// LoadState is the read-only accessor the gateway uses at dispatch time to
// decide whether a /chat/multi-agent/stream request resumes an existing
// debate's conversation_context and records.
func (m *Manager) LoadState(ctx context.Context, conversationID string) (DebateState, error) {
	return m.readState(ctx, conversationID)
}

// RecordIterations appends newRecords to the conversation's persisted
// debate state after a turn completes. It does not alter Active, Config or
// ConversationContext; the context is rebuilt from message history alone.
func (m *Manager) RecordIterations(ctx context.Context, conversationID string, newRecords []debate.IterationRecord) error {
	state, err := m.readState(ctx, conversationID)
	if err != nil {
		return err
	}
	state.Records = append(state.Records, newRecords...)
	return m.writeState(ctx, conversationID, state)
}
