package gateway

import (
	"github.com/parleyai/parley/internal/apperrors"
	"github.com/parleyai/parley/mode"
	"github.com/parleyai/parley/provider"
)

// roleBindingJSON is the wire shape of one role's model/thinking binding
// inside a multi-agent request or a switch-mode debate_config.
type roleBindingJSON struct {
	ModelID  string `json:"model_id"`
	Thinking bool   `json:"thinking,omitempty"`
}

func (r roleBindingJSON) toRoleBinding() mode.RoleBinding {
	return mode.RoleBinding{ModelID: r.ModelID, Thinking: r.Thinking}
}

// debateConfigJSON is the wire shape of debate_config on switch-mode: one
// role binding (model id + thinking toggle) per role, plus the iteration
// budget.
type debateConfigJSON struct {
	Moderator      roleBindingJSON `json:"moderator"`
	Expert         roleBindingJSON `json:"expert"`
	Critic         roleBindingJSON `json:"critic"`
	MaxIterations  int             `json:"max_iterations"`
	ScoreThreshold float64         `json:"score_threshold"`
}

func (d debateConfigJSON) toDebateConfig() (*mode.DebateConfig, error) {
	if err := requireModelID(d.Moderator.ModelID, "moderator.model_id"); err != nil {
		return nil, err
	}
	if err := requireModelID(d.Expert.ModelID, "expert.model_id"); err != nil {
		return nil, err
	}
	if err := requireModelID(d.Critic.ModelID, "critic.model_id"); err != nil {
		return nil, err
	}
	return &mode.DebateConfig{
		Moderator:      d.Moderator.toRoleBinding(),
		Expert:         d.Expert.toRoleBinding(),
		Critic:         d.Critic.toRoleBinding(),
		MaxIterations:  d.MaxIterations,
		ScoreThreshold: d.ScoreThreshold,
	}, nil
}

// debateRoleModels is the wire shape of the `models` field on
// /chat/multi-agent/stream: one model id per role.
type debateRoleModels struct {
	Moderator string `json:"moderator"`
	Expert    string `json:"expert"`
	Critic    string `json:"critic"`
}

// debateThinkingFlags is the wire shape of the optional `thinking` field on
// /chat/multi-agent/stream: one reasoning toggle per role.
type debateThinkingFlags struct {
	Moderator bool `json:"moderator"`
	Expert    bool `json:"expert"`
	Critic    bool `json:"critic"`
}

// toDebateConfig validates the role model ids and assembles a
// mode.DebateConfig from the flattened request fields of
// /chat/multi-agent/stream: models, max_iterations, score_threshold, and
// thinking are siblings at the top level of the request body, not nested
// under models.
func (r multiAgentStreamRequest) toDebateConfig() (*mode.DebateConfig, error) {
	if err := requireModelID(r.Models.Moderator, "models.moderator"); err != nil {
		return nil, err
	}
	if err := requireModelID(r.Models.Expert, "models.expert"); err != nil {
		return nil, err
	}
	if err := requireModelID(r.Models.Critic, "models.critic"); err != nil {
		return nil, err
	}
	return &mode.DebateConfig{
		Moderator:      mode.RoleBinding{ModelID: r.Models.Moderator, Thinking: r.Thinking.Moderator},
		Expert:         mode.RoleBinding{ModelID: r.Models.Expert, Thinking: r.Thinking.Expert},
		Critic:         mode.RoleBinding{ModelID: r.Models.Critic, Thinking: r.Thinking.Critic},
		MaxIterations:  r.MaxIterations,
		ScoreThreshold: r.ScoreThreshold,
	}, nil
}

// requireModelID reports a validation error naming field if modelID is
// empty. field is the full dotted path as it appears in the request body
// (e.g. "moderator.model_id" or "models.moderator").
func requireModelID(modelID, field string) error {
	if modelID == "" {
		return apperrors.Validationf("%s is required", field)
	}
	return nil
}

// resolveAdapter looks up the adapter for modelID, surfacing the registry's
// validation error unchanged (§8: unknown model -> 400 validation).
func resolveAdapter(registry *provider.Registry, modelID string) (provider.Adapter, error) {
	if modelID == "" {
		return nil, apperrors.Validation("model is required")
	}
	return registry.Resolve(modelID)
}
