package provider

import "context"

// Adapter is the single operation every vendor module implements: stream a
// chat completion. The returned channel is finite and not restartable; the
// adapter closes it after exactly one End or Error event.
type Adapter interface {
	Name() string
	Models() []ModelInfo
	Stream(ctx context.Context, messages []Message, modelID string, capability Capability) <-chan StreamEvent
}

func modelByID(models []ModelInfo, modelID string) (ModelInfo, bool) {
	for _, m := range models {
		if m.ModelID == modelID {
			return m, true
		}
	}
	return ModelInfo{}, false
}
