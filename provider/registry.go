package provider

import (
	"fmt"

	"github.com/parleyai/parley/internal/apperrors"
	"github.com/parleyai/parley/internal/config"
)

const defaultRatePerSecond = 2.0
const defaultBurst = 4

// Registry is the immutable, process-wide table of adapters built once at
// startup from environment-sourced credentials. Models whose provider has
// no API key configured are simply absent from the registry.
type Registry struct {
	adapters map[string]Adapter // keyed by provider name
	byModel  map[string]string  // model id -> provider name
}

// NewRegistry builds the registry from loaded config, registering exactly
// the providers for which an API key was supplied.
func NewRegistry(cfg *config.Config) *Registry {
	r := &Registry{adapters: make(map[string]Adapter), byModel: make(map[string]string)}

	register := func(name, baseURL string, creds config.ProviderCreds, models []ModelInfo, noTemp []string, extraBody func(string, Capability) map[string]any) {
		if creds.APIKey == "" {
			return
		}
		url := baseURL
		if creds.BaseURL != "" {
			url = creds.BaseURL
		}
		adapter := NewOpenAICompatible(name, url, creds.APIKey, models, cfg.RequestTimeout, noTemp, extraBody)
		r.adapters[name] = NewRateLimited(adapter, defaultRatePerSecond, defaultBurst)
		for _, m := range models {
			r.byModel[m.ModelID] = name
		}
	}

	register("mistral", "https://api.mistral.ai/v1", cfg.Mistral, mistralModels, nil, nil)
	register("qwen", "https://dashscope.aliyuncs.com/compatible-mode/v1", cfg.Qwen, qwenModels, nil, nil)
	register("glm", "https://open.bigmodel.cn/api/paas/v4", cfg.GLM, glmModels, nil, nil)
	register("minimax", "https://api.minimax.chat/v1", cfg.MiniMax, minimaxModels, nil, nil)
	register("deepseek", "https://api.deepseek.com", cfg.DeepSeek, deepseekModels, []string{"deepseek-reasoner"}, nil)
	register("openai", "https://api.openai.com/v1", cfg.OpenAI, openaiModels, nil, nil)
	register("gemini", "https://generativelanguage.googleapis.com/v1beta/openai", cfg.Gemini, geminiModels, nil, geminiExtraBody)

	return r
}

// geminiExtraBody maps the thinking capability onto Gemini 3's
// thinkingLevel request field: always "high" for the thinking-locked Pro
// model, toggled between "high" and "minimal" for Flash.
func geminiExtraBody(modelID string, capability Capability) map[string]any {
	info, ok := modelByID(geminiModels, modelID)
	if !ok || !info.SupportsThinking {
		return nil
	}
	if info.ThinkingLocked {
		return map[string]any{"thinkingLevel": "high"}
	}
	if capability.ThinkingEnabled {
		return map[string]any{"thinkingLevel": "high"}
	}
	return map[string]any{"thinkingLevel": "minimal"}
}

// NewWithAdapters builds a Registry directly from pre-built adapters, keyed
// by provider name, bypassing environment credentials entirely. Callers
// that need to inject a fake Adapter in place of the real HTTP ones
// NewRegistry constructs (notably tests) use this instead.
func NewWithAdapters(adapters map[string]Adapter) *Registry {
	r := &Registry{adapters: adapters, byModel: make(map[string]string)}
	for name, adapter := range adapters {
		for _, m := range adapter.Models() {
			r.byModel[m.ModelID] = name
		}
	}
	return r
}

// Resolve finds the adapter registered for modelID.
func (r *Registry) Resolve(modelID string) (Adapter, error) {
	providerName, ok := r.byModel[modelID]
	if !ok {
		return nil, apperrors.Validationf("model %q is not registered with any configured provider", modelID)
	}
	return r.adapters[providerName], nil
}

// Providers lists the names of all configured providers.
func (r *Registry) Providers() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	return names
}

// ProviderAdapter returns the adapter registered under name, if any.
func (r *Registry) ProviderAdapter(name string) (Adapter, bool) {
	a, ok := r.adapters[name]
	return a, ok
}

// AllModels flattens the capability records of every configured provider.
func (r *Registry) AllModels() []ModelInfo {
	result := make([]ModelInfo, 0)
	for name, adapter := range r.adapters {
		for _, m := range adapter.Models() {
			m.ProviderName = name
			result = append(result, m)
		}
	}
	return result
}

func (r *Registry) String() string {
	return fmt.Sprintf("provider.Registry{providers=%v}", r.Providers())
}
