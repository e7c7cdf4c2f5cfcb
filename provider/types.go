// Package provider unifies the handful of OpenAI-compatible LLM HTTP APIs
// (OpenAI itself, Mistral, Qwen, GLM, MiniMax, DeepSeek, Gemini) behind one
// streaming contract, so the rest of parley never branches on vendor.
package provider

// Role mirrors the chat-completions role enum accepted by every adapter.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of the prompt handed to an adapter.
type Message struct {
	Role    Role
	Content string
}

// Capability carries the per-call knobs a role invocation may set.
type Capability struct {
	ThinkingEnabled    bool
	ResponseFormatJSON bool
	Temperature        float64
	MaxTokens          int
}

// EventKind discriminates the StreamEvent union.
type EventKind string

const (
	EventText     EventKind = "text"
	EventThinking EventKind = "thinking"
	EventEnd      EventKind = "end"
	EventError    EventKind = "error"
)

// ErrorKind is the adapter-agnostic error taxonomy every vendor error is
// translated into, per the adapter contract.
type ErrorKind string

const (
	ErrorAuth              ErrorKind = "auth"
	ErrorRateLimit         ErrorKind = "rate_limit"
	ErrorBadRequest        ErrorKind = "bad_request"
	ErrorTimeout           ErrorKind = "timeout"
	ErrorUpstream          ErrorKind = "upstream"
	ErrorMalformedResponse ErrorKind = "malformed_response"
)

// Usage reports token accounting when the upstream API supplies it; it is
// optional and may be nil on an End event.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// StreamEvent is one element of the finite, non-restartable sequence an
// adapter emits. Exactly one of Text/Err is meaningful depending on Kind;
// Usage is only ever set on an End event and may still be nil there.
type StreamEvent struct {
	Kind  EventKind
	Text  string
	Usage *Usage
	Err   *AdapterError
}

// AdapterError is the value carried by an EventError StreamEvent.
type AdapterError struct {
	Kind    ErrorKind
	Message string
}

func (e *AdapterError) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// ModelInfo is the capability record surfaced by the registry and the
// /models endpoints.
type ModelInfo struct {
	ProviderName     string
	ModelID          string
	ModelName        string
	Description      string
	SupportsThinking bool
	ThinkingLocked   bool
	SupportsJSONMode bool
}
