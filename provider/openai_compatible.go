package provider

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// OpenAICompatibleAdapter speaks the chat/completions wire format shared by
// OpenAI, Mistral, Qwen, GLM, MiniMax, DeepSeek and Gemini's OpenAI-compat
// endpoint. One adapter instance per provider family; only baseURL, apiKey
// and the model catalog differ between them.
type OpenAICompatibleAdapter struct {
	name       string
	baseURL    string
	apiKey     string
	httpClient *http.Client
	models     []ModelInfo

	// noTemperatureModels lists model IDs that reject the temperature
	// field outright (deepseek-reasoner).
	noTemperatureModels map[string]bool

	// extraBody computes vendor-specific request fields for a given
	// model/capability pair, e.g. Gemini's thinkingLevel. Nil means none.
	extraBody func(modelID string, capability Capability) map[string]any
}

// NewOpenAICompatible constructs an adapter for one provider family.
func NewOpenAICompatible(
	name, baseURL, apiKey string,
	models []ModelInfo,
	timeout time.Duration,
	noTemperatureModels []string,
	extraBody func(modelID string, capability Capability) map[string]any,
) *OpenAICompatibleAdapter {
	noTemp := make(map[string]bool, len(noTemperatureModels))
	for _, id := range noTemperatureModels {
		noTemp[id] = true
	}
	return &OpenAICompatibleAdapter{
		name:                name,
		baseURL:             strings.TrimRight(baseURL, "/"),
		apiKey:              apiKey,
		httpClient:          &http.Client{Timeout: timeout},
		models:              models,
		noTemperatureModels: noTemp,
		extraBody:           extraBody,
	}
}

func (a *OpenAICompatibleAdapter) Name() string        { return a.name }
func (a *OpenAICompatibleAdapter) Models() []ModelInfo { return a.models }

func (a *OpenAICompatibleAdapter) Stream(ctx context.Context, messages []Message, modelID string, capability Capability) <-chan StreamEvent {
	ch := make(chan StreamEvent)
	go func() {
		defer close(ch)
		a.run(ctx, messages, modelID, capability, ch)
	}()
	return ch
}

func (a *OpenAICompatibleAdapter) buildBody(messages []Message, modelID string, capability Capability) ([]byte, error) {
	wireMessages := make([]map[string]string, len(messages))
	for i, m := range messages {
		wireMessages[i] = map[string]string{"role": string(m.Role), "content": m.Content}
	}

	body := map[string]any{
		"model":    modelID,
		"messages": wireMessages,
		"stream":   true,
	}
	if !a.noTemperatureModels[modelID] {
		body["temperature"] = capability.Temperature
	}
	if capability.MaxTokens > 0 {
		body["max_tokens"] = capability.MaxTokens
	}
	if capability.ResponseFormatJSON {
		body["response_format"] = map[string]string{"type": "json_object"}
	}
	if a.extraBody != nil {
		for k, v := range a.extraBody(modelID, capability) {
			body[k] = v
		}
	}
	return json.Marshal(body)
}

// run performs the HTTP call and drives the SSE parse loop, retrying once
// before the first byte on a connection-level failure. Every send on ch is
// unconditional; Stream's caller must keep draining ch until it closes
// (never abandon the range early), or this goroutine blocks forever on an
// unbuffered channel nobody is reading from.
func (a *OpenAICompatibleAdapter) run(ctx context.Context, messages []Message, modelID string, capability Capability, ch chan<- StreamEvent) {
	payload, err := a.buildBody(messages, modelID, capability)
	if err != nil {
		ch <- errorEvent(ErrorBadRequest, fmt.Sprintf("encode request: %v", err))
		return
	}

	resp, err := a.doWithRetry(ctx, payload)
	if err != nil {
		ch <- classifyTransportError(err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		ch <- errorEvent(classifyStatus(resp.StatusCode), readErrorBody(resp))
		return
	}

	usage, streamErr := streamSSE(resp, ch)
	if streamErr != nil {
		ch <- StreamEvent{Kind: EventError, Err: streamErr}
		return
	}
	ch <- StreamEvent{Kind: EventEnd, Usage: usage}
}

func (a *OpenAICompatibleAdapter) doWithRetry(ctx context.Context, payload []byte) (*http.Response, error) {
	resp, err := a.do(ctx, payload)
	if err == nil {
		return resp, nil
	}
	if ctx.Err() != nil {
		return nil, err
	}
	select {
	case <-time.After(2 * time.Second):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return a.do(ctx, payload)
}

func (a *OpenAICompatibleAdapter) do(ctx context.Context, payload []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.apiKey)
	req.Header.Set("Accept", "text/event-stream")
	return a.httpClient.Do(req)
}

type chatCompletionChunk struct {
	Choices []struct {
		Delta struct {
			Content          string `json:"content"`
			ReasoningContent string `json:"reasoning_content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// streamSSE reads "data: <json>" lines until [DONE] or EOF, forwarding text
// and thinking chunks in order. It never sends End/Error itself: it stops at
// the first chunk that fails to decode and returns that failure, and the
// caller sends exactly one End or Error per the adapter contract (partial
// text already emitted is not retracted).
func streamSSE(resp *http.Response, ch chan<- StreamEvent) (*Usage, *AdapterError) {
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var usage *Usage
	for scanner.Scan() {
		line := scanner.Text()
		data, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}
		data = strings.TrimSpace(data)
		if data == "" {
			continue
		}
		if data == "[DONE]" {
			break
		}

		var chunk chatCompletionChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return usage, &AdapterError{Kind: ErrorMalformedResponse, Message: fmt.Sprintf("decode stream chunk: %v", err)}
		}
		if chunk.Usage != nil {
			usage = &Usage{
				PromptTokens:     chunk.Usage.PromptTokens,
				CompletionTokens: chunk.Usage.CompletionTokens,
				TotalTokens:      chunk.Usage.TotalTokens,
			}
		}
		for _, choice := range chunk.Choices {
			if choice.Delta.ReasoningContent != "" {
				ch <- StreamEvent{Kind: EventThinking, Text: choice.Delta.ReasoningContent}
			}
			if choice.Delta.Content != "" {
				ch <- StreamEvent{Kind: EventText, Text: choice.Delta.Content}
			}
		}
	}
	return usage, nil
}

func errorEvent(kind ErrorKind, message string) StreamEvent {
	return StreamEvent{Kind: EventError, Err: &AdapterError{Kind: kind, Message: message}}
}

func readErrorBody(resp *http.Response) string {
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if body.Error.Message != "" {
		return body.Error.Message
	}
	return "http status " + strconv.Itoa(resp.StatusCode)
}

func classifyStatus(status int) ErrorKind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrorAuth
	case status == http.StatusTooManyRequests:
		return ErrorRateLimit
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return ErrorTimeout
	case status >= 400 && status < 500:
		return ErrorBadRequest
	default:
		return ErrorUpstream
	}
}

func classifyTransportError(err error) StreamEvent {
	if errors.Is(err, context.DeadlineExceeded) {
		return errorEvent(ErrorTimeout, err.Error())
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return errorEvent(ErrorTimeout, err.Error())
	}
	return errorEvent(ErrorUpstream, err.Error())
}

var _ Adapter = (*OpenAICompatibleAdapter)(nil)
