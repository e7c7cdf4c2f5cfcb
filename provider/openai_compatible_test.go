package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func collect(ch <-chan StreamEvent) []StreamEvent {
	var events []StreamEvent
	for ev := range ch {
		events = append(events, ev)
	}
	return events
}

func TestStreamEmitsTextInOrderThenEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	adapter := NewOpenAICompatible("test", srv.URL, "key", mistralModels, 5*time.Second, nil, nil)
	events := collect(adapter.Stream(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, "mistral-large-latest", Capability{}))

	require.Len(t, events, 3)
	require.Equal(t, EventText, events[0].Kind)
	require.Equal(t, "Hel", events[0].Text)
	require.Equal(t, EventText, events[1].Kind)
	require.Equal(t, "lo", events[1].Text)
	require.Equal(t, EventEnd, events[2].Kind)
}

func TestStreamEmitsThinkingChannelSeparately(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"reasoning_content\":\"pondering\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"answer\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	adapter := NewOpenAICompatible("test", srv.URL, "key", deepseekModels, 5*time.Second, nil, nil)
	events := collect(adapter.Stream(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, "deepseek-reasoner", Capability{}))

	require.Len(t, events, 3)
	require.Equal(t, EventThinking, events[0].Kind)
	require.Equal(t, "pondering", events[0].Text)
	require.Equal(t, EventText, events[1].Kind)
}

func TestStreamClassifiesAuthError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"invalid api key"}}`)
	}))
	defer srv.Close()

	adapter := NewOpenAICompatible("test", srv.URL, "bad-key", openaiModels, 5*time.Second, nil, nil)
	events := collect(adapter.Stream(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, "gpt-5.2", Capability{}))

	require.Len(t, events, 1)
	require.Equal(t, EventError, events[0].Kind)
	require.Equal(t, ErrorAuth, events[0].Err.Kind)
}

func TestStreamClassifiesRateLimitError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	adapter := NewOpenAICompatible("test", srv.URL, "key", openaiModels, 5*time.Second, nil, nil)
	events := collect(adapter.Stream(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, "gpt-5.2", Capability{}))

	require.Len(t, events, 1)
	require.Equal(t, ErrorRateLimit, events[0].Err.Kind)
}

func TestNoTemperatureModelOmitsTemperatureField(t *testing.T) {
	var sawTemperature bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, sawTemperature = body["temperature"]
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	adapter := NewOpenAICompatible("test", srv.URL, "key", deepseekModels, 5*time.Second, []string{"deepseek-reasoner"}, nil)
	collect(adapter.Stream(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, "deepseek-reasoner", Capability{Temperature: 0.7}))

	require.False(t, sawTemperature)
}
