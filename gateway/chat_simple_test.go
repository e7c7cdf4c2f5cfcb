package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/parleyai/parley/provider"
)

func TestHandleChatStreamRelaysTextAndPersistsTurn(t *testing.T) {
	h := newTestHarness(t)
	h.register("fake", &fakeAdapter{name: "fake", models: []provider.ModelInfo{fakeModel("fake-1")}, queue: []fakeResponse{
		{chunks: []string{"Hello, ", "world."}},
	}})
	ts := h.testServer(t)

	body, err := json.Marshal(chatStreamRequest{Message: "hi", ConversationID: "conv-1", Model: "fake-1"})
	require.NoError(t, err)
	resp, err := http.Post(ts.URL+"/chat/stream", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, "Hello, world.", string(data))

	messages, err := h.store.LoadMessages(context.Background(), "conv-1")
	require.NoError(t, err)
	require.Len(t, messages, 2)
	require.Equal(t, "hi", messages[0].Content)
	require.Equal(t, "Hello, world.", messages[1].Content)
}

func TestHandleChatStreamUnknownModelIsValidationError(t *testing.T) {
	h := newTestHarness(t)
	ts := h.testServer(t)

	body, err := json.Marshal(chatStreamRequest{Message: "hi", ConversationID: "conv-1", Model: "ghost"})
	require.NoError(t, err)
	resp, err := http.Post(ts.URL+"/chat/stream", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleChatStreamProviderErrorBeforeAnyBytesIsBadGateway(t *testing.T) {
	h := newTestHarness(t)
	h.register("fake", &fakeAdapter{name: "fake", models: []provider.ModelInfo{fakeModel("fake-1")}, queue: []fakeResponse{
		{err: &provider.AdapterError{Kind: provider.ErrorUpstream, Message: "upstream 503"}},
	}})
	ts := h.testServer(t)

	body, err := json.Marshal(chatStreamRequest{Message: "hi", ConversationID: "conv-1", Model: "fake-1"})
	require.NoError(t, err)
	resp, err := http.Post(ts.URL+"/chat/stream", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)

	messages, err := h.store.LoadMessages(context.Background(), "conv-1")
	require.NoError(t, err)
	require.Len(t, messages, 1, "only the user turn should be persisted when no assistant text was ever sent")
}

func TestHandleChatStreamMissingMessageIsValidationError(t *testing.T) {
	h := newTestHarness(t)
	ts := h.testServer(t)

	body, err := json.Marshal(chatStreamRequest{ConversationID: "conv-1", Model: "fake-1"})
	require.NoError(t, err)
	resp, err := http.Post(ts.URL+"/chat/stream", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
