package gateway

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/parleyai/parley/provider"
)

func TestHandleListModelsFlattensAllProviders(t *testing.T) {
	h := newTestHarness(t)
	h.register("fake", &fakeAdapter{name: "fake", models: []provider.ModelInfo{fakeModel("fake-1"), fakeModel("fake-2")}})
	ts := h.testServer(t)

	resp, err := http.Get(ts.URL + "/models/")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body listModelsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Models, 2)
}

func TestHandleProviderModelsUnknownProviderIsNotFound(t *testing.T) {
	h := newTestHarness(t)
	ts := h.testServer(t)

	resp, err := http.Get(ts.URL + "/models/providers/ghost")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandleProviderModelsReturnsTaggedModels(t *testing.T) {
	h := newTestHarness(t)
	h.register("fake", &fakeAdapter{name: "fake", models: []provider.ModelInfo{fakeModel("fake-1")}})
	ts := h.testServer(t)

	resp, err := http.Get(ts.URL + "/models/providers/fake")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body providerModelsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "fake", body.ProviderName)
	require.Len(t, body.Models, 1)
	require.Equal(t, "fake-1", body.Models[0].ModelID)
}
