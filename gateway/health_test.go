package gateway

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/parleyai/parley/provider"
)

func TestHandleHealthListsConfiguredProviders(t *testing.T) {
	h := newTestHarness(t)
	h.register("fake", &fakeAdapter{name: "fake", models: []provider.ModelInfo{fakeModel("fake-1")}})
	ts := h.testServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body healthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "ok", body.Status)
	require.Contains(t, body.Providers, "fake")
}
