package gateway

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHealthResponseCarriesARequestID(t *testing.T) {
	h := newTestHarness(t)
	ts := h.testServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.NotEmpty(t, resp.Header.Get("X-Request-Id"))
}

func TestEachRequestGetsADistinctRequestID(t *testing.T) {
	h := newTestHarness(t)
	ts := h.testServer(t)

	resp1, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	resp1.Body.Close()
	resp2, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	resp2.Body.Close()

	require.NotEqual(t, resp1.Header.Get("X-Request-Id"), resp2.Header.Get("X-Request-Id"))
}
