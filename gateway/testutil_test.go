package gateway

import (
	"context"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/parleyai/parley/internal/config"
	"github.com/parleyai/parley/mode"
	"github.com/parleyai/parley/provider"
	"github.com/parleyai/parley/store"
	"github.com/parleyai/parley/store/sqlite"
)

// fakeAdapter replays a fixed queue of responses, one per Stream call, in
// order, the same shape debate's orchestrator tests use for their scripted
// adapters.
type fakeAdapter struct {
	name   string
	models []provider.ModelInfo
	calls  int
	queue  []fakeResponse
}

type fakeResponse struct {
	chunks []string
	err    *provider.AdapterError
}

func (a *fakeAdapter) Name() string                 { return a.name }
func (a *fakeAdapter) Models() []provider.ModelInfo { return a.models }

func (a *fakeAdapter) Stream(ctx context.Context, messages []provider.Message, modelID string, capability provider.Capability) <-chan provider.StreamEvent {
	out := make(chan provider.StreamEvent, 4)
	resp := a.queue[a.calls]
	a.calls++
	go func() {
		defer close(out)
		for _, c := range resp.chunks {
			out <- provider.StreamEvent{Kind: provider.EventText, Text: c}
		}
		if resp.err != nil {
			out <- provider.StreamEvent{Kind: provider.EventError, Err: resp.err}
			return
		}
		out <- provider.StreamEvent{Kind: provider.EventEnd}
	}()
	return out
}

func fakeModel(modelID string) provider.ModelInfo {
	return provider.ModelInfo{ModelID: modelID, ModelName: modelID, ProviderName: "fake"}
}

// testHarness bundles a running Server and the pieces a test wants direct
// access to: the store, for assertions on persisted state, and the
// registry, for registering additional fake adapters mid-test.
type testHarness struct {
	srv      *Server
	store    *store.Store
	registry map[string]provider.Adapter
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "conversations.db")
	db, err := sqlite.Open(context.Background(), dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st := store.New(db)
	modes := mode.New(st)
	adapters := make(map[string]provider.Adapter)
	registry := provider.NewWithAdapters(adapters)
	cfg := &config.Config{Addr: ":0"}
	logger := slog.New(slog.NewTextHandler(nopWriter{}, nil))

	return &testHarness{
		srv:      New(cfg, registry, st, modes, logger),
		store:    st,
		registry: adapters,
	}
}

// register adds adapter to the harness's registry. Registries built by
// NewWithAdapters index by model id at construction time, so tests rebuild
// the registry on the Server each time a new adapter is added.
func (h *testHarness) register(name string, adapter provider.Adapter) {
	h.registry[name] = adapter
	h.srv.registry = provider.NewWithAdapters(h.registry)
}

func (h *testHarness) testServer(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(h.srv.Echo())
	t.Cleanup(ts.Close)
	return ts
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
