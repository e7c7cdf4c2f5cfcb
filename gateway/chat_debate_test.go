package gateway

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/parleyai/parley/provider"
	"github.com/parleyai/parley/store"
)

func directAnswerModerator() string {
	return `{"intent":"define term","key_constraints":[],"complexity":"simple","complexity_reason":"factual","decision":"direct_answer","direct_answer":"Paris"}`
}

func delegateModerator() string {
	return `{"intent":"compare approaches","key_constraints":[],"complexity":"complex","complexity_reason":"multi-faceted","decision":"delegate_expert","direct_answer":""}`
}

func synthesisJSON(decision string) string {
	return `{"feedback_validation":{"valid_issues":[],"invalid_issues":[]},"decision":"` + decision + `","improvement_guidance":"tighten it up","iteration_summary":"round complete"}`
}

func expertJSON(conclusion string) string {
	return fmt.Sprintf(`{"understanding":"u","core_points":["p1"],"details":"d","conclusion":"%s","confidence":0.8}`, conclusion)
}

func criticJSON(score float64, passed bool) string {
	return fmt.Sprintf(`{"overall_score":%v,"passed":%t,"issues":[],"strengths":[],"suggestions":[]}`, score, passed)
}

// readSSEPayloads reads every "data: ..." line of body and decodes it as a
// ssePayload, in arrival order.
func readSSEPayloads(t *testing.T, body []byte) []ssePayload {
	t.Helper()
	var out []ssePayload
	scanner := bufio.NewScanner(bytes.NewReader(body))
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var p ssePayload
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &p))
		out = append(out, p)
	}
	return out
}

func TestHandleMultiAgentStreamExplicitPassEmitsDoneAndPersistsArtifacts(t *testing.T) {
	h := newTestHarness(t)
	mod := &fakeAdapter{name: "mod", models: []provider.ModelInfo{fakeModel("mod-1")}, queue: []fakeResponse{
		{chunks: []string{delegateModerator()}},
		{chunks: []string{synthesisJSON("end")}},
	}}
	expert := &fakeAdapter{name: "expert", models: []provider.ModelInfo{fakeModel("expert-1")}, queue: []fakeResponse{
		{chunks: []string{expertJSON("stable conclusion")}},
	}}
	critic := &fakeAdapter{name: "critic", models: []provider.ModelInfo{fakeModel("critic-1")}, queue: []fakeResponse{
		{chunks: []string{criticJSON(95, true)}},
	}}
	h.register("mod", mod)
	h.register("expert", expert)
	h.register("critic", critic)
	ts := h.testServer(t)

	req := multiAgentStreamRequest{
		Message:        "Design a caching strategy",
		ConversationID: "conv-1",
		Models: debateRoleModels{
			Moderator: "mod-1",
			Expert:    "expert-1",
			Critic:    "critic-1",
		},
		MaxIterations:  3,
		ScoreThreshold: 85,
	}
	body, err := json.Marshal(req)
	require.NoError(t, err)
	resp, err := http.Post(ts.URL+"/chat/multi-agent/stream", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	data := make([]byte, 0)
	buf := make([]byte, 4096)
	for {
		n, rerr := resp.Body.Read(buf)
		data = append(data, buf[:n]...)
		if rerr != nil {
			break
		}
	}
	payloads := readSSEPayloads(t, data)
	require.NotEmpty(t, payloads)
	last := payloads[len(payloads)-1]
	require.Equal(t, "done", last.Type)
	require.Equal(t, "explicit_pass", last.TerminationReason)
	require.Equal(t, 1, last.TotalIterations)

	ctx := context.Background()
	messages, err := h.store.LoadMessages(ctx, "conv-1")
	require.NoError(t, err)

	var sawFinal bool
	for _, m := range messages {
		if m.MessageType == store.MessageTypeFinalAnswer {
			sawFinal = true
		}
	}
	require.True(t, sawFinal, "final answer should be persisted once the debate reaches done")

	state, err := h.srv.modes.LoadState(ctx, "conv-1")
	require.NoError(t, err)
	require.Len(t, state.Records, 1)
}

func TestHandleMultiAgentStreamDirectAnswerSkipsExpertAndCritic(t *testing.T) {
	h := newTestHarness(t)
	mod := &fakeAdapter{name: "mod", models: []provider.ModelInfo{fakeModel("mod-1")}, queue: []fakeResponse{
		{chunks: []string{directAnswerModerator()}},
	}}
	h.register("mod", mod)
	h.register("expert", &fakeAdapter{name: "expert", models: []provider.ModelInfo{fakeModel("expert-1")}})
	h.register("critic", &fakeAdapter{name: "critic", models: []provider.ModelInfo{fakeModel("critic-1")}})
	ts := h.testServer(t)

	req := multiAgentStreamRequest{
		Message:        "What is the capital of France?",
		ConversationID: "conv-2",
		Models: debateRoleModels{
			Moderator: "mod-1",
			Expert:    "expert-1",
			Critic:    "critic-1",
		},
		MaxIterations:  3,
		ScoreThreshold: 85,
	}
	body, err := json.Marshal(req)
	require.NoError(t, err)
	resp, err := http.Post(ts.URL+"/chat/multi-agent/stream", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data := make([]byte, 0)
	buf := make([]byte, 4096)
	for {
		n, rerr := resp.Body.Read(buf)
		data = append(data, buf[:n]...)
		if rerr != nil {
			break
		}
	}
	payloads := readSSEPayloads(t, data)
	last := payloads[len(payloads)-1]
	require.Equal(t, "done", last.Type)
	require.True(t, last.WasDirectAnswer)
	require.Equal(t, "Paris", last.FinalAnswer)
}

func TestHandleMultiAgentStreamUnknownModelIsValidationError(t *testing.T) {
	h := newTestHarness(t)
	ts := h.testServer(t)

	req := multiAgentStreamRequest{
		Message:        "hi",
		ConversationID: "conv-3",
		Models: debateRoleModels{
			Moderator: "ghost",
			Expert:    "ghost",
			Critic:    "ghost",
		},
		MaxIterations:  3,
		ScoreThreshold: 85,
	}
	body, err := json.Marshal(req)
	require.NoError(t, err)
	resp, err := http.Post(ts.URL+"/chat/multi-agent/stream", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
