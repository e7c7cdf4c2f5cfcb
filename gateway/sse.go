package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/parleyai/parley/debate"
)

// ssePayload is the JSON shape written for one SSE record on
// /chat/multi-agent/stream. Only the fields relevant to Type are
// populated; see §6.
type ssePayload struct {
	Type              string                     `json:"type"`
	Iteration         int                        `json:"iteration,omitempty"`
	Phase             string                     `json:"phase,omitempty"`
	Analysis          *debate.ModeratorInit      `json:"analysis,omitempty"`
	Answer            *debate.ExpertAnswer       `json:"answer,omitempty"`
	Review            *debate.CriticReview       `json:"review,omitempty"`
	Synthesis         *debate.ModeratorSynthesis `json:"synthesis,omitempty"`
	FinalAnswer       string                     `json:"final_answer,omitempty"`
	WasDirectAnswer   bool                       `json:"was_direct_answer,omitempty"`
	TerminationReason string                     `json:"termination_reason,omitempty"`
	TotalIterations   int                        `json:"total_iterations,omitempty"`
	Detail            string                     `json:"detail,omitempty"`
}

func payloadFor(ev debate.Event) ssePayload {
	p := ssePayload{
		Type:      string(ev.Type),
		Iteration: ev.Iteration,
		Phase:     ev.Phase,
		Analysis:  ev.Analysis,
		Answer:    ev.Answer,
		Review:    ev.Review,
		Synthesis: ev.Synthesis,
	}
	if ev.Type == debate.EventDone {
		p.FinalAnswer = ev.FinalAnswer
		p.WasDirectAnswer = ev.WasDirectAnswer
		p.TerminationReason = string(ev.TerminationReason)
		p.TotalIterations = ev.TotalIterations
	}
	if ev.Type == debate.EventError && ev.Err != nil {
		p.Detail = ev.Err.Error()
	}
	return p
}

// sseWriter frames and flushes one SSE record per call, per the
// `data: <json>\n\n` line framing required of /chat/multi-agent/stream.
type sseWriter struct {
	c       echo.Context
	flusher http.Flusher
}

func newSSEWriter(c echo.Context) *sseWriter {
	c.Response().Header().Set(echo.HeaderContentType, "text/event-stream")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")
	c.Response().WriteHeader(http.StatusOK)
	flusher, _ := c.Response().Writer.(http.Flusher)
	return &sseWriter{c: c, flusher: flusher}
}

func (w *sseWriter) write(payload ssePayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := w.c.Response().Write([]byte("data: ")); err != nil {
		return err
	}
	if _, err := w.c.Response().Write(data); err != nil {
		return err
	}
	if _, err := w.c.Response().Write([]byte("\n\n")); err != nil {
		return err
	}
	if w.flusher != nil {
		w.flusher.Flush()
	}
	return nil
}
