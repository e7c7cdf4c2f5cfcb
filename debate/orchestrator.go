package debate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/parleyai/parley/internal/apperrors"
	"github.com/parleyai/parley/provider"
)

// RoleModel binds one debate role to an adapter, model, and thinking toggle.
type RoleModel struct {
	Adapter  provider.Adapter
	ModelID  string
	Thinking bool
}

// Config is the per-request debate configuration.
type Config struct {
	Moderator      RoleModel
	Expert         RoleModel
	Critic         RoleModel
	MaxIterations  int // clamped to [1,10]
	ScoreThreshold float64 // clamped to [50,100]
}

func (c Config) clamped() Config {
	c.MaxIterations = int(clamp(float64(c.MaxIterations), 1, 10))
	c.ScoreThreshold = clamp(c.ScoreThreshold, 50, 100)
	return c
}

// EventType enumerates the SSE event discriminator values of §6.
type EventType string

const (
	EventModeratorInit       EventType = "moderator_init"
	EventPhaseStart          EventType = "phase_start"
	EventExpertAnswer        EventType = "expert_answer"
	EventCriticReview        EventType = "critic_review"
	EventModeratorSynthesize EventType = "moderator_synthesize"
	EventIterationComplete   EventType = "iteration_complete"
	EventDone                EventType = "done"
	EventError               EventType = "error"
)

// Phase names carried by phase_start events.
const (
	PhaseExpert    = "expert"
	PhaseCritic    = "critic"
	PhaseModerator = "moderator"
)

// Event is one element of the orchestrator's output sequence. Only the
// fields relevant to Type are populated; see §6 for the payload shape per
// event type.
type Event struct {
	Type      EventType
	Iteration int
	Phase     string

	Analysis  *ModeratorInit
	Answer    *ExpertAnswer
	Review    *CriticReview
	Synthesis *ModeratorSynthesis

	FinalAnswer       string
	WasDirectAnswer   bool
	TerminationReason TerminationReason
	TotalIterations   int
	Records           []IterationRecord

	Err *apperrors.Error
}

// Run executes the bounded INIT -> (EXPERT_GENERATE -> CRITIC_REVIEW ->
// MODERATOR_SYNTHESIZE)* -> TERMINATED state machine for one user turn. It
// emits exactly one EventDone or EventError, never both, and closes the
// channel afterward. Role invocations are sequential; cancelling ctx stops
// the in-flight provider call, after which the orchestrator emits one final
// event: a best-effort EventDone (reason max_iterations) built from the
// rounds already completed, or EventError if none has completed.
//
// The returned channel is unbuffered and every send against it is
// unconditional, so the caller must keep ranging over it until it closes —
// never break or return out of the range early — or this goroutine blocks
// forever on a send nobody will receive.
func Run(ctx context.Context, question, conversationContext string, cfg Config) <-chan Event {
	out := make(chan Event)
	go func() {
		defer close(out)
		runOrchestrator(ctx, question, conversationContext, cfg.clamped(), out)
	}()
	return out
}

// runOrchestrator sends every event unconditionally; it relies on its
// caller (Run) to keep draining out until this function returns and closes
// it, even past a client disconnect, so a cancelled ctx here never leaves
// this goroutine blocked on a send nobody will ever receive (see Run).
func runOrchestrator(ctx context.Context, question, conversationContext string, cfg Config, out chan<- Event) {
	initPrompt := ModeratorInitPrompt(conversationContext, question)
	initText, adapterErr := invokeRole(ctx, cfg.Moderator, initPrompt)
	if adapterErr != nil && isCancellation(ctx, adapterErr) {
		out <- errorEventFromAdapter(adapterErr)
		return
	}
	// A plain provider error (auth, rate limit, upstream 5xx, malformed
	// body) is not fatal here: ParseModeratorInit treats the resulting
	// empty/garbled text exactly like any other unparseable response and
	// falls back to delegate_expert, same as a parse failure.
	init, _ := ParseModeratorInit(initText)
	out <- Event{Type: EventModeratorInit, Analysis: &init}

	if init.Decision == DecisionDirectAnswer {
		out <- Event{
			Type:              EventDone,
			FinalAnswer:       init.DirectAnswer,
			WasDirectAnswer:   true,
			TerminationReason: ReasonSimpleQuestion,
			TotalIterations:   0,
		}
		return
	}

	var records []IterationRecord
	var priorReviewJSON, priorGuidance string

	for iteration := 1; ; iteration++ {
		out <- Event{Type: EventPhaseStart, Iteration: iteration, Phase: PhaseExpert}
		expertPrompt := ExpertGeneratePrompt(conversationContext, question, iteration, cfg.MaxIterations, priorReviewJSON, priorGuidance)
		expertText, adapterErr := invokeRole(ctx, cfg.Expert, expertPrompt)
		if adapterErr != nil && isCancellation(ctx, adapterErr) {
			out <- bestEffortOrError(records, init, adapterErr)
			return
		}
		expert, _ := ParseExpertAnswer(expertText)
		out <- Event{Type: EventExpertAnswer, Iteration: iteration, Answer: &expert}

		out <- Event{Type: EventPhaseStart, Iteration: iteration, Phase: PhaseCritic}
		expertJSON, _ := json.Marshal(expert)
		criticPrompt := CriticReviewPrompt(question, string(expertJSON), cfg.ScoreThreshold)
		criticText, adapterErr := invokeRole(ctx, cfg.Critic, criticPrompt)
		if adapterErr != nil && isCancellation(ctx, adapterErr) {
			out <- bestEffortOrError(records, init, adapterErr)
			return
		}
		// Per the error-handling design: a vendor error (401, 429,
		// 5xx, malformed body) mid-round is not fatal. The critic
		// simply reviews whatever (possibly empty) text came back,
		// which the parser turns into the same failing artifact it
		// would produce for any other unparseable response.
		critic, _ := ParseCriticReview(criticText)
		out <- Event{Type: EventCriticReview, Iteration: iteration, Review: &critic}

		out <- Event{Type: EventPhaseStart, Iteration: iteration, Phase: PhaseModerator}
		criticJSON, _ := json.Marshal(critic)
		synthPrompt := ModeratorSynthesizePrompt(question, iteration, cfg.MaxIterations, cfg.ScoreThreshold, string(expertJSON), string(criticJSON))
		synthText, adapterErr := invokeRole(ctx, cfg.Moderator, synthPrompt)
		if adapterErr != nil && isCancellation(ctx, adapterErr) {
			out <- bestEffortOrError(records, init, adapterErr)
			return
		}
		synthesis, _ := ParseModeratorSynthesis(synthText)
		out <- Event{Type: EventModeratorSynthesize, Iteration: iteration, Synthesis: &synthesis}

		record := IterationRecord{Iteration: iteration, Expert: expert, Critic: critic, Synthesis: synthesis}
		records = append(records, record)

		out <- Event{Type: EventIterationComplete, Iteration: iteration}

		reason, terminate := evaluateTermination(iteration, cfg, critic, expert, records, synthesis)
		if terminate {
			finalAnswer := assembleFinalAnswer(reason, init, records)
			out <- Event{
				Type:              EventDone,
				FinalAnswer:       finalAnswer,
				WasDirectAnswer:   false,
				TerminationReason: reason,
				TotalIterations:   iteration,
				Records:           records,
			}
			return
		}

		priorReviewJSON = string(criticJSON)
		priorGuidance = synthesis.ImprovementGuidance
	}
}

// evaluateTermination applies the termination priority policy of §4.3 in
// order: explicit pass, score threshold, max iterations, convergence, then
// the moderator's own decision.
func evaluateTermination(iteration int, cfg Config, critic CriticReview, expert ExpertAnswer, records []IterationRecord, synthesis ModeratorSynthesis) (TerminationReason, bool) {
	if critic.Passed {
		return ReasonExplicitPass, true
	}
	if critic.OverallScore >= cfg.ScoreThreshold {
		return ReasonScoreThreshold, true
	}
	if iteration >= cfg.MaxIterations {
		return ReasonMaxIterations, true
	}
	if iteration > 1 {
		prev := records[len(records)-2]
		sameConclusion := expert.NormalizedConclusion() == prev.Expert.NormalizedConclusion()
		improved := critic.OverallScore-prev.Critic.OverallScore >= 2
		if sameConclusion && !improved {
			return ReasonConvergence, true
		}
	}
	if synthesis.Decision == SynthesisEnd {
		if iteration >= cfg.MaxIterations {
			return ReasonMaxIterations, true
		}
		return ReasonExplicitPass, true
	}
	return "", false
}

// assembleFinalAnswer builds the assistant-visible final text per §4.3.
func assembleFinalAnswer(reason TerminationReason, init ModeratorInit, records []IterationRecord) string {
	if reason == ReasonSimpleQuestion {
		return init.DirectAnswer
	}
	best := records[0]
	for _, r := range records[1:] {
		if r.Critic.OverallScore > best.Critic.OverallScore {
			best = r
		}
	}
	last := records[len(records)-1]

	var b strings.Builder
	if last.Synthesis.IterationSummary != "" {
		b.WriteString(last.Synthesis.IterationSummary)
		b.WriteString("\n\n")
	}
	b.WriteString(best.Expert.Understanding)
	b.WriteString("\n\n")
	for _, p := range best.Expert.CorePoints {
		b.WriteString("- ")
		b.WriteString(p)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(best.Expert.Details)
	b.WriteString("\n\n")
	b.WriteString(best.Expert.Conclusion)
	return b.String()
}

// isCancellation reports whether adapterErr actually stems from ctx being
// cancelled or its deadline expiring, as opposed to an ordinary vendor
// failure (auth, rate limit, malformed body) that happened to occur while
// ctx was still live. Only cancellation aborts the debate outright.
func isCancellation(ctx context.Context, adapterErr *provider.AdapterError) bool {
	return ctx.Err() != nil
}

// bestEffortOrError is called when the context was cancelled mid-round. If
// at least one iteration already completed, it assembles a best-effort
// final answer from those records with reason max_iterations rather than
// discarding completed work; otherwise it reports the adapter error.
func bestEffortOrError(records []IterationRecord, init ModeratorInit, adapterErr *provider.AdapterError) Event {
	if len(records) > 0 {
		return Event{
			Type:              EventDone,
			FinalAnswer:       assembleFinalAnswer(ReasonMaxIterations, init, records),
			WasDirectAnswer:   false,
			TerminationReason: ReasonMaxIterations,
			TotalIterations:   len(records),
			Records:           records,
		}
	}
	return errorEventFromAdapter(adapterErr)
}

func invokeRole(ctx context.Context, rm RoleModel, prompt string) (string, *provider.AdapterError) {
	messages := []provider.Message{{Role: provider.RoleUser, Content: prompt}}
	capability := provider.Capability{ThinkingEnabled: rm.Thinking, ResponseFormatJSON: true, Temperature: 0.7}

	var text strings.Builder
	for ev := range rm.Adapter.Stream(ctx, messages, rm.ModelID, capability) {
		switch ev.Kind {
		case provider.EventText:
			text.WriteString(ev.Text)
		case provider.EventError:
			return text.String(), ev.Err
		}
	}
	return text.String(), nil
}

func errorEventFromAdapter(err *provider.AdapterError) Event {
	code := apperrors.CodeProviderUpstream
	switch err.Kind {
	case provider.ErrorAuth:
		code = apperrors.CodeProviderAuth
	case provider.ErrorRateLimit:
		code = apperrors.CodeProviderRateLimit
	case provider.ErrorTimeout:
		code = apperrors.CodeProviderTimeout
	case provider.ErrorMalformedResponse:
		code = apperrors.CodeMalformedLLMOutput
	}
	return Event{Type: EventError, Err: apperrors.New(code, fmt.Sprintf("provider error: %s", err.Message))}
}
