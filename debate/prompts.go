package debate

import (
	"fmt"
	"strings"
)

const moderatorInitTemplate = `You are an experienced discussion moderator and question analyst. Analyze the user's question, assess its complexity, and decide how to handle it.

## Conversation context
%s

## User question
%s

## Your task

1. Identify the user's real intent.
2. Assess complexity: "simple" (a single factual answer, no debate needed), "moderate" (needs explanation but one expert pass suffices), or "complex" (multiple angles, trade-offs, or an open question that benefits from expert/critic iteration).
3. Decide "direct_answer" for simple questions, or "delegate_expert" otherwise.

## Output format

Respond with exactly one JSON object matching this schema, nothing else:

{
  "intent": "one sentence",
  "key_constraints": ["constraint", "..."],
  "complexity": "simple|moderate|complex",
  "complexity_reason": "one sentence",
  "decision": "direct_answer|delegate_expert",
  "direct_answer": "only when decision=direct_answer, otherwise empty string"
}`

const expertGenerateTemplate = `You are a domain expert. Answer the question with a thorough, well-reasoned response.

## Conversation context
%s

## Question
%s

## Iteration
Round %d of at most %d.
%s

## Output format

Respond with exactly one JSON object matching this schema, nothing else:

{
  "understanding": "one or two sentences restating the question",
  "core_points": ["point", "..."],
  "details": "the full argument, markdown allowed",
  "conclusion": "two or three sentences",
  "confidence": 0.0
}`

const expertRevisionSection = `## Revision guidance
This is a revision. Address the critic's review below without rewriting from scratch; keep what already worked.

### Previous critic review
%s

### Moderator's improvement guidance
%s`

const criticReviewTemplate = `You are a rigorous reviewer. Evaluate the expert's answer against the original question across four dimensions: factual accuracy, logical soundness, completeness, and clarity.

## Question
%s

## Expert answer
%s

## Scoring
90-100 excellent, 80-89 good, 70-79 fair but fixable, 60-69 weak, below 60 fails.

## Rule
Every issue's "quote" field must cite text that actually appears in the expert answer. Do not invent content to criticize.

## Output format

Respond with exactly one JSON object matching this schema, nothing else:

{
  "overall_score": 0,
  "passed": false,
  "issues": [{"category": "factual|logical|completeness|clarity|other", "severity": "low|medium|high", "description": "...", "quote": "..."}],
  "strengths": ["..."],
  "suggestions": ["..."]
}

"passed" must be true only if overall_score >= %v.`

const moderatorSynthesizeTemplate = `You are the discussion moderator. Synthesize the expert's answer and the critic's review, and decide whether another round is needed.

## Question
%s

## Iteration %d of at most %d, score threshold %v

## Expert answer
%s

## Critic review
%s

## Your task

1. Validate the critic's issues: which are well-founded (quote actually appears and is substantive), which are not.
2. Decide "end" if the critic passed the answer, the score cleared the threshold, or further iteration would not meaningfully help; otherwise "continue".
3. If continuing, give the expert concrete, actionable guidance drawn only from the valid issues.

## Output format

Respond with exactly one JSON object matching this schema, nothing else:

{
  "feedback_validation": {"valid_issues": ["..."], "invalid_issues": ["..."]},
  "decision": "end|continue",
  "improvement_guidance": "only when decision=continue, otherwise empty string",
  "iteration_summary": "one or two sentences summarizing this round"
}`

// ModeratorInitPrompt composes the INIT-state prompt.
func ModeratorInitPrompt(conversationContext, question string) string {
	return fmt.Sprintf(moderatorInitTemplate, emptyOr(conversationContext, "(none; first turn)"), question)
}

// ExpertGeneratePrompt composes the EXPERT_GENERATE(i) prompt. priorReview
// and priorGuidance are empty for the first iteration.
func ExpertGeneratePrompt(conversationContext, question string, iteration, maxIterations int, priorReview, priorGuidance string) string {
	revision := ""
	if iteration > 1 {
		revision = fmt.Sprintf(expertRevisionSection, priorReview, priorGuidance)
	}
	return fmt.Sprintf(expertGenerateTemplate, emptyOr(conversationContext, "(none; first turn)"), question, iteration, maxIterations, revision)
}

// CriticReviewPrompt composes the CRITIC_REVIEW(i) prompt. The critic sees
// only the current expert answer, not prior rounds, to keep review local.
func CriticReviewPrompt(question string, expertAnswerJSON string, scoreThreshold float64) string {
	return fmt.Sprintf(criticReviewTemplate, question, expertAnswerJSON, scoreThreshold)
}

// ModeratorSynthesizePrompt composes the MODERATOR_SYNTHESIZE(i) prompt.
func ModeratorSynthesizePrompt(question string, iteration, maxIterations int, scoreThreshold float64, expertAnswerJSON, criticReviewJSON string) string {
	return fmt.Sprintf(moderatorSynthesizeTemplate, question, iteration, maxIterations, scoreThreshold, expertAnswerJSON, criticReviewJSON)
}

func emptyOr(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
