// Package debate implements the Moderator/Expert/Critic state machine: a
// bounded, single-request-scoped workflow that coordinates three role
// invocations through a provider.Adapter and emits a typed event sequence.
package debate

import "strings"

// Complexity is the Moderator's assessment of a question.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

// ModeratorDecision is the Moderator-init branch point.
type ModeratorDecision string

const (
	DecisionDirectAnswer   ModeratorDecision = "direct_answer"
	DecisionDelegateExpert ModeratorDecision = "delegate_expert"
)

// SynthesisDecision is the Moderator-synthesize branch point.
type SynthesisDecision string

const (
	SynthesisEnd      SynthesisDecision = "end"
	SynthesisContinue SynthesisDecision = "continue"
)

// TerminationReason names why the orchestrator stopped.
type TerminationReason string

const (
	ReasonSimpleQuestion TerminationReason = "simple_question"
	ReasonExplicitPass   TerminationReason = "explicit_pass"
	ReasonScoreThreshold TerminationReason = "score_threshold"
	ReasonConvergence    TerminationReason = "convergence"
	ReasonMaxIterations  TerminationReason = "max_iterations"
)

// IssueCategory and IssueSeverity are the enums for CriticReview.issues.
type IssueCategory string
type IssueSeverity string

const (
	CategoryFactual      IssueCategory = "factual"
	CategoryLogical      IssueCategory = "logical"
	CategoryCompleteness IssueCategory = "completeness"
	CategoryClarity      IssueCategory = "clarity"
	CategoryOther        IssueCategory = "other"

	SeverityLow    IssueSeverity = "low"
	SeverityMedium IssueSeverity = "medium"
	SeverityHigh   IssueSeverity = "high"
)

// ModeratorInit is the artifact produced by the INIT state.
type ModeratorInit struct {
	Intent           string            `json:"intent"`
	KeyConstraints   []string          `json:"key_constraints"`
	Complexity       Complexity        `json:"complexity"`
	ComplexityReason string            `json:"complexity_reason"`
	Decision         ModeratorDecision `json:"decision"`
	DirectAnswer     string            `json:"direct_answer"`
}

// ExpertAnswer is the artifact produced by EXPERT_GENERATE(i).
type ExpertAnswer struct {
	Understanding string   `json:"understanding"`
	CorePoints    []string `json:"core_points"`
	Details       string   `json:"details"`
	Conclusion    string   `json:"conclusion"`
	Confidence    float64  `json:"confidence"`
}

// NormalizedConclusion returns Conclusion with whitespace collapsed, used
// by the convergence check to compare across rounds.
func (e ExpertAnswer) NormalizedConclusion() string {
	return strings.Join(strings.Fields(e.Conclusion), " ")
}

// CriticIssue is one entry of CriticReview.Issues.
type CriticIssue struct {
	Category    IssueCategory `json:"category"`
	Severity    IssueSeverity `json:"severity"`
	Description string        `json:"description"`
	Quote       string        `json:"quote,omitempty"`
}

// CriticReview is the artifact produced by CRITIC_REVIEW(i).
type CriticReview struct {
	OverallScore float64       `json:"overall_score"`
	Passed       bool          `json:"passed"`
	Issues       []CriticIssue `json:"issues"`
	Strengths    []string      `json:"strengths"`
	Suggestions  []string      `json:"suggestions"`
}

// FeedbackValidation is the Moderator's review of the Critic's issues.
type FeedbackValidation struct {
	ValidIssues   []string `json:"valid_issues"`
	InvalidIssues []string `json:"invalid_issues"`
}

// ModeratorSynthesis is the artifact produced by MODERATOR_SYNTHESIZE(i).
type ModeratorSynthesis struct {
	FeedbackValidation  FeedbackValidation `json:"feedback_validation"`
	Decision            SynthesisDecision  `json:"decision"`
	ImprovementGuidance string             `json:"improvement_guidance"`
	IterationSummary    string             `json:"iteration_summary"`
	TerminationReason   TerminationReason  `json:"termination_reason,omitempty"`
}

// IterationRecord captures one completed Expert->Critic->Moderator round.
type IterationRecord struct {
	Iteration  int                `json:"iteration"`
	Expert     ExpertAnswer       `json:"expert"`
	Critic     CriticReview       `json:"critic"`
	Synthesis  ModeratorSynthesis `json:"synthesis"`
}
