package debate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractOutermostJSONIgnoresSurroundingProse(t *testing.T) {
	text := "Sure, here you go:\n```json\n{\"a\": {\"b\": 1}}\n```\nHope that helps."
	span, ok := extractOutermostJSON(text)
	require.True(t, ok)
	require.Equal(t, `{"a": {"b": 1}}`, span)
}

func TestExtractOutermostJSONNoBraceReturnsFalse(t *testing.T) {
	_, ok := extractOutermostJSON("no json here")
	require.False(t, ok)
}

func TestRepairJSONStripsTrailingCommaAndSmartQuotes(t *testing.T) {
	raw := `{"a": "x",}`
	repaired := repairJSON(raw)
	require.Equal(t, `{"a": "x"}`, repaired)

	raw = "{“a”: 1}"
	repaired = repairJSON(raw)
	require.Equal(t, `{"a": 1}`, repaired)
}

func TestParseModeratorInitDirectAnswer(t *testing.T) {
	text := `{"intent":"define term","key_constraints":[],"complexity":"simple","complexity_reason":"factual","decision":"direct_answer","direct_answer":"4"}`
	artifact, ok := ParseModeratorInit(text)
	require.True(t, ok)
	require.Equal(t, DecisionDirectAnswer, artifact.Decision)
	require.Equal(t, "4", artifact.DirectAnswer)
}

func TestParseModeratorInitFallsBackToDelegateOnGarbage(t *testing.T) {
	artifact, ok := ParseModeratorInit("not even close to json")
	require.False(t, ok)
	require.Equal(t, DecisionDelegateExpert, artifact.Decision)
}

func TestParseCriticReviewClampsScore(t *testing.T) {
	text := `{"overall_score": 150, "passed": true, "issues": [], "strengths": [], "suggestions": []}`
	artifact, ok := ParseCriticReview(text)
	require.True(t, ok)
	require.Equal(t, 100.0, artifact.OverallScore)
}

func TestParseCriticReviewFallsBackToFailingArtifact(t *testing.T) {
	artifact, ok := ParseCriticReview("garbage")
	require.False(t, ok)
	require.Equal(t, 0.0, artifact.OverallScore)
	require.False(t, artifact.Passed)
	require.Len(t, artifact.Issues, 1)
	require.Equal(t, SeverityHigh, artifact.Issues[0].Severity)
}

func TestParseExpertAnswerClampsConfidence(t *testing.T) {
	text := `{"understanding":"u","core_points":["p"],"details":"d","conclusion":"c","confidence":1.5}`
	artifact, ok := ParseExpertAnswer(text)
	require.True(t, ok)
	require.Equal(t, 1.0, artifact.Confidence)
}

func TestParseModeratorSynthesisDefaultsToContinueOnGarbage(t *testing.T) {
	artifact, ok := ParseModeratorSynthesis("garbage")
	require.False(t, ok)
	require.Equal(t, SynthesisContinue, artifact.Decision)
}

func TestParseModeratorSynthesisRejectsUnknownDecision(t *testing.T) {
	text := `{"decision":"maybe","feedback_validation":{"valid_issues":[],"invalid_issues":[]},"iteration_summary":"s"}`
	artifact, ok := ParseModeratorSynthesis(text)
	require.True(t, ok)
	require.Equal(t, SynthesisContinue, artifact.Decision)
}

func TestNormalizedConclusionCollapsesWhitespace(t *testing.T) {
	e := ExpertAnswer{Conclusion: "  hello   world  \n"}
	require.Equal(t, "hello world", e.NormalizedConclusion())
}
