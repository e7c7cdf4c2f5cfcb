package debate

import (
	"encoding/json"
	"regexp"
	"strings"
)

var trailingCommaRE = regexp.MustCompile(`,(\s*[}\]])`)
var lineCommentRE = regexp.MustCompile(`(?m)//[^\n]*$`)

// extractOutermostJSON locates the outermost balanced {...} span in text,
// tolerating leading/trailing prose and ```json code-fence markers.
func extractOutermostJSON(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start == -1 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// repairJSON applies the bounded set of textual repairs the parser is
// allowed to attempt before giving up: strip trailing commas, normalize
// smart quotes, remove line comments.
func repairJSON(raw string) string {
	raw = strings.NewReplacer(
		"“", `"`, "”", `"`,
		"‘", "'", "’", "'",
	).Replace(raw)
	raw = lineCommentRE.ReplaceAllString(raw, "")
	raw = trailingCommaRE.ReplaceAllString(raw, "$1")
	return raw
}

// decodeArtifact locates, strictly decodes, and (on failure) repairs-then-
// decodes free-form LLM text into dst. It returns false if no JSON could be
// recovered at all, in which case the caller fabricates a parse-error
// artifact per its role.
func decodeArtifact(text string, dst any) bool {
	span, ok := extractOutermostJSON(text)
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(span), dst); err == nil {
		return true
	}
	repaired := repairJSON(span)
	return json.Unmarshal([]byte(repaired), dst) == nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ParseModeratorInit parses a Moderator-init artifact, fabricating a
// delegate-to-expert fallback on unrecoverable failure.
func ParseModeratorInit(text string) (ModeratorInit, bool) {
	var artifact ModeratorInit
	if !decodeArtifact(text, &artifact) {
		return ModeratorInit{
			Intent:           "unable to parse moderator response",
			Complexity:       ComplexityModerate,
			ComplexityReason: "parser fallback after unrecoverable JSON decode failure",
			Decision:         DecisionDelegateExpert,
		}, false
	}
	if artifact.Complexity != ComplexitySimple && artifact.Complexity != ComplexityModerate && artifact.Complexity != ComplexityComplex {
		artifact.Complexity = ComplexityModerate
	}
	if artifact.Decision != DecisionDirectAnswer {
		artifact.Decision = DecisionDelegateExpert
	}
	return artifact, true
}

// ParseExpertAnswer parses an Expert-answer artifact, fabricating a
// from-raw-text answer on unrecoverable failure so one malformed response
// degrades the round instead of aborting the debate.
func ParseExpertAnswer(text string) (ExpertAnswer, bool) {
	var artifact ExpertAnswer
	if !decodeArtifact(text, &artifact) {
		return ExpertAnswer{
			Understanding: text,
			CorePoints:    []string{},
			Conclusion:    text,
			Confidence:    0,
		}, false
	}
	artifact.Confidence = clamp(artifact.Confidence, 0, 1)
	if artifact.CorePoints == nil {
		artifact.CorePoints = []string{}
	}
	return artifact, true
}

// ParseCriticReview parses a Critic-review artifact, fabricating a failing
// score-0 review describing the parse failure on unrecoverable failure.
func ParseCriticReview(text string) (CriticReview, bool) {
	var artifact CriticReview
	if !decodeArtifact(text, &artifact) {
		return CriticReview{
			OverallScore: 0,
			Passed:       false,
			Issues: []CriticIssue{{
				Category:    CategoryOther,
				Severity:    SeverityHigh,
				Description: "critic response could not be parsed as structured JSON",
			}},
			Strengths:   []string{},
			Suggestions: []string{},
		}, false
	}
	artifact.OverallScore = clamp(artifact.OverallScore, 0, 100)
	if artifact.Strengths == nil {
		artifact.Strengths = []string{}
	}
	if artifact.Suggestions == nil {
		artifact.Suggestions = []string{}
	}
	for i := range artifact.Issues {
		if artifact.Issues[i].Category == "" {
			artifact.Issues[i].Category = CategoryOther
		}
		if artifact.Issues[i].Severity == "" {
			artifact.Issues[i].Severity = SeverityMedium
		}
	}
	return artifact, true
}

// ParseModeratorSynthesis parses a Moderator-synthesize artifact,
// fabricating a continue-with-reformat-request fallback on unrecoverable
// failure.
func ParseModeratorSynthesis(text string) (ModeratorSynthesis, bool) {
	var artifact ModeratorSynthesis
	if !decodeArtifact(text, &artifact) {
		return ModeratorSynthesis{
			Decision:            SynthesisContinue,
			ImprovementGuidance: "the previous response could not be parsed; please reformat strictly as the requested JSON schema",
			IterationSummary:    "parse error on moderator synthesis",
		}, false
	}
	if artifact.Decision != SynthesisEnd {
		artifact.Decision = SynthesisContinue
	}
	return artifact, true
}
