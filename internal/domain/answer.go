package domain

import "time"

// Verdict is the relevance classification produced by the judge call.
type Verdict string

const (
	// VerdictRelevant means the answer addresses the question.
	VerdictRelevant Verdict = "RELEVANT"
	// VerdictPartlyRelevant means the answer addresses the question in part.
	VerdictPartlyRelevant Verdict = "PARTLY_RELEVANT"
	// VerdictNonRelevant means the answer does not address the question.
	VerdictNonRelevant Verdict = "NON_RELEVANT"
	// VerdictUnknown means the judge output could not be interpreted.
	VerdictUnknown Verdict = "UNKNOWN"
)

// ParseVerdict validates a verdict string. Unrecognized values report ok=false;
// callers decide whether that degrades to VerdictUnknown or is rejected.
func ParseVerdict(s string) (Verdict, bool) {
	switch Verdict(s) {
	case VerdictRelevant, VerdictPartlyRelevant, VerdictNonRelevant, VerdictUnknown:
		return Verdict(s), true
	}
	return VerdictUnknown, false
}

// TokenUsage holds the token counts reported by one LLM call.
type TokenUsage struct {
	Prompt     int
	Completion int
	Total      int
}

// Add returns the element-wise sum of two usages.
func (u TokenUsage) Add(other TokenUsage) TokenUsage {
	return TokenUsage{
		Prompt:     u.Prompt + other.Prompt,
		Completion: u.Completion + other.Completion,
		Total:      u.Total + other.Total,
	}
}

// AnswerRecord is the unit returned to the caller for one answered question.
// Immutable after construction; persistence is the conversation repository's
// concern.
type AnswerRecord struct {
	Answer               string
	ResponseTime         time.Duration
	Relevance            Verdict
	RelevanceExplanation string
	ModelUsed            ModelRef
	AnswerTokens         TokenUsage
	JudgeTokens          TokenUsage
	Cost                 float64
}
