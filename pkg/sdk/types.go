package sdk

import "time"

// Search strategies accepted by AskRequest.Strategy.
const (
	StrategyText   = "text"
	StrategyVector = "vector"
	StrategyHybrid = "hybrid"
)

// Relevance verdicts and feedback tags.
const (
	Relevant       = "RELEVANT"
	PartlyRelevant = "PARTLY_RELEVANT"
	NonRelevant    = "NON_RELEVANT"
	Unknown        = "UNKNOWN"
)

// AskRequest is one question for the assistant.
type AskRequest struct {
	Question string `json:"question"`
	Section  string `json:"section"`
	Model    string `json:"model"`
	Strategy string `json:"strategy,omitempty"`
}

// TokenUsage reports the token counts of one LLM call.
type TokenUsage struct {
	Prompt     int `json:"prompt_tokens"`
	Completion int `json:"completion_tokens"`
	Total      int `json:"total_tokens"`
}

// Answer is the assistant's reply to one question.
type Answer struct {
	ConversationID       string     `json:"conversation_id"`
	Answer               string     `json:"answer"`
	Relevance            string     `json:"relevance"`
	RelevanceExplanation string     `json:"relevance_explanation"`
	ModelUsed            string     `json:"model_used"`
	ResponseTimeSec      float64    `json:"response_time_sec"`
	Tokens               TokenUsage `json:"tokens"`
	EvalTokens           TokenUsage `json:"eval_tokens"`
	OpenAICost           float64    `json:"openai_cost"`
	CreatedAt            time.Time  `json:"created_at"`
}

// Feedback is one feedback event: a thumbs score or a relevance tag.
type Feedback struct {
	Score     *int   `json:"score,omitempty"`
	Relevance string `json:"relevance,omitempty"`
}

// Conversation is one answered question from the history listing.
type Conversation struct {
	ConversationID       string     `json:"conversation_id"`
	Question             string     `json:"question"`
	Section              string     `json:"section"`
	Answer               string     `json:"answer"`
	Relevance            string     `json:"relevance"`
	RelevanceExplanation string     `json:"relevance_explanation"`
	ModelUsed            string     `json:"model_used"`
	ResponseTimeSec      float64    `json:"response_time_sec"`
	Tokens               TokenUsage `json:"tokens"`
	EvalTokens           TokenUsage `json:"eval_tokens"`
	OpenAICost           float64    `json:"openai_cost"`
	CreatedAt            time.Time  `json:"created_at"`
}

// ConversationList is the history listing response.
type ConversationList struct {
	Items []Conversation `json:"items"`
}

// FeedbackStats aggregates all recorded feedback.
type FeedbackStats struct {
	ThumbsUp       int64 `json:"thumbs_up"`
	ThumbsDown     int64 `json:"thumbs_down"`
	Relevant       int64 `json:"relevant"`
	PartlyRelevant int64 `json:"partly_relevant"`
	NonRelevant    int64 `json:"non_relevant"`
}

// Health is the server health report.
type Health struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
