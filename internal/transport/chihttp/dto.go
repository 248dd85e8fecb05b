package chihttp

import (
	"time"

	"github.com/claimsdesk/claimsdesk/internal/domain"
)

// ErrorCode identifies an API error class.
type ErrorCode string

const (
	CodeBadRequest           ErrorCode = "bad_request"
	CodeValidationFailed     ErrorCode = "validation_failed"
	CodeUnknownBackend       ErrorCode = "unknown_model_backend"
	CodeInvalidFeedback      ErrorCode = "invalid_feedback"
	CodeConversationNotFound ErrorCode = "conversation_not_found"
	CodeCompletionFailed     ErrorCode = "completion_failed"
	CodeInternalError        ErrorCode = "internal_error"
)

// ErrorResponse is the error body for all endpoints.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// AnswerRequest is the body of POST /v1/answers.
type AnswerRequest struct {
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

// AnswerResponse is the body returned by POST /v1/answers.
type AnswerResponse struct {
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

// FeedbackRequest is the body of POST /v1/conversations/{id}/feedback.
// Exactly one of score or relevance must be set.
type FeedbackRequest struct {
	Score     *int   `json:"score,omitempty"`
	Relevance string `json:"relevance,omitempty"`
}

// ConversationResponse is one item of GET /v1/conversations.
type ConversationResponse struct {
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

// ConversationListResponse is the body of GET /v1/conversations.
type ConversationListResponse struct {
	Items []ConversationResponse `json:"items"`
}

// StatsResponse is the body of GET /v1/feedback/stats.
type StatsResponse struct {
	ThumbsUp       int64 `json:"thumbs_up"`
	ThumbsDown     int64 `json:"thumbs_down"`
	Relevant       int64 `json:"relevant"`
	PartlyRelevant int64 `json:"partly_relevant"`
	NonRelevant    int64 `json:"non_relevant"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func tokenUsageToDTO(u domain.TokenUsage) TokenUsage {
	return TokenUsage{Prompt: u.Prompt, Completion: u.Completion, Total: u.Total}
}

func answerToDTO(conv domain.Conversation) AnswerResponse {
	rec := conv.Record
	return AnswerResponse{
		ConversationID:       conv.ID,
		Answer:               rec.Answer,
		Relevance:            string(rec.Relevance),
		RelevanceExplanation: rec.RelevanceExplanation,
		ModelUsed:            rec.ModelUsed.String(),
		ResponseTimeSec:      rec.ResponseTime.Seconds(),
		Tokens:               tokenUsageToDTO(rec.AnswerTokens),
		EvalTokens:           tokenUsageToDTO(rec.JudgeTokens),
		OpenAICost:           rec.Cost,
		CreatedAt:            conv.CreatedAt,
	}
}

func conversationToDTO(conv domain.Conversation) ConversationResponse {
	rec := conv.Record
	return ConversationResponse{
		ConversationID:       conv.ID,
		Question:             conv.Question,
		Section:              conv.Section,
		Answer:               rec.Answer,
		Relevance:            string(rec.Relevance),
		RelevanceExplanation: rec.RelevanceExplanation,
		ModelUsed:            rec.ModelUsed.String(),
		ResponseTimeSec:      rec.ResponseTime.Seconds(),
		Tokens:               tokenUsageToDTO(rec.AnswerTokens),
		EvalTokens:           tokenUsageToDTO(rec.JudgeTokens),
		OpenAICost:           rec.Cost,
		CreatedAt:            conv.CreatedAt,
	}
}
