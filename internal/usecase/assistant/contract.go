package assistant

import (
	"context"

	"github.com/claimsdesk/claimsdesk/internal/domain"
	"github.com/claimsdesk/claimsdesk/internal/usecase/judge"
)

// Retriever fetches FAQ context for a question. Never fails: retrieval
// degradation yields an empty context.
type Retriever interface {
	Retrieve(ctx context.Context, q domain.Query, strategy domain.Strategy) []domain.FAQDocument
}

// Generator produces a grounded answer from the question and its context.
type Generator interface {
	Generate(
		ctx context.Context, model domain.ModelRef, question string, docs []domain.FAQDocument,
	) (domain.Completion, error)
}

// Judge classifies the generated answer's relevance to the question.
type Judge interface {
	Evaluate(ctx context.Context, question, answer string) (judge.Evaluation, error)
}

// Estimator prices one call's token usage.
type Estimator interface {
	Estimate(modelID string, tokens domain.TokenUsage) float64
}

// ConversationWriter persists answered conversations.
type ConversationWriter interface {
	Save(ctx context.Context, conv domain.Conversation) error
}
