package assistant

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/claimsdesk/claimsdesk/internal/domain"
	"github.com/claimsdesk/claimsdesk/internal/metrics"
)

// Request is one question to answer.
type Request struct {
	Question string
	Section  string
	ModelID  string // backend-qualified, e.g. "openai/gpt-4o-mini"
	Strategy string // empty selects hybrid
}

// Service orchestrates the answer pipeline: retrieve context, generate
// the answer, judge its relevance, price the call, persist the exchange.
type Service struct {
	retriever Retriever
	generator Generator
	judge     Judge
	estimator Estimator
	convs     ConversationWriter
}

// New creates the assistant service.
func New(r Retriever, g Generator, j Judge, e Estimator, c ConversationWriter) *Service {
	return &Service{retriever: r, generator: g, judge: j, estimator: e, convs: c}
}

// Answer runs the full pipeline and returns the persisted conversation.
func (s *Service) Answer(ctx context.Context, req Request) (domain.Conversation, error) {
	model, err := domain.ParseModelRef(req.ModelID)
	if err != nil {
		return domain.Conversation{}, err
	}
	strategy, err := domain.ParseStrategy(req.Strategy)
	if err != nil {
		return domain.Conversation{}, err
	}

	query := domain.Query{Text: req.Question, Section: req.Section}
	docs := s.retriever.Retrieve(ctx, query, strategy)

	completion, err := s.generator.Generate(ctx, model, req.Question, docs)
	if err != nil {
		return domain.Conversation{}, err
	}

	eval, err := s.judge.Evaluate(ctx, req.Question, completion.Text)
	if err != nil {
		return domain.Conversation{}, err
	}

	cost := s.estimator.Estimate(req.ModelID, completion.Tokens)
	if cost > 0 {
		metrics.LLMCostDollarsTotal.WithLabelValues(req.ModelID).Add(cost)
	}

	conv := domain.Conversation{
		ID:       uuid.NewString(),
		Question: req.Question,
		Section:  req.Section,
		Record: domain.AnswerRecord{
			Answer:               completion.Text,
			ResponseTime:         completion.Latency,
			Relevance:            eval.Relevance,
			RelevanceExplanation: eval.Explanation,
			ModelUsed:            model,
			AnswerTokens:         completion.Tokens,
			JudgeTokens:          eval.Tokens,
			Cost:                 cost,
		},
		CreatedAt: time.Now().UTC(),
	}

	if err := s.convs.Save(ctx, conv); err != nil {
		return domain.Conversation{}, fmt.Errorf("persist conversation: %w", err)
	}
	return conv, nil
}
