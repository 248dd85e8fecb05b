package retrieval

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/claimsdesk/claimsdesk/internal/domain"
	"github.com/claimsdesk/claimsdesk/internal/logger"
	"github.com/claimsdesk/claimsdesk/internal/metrics"
)

// Service retrieves FAQ context for a question using one of three strategies.
//
// Retrieval failures never fail the answer pipeline: the service logs,
// counts a degraded request, and returns an empty context so the LLM
// answers without grounding.
type Service struct {
	repo          Repository
	embed         Embedder
	topK          int
	numCandidates int
}

// New creates a retrieval service.
func New(repo Repository, embed Embedder, topK, numCandidates int) *Service {
	return &Service{repo: repo, embed: embed, topK: topK, numCandidates: numCandidates}
}

// Retrieve returns up to topK FAQ documents for the query, scoped to its section.
func (s *Service) Retrieve(ctx context.Context, q domain.Query, strategy domain.Strategy) []domain.FAQDocument {
	docs, err := s.retrieve(ctx, q, strategy)
	if err != nil {
		logger.FromContext(ctx).Warn("retrieval degraded, answering without context",
			zap.String("strategy", string(strategy)),
			zap.String("section", q.Section),
			zap.Error(err),
		)
		metrics.RetrievalRequestsTotal.WithLabelValues(string(strategy), "degraded").Inc()
		return nil
	}
	metrics.RetrievalRequestsTotal.WithLabelValues(string(strategy), "success").Inc()
	return docs
}

func (s *Service) retrieve(ctx context.Context, q domain.Query, strategy domain.Strategy) ([]domain.FAQDocument, error) {
	switch strategy {
	case domain.StrategyText:
		return s.repo.SearchText(ctx, q.Text, q.Section, s.topK)

	case domain.StrategyVector:
		emb, err := s.embed.Embed(ctx, q.Text)
		if err != nil {
			return nil, fmt.Errorf("embed query: %w", err)
		}
		return s.repo.SearchKNN(ctx, emb.Embedding, q.Section, s.topK, s.numCandidates)

	case domain.StrategyHybrid:
		emb, err := s.embed.Embed(ctx, q.Text)
		if err != nil {
			return nil, fmt.Errorf("embed query: %w", err)
		}
		return s.repo.SearchHybrid(ctx, q.Text, emb.Embedding, q.Section, s.topK, s.numCandidates)
	}
	return nil, fmt.Errorf("unknown search strategy %q", strategy)
}
