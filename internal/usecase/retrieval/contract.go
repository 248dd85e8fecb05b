package retrieval

import (
	"context"

	"github.com/claimsdesk/claimsdesk/internal/domain"
)

// Repository defines the FAQ index contract for retrieval.
type Repository interface {
	SearchText(ctx context.Context, query, section string, topK int) ([]domain.FAQDocument, error)

	SearchKNN(
		ctx context.Context, vector []float32, section string, topK, numCandidates int,
	) ([]domain.FAQDocument, error)

	SearchHybrid(
		ctx context.Context, query string, vector []float32, section string, topK, numCandidates int,
	) ([]domain.FAQDocument, error)
}

// Embedder vectorizes the question for vector and hybrid retrieval.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
