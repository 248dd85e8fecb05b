package answer

import (
	"context"
	"fmt"

	"github.com/claimsdesk/claimsdesk/internal/domain"
)

// Service generates a grounded answer from retrieved FAQ context.
type Service struct {
	llm domain.Completer
}

// New creates an answer generation service.
func New(llm domain.Completer) *Service {
	return &Service{llm: llm}
}

// Generate builds the answering prompt and runs it on the requested model.
func (s *Service) Generate(
	ctx context.Context, model domain.ModelRef, question string, docs []domain.FAQDocument,
) (domain.Completion, error) {
	prompt := BuildPrompt(question, docs)

	completion, err := s.llm.Complete(ctx, model, prompt)
	if err != nil {
		return domain.Completion{}, fmt.Errorf("generate answer: %w", err)
	}
	return completion, nil
}
