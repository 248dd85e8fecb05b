package judge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/claimsdesk/claimsdesk/internal/domain"
)

const evalTemplate = `You are an expert evaluator for a Retrieval-Augmented Generation (RAG) system.
Your task is to analyze the relevance of the generated answer to the given question.
Based on the relevance of the generated answer, you will classify it
as "NON_RELEVANT", "PARTLY_RELEVANT", or "RELEVANT".

Here is the data for evaluation:

Question: %s
Generated Answer: %s

Please analyze the content and context of the generated answer in relation to the question
and provide your evaluation in parsable JSON without using code blocks:

{
  "Relevance": "NON_RELEVANT" | "PARTLY_RELEVANT" | "RELEVANT",
  "Explanation": "[Provide a brief explanation for your evaluation]"
}`

// Evaluation is the judge's verdict on one generated answer.
type Evaluation struct {
	Relevance   domain.Verdict
	Explanation string
	Tokens      domain.TokenUsage
}

// Service classifies how relevant a generated answer is to its question.
type Service struct {
	llm   domain.Completer
	model domain.ModelRef
}

// New creates a relevance judge running on the given model.
func New(llm domain.Completer, model domain.ModelRef) *Service {
	return &Service{llm: llm, model: model}
}

// Evaluate runs the judge prompt. Output the model fails to produce as
// parsable JSON degrades to an UNKNOWN verdict; the tokens spent are
// reported either way.
func (s *Service) Evaluate(ctx context.Context, question, answer string) (Evaluation, error) {
	prompt := fmt.Sprintf(evalTemplate, question, answer)

	completion, err := s.llm.Complete(ctx, s.model, prompt)
	if err != nil {
		return Evaluation{}, fmt.Errorf("evaluate relevance: %w", err)
	}

	var parsed struct {
		Relevance   string `json:"Relevance"`
		Explanation string `json:"Explanation"`
	}
	if err := json.Unmarshal([]byte(completion.Text), &parsed); err != nil {
		return Evaluation{
			Relevance:   domain.VerdictUnknown,
			Explanation: "Failed to parse evaluation",
			Tokens:      completion.Tokens,
		}, nil
	}

	verdict, _ := domain.ParseVerdict(parsed.Relevance)
	explanation := parsed.Explanation
	if explanation == "" {
		explanation = "No explanation provided"
	}

	return Evaluation{
		Relevance:   verdict,
		Explanation: explanation,
		Tokens:      completion.Tokens,
	}, nil
}
