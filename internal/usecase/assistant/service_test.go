package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/claimsdesk/claimsdesk/internal/domain"
	"github.com/claimsdesk/claimsdesk/internal/usecase/judge"
)

// --- Mocks ---

type mockRetriever struct {
	docs         []domain.FAQDocument
	lastQuery    domain.Query
	lastStrategy domain.Strategy
}

func (m *mockRetriever) Retrieve(_ context.Context, q domain.Query, strategy domain.Strategy) []domain.FAQDocument {
	m.lastQuery = q
	m.lastStrategy = strategy
	return m.docs
}

type mockGenerator struct {
	completion domain.Completion
	err        error
	lastModel  domain.ModelRef
	lastDocs   []domain.FAQDocument
}

func (m *mockGenerator) Generate(
	_ context.Context, model domain.ModelRef, _ string, docs []domain.FAQDocument,
) (domain.Completion, error) {
	m.lastModel = model
	m.lastDocs = docs
	return m.completion, m.err
}

type mockJudge struct {
	eval       judge.Evaluation
	err        error
	lastAnswer string
}

func (m *mockJudge) Evaluate(_ context.Context, _, answer string) (judge.Evaluation, error) {
	m.lastAnswer = answer
	return m.eval, m.err
}

type mockEstimator struct {
	cost        float64
	lastModelID string
	lastTokens  domain.TokenUsage
}

func (m *mockEstimator) Estimate(modelID string, tokens domain.TokenUsage) float64 {
	m.lastModelID = modelID
	m.lastTokens = tokens
	return m.cost
}

type mockConvWriter struct {
	err   error
	saved *domain.Conversation
}

func (m *mockConvWriter) Save(_ context.Context, conv domain.Conversation) error {
	m.saved = &conv
	return m.err
}

func testService() (*Service, *mockRetriever, *mockGenerator, *mockJudge, *mockEstimator, *mockConvWriter) {
	r := &mockRetriever{docs: []domain.FAQDocument{{ID: "doc1", Answer: "a1"}}}
	g := &mockGenerator{completion: domain.Completion{
		Text:    "You can claim online.",
		Tokens:  domain.TokenUsage{Prompt: 10, Completion: 5, Total: 15},
		Latency: 2 * time.Second,
	}}
	j := &mockJudge{eval: judge.Evaluation{
		Relevance:   domain.VerdictRelevant,
		Explanation: "Answers the question.",
		Tokens:      domain.TokenUsage{Prompt: 8, Completion: 4, Total: 12},
	}}
	e := &mockEstimator{cost: 0.0006}
	c := &mockConvWriter{}
	return New(r, g, j, e, c), r, g, j, e, c
}

var testRequest = Request{
	Question: "How do I claim PIP?",
	Section:  domain.SectionGeneral,
	ModelID:  "openai/gpt-4o-mini",
	Strategy: "hybrid",
}

// --- Tests ---

func TestAnswer_FullPipeline(t *testing.T) {
	svc, r, g, j, e, c := testService()

	conv, err := svc.Answer(context.Background(), testRequest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if r.lastQuery.Text != testRequest.Question || r.lastQuery.Section != domain.SectionGeneral {
		t.Errorf("unexpected retrieval query: %+v", r.lastQuery)
	}
	if r.lastStrategy != domain.StrategyHybrid {
		t.Errorf("unexpected strategy: %v", r.lastStrategy)
	}
	if g.lastModel.String() != "openai/gpt-4o-mini" || len(g.lastDocs) != 1 {
		t.Errorf("generator got model=%v docs=%d", g.lastModel, len(g.lastDocs))
	}
	if j.lastAnswer != "You can claim online." {
		t.Errorf("judge should see the generated answer, got %q", j.lastAnswer)
	}
	if e.lastModelID != "openai/gpt-4o-mini" || e.lastTokens.Total != 15 {
		t.Errorf("estimator got model=%q tokens=%+v", e.lastModelID, e.lastTokens)
	}

	rec := conv.Record
	if rec.Answer != "You can claim online." {
		t.Errorf("unexpected answer: %q", rec.Answer)
	}
	if rec.Relevance != domain.VerdictRelevant || rec.RelevanceExplanation != "Answers the question." {
		t.Errorf("unexpected judgement: %v / %q", rec.Relevance, rec.RelevanceExplanation)
	}
	if rec.AnswerTokens.Total != 15 || rec.JudgeTokens.Total != 12 {
		t.Errorf("unexpected token usage: %+v / %+v", rec.AnswerTokens, rec.JudgeTokens)
	}
	if rec.ResponseTime != 2*time.Second {
		t.Errorf("response time should be the answering call latency: %v", rec.ResponseTime)
	}
	if rec.Cost != 0.0006 {
		t.Errorf("unexpected cost: %v", rec.Cost)
	}

	if conv.ID == "" {
		t.Error("conversation should get a generated ID")
	}
	if c.saved == nil || c.saved.ID != conv.ID {
		t.Error("conversation should be persisted")
	}
}

func TestAnswer_DefaultStrategyIsHybrid(t *testing.T) {
	svc, r, _, _, _, _ := testService()

	req := testRequest
	req.Strategy = ""
	if _, err := svc.Answer(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.lastStrategy != domain.StrategyHybrid {
		t.Errorf("empty strategy should default to hybrid, got %v", r.lastStrategy)
	}
}

func TestAnswer_RejectsUnknownModel(t *testing.T) {
	svc, _, _, _, _, c := testService()

	req := testRequest
	req.ModelID = "anthropic/claude"
	_, err := svc.Answer(context.Background(), req)
	if !errors.Is(err, domain.ErrUnknownBackend) {
		t.Fatalf("expected ErrUnknownBackend, got %v", err)
	}
	if c.saved != nil {
		t.Error("nothing should be persisted on validation failure")
	}
}

func TestAnswer_RejectsUnknownStrategy(t *testing.T) {
	svc, _, _, _, _, _ := testService()

	req := testRequest
	req.Strategy = "semantic"
	_, err := svc.Answer(context.Background(), req)
	if err == nil || !strings.Contains(err.Error(), "semantic") {
		t.Fatalf("expected strategy error, got %v", err)
	}
}

func TestAnswer_GeneratorErrorStopsPipeline(t *testing.T) {
	svc, _, g, j, _, c := testService()

	g.err = domain.ErrCompletionFailed
	j.lastAnswer = ""
	_, err := svc.Answer(context.Background(), testRequest)
	if !errors.Is(err, domain.ErrCompletionFailed) {
		t.Fatalf("expected completion error, got %v", err)
	}
	if j.lastAnswer != "" {
		t.Error("judge must not run when generation failed")
	}
	if c.saved != nil {
		t.Error("nothing should be persisted on generation failure")
	}
}

func TestAnswer_JudgeErrorPropagates(t *testing.T) {
	svc, _, _, j, _, c := testService()

	j.err = errors.New("judge backend down")
	_, err := svc.Answer(context.Background(), testRequest)
	if !errors.Is(err, j.err) {
		t.Fatalf("expected judge error, got %v", err)
	}
	if c.saved != nil {
		t.Error("nothing should be persisted on judge failure")
	}
}

func TestAnswer_SaveErrorPropagates(t *testing.T) {
	svc, _, _, _, _, c := testService()

	c.err = errors.New("db down")
	_, err := svc.Answer(context.Background(), testRequest)
	if !errors.Is(err, c.err) {
		t.Fatalf("expected save error, got %v", err)
	}
}
