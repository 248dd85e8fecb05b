package chihttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/claimsdesk/claimsdesk/internal/domain"
	assistantuc "github.com/claimsdesk/claimsdesk/internal/usecase/assistant"
	healthuc "github.com/claimsdesk/claimsdesk/internal/usecase/health"
)

// --- Mocks ---

type mockAssistant struct {
	conv    domain.Conversation
	err     error
	lastReq assistantuc.Request
}

func (m *mockAssistant) Answer(_ context.Context, req assistantuc.Request) (domain.Conversation, error) {
	m.lastReq = req
	return m.conv, m.err
}

type mockFeedback struct {
	saveErr       error
	recent        []domain.Conversation
	recentErr     error
	stats         domain.FeedbackStats
	statsErr      error
	lastID        string
	lastFB        domain.Feedback
	lastLimit     int
	lastRelevance string
}

func (m *mockFeedback) Save(_ context.Context, conversationID string, fb domain.Feedback) error {
	m.lastID = conversationID
	m.lastFB = fb
	return m.saveErr
}

func (m *mockFeedback) Recent(_ context.Context, limit int, relevance string) ([]domain.Conversation, error) {
	m.lastLimit = limit
	m.lastRelevance = relevance
	return m.recent, m.recentErr
}

func (m *mockFeedback) Stats(_ context.Context) (domain.FeedbackStats, error) {
	return m.stats, m.statsErr
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report { return m.report }

func testConversation() domain.Conversation {
	return domain.Conversation{
		ID:       "conv-1",
		Question: "How do I claim PIP?",
		Section:  domain.SectionGeneral,
		Record: domain.AnswerRecord{
			Answer:               "Apply online.",
			ResponseTime:         1500 * time.Millisecond,
			Relevance:            domain.VerdictRelevant,
			RelevanceExplanation: "Answers the question.",
			ModelUsed:            domain.ModelRef{Backend: domain.BackendOpenAI, Name: "gpt-4o-mini"},
			AnswerTokens:         domain.TokenUsage{Prompt: 10, Completion: 5, Total: 15},
			JudgeTokens:          domain.TokenUsage{Prompt: 8, Completion: 4, Total: 12},
			Cost:                 0.0006,
		},
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func newTestRouter(a *mockAssistant, f *mockFeedback, h *mockHealth) http.Handler {
	if h == nil {
		h = &mockHealth{report: healthuc.Report{Status: healthuc.Healthy, Checks: map[string]healthuc.CheckResult{}}}
	}
	s := NewServer(a, f, h, zap.NewNop())
	r := chi.NewRouter()
	s.RegisterRoutes(r)
	return r
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return resp
}

// --- Tests ---

func TestAnswerQuestion_OK(t *testing.T) {
	a := &mockAssistant{conv: testConversation()}
	router := newTestRouter(a, &mockFeedback{}, nil)

	rec := doJSON(t, router, http.MethodPost, "/v1/answers", AnswerRequest{
		Question: "How do I claim PIP?",
		Section:  domain.SectionGeneral,
		Model:    "openai/gpt-4o-mini",
		Strategy: "hybrid",
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp AnswerResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ConversationID != "conv-1" || resp.Answer != "Apply online." {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.Relevance != "RELEVANT" || resp.Tokens.Total != 15 || resp.EvalTokens.Total != 12 {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.ResponseTimeSec != 1.5 || resp.OpenAICost != 0.0006 {
		t.Errorf("unexpected response: %+v", resp)
	}

	if a.lastReq.ModelID != "openai/gpt-4o-mini" || a.lastReq.Strategy != "hybrid" {
		t.Errorf("unexpected assistant request: %+v", a.lastReq)
	}
}

func TestAnswerQuestion_ValidatesBody(t *testing.T) {
	router := newTestRouter(&mockAssistant{}, &mockFeedback{}, nil)

	tests := []struct {
		name string
		req  AnswerRequest
	}{
		{"missing question", AnswerRequest{Section: "s", Model: "openai/gpt-4o"}},
		{"blank question", AnswerRequest{Question: "   ", Section: "s", Model: "openai/gpt-4o"}},
		{"missing section", AnswerRequest{Question: "q", Model: "openai/gpt-4o"}},
		{"missing model", AnswerRequest{Question: "q", Section: "s"}},
		{"unknown strategy", AnswerRequest{Question: "q", Section: "s", Model: "openai/gpt-4o", Strategy: "semantic"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/v1/answers", tt.req)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			if resp := decodeError(t, rec); resp.Code != CodeValidationFailed {
				t.Errorf("unexpected code: %s", resp.Code)
			}
		})
	}
}

func TestAnswerQuestion_MalformedJSON(t *testing.T) {
	router := newTestRouter(&mockAssistant{}, &mockFeedback{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/answers", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Code != CodeBadRequest {
		t.Errorf("unexpected code: %s", resp.Code)
	}
}

func TestAnswerQuestion_UnknownBackend(t *testing.T) {
	a := &mockAssistant{err: domain.ErrUnknownBackend}
	router := newTestRouter(a, &mockFeedback{}, nil)

	rec := doJSON(t, router, http.MethodPost, "/v1/answers", AnswerRequest{
		Question: "q", Section: "s", Model: "anthropic/claude",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Code != CodeUnknownBackend {
		t.Errorf("unexpected code: %s", resp.Code)
	}
}

func TestAnswerQuestion_CompletionFailure(t *testing.T) {
	a := &mockAssistant{err: domain.ErrCompletionFailed}
	router := newTestRouter(a, &mockFeedback{}, nil)

	rec := doJSON(t, router, http.MethodPost, "/v1/answers", AnswerRequest{
		Question: "q", Section: "s", Model: "openai/gpt-4o",
	})
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
}

func TestAnswerQuestion_InternalErrorIsOpaque(t *testing.T) {
	a := &mockAssistant{err: errors.New("pgx: connection refused at 10.0.0.5")}
	router := newTestRouter(a, &mockFeedback{}, nil)

	rec := doJSON(t, router, http.MethodPost, "/v1/answers", AnswerRequest{
		Question: "q", Section: "s", Model: "openai/gpt-4o",
	})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "10.0.0.5") {
		t.Error("internal error details must not leak to the client")
	}
}

func TestSubmitFeedback_Score(t *testing.T) {
	f := &mockFeedback{}
	router := newTestRouter(&mockAssistant{}, f, nil)

	score := 1
	rec := doJSON(t, router, http.MethodPost, "/v1/conversations/conv-1/feedback", FeedbackRequest{Score: &score})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}
	if f.lastID != "conv-1" || f.lastFB.Score != 1 {
		t.Errorf("unexpected saved feedback: id=%q fb=%+v", f.lastID, f.lastFB)
	}
}

func TestSubmitFeedback_RelevanceTag(t *testing.T) {
	f := &mockFeedback{}
	router := newTestRouter(&mockAssistant{}, f, nil)

	rec := doJSON(t, router, http.MethodPost, "/v1/conversations/conv-1/feedback",
		FeedbackRequest{Relevance: "PARTLY_RELEVANT"})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if f.lastFB.Relevance != domain.VerdictPartlyRelevant {
		t.Errorf("unexpected feedback: %+v", f.lastFB)
	}
}

func TestSubmitFeedback_Invalid(t *testing.T) {
	f := &mockFeedback{saveErr: domain.ErrInvalidFeedback}
	router := newTestRouter(&mockAssistant{}, f, nil)

	rec := doJSON(t, router, http.MethodPost, "/v1/conversations/conv-1/feedback", FeedbackRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Code != CodeInvalidFeedback {
		t.Errorf("unexpected code: %s", resp.Code)
	}
}

func TestSubmitFeedback_ConversationNotFound(t *testing.T) {
	f := &mockFeedback{saveErr: domain.ErrConversationNotFound}
	router := newTestRouter(&mockAssistant{}, f, nil)

	score := -1
	rec := doJSON(t, router, http.MethodPost, "/v1/conversations/missing/feedback", FeedbackRequest{Score: &score})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestListConversations_BindsQueryParams(t *testing.T) {
	f := &mockFeedback{recent: []domain.Conversation{testConversation()}}
	router := newTestRouter(&mockAssistant{}, f, nil)

	rec := doJSON(t, router, http.MethodGet, "/v1/conversations?limit=7&relevance=RELEVANT", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if f.lastLimit != 7 || f.lastRelevance != "RELEVANT" {
		t.Errorf("unexpected query binding: limit=%d relevance=%q", f.lastLimit, f.lastRelevance)
	}

	var resp ConversationListResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Items) != 1 || resp.Items[0].Question != "How do I claim PIP?" {
		t.Errorf("unexpected items: %+v", resp.Items)
	}
}

func TestListConversations_BadLimit(t *testing.T) {
	router := newTestRouter(&mockAssistant{}, &mockFeedback{}, nil)

	rec := doJSON(t, router, http.MethodGet, "/v1/conversations?limit=abc", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestFeedbackStats_OK(t *testing.T) {
	f := &mockFeedback{stats: domain.FeedbackStats{ThumbsUp: 3, ThumbsDown: 1, Relevant: 2}}
	router := newTestRouter(&mockAssistant{}, f, nil)

	rec := doJSON(t, router, http.MethodGet, "/v1/feedback/stats", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp StatsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ThumbsUp != 3 || resp.ThumbsDown != 1 || resp.Relevant != 2 {
		t.Errorf("unexpected stats: %+v", resp)
	}
}

func TestHealthCheck_Degraded(t *testing.T) {
	h := &mockHealth{report: healthuc.Report{
		Status: healthuc.Degraded,
		Checks: map[string]healthuc.CheckResult{
			"search":   healthuc.CheckOK,
			"database": healthuc.CheckError,
		},
	}}
	router := newTestRouter(&mockAssistant{}, &mockFeedback{}, h)

	rec := doJSON(t, router, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}

	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "degraded" || resp.Checks["database"] != "error" {
		t.Errorf("unexpected health response: %+v", resp)
	}
}
