package chihttp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/claimsdesk/claimsdesk/internal/domain"
	assistantuc "github.com/claimsdesk/claimsdesk/internal/usecase/assistant"
	healthuc "github.com/claimsdesk/claimsdesk/internal/usecase/health"
)

// Assistant answers questions end to end.
type Assistant interface {
	Answer(ctx context.Context, req assistantuc.Request) (domain.Conversation, error)
}

// FeedbackService records feedback and serves conversation history.
type FeedbackService interface {
	Save(ctx context.Context, conversationID string, fb domain.Feedback) error
	Recent(ctx context.Context, limit int, relevance string) ([]domain.Conversation, error)
	Stats(ctx context.Context) (domain.FeedbackStats, error)
}

// HealthService aggregates component health.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the assistant over HTTP.
type Server struct {
	assistant     Assistant
	feedback      FeedbackService
	health        HealthService
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(assistant Assistant, feedback FeedbackService, health HealthService, logger *zap.Logger) *Server {
	s := &Server{
		assistant: assistant,
		feedback:  feedback,
		health:    health,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrUnknownBackend, http.StatusBadRequest, CodeUnknownBackend),
		sentinelHandler(domain.ErrInvalidFeedback, http.StatusBadRequest, CodeInvalidFeedback),
		sentinelHandler(domain.ErrConversationNotFound, http.StatusNotFound, CodeConversationNotFound),
		sentinelHandler(domain.ErrCompletionFailed, http.StatusBadGateway, CodeCompletionFailed),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeCompletionFailed),
	}
	return s
}

// RegisterRoutes mounts all API routes on the router.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Post("/v1/answers", s.AnswerQuestion)
	r.Post("/v1/conversations/{conversationID}/feedback", s.SubmitFeedback)
	r.Get("/v1/conversations", s.ListConversations)
	r.Get("/v1/feedback/stats", s.FeedbackStats)
	r.Get("/healthz", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// AnswerQuestion handles POST /v1/answers.
func (s *Server) AnswerQuestion(w http.ResponseWriter, r *http.Request) {
	var req AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "question is required")
		return
	}
	if req.Section == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "section is required")
		return
	}
	if req.Model == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "model is required")
		return
	}
	if _, err := domain.ParseStrategy(req.Strategy); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	conv, err := s.assistant.Answer(r.Context(), assistantuc.Request{
		Question: req.Question,
		Section:  req.Section,
		ModelID:  req.Model,
		Strategy: req.Strategy,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, answerToDTO(conv))
}

// SubmitFeedback handles POST /v1/conversations/{conversationID}/feedback.
func (s *Server) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")

	var req FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	fb := domain.Feedback{Relevance: domain.Verdict(req.Relevance)}
	if req.Score != nil {
		fb.Score = *req.Score
	}

	if err := s.feedback.Save(r.Context(), conversationID, fb); err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListConversations handles GET /v1/conversations.
func (s *Server) ListConversations(w http.ResponseWriter, r *http.Request) {
	var limit int
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &limit); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "limit must be an integer")
		return
	}
	var relevance string
	if err := runtime.BindQueryParameter("form", true, false, "relevance", r.URL.Query(), &relevance); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "invalid relevance filter")
		return
	}

	convs, err := s.feedback.Recent(r.Context(), limit, relevance)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]ConversationResponse, len(convs))
	for i, conv := range convs {
		items[i] = conversationToDTO(conv)
	}
	writeJSON(w, http.StatusOK, ConversationListResponse{Items: items})
}

// FeedbackStats handles GET /v1/feedback/stats.
func (s *Server) FeedbackStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.feedback.Stats(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, StatsResponse{
		ThumbsUp:       stats.ThumbsUp,
		ThumbsDown:     stats.ThumbsDown,
		Relevant:       stats.Relevant,
		PartlyRelevant: stats.PartlyRelevant,
		NonRelevant:    stats.NonRelevant,
	})
}

// HealthCheck handles GET /healthz.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrUnknownBackend,
		domain.ErrInvalidFeedback,
		domain.ErrConversationNotFound,
		domain.ErrCompletionFailed,
		domain.ErrEmbeddingProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
