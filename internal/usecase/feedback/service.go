package feedback

import (
	"context"
	"fmt"

	"github.com/claimsdesk/claimsdesk/internal/domain"
	"github.com/claimsdesk/claimsdesk/internal/metrics"
)

const maxRecentLimit = 100

// Service records user feedback and serves conversation history.
type Service struct {
	repo Repository
}

// New creates a feedback service.
func New(repo Repository) *Service {
	return &Service{repo: repo}
}

// Save validates and persists one feedback event for a conversation.
func (s *Service) Save(ctx context.Context, conversationID string, fb domain.Feedback) error {
	if err := fb.Validate(); err != nil {
		return err
	}
	if err := s.repo.SaveFeedback(ctx, conversationID, fb); err != nil {
		return err
	}
	metrics.FeedbackTotal.WithLabelValues(feedbackKind(fb)).Inc()
	return nil
}

// Recent returns the newest conversations, optionally filtered by the
// judge's relevance verdict. The limit is clamped to a sane range.
func (s *Service) Recent(ctx context.Context, limit int, relevance string) ([]domain.Conversation, error) {
	var verdict domain.Verdict
	if relevance != "" {
		v, ok := domain.ParseVerdict(relevance)
		if !ok {
			return nil, fmt.Errorf("%w: relevance filter %q", domain.ErrInvalidFeedback, relevance)
		}
		verdict = v
	}

	if limit <= 0 {
		limit = 5
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}
	return s.repo.Recent(ctx, limit, verdict)
}

// Stats aggregates all recorded feedback.
func (s *Service) Stats(ctx context.Context) (domain.FeedbackStats, error) {
	return s.repo.FeedbackStats(ctx)
}

func feedbackKind(fb domain.Feedback) string {
	switch {
	case fb.Score == 1:
		return "thumbs_up"
	case fb.Score == -1:
		return "thumbs_down"
	case fb.Relevance == domain.VerdictRelevant:
		return "relevant"
	case fb.Relevance == domain.VerdictPartlyRelevant:
		return "partly_relevant"
	default:
		return "non_relevant"
	}
}
