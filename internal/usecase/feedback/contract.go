package feedback

import (
	"context"

	"github.com/claimsdesk/claimsdesk/internal/domain"
)

// Repository defines the conversation store contract for feedback and history.
type Repository interface {
	SaveFeedback(ctx context.Context, conversationID string, fb domain.Feedback) error
	Recent(ctx context.Context, limit int, relevance domain.Verdict) ([]domain.Conversation, error)
	FeedbackStats(ctx context.Context) (domain.FeedbackStats, error)
}
