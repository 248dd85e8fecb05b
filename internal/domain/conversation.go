package domain

import (
	"fmt"
	"time"
)

// Conversation is one persisted question/answer exchange. The id is
// generated by the orchestrator when the answer is assembled.
type Conversation struct {
	ID        string
	Question  string
	Section   string
	Record    AnswerRecord
	CreatedAt time.Time
}

// Feedback is one user feedback event for a conversation: either a
// thumbs score (+1/-1) or a relevance tag, never both.
type Feedback struct {
	Score     int
	Relevance Verdict
}

// Validate checks that exactly one feedback kind is set.
func (f Feedback) Validate() error {
	hasScore := f.Score != 0
	hasTag := f.Relevance != ""

	if hasScore == hasTag {
		return fmt.Errorf("%w: exactly one of score or relevance is required", ErrInvalidFeedback)
	}
	if hasScore && f.Score != 1 && f.Score != -1 {
		return fmt.Errorf("%w: score must be +1 or -1, got %d", ErrInvalidFeedback, f.Score)
	}
	if hasTag {
		switch f.Relevance {
		case VerdictRelevant, VerdictPartlyRelevant, VerdictNonRelevant:
		default:
			return fmt.Errorf("%w: relevance tag %q", ErrInvalidFeedback, f.Relevance)
		}
	}
	return nil
}

// FeedbackStats aggregates all feedback events.
type FeedbackStats struct {
	ThumbsUp       int64
	ThumbsDown     int64
	Relevant       int64
	PartlyRelevant int64
	NonRelevant    int64
}
