package domain

import (
	"context"
	"time"
)

// Completer is the chat-completion contract between layers.
type Completer interface {
	Complete(ctx context.Context, model ModelRef, prompt string) (Completion, error)
}

// Completion carries the generated text, token usage, and the wall-clock
// latency measured around the backend call.
type Completion struct {
	Text    string
	Tokens  TokenUsage
	Latency time.Duration
}
