package domain

import "errors"

var (
	// ErrUnknownBackend signals a model identifier with an unconfigured backend prefix.
	ErrUnknownBackend = errors.New("unknown model backend")
	// ErrCompletionFailed signals a chat-completion backend failure.
	ErrCompletionFailed = errors.New("completion failed")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrConversationNotFound signals feedback for a conversation that was never saved.
	ErrConversationNotFound = errors.New("conversation not found")
	// ErrInvalidFeedback signals a feedback payload with neither a score nor a relevance tag.
	ErrInvalidFeedback = errors.New("invalid feedback")
)
