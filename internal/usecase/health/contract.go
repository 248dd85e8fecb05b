package health

import "context"

// SearchPinger checks FAQ search index availability.
type SearchPinger interface {
	Ping(ctx context.Context) error
}

// DatabasePinger checks conversation store availability.
type DatabasePinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// LLMChecker checks chat-completion backend availability.
type LLMChecker interface {
	HealthCheck(ctx context.Context) error
}
