package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/claimsdesk/claimsdesk/internal/domain"
	"github.com/claimsdesk/claimsdesk/internal/metrics"
)

// BackendConfig holds the connection settings for one chat backend.
type BackendConfig struct {
	BaseURL string
	APIKey  string
}

// ChatClient dispatches chat completions to OpenAI-compatible backends
// keyed by the model-id prefix. The local Ollama server exposes the same
// wire shape as the hosted API, so one client type covers both.
type ChatClient struct {
	clients map[domain.Backend]*openai.Client
	logger  *zap.Logger
}

// NewChatClient builds the backend registry from config.
func NewChatClient(backends map[string]BackendConfig, logger *zap.Logger) *ChatClient {
	clients := make(map[domain.Backend]*openai.Client, len(backends))
	for name, bc := range backends {
		cfg := openai.DefaultConfig(bc.APIKey)
		if bc.BaseURL != "" {
			cfg.BaseURL = bc.BaseURL
		}
		clients[domain.Backend(name)] = openai.NewClientWithConfig(cfg)
	}
	return &ChatClient{clients: clients, logger: logger}
}

// Complete implements domain.Completer. Latency covers the full backend
// round-trip. No retries: a transport failure propagates to the caller.
func (c *ChatClient) Complete(
	ctx context.Context, model domain.ModelRef, prompt string,
) (domain.Completion, error) {
	client, ok := c.clients[model.Backend]
	if !ok {
		return domain.Completion{}, fmt.Errorf("backend %q: %w", model.Backend, domain.ErrUnknownBackend)
	}

	req := openai.ChatCompletionRequest{
		Model: model.Name,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}

	start := time.Now()
	resp, err := client.CreateChatCompletion(ctx, req)
	latency := time.Since(start)

	backend := string(model.Backend)
	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(backend, model.Name, "error").Inc()
		return domain.Completion{}, parseAPIError(model, err)
	}
	if len(resp.Choices) == 0 {
		metrics.LLMRequestsTotal.WithLabelValues(backend, model.Name, "error").Inc()
		return domain.Completion{}, fmt.Errorf("empty completion response: %w", domain.ErrCompletionFailed)
	}

	metrics.LLMRequestsTotal.WithLabelValues(backend, model.Name, "success").Inc()
	metrics.LLMRequestDuration.WithLabelValues(backend, model.Name).Observe(latency.Seconds())
	metrics.LLMTokensTotal.WithLabelValues(backend, model.Name, "prompt").
		Add(float64(resp.Usage.PromptTokens))
	metrics.LLMTokensTotal.WithLabelValues(backend, model.Name, "completion").
		Add(float64(resp.Usage.CompletionTokens))

	return domain.Completion{
		Text: resp.Choices[0].Message.Content,
		Tokens: domain.TokenUsage{
			Prompt:     resp.Usage.PromptTokens,
			Completion: resp.Usage.CompletionTokens,
			Total:      resp.Usage.TotalTokens,
		},
		Latency: latency,
	}, nil
}

// HealthCheck verifies backend availability via ListModels (free endpoint).
func (c *ChatClient) HealthCheck(ctx context.Context) error {
	for backend, client := range c.clients {
		if _, err := client.ListModels(ctx); err != nil {
			return fmt.Errorf("backend %s: list models: %w", backend, err)
		}
	}
	return nil
}

// parseAPIError extracts a human-readable error from the API response.
// All errors are wrapped with domain.ErrCompletionFailed for correct 502 mapping.
func parseAPIError(model domain.ModelRef, err error) error {
	wrap := domain.ErrCompletionFailed

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
		return fmt.Errorf("%s API error %d: %s: %w", model, reqErr.HTTPStatusCode, detail, wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s API error %d: %s: %w", model, apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("%s request failed: %w", model, wrap)
}

// extractDetail extracts the "detail" field from a JSON error body.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
