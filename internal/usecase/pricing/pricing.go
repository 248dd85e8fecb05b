// Package pricing estimates hosted-LLM spend from reported token usage.
package pricing

import "github.com/claimsdesk/claimsdesk/internal/domain"

// Rate is the dollar price per 1000 tokens for one model.
type Rate struct {
	PromptPer1K     float64
	CompletionPer1K float64
}

// Table maps backend-qualified model identifiers to their rates.
// Models absent from the table (all local models included) cost exactly 0.
type Table map[string]Rate

// DefaultTable returns the static price list for the hosted models.
func DefaultTable() Table {
	return Table{
		"openai/gpt-3.5-turbo": {PromptPer1K: 0.0015, CompletionPer1K: 0.002},
		"openai/gpt-4o":        {PromptPer1K: 0.03, CompletionPer1K: 0.06},
		"openai/gpt-4o-mini":   {PromptPer1K: 0.03, CompletionPer1K: 0.06},
	}
}

// Estimate returns the dollar cost of one call's token usage.
func (t Table) Estimate(modelID string, tokens domain.TokenUsage) float64 {
	rate, ok := t[modelID]
	if !ok {
		return 0
	}
	return (float64(tokens.Prompt)*rate.PromptPer1K + float64(tokens.Completion)*rate.CompletionPer1K) / 1000
}
