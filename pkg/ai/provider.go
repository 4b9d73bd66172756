// Package ai abstracts the tenant's AI completion provider.
package ai

import "context"

// Provider produces one completion for a system prompt plus user message,
// authenticated with the tenant's own API key.
type Provider interface {
	Complete(ctx context.Context, apiKey, model, systemPrompt, userMessage string) (string, error)
}
