// Package genai wraps the text-generation capability behind a small
// interface. The backend is any OpenAI-compatible chat API; every caller is
// expected to keep a deterministic fallback for when it is absent or failing.
package genai

import "context"

// Message is one prior exchange handed to the model for conversational
// continuity.
type Message struct {
	Role    string // "user" or "assistant"
	Content string
}

// Completer produces one assistant text for a system prompt, prior messages
// and the current user message.
type Completer interface {
	Complete(ctx context.Context, systemPrompt string, history []Message, userMessage string) (string, error)
	Ready() bool
}
