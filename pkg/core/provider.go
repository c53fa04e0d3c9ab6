// Package core defines the language-generation provider contract shared by
// the concrete provider implementations and the gateway.
package core

import "context"

// ChatMessage is one conversation entry in provider-neutral form.
type ChatMessage struct {
	Role string `json:"role"` // "user" or "assistant"
	Text string `json:"text"`
}

// ChatRequest describes one streamed generation call.
type ChatRequest struct {
	Model       string        `json:"model"`
	System      string        `json:"system,omitempty"`
	Messages    []ChatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

// TokenStream is an iterator over generated text increments. Next returns
// io.EOF when the stream is complete. Cancelling the request context stops
// the stream; no increments are produced after cancellation.
type TokenStream interface {
	Next() (string, error)
	Close() error
}

// Provider is the interface all language-generation backends implement.
type Provider interface {
	// Name returns the provider identifier (e.g. "openai", "gemini").
	Name() string

	// StreamChat sends a streaming generation request.
	StreamChat(ctx context.Context, req ChatRequest) (TokenStream, error)
}
