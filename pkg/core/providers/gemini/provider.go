// Package gemini implements the core.Provider interface on top of the
// official Gemini SDK.
package gemini

import (
	"context"
	"fmt"
	"io"
	"iter"

	"google.golang.org/genai"

	"github.com/voxgate-go/voxgate/pkg/core"
)

// Provider streams chat completions from the Gemini API.
type Provider struct {
	client *genai.Client
}

// New creates a Gemini provider authenticated with the given API key.
func New(ctx context.Context, apiKey string) (*Provider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Provider{client: client}, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string { return "gemini" }

// StreamChat sends a streaming chat request.
func (p *Provider) StreamChat(ctx context.Context, req core.ChatRequest) (core.TokenStream, error) {
	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, m := range req.Messages {
		var role genai.Role = genai.RoleUser
		if m.Role == "assistant" {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Text, role))
	}

	config := &genai.GenerateContentConfig{}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.Temperature > 0 {
		config.Temperature = genai.Ptr(float32(req.Temperature))
	}

	seq := p.client.Models.GenerateContentStream(ctx, req.Model, contents, config)
	return newStream(seq), nil
}

// stream adapts the SDK's push iterator to the pull-based TokenStream.
type stream struct {
	next func() (*genai.GenerateContentResponse, error, bool)
	stop func()
}

func newStream(seq iter.Seq2[*genai.GenerateContentResponse, error]) *stream {
	next, stop := iter.Pull2(seq)
	return &stream{next: next, stop: stop}
}

// Next returns the next text fragment, or io.EOF when the stream ends.
func (s *stream) Next() (string, error) {
	for {
		resp, err, ok := s.next()
		if !ok {
			return "", io.EOF
		}
		if err != nil {
			return "", fmt.Errorf("gemini stream: %w", err)
		}
		if text := resp.Text(); text != "" {
			return text, nil
		}
	}
}

// Close stops the underlying iterator.
func (s *stream) Close() error {
	s.stop()
	return nil
}
