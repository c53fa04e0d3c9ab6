// Package openai implements the core.Provider interface against any
// OpenAI-compatible chat-completions endpoint.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/voxgate-go/voxgate/pkg/core"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Provider talks to an OpenAI-compatible chat completions API.
type Provider struct {
	name       string
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// Option configures a Provider.
type Option func(*Provider)

// WithBaseURL points the provider at a compatible endpoint (Groq, OpenRouter,
// a local server).
func WithBaseURL(u string) Option {
	return func(p *Provider) { p.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) { p.httpClient = c }
}

// WithName overrides the provider identifier, for compatible endpoints.
func WithName(name string) Option {
	return func(p *Provider) { p.name = name }
}

// New creates an OpenAI-compatible provider.
func New(apiKey string, opts ...Option) *Provider {
	p := &Provider{
		name:       "openai",
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the provider identifier.
func (p *Provider) Name() string { return p.name }

// chatRequest is the wire format for /chat/completions.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
	Stream      bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// StreamChat sends a streaming chat completion request.
func (p *Provider) StreamChat(ctx context.Context, req core.ChatRequest) (core.TokenStream, error) {
	wire := chatRequest{
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Stream:      true,
	}
	if req.System != "" {
		wire.Messages = append(wire.Messages, chatMessage{Role: "system", Content: req.System})
	}
	for _, m := range req.Messages {
		wire.Messages = append(wire.Messages, chatMessage{Role: m.Role, Content: m.Text})
	}

	body, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		return nil, p.parseError(resp)
	}

	return newEventStream(resp.Body), nil
}

// parseError converts an error response into a categorized core.Error.
func (p *Provider) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	var wire struct {
		Error struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		} `json:"error"`
	}
	message := strings.TrimSpace(string(body))
	code := ""
	if err := json.Unmarshal(body, &wire); err == nil && wire.Error.Message != "" {
		message = wire.Error.Message
		code = wire.Error.Code
	}

	message = fmt.Sprintf("%s: %s", p.name, message)

	var cerr *core.Error
	switch core.ErrorTypeForStatus(resp.StatusCode) {
	case core.ErrAuthentication:
		cerr = core.NewAuthenticationError(message)
	case core.ErrRateLimit:
		if after, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
			cerr = core.NewRateLimitError(message, after)
		} else {
			cerr = &core.Error{Type: core.ErrRateLimit, Message: message}
		}
	default:
		cerr = &core.Error{Type: core.ErrorTypeForStatus(resp.StatusCode), Message: message}
	}
	cerr.Code = code
	return cerr
}
