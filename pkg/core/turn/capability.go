package turn

import "context"

// Recognition is the outcome of a speech recognition call.
type Recognition struct {
	Text     string
	Language string
}

// Recognizer converts captured audio to text. languageHint is an ISO code or
// empty for auto-detection. Failures must be tolerated by callers; a failed
// recognition never aborts a session.
type Recognizer interface {
	Recognize(ctx context.Context, audio []byte, languageHint string) (Recognition, error)
}

// GenerateRequest describes one language-generation call.
type GenerateRequest struct {
	System      string
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// TokenStream yields generated text increments in order. Next returns io.EOF
// when the stream is complete. Cancelling the generation context stops the
// stream; no increments are delivered after cancellation.
type TokenStream interface {
	Next() (string, error)
	Close() error
}

// Generator produces a streamed reply for a conversation.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (TokenStream, error)
}

// Synthesizer converts one text unit to audio bytes. A failure for one unit
// must not prevent subsequent units from being synthesized.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}
