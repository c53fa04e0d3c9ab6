// Package upstream builds the turn engine's capabilities from configured
// providers.
package upstream

import (
	"context"
	"errors"
	"time"

	"github.com/voxgate-go/voxgate/pkg/core"
	"github.com/voxgate-go/voxgate/pkg/core/turn"
	"github.com/voxgate-go/voxgate/pkg/core/voice/stt"
	"github.com/voxgate-go/voxgate/pkg/core/voice/tts"
	"github.com/voxgate-go/voxgate/pkg/gateway/metrics"
)

// wrapProviderErr keeps already-categorized provider errors intact and wraps
// everything else with the provider name.
func wrapProviderErr(provider string, err error) error {
	var cerr *core.Error
	if errors.As(err, &cerr) {
		return err
	}
	return core.NewProviderError(provider, err)
}

// chatGenerator adapts a core.Provider to the turn engine's Generator.
type chatGenerator struct {
	provider core.Provider
	model    string
}

func (g *chatGenerator) Generate(ctx context.Context, req turn.GenerateRequest) (turn.TokenStream, error) {
	messages := make([]core.ChatMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, core.ChatMessage{Role: string(m.Role), Text: m.Text})
	}
	start := time.Now()
	stream, err := g.provider.StreamChat(ctx, core.ChatRequest{
		Model:       g.model,
		System:      req.System,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, wrapProviderErr(g.provider.Name(), err)
	}
	return &timedStream{inner: stream, start: start}, nil
}

// timedStream records the generation stage duration once the stream finishes
// or is closed, whichever comes first.
type timedStream struct {
	inner    core.TokenStream
	start    time.Time
	recorded bool
}

func (s *timedStream) Next() (string, error) {
	tok, err := s.inner.Next()
	if err != nil {
		s.record()
	}
	return tok, err
}

func (s *timedStream) Close() error {
	s.record()
	return s.inner.Close()
}

func (s *timedStream) record() {
	if s.recorded {
		return
	}
	s.recorded = true
	metrics.RecordStageDuration("generation", time.Since(s.start).Seconds())
}

// sttRecognizer adapts an stt.Provider to the turn engine's Recognizer.
type sttRecognizer struct {
	provider stt.Provider
	opts     stt.TranscribeOptions
}

func (r *sttRecognizer) Recognize(ctx context.Context, audio []byte, languageHint string) (turn.Recognition, error) {
	opts := r.opts
	opts.Language = languageHint
	start := time.Now()
	transcript, err := r.provider.Transcribe(ctx, audio, opts)
	metrics.RecordStageDuration("recognition", time.Since(start).Seconds())
	if err != nil {
		return turn.Recognition{}, wrapProviderErr(r.provider.Name(), err)
	}
	return turn.Recognition{
		Text:     transcript.Text,
		Language: transcript.Language,
	}, nil
}

// ttsSynthesizer adapts a tts.Provider to the turn engine's Synthesizer.
type ttsSynthesizer struct {
	provider tts.Provider
	opts     tts.SynthesizeOptions
}

func (s *ttsSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	start := time.Now()
	synthesis, err := s.provider.Synthesize(ctx, text, s.opts)
	metrics.RecordStageDuration("synthesis", time.Since(start).Seconds())
	if err != nil {
		return nil, wrapProviderErr(s.provider.Name(), err)
	}
	return synthesis.Audio, nil
}
