package upstream

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/voxgate-go/voxgate/pkg/core"
	"github.com/voxgate-go/voxgate/pkg/core/turn"
	"github.com/voxgate-go/voxgate/pkg/core/voice/stt"
	"github.com/voxgate-go/voxgate/pkg/core/voice/tts"
	"github.com/voxgate-go/voxgate/pkg/gateway/metrics"
)

type stubChatProvider struct {
	err     error
	lastReq core.ChatRequest
}

func (p *stubChatProvider) Name() string { return "stub-chat" }

func (p *stubChatProvider) StreamChat(ctx context.Context, req core.ChatRequest) (core.TokenStream, error) {
	p.lastReq = req
	if p.err != nil {
		return nil, p.err
	}
	return &stubStream{tokens: []string{"ok"}}, nil
}

type stubStream struct {
	tokens []string
	pos    int
}

func (s *stubStream) Next() (string, error) {
	if s.pos >= len(s.tokens) {
		return "", io.EOF
	}
	tok := s.tokens[s.pos]
	s.pos++
	return tok, nil
}

func (s *stubStream) Close() error { return nil }

type stubSTT struct {
	err      error
	lastOpts stt.TranscribeOptions
}

func (p *stubSTT) Name() string { return "stub-stt" }

func (p *stubSTT) Transcribe(ctx context.Context, audio []byte, opts stt.TranscribeOptions) (*stt.Transcript, error) {
	p.lastOpts = opts
	if p.err != nil {
		return nil, p.err
	}
	return &stt.Transcript{Text: "heard it", Language: "en"}, nil
}

type stubTTS struct{ err error }

func (p *stubTTS) Name() string { return "stub-tts" }

func (p *stubTTS) Synthesize(ctx context.Context, text string, opts tts.SynthesizeOptions) (*tts.Synthesis, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &tts.Synthesis{Audio: []byte("pcm:" + text)}, nil
}

func TestChatGenerator_MapsMessagesAndStreams(t *testing.T) {
	provider := &stubChatProvider{}
	gen := &chatGenerator{provider: provider, model: "m1"}

	stream, err := gen.Generate(context.Background(), turn.GenerateRequest{
		System:   "be brief",
		Messages: []turn.Message{{Role: turn.RoleUser, Text: "hi"}},
	})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	defer stream.Close()

	if provider.lastReq.Model != "m1" || provider.lastReq.System != "be brief" {
		t.Errorf("request = %+v", provider.lastReq)
	}
	if len(provider.lastReq.Messages) != 1 || provider.lastReq.Messages[0].Role != "user" {
		t.Errorf("messages = %+v", provider.lastReq.Messages)
	}

	tok, err := stream.Next()
	if err != nil || tok != "ok" {
		t.Errorf("Next() = %q, %v", tok, err)
	}
	if _, err := stream.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("final Next() = %v, want io.EOF", err)
	}
}

func TestRecognizer_PassesLanguageHint(t *testing.T) {
	provider := &stubSTT{}
	rec := &sttRecognizer{provider: provider}

	got, err := rec.Recognize(context.Background(), []byte("audio"), "de")
	if err != nil {
		t.Fatalf("Recognize() error: %v", err)
	}
	if provider.lastOpts.Language != "de" {
		t.Errorf("language hint = %q, want %q", provider.lastOpts.Language, "de")
	}
	if got.Text != "heard it" || got.Language != "en" {
		t.Errorf("recognition = %+v", got)
	}
}

func TestAdapters_WrapUncategorizedErrors(t *testing.T) {
	rec := &sttRecognizer{provider: &stubSTT{err: errors.New("socket closed")}}
	_, err := rec.Recognize(context.Background(), []byte("audio"), "")
	var cerr *core.Error
	if !errors.As(err, &cerr) || cerr.Type != core.ErrProvider {
		t.Errorf("recognizer error = %v, want provider_error", err)
	}
	if !strings.Contains(cerr.Message, "stub-stt") {
		t.Errorf("error message %q does not name the provider", cerr.Message)
	}
}

func TestAdapters_KeepCategorizedErrors(t *testing.T) {
	upstream := core.NewAPIError("cartesia error 500")
	synth := &ttsSynthesizer{provider: &stubTTS{err: upstream}}
	_, err := synth.Synthesize(context.Background(), "hello")
	var cerr *core.Error
	if !errors.As(err, &cerr) || cerr.Type != core.ErrAPI {
		t.Errorf("error = %v, want the upstream api_error preserved", err)
	}
}

func TestAdapters_RecordStageDurations(t *testing.T) {
	reg := metrics.NewRegistry()

	rec := &sttRecognizer{provider: &stubSTT{}}
	if _, err := rec.Recognize(context.Background(), []byte("audio"), ""); err != nil {
		t.Fatal(err)
	}

	synth := &ttsSynthesizer{provider: &stubTTS{}}
	if _, err := synth.Synthesize(context.Background(), "hello"); err != nil {
		t.Fatal(err)
	}

	gen := &chatGenerator{provider: &stubChatProvider{}, model: "m1"}
	stream, err := gen.Generate(context.Background(), turn.GenerateRequest{})
	if err != nil {
		t.Fatal(err)
	}
	for {
		if _, err := stream.Next(); err != nil {
			break
		}
	}
	stream.Close()

	recorder := httptest.NewRecorder()
	metrics.Handler(reg).ServeHTTP(recorder, httptest.NewRequest("GET", "/metrics", nil))
	body := recorder.Body.String()
	for _, stage := range []string{"recognition", "synthesis", "generation"} {
		if !strings.Contains(body, `voxgate_stage_duration_seconds_count{stage="`+stage+`"}`) {
			t.Errorf("no %s stage duration recorded", stage)
		}
	}
}
