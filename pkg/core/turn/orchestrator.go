package turn

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/voxgate-go/voxgate/pkg/core"
	"github.com/voxgate-go/voxgate/pkg/core/voice"
)

// runTurn drives one full turn: record the user message, stream the generated
// reply, synthesize it sentence by sentence, then emit the consolidated reply.
// The turn captures the interrupt version once and re-checks it at every step;
// a mismatch abandons the remaining work silently.
func (s *Session) runTurn(input string) {
	input = strings.TrimSpace(input)
	if input == "" {
		return
	}

	v := s.interrupts.Capture()

	userMsg := s.history.Append(RoleUser, input)
	s.sink.MessageReceived(userMsg, s.inputSource())

	reply, ok := s.generateReply(v)
	if !ok {
		if s.interrupts.Stale(v) {
			s.sink.TurnAborted()
		}
		return
	}

	if aborted := s.speakReply(v, reply); aborted || s.interrupts.Stale(v) {
		s.sink.TurnAborted()
		return
	}
	s.sink.Reply(reply)
}

// generateReply streams the assistant reply, emitting tokens as they arrive.
// Returns false when the turn was superseded or the provider failed; in both
// cases the typing indicator is left cleared and history holds no assistant
// entry for the turn.
func (s *Session) generateReply(v uint64) (string, bool) {
	if s.interrupts.Stale(v) {
		return "", false
	}

	s.sink.Typing(true)

	req := GenerateRequest{
		System:      s.systemPrompt(),
		Messages:    s.history.Snapshot(),
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	}

	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	s.interrupts.Register(StageGeneration, cancel)

	stream, err := s.generator.Generate(ctx, req)
	if err != nil {
		s.sink.Typing(false)
		s.failTurn(v, ctx, "generation failed", err)
		return "", false
	}
	defer stream.Close()

	var reply strings.Builder
	for {
		token, err := stream.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			s.sink.Typing(false)
			s.failTurn(v, ctx, "generation stream failed", err)
			return "", false
		}
		if s.interrupts.Stale(v) {
			s.sink.Typing(false)
			return "", false
		}
		if token == "" {
			continue
		}
		reply.WriteString(token)
		s.sink.Token(token)
	}

	if s.interrupts.Stale(v) {
		s.sink.Typing(false)
		return "", false
	}

	text := reply.String()
	s.history.Append(RoleAssistant, text)
	s.sink.Typing(false)
	s.sink.MessageComplete(text)
	return text, true
}

// speakReply synthesizes the reply sentence by sentence, emitting audio chunks
// in sentence order. A failed unit yields a zero-length chunk; a staleness hit
// abandons the remaining units and reports true. The audio-done marker is
// emitted either way.
func (s *Session) speakReply(v uint64, reply string) (aborted bool) {
	defer s.sink.AudioDone()

	units := voice.SplitSentences(reply)
	for seq, unit := range units {
		if s.interrupts.Stale(v) {
			return true
		}

		ctx, cancel := context.WithCancel(s.ctx)
		s.interrupts.Register(StageSynthesis, cancel)
		audio, err := s.synthesizer.Synthesize(ctx, unit)
		cancel()
		if err != nil {
			s.logger.Warn("synthesis failed", "seq", seq, "error", err)
			audio = nil
		}
		if s.interrupts.Stale(v) {
			return true
		}
		s.sink.AudioChunk(audio, seq)
	}
	return false
}

// failTurn surfaces a provider failure unless the turn was already superseded,
// in which case the failure is expected fallout from cancellation and stays
// silent.
func (s *Session) failTurn(v uint64, ctx context.Context, msg string, err error) {
	if s.interrupts.Stale(v) || ctx.Err() != nil {
		return
	}
	var cerr *core.Error
	if errors.As(err, &cerr) {
		s.logger.Error(msg, "error", err, "retryable", cerr.IsRetryable())
	} else {
		s.logger.Error(msg, "error", err)
	}
	s.sink.Error("processing_failed", "failed to process your message")
}

// systemPrompt is the operator instruction plus the session's language
// directive.
func (s *Session) systemPrompt() string {
	s.mu.Lock()
	lang := s.language
	s.mu.Unlock()

	if lang == "" || lang == "auto" {
		return s.cfg.SystemPrompt + " Respond in the user's input language."
	}
	return s.cfg.SystemPrompt + " Respond in " + lang + "."
}
