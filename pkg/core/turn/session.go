package turn

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
)

// Dependencies carries everything a session needs. Sink, Recognizer,
// Generator, and Synthesizer are required.
type Dependencies struct {
	ID          string
	Logger      *slog.Logger
	Sink        Sink
	Recognizer  Recognizer
	Generator   Generator
	Synthesizer Synthesizer
	Config      Config
}

// Session is the per-connection conversation state: audio buffer, history,
// interrupt versioning, and the coalescing/scheduling machinery. All methods
// are safe for concurrent use; inbound handlers return quickly and long work
// runs on session-owned goroutines gated by the interrupt version.
type Session struct {
	id          string
	logger      *slog.Logger
	cfg         Config
	sink        Sink
	recognizer  Recognizer
	generator   Generator
	synthesizer Synthesizer

	ctx    context.Context
	cancel context.CancelFunc

	audio      *AudioAccumulator
	history    *History
	interrupts *InterruptController
	turns      *CallCoalescer
	partial    *partialScheduler

	mu       sync.Mutex
	language string // requested target language; "" or "auto" means auto
	detected string // last language reported by recognition
	source   InputSource

	finalizing atomic.Bool
	closed     atomic.Bool
}

// NewSession creates a session. The caller owns its lifecycle and must call
// Close when the connection ends.
func NewSession(deps Dependencies) (*Session, error) {
	if deps.ID == "" {
		return nil, fmt.Errorf("session id is required")
	}
	if deps.Sink == nil {
		return nil, fmt.Errorf("event sink is required")
	}
	if deps.Recognizer == nil {
		return nil, fmt.Errorf("recognizer is required")
	}
	if deps.Generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if deps.Synthesizer == nil {
		return nil, fmt.Errorf("synthesizer is required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	cfg := deps.Config.withDefaults()

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:          deps.ID,
		logger:      deps.Logger.With("session_id", deps.ID),
		cfg:         cfg,
		sink:        deps.Sink,
		recognizer:  deps.Recognizer,
		generator:   deps.Generator,
		synthesizer: deps.Synthesizer,
		ctx:         ctx,
		cancel:      cancel,
		audio:       NewAudioAccumulator(cfg.MaxBufferedAudioBytes),
		history:     NewHistory(cfg.MaxHistory),
		interrupts:  NewInterruptController(),
		source:      SourceText,
	}
	s.turns = NewCallCoalescer(cfg.TurnWaitWindow, s.startTurn, func() {
		s.sink.Info("nothing to process")
	})
	s.partial = newPartialScheduler(s, cfg.PartialDebounce)
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// History returns the session's conversation history.
func (s *Session) History() *History { return s.history }

// Interrupts returns the session's interrupt controller.
func (s *Session) Interrupts() *InterruptController { return s.interrupts }

// HandleAudioChunk buffers one inbound audio chunk. A final chunk triggers
// finalization of the whole buffered utterance; a non-final chunk re-arms the
// partial transcription debounce.
func (s *Session) HandleAudioChunk(data []byte, isFinal bool) {
	if s.closed.Load() {
		return
	}
	if !isFinal {
		s.audio.Append(data)
		s.partial.touch()
		return
	}
	if len(data) > 0 {
		s.audio.Append(data)
	}
	s.FinalizeAudio()
}

// StartRecording clears any stale buffered audio so a new utterance starts
// from a clean buffer.
func (s *Session) StartRecording() {
	if s.closed.Load() {
		return
	}
	s.audio.DrainAndClear()
	s.partial.reset()
}

// FinalizeAudio drains the buffer, recognizes it as one complete utterance,
// and hands the transcript to the turn coalescer. A second finalize arriving
// while one is in flight is dropped, not queued; the drain already emptied the
// buffer so a re-entrant call has nothing to do.
func (s *Session) FinalizeAudio() {
	if s.closed.Load() {
		return
	}
	if !s.finalizing.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer s.finalizing.Store(false)
		s.finalizeAudio()
	}()
}

func (s *Session) finalizeAudio() {
	audio := s.audio.DrainAndClear()
	s.partial.reset()
	if len(audio) == 0 {
		s.sink.Info("nothing to process")
		return
	}

	v := s.interrupts.Capture()
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	s.interrupts.Register(StageRecognition, cancel)

	rec, err := s.recognizer.Recognize(ctx, audio, s.languageHint())
	if err != nil {
		if s.interrupts.Stale(v) || ctx.Err() != nil {
			return
		}
		s.logger.Error("recognition failed", "error", err)
		s.sink.Error("recognition_failed", "failed to transcribe audio")
		return
	}
	if s.interrupts.Stale(v) {
		return
	}

	text := strings.TrimSpace(rec.Text)
	s.setDetected(rec.Language)
	s.sink.SpeechResult(text, rec.Language, true)

	s.setSource(SourceVoice)
	s.turns.Trigger(s.ctx, text, TriggerNormal)
}

// HandleTextInput hands typed input to the turn coalescer.
func (s *Session) HandleTextInput(text string) {
	if s.closed.Load() {
		return
	}
	s.setSource(SourceText)
	s.turns.Trigger(s.ctx, text, TriggerNormal)
}

// Interrupt invalidates all in-flight work for the session. Armed coalescer
// timers are left alone; their effect is gated by the staleness check once
// they fire.
func (s *Session) Interrupt() {
	if s.closed.Load() {
		return
	}
	v := s.interrupts.Interrupt()
	s.logger.Debug("interrupt", "version", v)
}

// SetLanguage sets the requested reply language ("auto" for detection).
func (s *Session) SetLanguage(code string) {
	s.mu.Lock()
	s.language = strings.TrimSpace(code)
	s.mu.Unlock()
}

// Close tears the session down: timers stopped, in-flight work cancelled.
// Safe to call more than once.
func (s *Session) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	s.turns.Close()
	s.partial.stop()
	s.interrupts.CancelAll()
	s.cancel()
}

// startTurn is the coalescer's downstream call. The turn itself runs on its
// own goroutine so trigger submission never blocks the connection read loop.
func (s *Session) startTurn(ctx context.Context, input string) {
	if s.closed.Load() {
		return
	}
	go s.runTurn(input)
}

func (s *Session) languageHint() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.language == "" || s.language == "auto" {
		return ""
	}
	return s.language
}

func (s *Session) setDetected(lang string) {
	if lang == "" {
		return
	}
	s.mu.Lock()
	s.detected = lang
	s.mu.Unlock()
}

func (s *Session) setSource(src InputSource) {
	s.mu.Lock()
	s.source = src
	s.mu.Unlock()
}

func (s *Session) inputSource() InputSource {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source
}
