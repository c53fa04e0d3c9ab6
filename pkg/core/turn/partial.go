package turn

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// partialScheduler debounces partial transcription of the not-yet-finalized
// audio buffer. Each inbound chunk re-arms a single timer (latest wins); when
// the timer fires and enough audio has accumulated, the buffer snapshot is
// transcribed for low-latency feedback and, for long enough transcripts, fed
// into the turn coalescer so a reply can start forming before the user
// finishes speaking.
type partialScheduler struct {
	s     *Session
	delay time.Duration

	mu       sync.Mutex
	timer    *time.Timer
	stopped  bool
	lastText string

	inProgress atomic.Bool
}

func newPartialScheduler(s *Session, delay time.Duration) *partialScheduler {
	return &partialScheduler{s: s, delay: delay}
}

// touch re-arms the debounce timer, cancelling any pending fire.
func (p *partialScheduler) touch() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}
	if p.timer != nil {
		p.timer.Stop()
	}
	p.timer = time.AfterFunc(p.delay, p.fire)
}

// stop cancels the timer permanently. Called at session teardown.
func (p *partialScheduler) stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopped = true
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

// record notes the latest partial text. Returns false when the text matches
// the previous partial; an unchanged transcript carries no new feedback.
func (p *partialScheduler) record(text string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if text == p.lastText {
		return false
	}
	p.lastText = text
	return true
}

// reset clears the duplicate filter. Called when an utterance finalizes so
// the next utterance starts fresh.
func (p *partialScheduler) reset() {
	p.mu.Lock()
	p.lastText = ""
	p.mu.Unlock()
}

func (p *partialScheduler) fire() {
	p.mu.Lock()
	stopped := p.stopped
	p.mu.Unlock()
	if stopped {
		return
	}
	p.s.runPartialRecognition()
}

// runPartialRecognition performs one debounced partial transcription pass.
// Overlapping passes are skipped rather than queued, and every failure is
// logged and swallowed; partial feedback is best-effort by contract.
func (s *Session) runPartialRecognition() {
	if s.closed.Load() {
		return
	}
	if !s.partial.inProgress.CompareAndSwap(false, true) {
		return
	}
	defer s.partial.inProgress.Store(false)

	snapshot := s.audio.Snapshot()
	if len(snapshot) < s.cfg.MinPartialAudioBytes {
		return
	}

	v := s.interrupts.Capture()
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	s.interrupts.Register(StageRecognition, cancel)

	rec, err := s.recognizer.Recognize(ctx, snapshot, s.languageHint())
	if err != nil {
		s.logger.Debug("partial recognition failed", "error", err)
		return
	}
	if s.interrupts.Stale(v) {
		return
	}

	text := strings.TrimSpace(rec.Text)
	if text == "" {
		return
	}
	if !s.partial.record(text) {
		return
	}

	s.setDetected(rec.Language)
	s.sink.SpeechResult(text, rec.Language, false)

	// Long enough partials seed the turn coalescer so the reply can start
	// forming early. Queue-only mode keeps the finalized utterance
	// authoritative: a finalize inside the same window supersedes this.
	if len([]rune(text)) >= s.cfg.MinPartialTextChars {
		s.setSource(SourceVoice)
		s.turns.Trigger(s.ctx, text, TriggerQueue)
	}
}
