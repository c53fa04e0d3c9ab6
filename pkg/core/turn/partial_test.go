package turn

import (
	"bytes"
	"testing"
	"time"
)

func TestPartial_BelowThresholdSkipped(t *testing.T) {
	f := newFixture(t, nil)

	f.session.HandleAudioChunk([]byte("tiny"), false)

	time.Sleep(150 * time.Millisecond)
	if got := f.recognizer.calls.Load(); got != 0 {
		t.Errorf("recognizer calls = %d, want 0 below the size threshold", got)
	}
}

func TestPartial_EmitsPartialSpeechResult(t *testing.T) {
	f := newFixture(t, nil)

	f.session.HandleAudioChunk(bytes.Repeat([]byte("a"), 128), false)

	waitFor(t, time.Second, func() bool {
		return len(f.sink.ofKind("speech_result")) == 1
	}, "no partial speech_result")

	e := f.sink.ofKind("speech_result")[0]
	if e.final {
		t.Error("partial result marked final")
	}
	if e.text != "transcribed words" || e.lang != "en" {
		t.Errorf("speech_result = %+v", e)
	}
}

func TestPartial_DebounceLatestWins(t *testing.T) {
	f := newFixture(t, nil)

	// Chunks arriving faster than the debounce keep pushing the timer out.
	for i := 0; i < 5; i++ {
		f.session.HandleAudioChunk(bytes.Repeat([]byte("a"), 32), false)
		time.Sleep(15 * time.Millisecond)
	}

	waitFor(t, time.Second, func() bool {
		return f.recognizer.calls.Load() >= 1
	}, "debounce never fired")

	time.Sleep(100 * time.Millisecond)
	if got := f.recognizer.calls.Load(); got != 1 {
		t.Errorf("recognizer calls = %d, want 1 for the whole burst", got)
	}
}

func TestPartial_LongTranscriptSeedsCoalescer(t *testing.T) {
	f := newFixture(t, nil)
	f.recognizer.text = "this is a long enough partial transcript"

	f.session.HandleAudioChunk(bytes.Repeat([]byte("a"), 128), false)

	// Queue-only feed: the turn runs only after the wait window elapses.
	waitFor(t, 2*time.Second, func() bool {
		return f.generator.callCount() == 1
	}, "queued partial never produced a turn")

	recv := f.sink.ofKind("message_received")
	if len(recv) != 1 || recv[0].text != f.recognizer.text || recv[0].source != SourceVoice {
		t.Errorf("message_received = %+v", recv)
	}
}

func TestPartial_ShortTranscriptNotFed(t *testing.T) {
	f := newFixture(t, nil)
	f.recognizer.text = "uh huh" // under the 8-char minimum after trimming

	f.session.HandleAudioChunk(bytes.Repeat([]byte("a"), 128), false)

	waitFor(t, time.Second, func() bool {
		return len(f.sink.ofKind("speech_result")) == 1
	}, "partial never emitted")

	time.Sleep(300 * time.Millisecond)
	if f.generator.callCount() != 0 {
		t.Error("short partial fed into the coalescer")
	}
}

func TestPartial_DuplicateTranscriptSuppressed(t *testing.T) {
	f := newFixture(t, nil)

	f.session.HandleAudioChunk(bytes.Repeat([]byte("a"), 128), false)
	waitFor(t, time.Second, func() bool {
		return len(f.sink.ofKind("speech_result")) == 1
	}, "first partial never emitted")

	// Same recognized text again: no second speech_result.
	f.session.HandleAudioChunk(bytes.Repeat([]byte("a"), 128), false)
	waitFor(t, time.Second, func() bool {
		return f.recognizer.calls.Load() >= 2
	}, "second partial pass never ran")

	time.Sleep(100 * time.Millisecond)
	if got := len(f.sink.ofKind("speech_result")); got != 1 {
		t.Errorf("speech_result events = %d, want 1 with unchanged text", got)
	}

	// Changed text passes the filter.
	f.recognizer.setText("transcribed words plus more")
	f.session.HandleAudioChunk(bytes.Repeat([]byte("a"), 128), false)
	waitFor(t, time.Second, func() bool {
		return len(f.sink.ofKind("speech_result")) == 2
	}, "changed partial suppressed")
}

func TestPartial_FailureSwallowed(t *testing.T) {
	f := newFixture(t, nil)
	f.recognizer.err = errIntentional

	f.session.HandleAudioChunk(bytes.Repeat([]byte("a"), 128), false)

	waitFor(t, time.Second, func() bool {
		return f.recognizer.calls.Load() >= 1
	}, "partial recognition never ran")

	time.Sleep(100 * time.Millisecond)
	if got := f.sink.ofKind("error"); len(got) != 0 {
		t.Errorf("partial failure surfaced to the client: %+v", got)
	}

	// The in-progress mark is cleared: a later pass runs again.
	f.session.HandleAudioChunk(bytes.Repeat([]byte("a"), 128), false)
	waitFor(t, time.Second, func() bool {
		return f.recognizer.calls.Load() >= 2
	}, "in-progress mark never cleared after failure")
}

var errIntentional = errTest("intentional")

type errTest string

func (e errTest) Error() string { return string(e) }
