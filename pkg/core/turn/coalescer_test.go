package turn

import (
	"context"
	"sync"
	"testing"
	"time"
)

type callRecorder struct {
	mu     sync.Mutex
	inputs []string
}

func (r *callRecorder) fn(ctx context.Context, input string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inputs = append(r.inputs, input)
}

func (r *callRecorder) calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.inputs))
	copy(out, r.inputs)
	return out
}

func TestCallCoalescer_ImmediateWhenIdle(t *testing.T) {
	rec := &callRecorder{}
	c := NewCallCoalescer(400*time.Millisecond, rec.fn, nil)
	defer c.Close()

	c.Trigger(context.Background(), "A", TriggerNormal)

	// The downstream call runs synchronously.
	if got := rec.calls(); len(got) != 1 || got[0] != "A" {
		t.Fatalf("calls = %v, want [A]", got)
	}
	if !c.Waiting() {
		t.Error("expected wait window to be open after immediate execution")
	}
}

func TestCallCoalescer_BurstCoalescesToLastWrite(t *testing.T) {
	rec := &callRecorder{}
	c := NewCallCoalescer(200*time.Millisecond, rec.fn, nil)
	defer c.Close()

	c.Trigger(context.Background(), "A", TriggerNormal)
	time.Sleep(30 * time.Millisecond)
	c.Trigger(context.Background(), "B", TriggerNormal)
	time.Sleep(30 * time.Millisecond)
	c.Trigger(context.Background(), "C", TriggerNormal)

	if got := rec.calls(); len(got) != 1 || got[0] != "A" {
		t.Fatalf("calls before window = %v, want [A]", got)
	}

	// After the window elapses, exactly one replay with the last write.
	time.Sleep(300 * time.Millisecond)
	got := rec.calls()
	if len(got) != 2 {
		t.Fatalf("calls after window = %v, want exactly 2", got)
	}
	if got[1] != "C" {
		t.Errorf("replayed input = %q, want %q (B superseded)", got[1], "C")
	}
}

func TestCallCoalescer_NoReplayWithoutPending(t *testing.T) {
	rec := &callRecorder{}
	c := NewCallCoalescer(50*time.Millisecond, rec.fn, nil)
	defer c.Close()

	c.Trigger(context.Background(), "only", TriggerNormal)
	time.Sleep(150 * time.Millisecond)

	if got := rec.calls(); len(got) != 1 {
		t.Errorf("calls = %v, want exactly 1", got)
	}
	if c.Waiting() {
		t.Error("window should be closed after expiry")
	}
}

func TestCallCoalescer_QueueOnlyDefersExecution(t *testing.T) {
	rec := &callRecorder{}
	c := NewCallCoalescer(80*time.Millisecond, rec.fn, nil)
	defer c.Close()

	c.Trigger(context.Background(), "partial one", TriggerQueue)

	if got := rec.calls(); len(got) != 0 {
		t.Fatalf("queueOnly executed immediately: %v", got)
	}
	if !c.Waiting() {
		t.Fatal("queueOnly should arm the wait window")
	}

	c.Trigger(context.Background(), "partial two", TriggerQueue)

	time.Sleep(200 * time.Millisecond)
	got := rec.calls()
	if len(got) != 1 || got[0] != "partial two" {
		t.Errorf("calls = %v, want [partial two]", got)
	}
}

func TestCallCoalescer_QueueOnlySupersededByNormal(t *testing.T) {
	rec := &callRecorder{}
	c := NewCallCoalescer(80*time.Millisecond, rec.fn, nil)
	defer c.Close()

	// Simulates a partial transcript queued, then the finalized utterance
	// arriving while the first turn's window is open.
	c.Trigger(context.Background(), "first", TriggerNormal)
	c.Trigger(context.Background(), "partial guess", TriggerQueue)
	c.Trigger(context.Background(), "final utterance", TriggerNormal)

	time.Sleep(200 * time.Millisecond)
	got := rec.calls()
	if len(got) != 2 {
		t.Fatalf("calls = %v, want 2 (no double reply)", got)
	}
	if got[1] != "final utterance" {
		t.Errorf("replayed = %q, want the finalized utterance", got[1])
	}
}

func TestCallCoalescer_EmptyInputShortCircuits(t *testing.T) {
	rec := &callRecorder{}
	empties := 0
	c := NewCallCoalescer(50*time.Millisecond, rec.fn, func() { empties++ })
	defer c.Close()

	c.Trigger(context.Background(), "   \t\n", TriggerNormal)
	c.Trigger(context.Background(), "", TriggerQueue)

	if got := rec.calls(); len(got) != 0 {
		t.Errorf("calls = %v, want none for whitespace input", got)
	}
	if empties != 2 {
		t.Errorf("onEmpty invoked %d times, want 2", empties)
	}
	if c.Waiting() {
		t.Error("whitespace input must not arm the window")
	}
}

func TestCallCoalescer_CloseStopsReplay(t *testing.T) {
	rec := &callRecorder{}
	c := NewCallCoalescer(50*time.Millisecond, rec.fn, nil)

	c.Trigger(context.Background(), "A", TriggerNormal)
	c.Trigger(context.Background(), "B", TriggerNormal)
	c.Close()

	time.Sleep(150 * time.Millisecond)
	if got := rec.calls(); len(got) != 1 {
		t.Errorf("calls = %v, want no replay after Close", got)
	}
}
