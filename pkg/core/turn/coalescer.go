package turn

import (
	"context"
	"strings"
	"sync"
	"time"
)

// TriggerMode selects how the coalescer handles a trigger.
type TriggerMode int

const (
	// TriggerNormal executes immediately when idle, queues otherwise.
	TriggerNormal TriggerMode = iota
	// TriggerQueue never executes immediately; the input is queued for the
	// end of the current (or a freshly armed) wait window.
	TriggerQueue
)

// CallCoalescer collapses rapid trigger bursts into at most one executed call
// plus at most one deferred call per wait window.
//
// When idle, a normal trigger runs the downstream call at once and opens a
// wait window. Triggers arriving inside the window replace any queued input
// (last-write-wins). When the window elapses the queued input, if any, is
// replayed as a fresh normal trigger.
type CallCoalescer struct {
	window  time.Duration
	fn      func(ctx context.Context, input string)
	onEmpty func()

	mu      sync.Mutex
	waiting bool
	pending string
	timer   *time.Timer
	closed  bool
}

// NewCallCoalescer creates a coalescer with wait window w. fn is the
// downstream call; it runs outside the coalescer's lock. onEmpty, if non-nil,
// is invoked instead of fn for whitespace-only input.
func NewCallCoalescer(w time.Duration, fn func(ctx context.Context, input string), onEmpty func()) *CallCoalescer {
	if w <= 0 {
		w = DefaultConfig().TurnWaitWindow
	}
	return &CallCoalescer{window: w, fn: fn, onEmpty: onEmpty}
}

// Trigger submits input. Whitespace-only input short-circuits to onEmpty
// before any queueing or execution.
func (c *CallCoalescer) Trigger(ctx context.Context, input string, mode TriggerMode) {
	if strings.TrimSpace(input) == "" {
		if c.onEmpty != nil {
			c.onEmpty()
		}
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	if mode == TriggerQueue {
		c.pending = input
		if !c.waiting {
			c.waiting = true
			c.armLocked()
		}
		c.mu.Unlock()
		return
	}

	if c.waiting {
		c.pending = input
		c.mu.Unlock()
		return
	}

	c.waiting = true
	c.armLocked()
	c.mu.Unlock()

	c.fn(ctx, input)
}

// Waiting reports whether a wait window is currently open.
func (c *CallCoalescer) Waiting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.waiting
}

// Close stops the window timer and drops any queued input.
func (c *CallCoalescer) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.pending = ""
	c.waiting = false
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *CallCoalescer) armLocked() {
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.window, c.fire)
}

func (c *CallCoalescer) fire() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.waiting = false
	input := c.pending
	c.pending = ""
	c.mu.Unlock()

	if input != "" {
		c.Trigger(context.Background(), input, TriggerNormal)
	}
}
