package turn

import (
	"context"
	"sync"
)

// Stage identifies the pipeline step a cancellation handle belongs to.
type Stage string

const (
	StageRecognition Stage = "recognition"
	StageGeneration  Stage = "generation"
	StageSynthesis   Stage = "synthesis"
)

// InterruptController tracks a session's monotonic version counter and the
// cancellation handles of its in-flight work. A barge-in bumps the version and
// cancels every registered handle; streamed operations compare their captured
// version at each step and abandon silently once it no longer matches.
type InterruptController struct {
	mu      sync.Mutex
	version uint64
	handles map[Stage]context.CancelFunc
}

// NewInterruptController creates a controller at version 0.
func NewInterruptController() *InterruptController {
	return &InterruptController{
		handles: make(map[Stage]context.CancelFunc),
	}
}

// Capture returns the live version for later staleness comparison.
func (c *InterruptController) Capture() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

// Stale reports whether work started at captured has been superseded.
func (c *InterruptController) Stale(captured uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version != captured
}

// Register stores the cancellation handle for a stage, replacing any prior
// handle for that stage. Only the most recent call per stage needs to be
// cancellable.
func (c *InterruptController) Register(stage Stage, cancel context.CancelFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handles[stage] = cancel
}

// Unregister drops the handle for a stage without invoking it.
func (c *InterruptController) Unregister(stage Stage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.handles, stage)
}

// Interrupt bumps the version, cancels every registered handle (best-effort;
// completed handles are no-ops), and clears the set. It returns the new
// version.
func (c *InterruptController) Interrupt() uint64 {
	c.mu.Lock()
	c.version++
	v := c.version
	cancels := c.drainLocked()
	c.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	return v
}

// CancelAll cancels and clears every registered handle without bumping the
// version. Used at session teardown.
func (c *InterruptController) CancelAll() {
	c.mu.Lock()
	cancels := c.drainLocked()
	c.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}

func (c *InterruptController) drainLocked() []context.CancelFunc {
	cancels := make([]context.CancelFunc, 0, len(c.handles))
	for _, cancel := range c.handles {
		if cancel != nil {
			cancels = append(cancels, cancel)
		}
	}
	c.handles = make(map[Stage]context.CancelFunc)
	return cancels
}
