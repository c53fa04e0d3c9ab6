package turn

import (
	"sync"
	"time"
)

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one immutable conversation entry.
type Message struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// History is a bounded, ordered conversation log. Appending past the bound
// drops the oldest entries.
type History struct {
	mu   sync.Mutex
	max  int
	msgs []Message
}

// NewHistory creates a history bounded to max messages.
func NewHistory(max int) *History {
	if max <= 0 {
		max = DefaultConfig().MaxHistory
	}
	return &History{
		max:  max,
		msgs: make([]Message, 0, max),
	}
}

// Append records a message and prunes to the bound.
func (h *History) Append(role Role, text string) Message {
	msg := Message{Role: role, Text: text, CreatedAt: time.Now()}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.msgs = append(h.msgs, msg)
	if excess := len(h.msgs) - h.max; excess > 0 {
		h.msgs = append(h.msgs[:0], h.msgs[excess:]...)
	}
	return msg
}

// Snapshot returns a copy of the current messages in order.
func (h *History) Snapshot() []Message {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Message, len(h.msgs))
	copy(out, h.msgs)
	return out
}

// Len returns the current message count.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.msgs)
}
