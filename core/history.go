package core

import (
	"sync"
	"time"
)

// Role identifies the author of a history entry.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// DefaultHistorySize is the capacity of the short-term window.
const DefaultHistorySize = 15

// Message is one entry of the short-term history window.
type Message struct {
	Role    Role      `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// History is a fixed-capacity ring buffer of the most recent messages.
// The oldest entry is evicted silently once the buffer is full.
// History is safe for concurrent use.
type History struct {
	mu    sync.RWMutex
	buf   []Message
	start int
	size  int
}

// NewHistory creates a window holding at most capacity messages.
// A non-positive capacity uses DefaultHistorySize.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistorySize
	}
	return &History{buf: make([]Message, capacity)}
}

// Append adds messages in order, evicting the oldest when over capacity.
func (h *History) Append(msgs ...Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, m := range msgs {
		if m.At.IsZero() {
			m.At = time.Now()
		}
		if h.size < len(h.buf) {
			h.buf[(h.start+h.size)%len(h.buf)] = m
			h.size++
			continue
		}
		h.buf[h.start] = m
		h.start = (h.start + 1) % len(h.buf)
	}
}

// AppendExchange appends a user input and the agent reply as a pair.
func (h *History) AppendExchange(input, reply string) {
	now := time.Now()
	h.Append(
		Message{Role: RoleUser, Content: input, At: now},
		Message{Role: RoleAgent, Content: reply, At: now},
	)
}

// Messages returns a copy of the window, oldest first.
func (h *History) Messages() []Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Message, h.size)
	for i := 0; i < h.size; i++ {
		out[i] = h.buf[(h.start+i)%len(h.buf)]
	}
	return out
}

// Len returns the number of messages held.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.size
}

// Cap returns the fixed capacity.
func (h *History) Cap() int {
	return len(h.buf)
}
