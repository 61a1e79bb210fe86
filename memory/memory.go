// Package memory implements the bounded conversation history retained per
// session. Each completed exchange contributes exactly one user and one
// assistant turn; the oldest exchanges are evicted first once the window is
// full.
package memory

import (
	"sync"

	"github.com/neilh44/cryptobot/model"
)

// Window is an append-only log of turns capped at 2x the configured number of
// exchanges. Safe for concurrent use, though callers are expected to
// serialize whole exchanges per session.
type Window struct {
	mu     sync.Mutex
	window int // retained exchanges; turn cap is 2*window
	turns  []model.Turn
}

// NewWindow creates a conversation memory retaining the given number of
// exchanges. A non-positive window falls back to 10, the service default.
func NewWindow(window int) *Window {
	if window <= 0 {
		window = 10
	}
	return &Window{window: window}
}

// AppendExchange records one completed exchange and trims the oldest turns
// until the cap holds again.
func (w *Window) AppendExchange(userText, assistantText string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.turns = append(w.turns,
		model.Turn{Role: model.RoleUser, Content: userText},
		model.Turn{Role: model.RoleAssistant, Content: assistantText},
	)

	if limit := 2 * w.window; len(w.turns) > limit {
		w.turns = append([]model.Turn(nil), w.turns[len(w.turns)-limit:]...)
	}
}

// Turns returns a snapshot of the retained turns in chronological order.
func (w *Window) Turns() []model.Turn {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]model.Turn, len(w.turns))
	copy(out, w.turns)
	return out
}

// Len returns the number of retained turns.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.turns)
}

// Reset discards the whole history.
func (w *Window) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.turns = nil
}
